package waste

import "strings"

// ClassLabel is one of the detector's output classes.
type ClassLabel string

const (
	LabelClothes    ClassLabel = "clothes"
	LabelPaper      ClassLabel = "paper"
	LabelGlass      ClassLabel = "glass"
	LabelBattery    ClassLabel = "battery"
	LabelPlastic    ClassLabel = "plastic"
	LabelShoes      ClassLabel = "shoes"
	LabelTrash      ClassLabel = "trash"
	LabelCardboard  ClassLabel = "cardboard"
	LabelBiological ClassLabel = "biological"
	LabelMetal      ClassLabel = "metal"
)

// vocabulary is in model output order: index i is class id i of best.onnx.
var vocabulary = [...]ClassLabel{
	LabelClothes,
	LabelPaper,
	LabelGlass,
	LabelBattery,
	LabelPlastic,
	LabelShoes,
	LabelTrash,
	LabelCardboard,
	LabelBiological,
	LabelMetal,
}

var classToBin = map[ClassLabel]BinColor{
	LabelClothes:    BinYellow,
	LabelPaper:      BinBlue,
	LabelGlass:      BinBlue,
	LabelBattery:    BinRed,
	LabelPlastic:    BinBlue,
	LabelShoes:      BinYellow,
	LabelTrash:      BinBlack,
	LabelCardboard:  BinBlue,
	LabelBiological: BinGreen,
	LabelMetal:      BinBlue,
}

// Vocabulary returns the detector's class labels in model output order.
func Vocabulary() []ClassLabel {
	out := make([]ClassLabel, len(vocabulary))
	copy(out, vocabulary[:])
	return out
}

// NormalizeLabel trims and lower-cases a raw detector label.
func NormalizeLabel(raw string) ClassLabel {
	return ClassLabel(strings.ToLower(strings.TrimSpace(raw)))
}

// Title returns the label with its first letter upper-cased, eg "Plastic".
func (l ClassLabel) Title() string {
	s := string(l)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
