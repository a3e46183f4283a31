package waste

import "image/color"

// BinColor is one of the five Swachh Bharat segregation bins.
type BinColor string

const (
	BinGreen  BinColor = "Green"
	BinBlue   BinColor = "Blue"
	BinYellow BinColor = "Yellow"
	BinRed    BinColor = "Red"
	BinBlack  BinColor = "Black"
)

// bins lists every bin in guide order.
var bins = [...]BinColor{BinGreen, BinBlue, BinYellow, BinRed, BinBlack}

var binDescriptions = map[BinColor]string{
	BinGreen:  "Wet Waste (Kitchen waste, food, etc.)",
	BinBlue:   "Dry Waste (Paper, plastic, cardboard, metal, glass)",
	BinYellow: "Reusable/Donatable (Clothes, shoes, toys)",
	BinRed:    "Hazardous Waste (Batteries, chemicals, medicines)",
	BinBlack:  "Non-recyclable / Reject Waste",
}

// Colors used when drawing a box for an item that goes into the bin.
var binPaint = map[BinColor]color.RGBA{
	BinGreen:  {R: 46, G: 160, B: 67, A: 255},
	BinBlue:   {R: 31, G: 111, B: 235, A: 255},
	BinYellow: {R: 230, G: 190, B: 0, A: 255},
	BinRed:    {R: 218, G: 54, B: 51, A: 255},
	BinBlack:  {R: 30, G: 30, B: 30, A: 255},
}

// UnrecognizedPaint is the box colour for labels outside the table.
var UnrecognizedPaint = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// Bins returns the five bins in guide order.
func Bins() []BinColor {
	out := make([]BinColor, len(bins))
	copy(out, bins[:])
	return out
}

// Valid reports whether b is one of the five defined bins.
func (b BinColor) Valid() bool {
	_, ok := binDescriptions[b]
	return ok
}

// Description returns the human-readable description of the bin, or "" for
// an invalid bin.
func (b BinColor) Description() string {
	return binDescriptions[b]
}

// Paint returns the RGBA colour used to annotate items going into the bin.
func (b BinColor) Paint() color.RGBA {
	if c, ok := binPaint[b]; ok {
		return c
	}
	return UnrecognizedPaint
}

// GuideEntry describes one bin for the colour guide.
type GuideEntry struct {
	Bin         BinColor     `json:"bin"`
	Description string       `json:"description"`
	Labels      []ClassLabel `json:"labels"`
}

// Guide returns the bin colour guide: each bin with its description and the
// vocabulary labels that map to it, labels in vocabulary order.
func Guide() []GuideEntry {
	guide := make([]GuideEntry, 0, len(bins))
	for _, b := range bins {
		entry := GuideEntry{Bin: b, Description: b.Description(), Labels: []ClassLabel{}}
		for _, label := range vocabulary {
			if classToBin[label] == b {
				entry.Labels = append(entry.Labels, label)
			}
		}
		guide = append(guide, entry)
	}
	return guide
}
