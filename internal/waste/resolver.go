// Package waste maps detector output to the Indian waste-segregation bins.
//
// The tables are fixed at build time. Every function here is pure.
package waste

import (
	"errors"
	"fmt"
	"image"
)

const (
	// ConfidenceThreshold is the minimum detector score for a box to be reported.
	ConfidenceThreshold = 0.4
	// IoUThreshold is the overlap above which the detector suppresses duplicate boxes.
	IoUThreshold = 0.45
)

var (
	ErrNoDetection       = errors.New("no detection")
	ErrUnrecognizedLabel = errors.New("unrecognized category")
)

// Box is a bounding box in source image pixels, (X0,Y0) top-left and
// (X1,Y1) bottom-right.
type Box struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// BoxFromRect converts an image.Rectangle into a Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y}
}

// Rect returns the box as a canonical image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X0, b.Y0, b.X1, b.Y1)
}

// Detection is a single detected object.
type Detection struct {
	Label      ClassLabel `json:"label"`
	Confidence float64    `json:"confidence"`
	Box        Box        `json:"box"`
}

// Status is the outcome of classifying one image.
type Status string

const (
	StatusSorted       Status = "sorted"
	StatusNothingFound Status = "nothing_found"
	StatusUnrecognized Status = "unrecognized"
)

const nothingFoundMessage = "No trash detected. Try a clearer image."

// Item is a detection together with its own bin resolution.
type Item struct {
	Detection
	Bin         BinColor `json:"bin,omitempty"`
	Description string   `json:"description,omitempty"`
	Recognized  bool     `json:"recognized"`
}

// Verdict is the result of classifying all detections of one image.
type Verdict struct {
	Status      Status   `json:"status"`
	Primary     *Item    `json:"primary,omitempty"`
	Bin         BinColor `json:"bin,omitempty"`
	Description string   `json:"description,omitempty"`
	Message     string   `json:"message"`
	Items       []Item   `json:"items"`
}

// Resolve returns the bin for label. Labels outside the table yield an
// error wrapping ErrUnrecognizedLabel; there is no default bin.
func Resolve(label ClassLabel) (BinColor, error) {
	if bin, ok := classToBin[NormalizeLabel(string(label))]; ok {
		return bin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognizedLabel, string(label))
}

// SelectPrimary returns the detection with the highest confidence. On a
// tie the earliest detection in scan order wins.
func SelectPrimary(dets []Detection) (Detection, error) {
	if len(dets) == 0 {
		return Detection{}, ErrNoDetection
	}
	best := 0
	for i := 1; i < len(dets); i++ {
		if dets[i].Confidence > dets[best].Confidence {
			best = i
		}
	}
	return dets[best], nil
}

// Summary formats a sorted item as "<Label> (<confidence>%) → <Color> Bin".
func Summary(label ClassLabel, confidence float64, bin BinColor) string {
	return fmt.Sprintf("%s (%.1f%%) → %s Bin", NormalizeLabel(string(label)).Title(), confidence*100, bin)
}

// ResolveItem resolves a single detection into an Item.
func ResolveItem(det Detection) Item {
	item := Item{Detection: det}
	if bin, err := Resolve(det.Label); err == nil {
		item.Bin = bin
		item.Description = bin.Description()
		item.Recognized = true
	}
	return item
}

// Classify resolves every detection and picks the primary bin.
func Classify(dets []Detection) Verdict {
	v := Verdict{Items: make([]Item, 0, len(dets))}
	for _, det := range dets {
		v.Items = append(v.Items, ResolveItem(det))
	}

	primary, err := SelectPrimary(dets)
	if err != nil {
		v.Status = StatusNothingFound
		v.Message = nothingFoundMessage
		return v
	}

	item := ResolveItem(primary)
	v.Primary = &item
	if !item.Recognized {
		v.Status = StatusUnrecognized
		v.Message = fmt.Sprintf("Unrecognized category: %s", primary.Label)
		return v
	}

	v.Status = StatusSorted
	v.Bin = item.Bin
	v.Description = item.Description
	v.Message = Summary(primary.Label, primary.Confidence, item.Bin)
	return v
}
