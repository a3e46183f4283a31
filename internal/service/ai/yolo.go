package ai

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strings"

	"binsorter/internal/waste"
)

// Candidate is a decoded, not yet suppressed, YOLO box.
type Candidate struct {
	ClassID int
	Score   float32
	Box     image.Rectangle
}

// DecodeYOLOv5 decodes a YOLOv5 detection head of shape [1, rows, stride],
// stride = 5 + number of classes. Each row is cx, cy, w, h, objectness and
// the per-class scores, in network input pixels. Boxes are scaled by
// (scaleX, scaleY) back to source pixels and clipped to the source bounds.
// Rows whose objectness × best class score is under confThreshold are dropped.
func DecodeYOLOv5(data []float32, rows, stride int, scaleX, scaleY float32, bounds image.Rectangle, confThreshold float32) ([]Candidate, error) {
	if stride < 6 {
		return nil, fmt.Errorf("unexpected YOLO output stride %d", stride)
	}
	if len(data) < rows*stride {
		return nil, fmt.Errorf("YOLO output too short: %d values for %dx%d", len(data), rows, stride)
	}

	var cands []Candidate
	for i := 0; i < rows; i++ {
		row := data[i*stride : (i+1)*stride]
		objectness := row[4]
		if objectness < confThreshold {
			continue
		}

		classID := -1
		best := float32(0)
		for c, s := range row[5:] {
			if s > best {
				best = s
				classID = c
			}
		}
		score := objectness * best
		if classID < 0 || score < confThreshold {
			continue
		}

		cx, cy, w, h := row[0], row[1], row[2], row[3]
		r := image.Rect(
			int((cx-w/2)*scaleX),
			int((cy-h/2)*scaleY),
			int((cx+w/2)*scaleX),
			int((cy+h/2)*scaleY),
		).Intersect(bounds)
		if r.Empty() {
			continue
		}

		cands = append(cands, Candidate{ClassID: classID, Score: score, Box: r})
	}
	return cands, nil
}

// ToDetections converts kept candidates into detections using the class list.
// A class id outside the list becomes a "class<N>" label, which the resolver
// then reports as unrecognized.
func ToDetections(cands []Candidate, keep []int, classes []waste.ClassLabel) []waste.Detection {
	dets := make([]waste.Detection, 0, len(keep))
	for _, idx := range keep {
		c := cands[idx]
		label := waste.ClassLabel(fmt.Sprintf("class%d", c.ClassID))
		if c.ClassID >= 0 && c.ClassID < len(classes) {
			label = classes[c.ClassID]
		}
		dets = append(dets, waste.Detection{
			Label:      label,
			Confidence: float64(c.Score),
			Box:        waste.BoxFromRect(c.Box),
		})
	}
	return dets
}

// LoadClassFile loads a text file with one class label per line. An empty
// path returns the built-in vocabulary.
func LoadClassFile(filename string) ([]waste.ClassLabel, error) {
	if filename == "" {
		return waste.Vocabulary(), nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open classes file: %w", err)
	}
	defer f.Close()

	var classes []waste.ClassLabel
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			classes = append(classes, waste.NormalizeLabel(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read classes file: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("classes file %s is empty", filename)
	}
	return classes, nil
}
