// Package opencv runs the YOLOv5 trash model through the OpenCV DNN module.
package opencv

import (
	"context"
	"fmt"
	"image"
	"os"

	"binsorter/internal/config"
	"binsorter/internal/logger"
	"binsorter/internal/service/ai"
	"binsorter/internal/waste"

	"gocv.io/x/gocv"
)

// DetectorService holds the loaded network. It is not safe for concurrent
// use; wrap it in ai.Shared.
type DetectorService struct {
	net       gocv.Net
	modelPath string
	classes   []waste.ClassLabel
	params    ai.Params
	logger    *logger.Logger
}

// NewDetectorService loads the ONNX model and the class list. The returned
// error means the model is unusable.
func NewDetectorService(config *config.Config, logger *logger.Logger) (*DetectorService, error) {
	classes, err := ai.LoadClassFile(config.ClassesPath)
	if err != nil {
		return nil, err
	}

	service := &DetectorService{
		modelPath: config.ModelPath,
		classes:   classes,
		params:    ai.ParamsFromConfig(config),
		logger:    logger,
	}

	if err := service.initializeNet(); err != nil {
		return nil, err
	}
	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNetFromONNX(s.modelPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", s.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized: %s (%d classes, conf %.2f, iou %.2f)",
		s.modelPath, len(s.classes), s.params.ConfidenceThreshold, s.params.IoUThreshold)
	return nil
}

// Detect runs the network on an encoded image and returns the boxes that
// survive the confidence threshold and non-max suppression.
func (s *DetectorService) Detect(ctx context.Context, imageBytes []byte) ([]waste.Detection, error) {
	if s.net.Empty() {
		return nil, ai.ErrModelUnavailable
	}

	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrBadImage, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", ai.ErrBadImage)
	}

	size := s.params.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Output: [1, rows, 5 + classes]
	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected network output dims %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	scaleX := float32(mat.Cols()) / float32(size)
	scaleY := float32(mat.Rows()) / float32(size)
	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())

	cands, err := ai.DecodeYOLOv5(data, dims[1], dims[2], scaleX, scaleY, bounds, s.params.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return []waste.Detection{}, nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.Box
		scores[i] = c.Score
	}
	keep := gocv.NMSBoxes(boxes, scores, s.params.ConfidenceThreshold, s.params.IoUThreshold)

	results := ai.ToDetections(cands, keep, s.classes)
	for _, det := range results {
		s.logger.Info("Detected %s (%.2f)", det.Label, det.Confidence)
	}
	return results, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	return s.net.Close()
}
