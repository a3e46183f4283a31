// Package ai wraps the pretrained trash detector.
//
// The network itself and its non-max suppression live in the backends
// (OpenCV DNN or a remote inference service); this package only fixes the
// thresholds, the output shape and the process-wide model handle.
package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"binsorter/internal/config"
	"binsorter/internal/waste"
)

var (
	// ErrModelUnavailable is returned when the model could not be loaded.
	ErrModelUnavailable = errors.New("detection model not loaded")
	// ErrBadImage is returned when image bytes cannot be decoded.
	ErrBadImage = errors.New("image could not be decoded")
)

// Detector turns an encoded image into detections above the confidence threshold.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]waste.Detection, error)
	Close() error
}

// Params are the inference parameters shared by every backend.
type Params struct {
	ConfidenceThreshold float32
	IoUThreshold        float32
	InputSize           int
}

// DefaultParams returns the thresholds the trash model was tuned with.
func DefaultParams() Params {
	return Params{
		ConfidenceThreshold: waste.ConfidenceThreshold,
		IoUThreshold:        waste.IoUThreshold,
		InputSize:           640,
	}
}

// ParamsFromConfig reads the thresholds and input size from cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		ConfidenceThreshold: float32(cfg.ConfidenceThreshold),
		IoUThreshold:        float32(cfg.IoUThreshold),
		InputSize:           cfg.InputSize,
	}
}

// Filter drops detections under the confidence threshold, keeping order.
func (p Params) Filter(dets []waste.Detection) []waste.Detection {
	filtered := make([]waste.Detection, 0, len(dets))
	for _, det := range dets {
		if float32(det.Confidence) >= p.ConfidenceThreshold {
			filtered = append(filtered, det)
		}
	}
	return filtered
}

// ReadinessChecker is implemented by backends whose availability can change
// after loading, such as a remote inference service.
type ReadinessChecker interface {
	Ready() bool
}

// Loader opens a detector backend.
type Loader func() (Detector, error)

// Shared is the process-wide cached model handle. The model is loaded once,
// on first use, and reused by every request. Calls are serialised because
// neither backend handle is safe for concurrent inference.
type Shared struct {
	load    Loader
	once    sync.Once
	mu      sync.Mutex
	det     Detector
	checker ReadinessChecker
	loadErr error
	closed  atomic.Bool
}

// NewShared wraps load; nothing is loaded until Load or Detect is called.
func NewShared(load Loader) *Shared {
	return &Shared{load: load}
}

// Load loads the model if that has not been attempted yet and reports the
// outcome of the single load attempt.
func (s *Shared) Load() error {
	s.once.Do(func() {
		det, err := s.load()
		if err != nil {
			s.loadErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			return
		}
		s.det = det
		s.checker, _ = det.(ReadinessChecker)
	})
	return s.loadErr
}

// Ready reports whether the model is loaded and, for backends that can
// tell, currently able to serve.
func (s *Shared) Ready() bool {
	if s.Load() != nil || s.closed.Load() {
		return false
	}
	if s.checker != nil {
		return s.checker.Ready()
	}
	return true
}

// Detect runs the cached detector.
func (s *Shared) Detect(ctx context.Context, image []byte) ([]waste.Detection, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.det == nil {
		return nil, ErrModelUnavailable
	}
	return s.det.Detect(ctx, image)
}

// Close releases the underlying detector, if one was loaded.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.det == nil {
		return nil
	}
	err := s.det.Close()
	s.det = nil
	s.closed.Store(true)
	return err
}
