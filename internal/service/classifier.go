// Package service runs the classification pipeline: detect, resolve bins,
// annotate, then hand the result to history and the live feed.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"binsorter/internal/logger"
	"binsorter/internal/render"
	"binsorter/internal/service/ai"
	"binsorter/internal/service/websocket"
	"binsorter/internal/waste"
)

var (
	// ErrEmptyImage is returned for a zero-length upload.
	ErrEmptyImage = errors.New("empty image")
	// ErrImageTooLarge is returned when an image exceeds the upload cap.
	ErrImageTooLarge = errors.New("image too large")
	// ErrUnsupportedImage is returned for content that is not a supported image format.
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Recorder stores an annotated classification and returns its filename.
type Recorder interface {
	AddClassification(imageData []byte, source string, verdict waste.Verdict) string
}

// Publisher pushes a classification to live viewers.
type Publisher interface {
	Publish(ev websocket.FeedEvent)
}

// Result is the outcome of classifying one image.
type Result struct {
	Verdict   waste.Verdict
	Annotated []byte
	Filename  string
	Elapsed   time.Duration
}

// Classifier runs the detect, resolve and annotate pipeline for one image at a time.
type Classifier struct {
	detector  ai.Detector
	params    ai.Params
	maxSize   int64
	recorder  Recorder
	publisher Publisher
	logger    *logger.Logger
}

// NewClassifier builds a classifier. recorder and publisher may be nil.
func NewClassifier(detector ai.Detector, params ai.Params, maxSize int64, recorder Recorder, publisher Publisher, logger *logger.Logger) *Classifier {
	return &Classifier{
		detector:  detector,
		params:    params,
		maxSize:   maxSize,
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
	}
}

// MaxSize returns the upload cap in bytes; zero means unlimited.
func (c *Classifier) MaxSize() int64 {
	return c.maxSize
}

// Validate checks size and sniffed content type of an encoded image.
func (c *Classifier) Validate(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}
	if c.maxSize > 0 && int64(len(data)) > c.maxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrImageTooLarge, len(data), c.maxSize)
	}
	if ct := http.DetectContentType(data); !supportedTypes[ct] {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, ct)
	}
	return nil
}

// Classify detects objects in data and resolves the bin for the most
// confident one. Nothing found and unrecognized labels are verdicts, not errors.
func (c *Classifier) Classify(ctx context.Context, data []byte, source string) (*Result, error) {
	start := time.Now()

	if err := c.Validate(data); err != nil {
		return nil, err
	}

	img, _, err := render.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrBadImage, err)
	}

	dets, err := c.detector.Detect(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	verdict := waste.Classify(c.params.Filter(dets))

	annotated, err := render.EncodeJPEG(render.Annotate(img, verdict.Items))
	if err != nil {
		c.logger.Warning("Failed to annotate image: %v", err)
		annotated = data
	}

	res := &Result{Verdict: verdict, Annotated: annotated}
	if c.recorder != nil {
		res.Filename = c.recorder.AddClassification(annotated, source, verdict)
	}
	if c.publisher != nil {
		c.publisher.Publish(feedEvent(res, source))
	}

	res.Elapsed = time.Since(start)
	c.logger.Info("[%s] %s (%d detections, %s)", source, verdict.Message, len(verdict.Items), res.Elapsed.Round(time.Millisecond))
	return res, nil
}

func feedEvent(res *Result, source string) websocket.FeedEvent {
	ev := websocket.FeedEvent{
		Filename: res.Filename,
		Source:   source,
		Status:   string(res.Verdict.Status),
		Bin:      string(res.Verdict.Bin),
		Message:  res.Verdict.Message,
		Items:    len(res.Verdict.Items),
	}
	if res.Verdict.Primary != nil {
		ev.Label = string(res.Verdict.Primary.Label)
	}
	return ev
}
