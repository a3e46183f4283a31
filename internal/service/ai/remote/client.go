// Package remote calls an external inference service over HTTP.
//
// Request: multipart POST with the image in "file" and the thresholds in
// "conf" and "iou". Response: {"detections":[{"label","confidence","box":[x0,y0,x1,y1]}]}.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"binsorter/internal/service/ai"
	"binsorter/internal/waste"
)

// healthTimeout bounds the readiness check behind /health.
const healthTimeout = 2 * time.Second

type remoteDetection struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box"`
}

type predictResponse struct {
	Detections []remoteDetection `json:"detections"`
}

// ModelAdapter is a Detector backed by a remote inference service.
type ModelAdapter struct {
	inferenceURL string
	params       ai.Params
	client       *http.Client
}

// NewModelAdapter creates an adapter for inferenceURL. A nil client uses http.DefaultClient.
func NewModelAdapter(inferenceURL string, params ai.Params, client *http.Client) *ModelAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &ModelAdapter{
		inferenceURL: inferenceURL,
		params:       params,
		client:       client,
	}
}

// Detect posts the image to the inference service.
func (m *ModelAdapter) Detect(ctx context.Context, imageData []byte) ([]waste.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(float64(m.params.ConfidenceThreshold), 'f', -1, 32)); err != nil {
		return nil, fmt.Errorf("write conf field: %w", err)
	}
	if err := writer.WriteField("iou", strconv.FormatFloat(float64(m.params.IoUThreshold), 'f', -1, 32)); err != nil {
		return nil, fmt.Errorf("write iou field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		detail := strings.TrimSpace(string(msg))
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
			return nil, fmt.Errorf("%w: inference service answered %d: %s", ai.ErrBadImage, resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, detail)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	dets := make([]waste.Detection, 0, len(result.Detections))
	for _, d := range result.Detections {
		if len(d.Box) != 4 {
			return nil, fmt.Errorf("detection %q has %d box coordinates, want 4", d.Label, len(d.Box))
		}
		dets = append(dets, waste.Detection{
			Label:      waste.NormalizeLabel(d.Label),
			Confidence: d.Confidence,
			Box: waste.Box{
				X0: int(d.Box[0]),
				Y0: int(d.Box[1]),
				X1: int(d.Box[2]),
				Y1: int(d.Box[3]),
			},
		})
	}

	// The service may apply its own, looser threshold.
	return m.params.Filter(dets), nil
}

// CheckHealth checks that the inference service answers on <url>/health.
func (m *ModelAdapter) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(m.inferenceURL, "/")+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// Ready checks the health endpoint with a short timeout.
func (m *ModelAdapter) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	return m.CheckHealth(ctx) == nil
}

// Close is a no-op; the adapter holds no resources.
func (m *ModelAdapter) Close() error {
	return nil
}
