package ai

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"binsorter/internal/waste"

	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	dets   []waste.Detection
	calls  int
	closed bool
}

func (f *fakeDetector) Detect(ctx context.Context, img []byte) ([]waste.Detection, error) {
	f.calls++
	return f.dets, nil
}

func (f *fakeDetector) Close() error {
	f.closed = true
	return nil
}

func TestSharedLoadsOnce(t *testing.T) {
	loads := 0
	fake := &fakeDetector{dets: []waste.Detection{{Label: waste.LabelPaper, Confidence: 0.8}}}
	shared := NewShared(func() (Detector, error) {
		loads++
		return fake, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dets, err := shared.Detect(context.Background(), []byte("img"))
			require.NoError(t, err)
			require.Len(t, dets, 1)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, loads)
	require.Equal(t, 8, fake.calls)
	require.True(t, shared.Ready())

	require.NoError(t, shared.Close())
	require.True(t, fake.closed)
	require.False(t, shared.Ready())
}

func TestSharedLoadFailure(t *testing.T) {
	loads := 0
	shared := NewShared(func() (Detector, error) {
		loads++
		return nil, errors.New("best.onnx not found")
	})

	_, err := shared.Detect(context.Background(), []byte("img"))
	require.ErrorIs(t, err, ErrModelUnavailable)
	_, err = shared.Detect(context.Background(), []byte("img"))
	require.ErrorIs(t, err, ErrModelUnavailable)
	require.Equal(t, 1, loads)
	require.False(t, shared.Ready())
}

func TestSharedCancelledContext(t *testing.T) {
	fake := &fakeDetector{}
	shared := NewShared(func() (Detector, error) { return fake, nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := shared.Detect(ctx, []byte("img"))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, fake.calls)
}

func TestParamsFilter(t *testing.T) {
	p := DefaultParams()
	dets := p.Filter([]waste.Detection{
		{Label: waste.LabelPaper, Confidence: 0.39},
		{Label: waste.LabelGlass, Confidence: 0.4},
		{Label: waste.LabelMetal, Confidence: 0.9},
	})
	require.Len(t, dets, 2)
	require.Equal(t, waste.LabelGlass, dets[0].Label)
	require.Equal(t, waste.LabelMetal, dets[1].Label)
}

func yoloRow(cx, cy, w, h, obj float32, scores ...float32) []float32 {
	return append([]float32{cx, cy, w, h, obj}, scores...)
}

func TestDecodeYOLOv5(t *testing.T) {
	// three classes, input 100x100, source 200x100
	var data []float32
	data = append(data, yoloRow(50, 50, 20, 20, 0.9, 0.1, 0.8, 0.1)...)  // class 1, score 0.72
	data = append(data, yoloRow(10, 10, 10, 10, 0.3, 0.9, 0.0, 0.0)...)  // objectness too low
	data = append(data, yoloRow(80, 20, 10, 10, 0.9, 0.3, 0.3, 0.35)...) // 0.315 too low
	data = append(data, yoloRow(95, 95, 20, 20, 1.0, 0.0, 0.0, 0.6)...)  // clipped at the corner

	bounds := image.Rect(0, 0, 200, 100)
	cands, err := DecodeYOLOv5(data, 4, 8, 2, 1, bounds, 0.4)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	require.Equal(t, 1, cands[0].ClassID)
	require.InDelta(t, 0.72, cands[0].Score, 1e-6)
	require.Equal(t, image.Rect(80, 40, 120, 60), cands[0].Box)

	require.Equal(t, 2, cands[1].ClassID)
	require.Equal(t, image.Rect(170, 85, 200, 100), cands[1].Box)
}

func TestDecodeYOLOv5BadShape(t *testing.T) {
	_, err := DecodeYOLOv5(make([]float32, 10), 2, 8, 1, 1, image.Rect(0, 0, 1, 1), 0.4)
	require.Error(t, err)
	_, err = DecodeYOLOv5(nil, 0, 4, 1, 1, image.Rect(0, 0, 1, 1), 0.4)
	require.Error(t, err)
}

func TestToDetections(t *testing.T) {
	cands := []Candidate{
		{ClassID: 4, Score: 0.95, Box: image.Rect(1, 2, 3, 4)},
		{ClassID: 3, Score: 0.9, Box: image.Rect(5, 6, 7, 8)},
		{ClassID: 42, Score: 0.5, Box: image.Rect(0, 0, 1, 1)},
	}
	dets := ToDetections(cands, []int{1, 0, 2}, waste.Vocabulary())
	require.Len(t, dets, 3)
	require.Equal(t, waste.LabelBattery, dets[0].Label)
	require.Equal(t, waste.LabelPlastic, dets[1].Label)
	require.Equal(t, waste.Box{X0: 1, Y0: 2, X1: 3, Y1: 4}, dets[1].Box)
	require.Equal(t, waste.ClassLabel("class42"), dets[2].Label)
}

func TestLoadClassFile(t *testing.T) {
	classes, err := LoadClassFile("")
	require.NoError(t, err)
	require.Equal(t, waste.Vocabulary(), classes)

	path := filepath.Join(t.TempDir(), "classes.txt")
	require.NoError(t, os.WriteFile(path, []byte("# retrained\nPlastic\n\n metal \nbattery\n"), 0644))
	classes, err = LoadClassFile(path)
	require.NoError(t, err)
	require.Equal(t, []waste.ClassLabel{waste.LabelPlastic, waste.LabelMetal, waste.LabelBattery}, classes)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = LoadClassFile(empty)
	require.Error(t, err)
}
