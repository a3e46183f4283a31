// Package render draws classification results onto the uploaded image.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Decoders for the accepted upload formats.
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"binsorter/internal/waste"

	"github.com/fogleman/gg"
)

const (
	lineWidth    = 3
	labelPadding = 3
	jpegQuality  = 90
)

// Decode decodes an uploaded image and returns it with its format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Annotate draws one box per item, coloured by the item's bin, with a
// "<label> <confidence>" caption above it. Unrecognized items are drawn in grey.
func Annotate(img image.Image, items []waste.Item) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(lineWidth)

	for _, item := range items {
		paint := waste.UnrecognizedPaint
		if item.Recognized {
			paint = item.Bin.Paint()
		}

		r := item.Box.Rect()
		x, y := float64(r.Min.X), float64(r.Min.Y)
		w, h := float64(r.Dx()), float64(r.Dy())

		dc.SetColor(paint)
		dc.DrawRectangle(x, y, w, h)
		dc.Stroke()

		caption := fmt.Sprintf("%s %.2f", item.Label, item.Confidence)
		tw, th := dc.MeasureString(caption)
		ty := y - th - 2*labelPadding
		if ty < 0 {
			ty = y
		}
		dc.DrawRectangle(x, ty, tw+2*labelPadding, th+2*labelPadding)
		dc.Fill()

		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(caption, x+labelPadding, ty+labelPadding, 0, 1)
	}

	return dc.Image()
}

// EncodeJPEG encodes img as a JPEG.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
