package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult is a PNG excerpt of an image.
type CropResult struct {
	X1          int    `json:"x1"`
	Y1          int    `json:"y1"`
	X2          int    `json:"x2"`
	Y2          int    `json:"y2"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts r from img, scales it, and encodes it as base64 PNG.
// r must lie inside the image.
func Crop(img image.Image, r image.Rectangle, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return encode(imaging.Crop(img, r), r, scale)
}

// CropAround extracts r grown by margin on every side, clipped to the
// image. Labels near the border only partly overlap the photo, so unlike
// Crop this never fails for regions that stick out.
func CropAround(img image.Image, r image.Rectangle, margin int, scale float64) (*CropResult, error) {
	grown := r.Inset(-margin).Intersect(img.Bounds())
	if grown.Empty() {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) does not overlap the image",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
	}
	return encode(imaging.Crop(img, grown), grown, scale)
}

func encode(cropped *image.NRGBA, r image.Rectangle, scale float64) (*CropResult, error) {
	var out image.Image = cropped
	if scale != 1.0 && scale > 0 {
		w := int(float64(cropped.Bounds().Dx()) * scale)
		h := int(float64(cropped.Bounds().Dy()) * scale)
		out = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		X1:          r.Min.X,
		Y1:          r.Min.Y,
		X2:          r.Max.X,
		Y2:          r.Max.Y,
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
