package ocr

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Bounds is a rectangle in image coordinates.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// TextRegion is a recognized word with its location.
type TextRegion struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Bounds     Bounds  `json:"bounds"`
}

// OCRResult is the text recognized in an image or region.
type OCRResult struct {
	FullText string       `json:"full_text"`
	Regions  []TextRegion `json:"regions"`
}

// ExtractText runs OCR on an image file.
//
// If word boxes cannot be extracted the full text is still returned with
// an empty Regions slice.
func ExtractText(imagePath string, language string) (*OCRResult, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	// Labels are a single line of text.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &OCRResult{FullText: text, Regions: []TextRegion{}}, nil
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &OCRResult{FullText: text, Regions: regions}, nil
}

// ExtractTextFromRegion runs OCR on r of img, enlarged by scale. Returned
// word boxes are in the coordinates of img.
func ExtractTextFromRegion(img image.Image, r image.Rectangle, scale float64, language string) (*OCRResult, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region does not overlap the image")
	}

	cropped := imaging.Crop(img, r)
	if scale > 1 {
		cropped = imaging.Resize(cropped, int(float64(r.Dx())*scale), 0, imaging.Lanczos)
	} else {
		scale = 1
	}

	// Tesseract reads from a file path.
	tmpFile, err := os.CreateTemp("", "ocr-label-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, cropped); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to encode temp image: %w", err)
	}
	tmpFile.Close()

	result, err := ExtractText(tmpPath, language)
	if err != nil {
		return nil, err
	}

	for i := range result.Regions {
		b := &result.Regions[i].Bounds
		b.X1 = r.Min.X + int(float64(b.X1)/scale)
		b.Y1 = r.Min.Y + int(float64(b.Y1)/scale)
		b.X2 = r.Min.X + int(float64(b.X2)/scale)
		b.Y2 = r.Min.Y + int(float64(b.Y2)/scale)
	}
	return result, nil
}
