package ocr

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/specimen-labels/internal/placement"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MUS-COL-00001", "MUS-COL-00001"},
		{" mus - col - 00001\n", "MUS-COL-00001"},
		{"MUS–COL—00001", "MUS-COL-00001"},
		{"MUS−COL−00001", "MUS-COL-00001"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVerifyWith(t *testing.T) {
	labels := []placement.Instruction{
		{Text: "MUS-COL-00001", Rect: image.Rect(0, 0, 10, 10)},
		{Text: "MUS-COL-00002", Rect: image.Rect(10, 0, 20, 10)},
		{Text: "MUS-COL-00003", Rect: image.Rect(20, 0, 30, 10)},
	}

	read := func(img image.Image, r image.Rectangle, scale float64, language string) (*OCRResult, error) {
		if scale != regionScale {
			t.Errorf("unexpected scale %v", scale)
		}
		switch r.Min.X {
		case 0:
			return &OCRResult{FullText: "MUS-COL-00001\n", Regions: []TextRegion{{Confidence: 0.9}, {Confidence: 0.7}}}, nil
		case 10:
			return &OCRResult{FullText: "MUS-C0L-00002"}, nil
		default:
			return nil, errors.New("tesseract exploded")
		}
	}

	res := verifyWith(read, image.NewRGBA(image.Rect(0, 0, 30, 10)), labels, "eng")
	if res.Checked != 3 || res.Matched != 1 {
		t.Fatalf("checked/matched = %d/%d, want 3/1", res.Checked, res.Matched)
	}
	if !res.Labels[0].Match || res.Labels[0].Recognized != "MUS-COL-00001" {
		t.Errorf("label 1: %+v", res.Labels[0])
	}
	if c := res.Labels[0].Confidence; c < 0.79 || c > 0.81 {
		t.Errorf("label 1 confidence = %v, want 0.8", c)
	}
	if res.Labels[1].Match {
		t.Error("label 2 should not match")
	}
	if res.Labels[2].Error == "" {
		t.Error("label 3 should carry the OCR error")
	}
}

func TestExtractTextFromRegion_OutsideImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := ExtractTextFromRegion(img, image.Rect(50, 50, 60, 60), 1, "eng"); err == nil {
		t.Error("expected error for region outside the image")
	}
}

func TestExtractText_BlankImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.White)
		}
	}

	result, err := ExtractTextFromRegion(img, img.Bounds(), 1, "eng")
	if err != nil {
		// Depends on the local Tesseract install and language data.
		t.Skipf("Tesseract not available: %v", err)
	}
	if result == nil {
		t.Fatal("ExtractTextFromRegion returned nil result")
	}
}
