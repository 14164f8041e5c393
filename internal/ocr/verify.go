package ocr

import (
	"image"
	"strings"
	"unicode"

	"github.com/ironsheep/specimen-labels/internal/placement"
)

// regionScale enlarges label crops before OCR; Tesseract does poorly on
// text much below 30px.
const regionScale = 3.0

// LabelCheck is the outcome of reading one label back.
type LabelCheck struct {
	Expected   string  `json:"expected"`
	Recognized string  `json:"recognized"`
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// VerifyResult summarizes a verification pass.
type VerifyResult struct {
	Checked  int          `json:"checked"`
	Matched  int          `json:"matched"`
	Labels   []LabelCheck `json:"labels"`
	Language string       `json:"language"`
}

// RegionReader reads text out of a region of an image.
type RegionReader func(img image.Image, r image.Rectangle, scale float64, language string) (*OCRResult, error)

// VerifyLabels reads every label back from img and compares it with the
// expected text. OCR failures on a single label are reported in its
// LabelCheck and do not stop the pass.
func VerifyLabels(img image.Image, labels []placement.Instruction, language string) *VerifyResult {
	return verifyWith(ExtractTextFromRegion, img, labels, language)
}

func verifyWith(read RegionReader, img image.Image, labels []placement.Instruction, language string) *VerifyResult {
	res := &VerifyResult{Labels: make([]LabelCheck, 0, len(labels)), Language: language}
	for _, ins := range labels {
		check := LabelCheck{Expected: ins.Text}
		out, err := read(img, ins.Rect, regionScale, language)
		if err != nil {
			check.Error = err.Error()
		} else {
			check.Recognized = strings.TrimSpace(out.FullText)
			check.Match = Normalize(check.Recognized) == Normalize(ins.Text)
			check.Confidence = meanConfidence(out.Regions)
		}
		res.Checked++
		if check.Match {
			res.Matched++
		}
		res.Labels = append(res.Labels, check)
	}
	return res
}

// Normalize folds the differences OCR commonly introduces into label
// text: case, whitespace, and the many dash characters.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			continue
		case unicode.Is(unicode.Pd, r) || r == '−':
			b.WriteByte('-')
		default:
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func meanConfidence(regions []TextRegion) float64 {
	if len(regions) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range regions {
		sum += r.Confidence
	}
	return sum / float64(len(regions))
}
