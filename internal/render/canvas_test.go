package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/specimen-labels/internal/anchor"
	"github.com/ironsheep/specimen-labels/internal/params"
	"github.com/ironsheep/specimen-labels/internal/placement"
)

// grayImage returns a uniform mid-gray test image.
func grayImage(w, h int) *image.NRGBA {
	return imaging.New(w, h, color.NRGBA{128, 128, 128, 255})
}

func planOne(t *testing.T, c *Canvas, at anchor.Point, opts placement.Options) placement.Instruction {
	t.Helper()
	ins, err := placement.PlanLabel(0, 1, at, params.Defaults(), opts, c)
	if err != nil {
		t.Fatalf("PlanLabel failed: %v", err)
	}
	return ins
}

func TestMeasureText(t *testing.T) {
	c, err := NewCanvas(grayImage(10, 10), NewFontSet(), DefaultStyle())
	if err != nil {
		t.Fatalf("NewCanvas failed: %v", err)
	}

	w1, h1, err := c.MeasureText("MUS-COL-00001", "Arial Bold", 20)
	if err != nil {
		t.Fatalf("MeasureText failed: %v", err)
	}
	if w1 <= 0 || h1 <= 0 {
		t.Fatalf("unexpected extents %dx%d", w1, h1)
	}

	w2, h2, err := c.MeasureText("MUS-COL-00001", "Arial Bold", 40)
	if err != nil {
		t.Fatalf("MeasureText failed: %v", err)
	}
	if w2 <= w1 || h2 <= h1 {
		t.Errorf("larger size should measure larger: %dx%d vs %dx%d", w2, h2, w1, h1)
	}

	if _, _, err := c.MeasureText("x", "Arial", 0); err == nil {
		t.Error("expected error for zero font size")
	}
}

func TestPlaceLabel_DrawsRectangleAndText(t *testing.T) {
	src := grayImage(300, 120)
	c, err := NewCanvas(src, NewFontSet(), DefaultStyle())
	if err != nil {
		t.Fatalf("NewCanvas failed: %v", err)
	}

	ins := planOne(t, c, anchor.Point{X: 150, Y: 60}, placement.DefaultOptions())
	if err := c.PlaceLabel(ins); err != nil {
		t.Fatalf("PlaceLabel failed: %v", err)
	}

	out := c.Image()

	// Padding corner of the rectangle is pure background.
	corner := color.NRGBAModel.Convert(out.At(ins.Rect.Min.X+1, ins.Rect.Min.Y+1)).(color.NRGBA)
	if corner != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("rectangle corner = %v, want white", corner)
	}

	// Some text pixels are dark.
	dark := 0
	for y := ins.Rect.Min.Y; y < ins.Rect.Max.Y; y++ {
		for x := ins.Rect.Min.X; x < ins.Rect.Max.X; x++ {
			r, _, _, _ := out.At(x, y).RGBA()
			if r>>8 < 64 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("no text pixels found inside the label")
	}

	// Outside the label the photo is untouched.
	outside := color.NRGBAModel.Convert(out.At(2, 2)).(color.NRGBA)
	if outside != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("pixel outside label changed to %v", outside)
	}

	// The source image is not modified.
	if got := src.NRGBAAt(150, 60); got != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("source image modified: %v", got)
	}
}

func TestPlaceLabel_ZeroOpacityKeepsPhotoBehindText(t *testing.T) {
	c, err := NewCanvas(grayImage(300, 120), NewFontSet(), DefaultStyle())
	if err != nil {
		t.Fatalf("NewCanvas failed: %v", err)
	}
	opts := placement.DefaultOptions()
	opts.Opacity = 0
	ins := planOne(t, c, anchor.Point{X: 150, Y: 60}, opts)
	if err := c.PlaceLabel(ins); err != nil {
		t.Fatalf("PlaceLabel failed: %v", err)
	}

	corner := color.NRGBAModel.Convert(c.Image().At(ins.Rect.Min.X+1, ins.Rect.Min.Y+1)).(color.NRGBA)
	if corner != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("transparent rectangle changed the photo: %v", corner)
	}
}

func TestPlaceLabel_EmptyRect(t *testing.T) {
	c, err := NewCanvas(grayImage(10, 10), NewFontSet(), DefaultStyle())
	if err != nil {
		t.Fatalf("NewCanvas failed: %v", err)
	}
	err = c.PlaceLabel(placement.Instruction{Font: "Arial", FontSize: 12})
	if err == nil {
		t.Error("expected error for empty rectangle")
	}
}

func TestNewCanvas_Colors(t *testing.T) {
	if _, err := NewCanvas(grayImage(4, 4), NewFontSet(), Style{Background: "white"}); err == nil {
		t.Error("expected error for non-hex background")
	}
	if _, err := NewCanvas(grayImage(4, 4), NewFontSet(), Style{Background: "#000", Foreground: "auto"}); err != nil {
		t.Errorf("auto foreground failed: %v", err)
	}
}

func TestContrastColor(t *testing.T) {
	white := colorful.Color{R: 1, G: 1, B: 1}
	black := colorful.Color{}
	if got := ContrastColor(white); got != black {
		t.Errorf("ContrastColor(white) = %v, want black", got)
	}
	if got := ContrastColor(black); got != white {
		t.Errorf("ContrastColor(black) = %v, want white", got)
	}
}

func TestBuiltinFont(t *testing.T) {
	fs := NewFontSet()
	defer fs.Close()
	for _, name := range []string{"Arial Bold", "Arial", "Courier New", "Mono Bold", "Times Italic", "Sans Bold Italic"} {
		if _, err := fs.Face(name, 12); err != nil {
			t.Errorf("Face(%q) failed: %v", name, err)
		}
	}
	if _, err := fs.Face("/nonexistent/font.ttf", 12); err == nil {
		t.Error("expected error for missing font file")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := grayImage(8, 8)

	for _, name := range []string{"out.png", "out.jpg", "out.bmp"} {
		path := filepath.Join(dir, name)
		if err := Save(path, img); err != nil {
			t.Errorf("Save(%s) failed: %v", name, err)
			continue
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("Save(%s) wrote nothing", name)
		}
	}

	if err := Save(filepath.Join(dir, "out.webp"), img); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestCheckFormat(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"png", filepath.Join(dir, "out.png"), false},
		{"upper case jpeg", filepath.Join(dir, "OUT.JPEG"), false},
		{"bmp", filepath.Join(dir, "out.bmp"), false},
		{"tiff", filepath.Join(dir, "out.tiff"), true},
		{"no extension", filepath.Join(dir, "out"), true},
		{"missing directory", filepath.Join(dir, "missing", "out.png"), true},
		{"parent is a file", filepath.Join(file, "out.png"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckFormat(%s) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
