// Package render draws specimen labels onto raster images.
//
// A Canvas wraps a copy of the source photograph. Each label is built as
// its own layer (a filled rectangle at the requested opacity with the
// label text drawn on top, clipped to the rectangle) and then merged down
// onto the photograph.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/specimen-labels/internal/placement"
)

// AutoColor selects black or white text depending on the background.
const AutoColor = "auto"

// Style holds the label colors as hex strings ("#RRGGBB" or "#RGB").
type Style struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// DefaultStyle is black text on a white rectangle.
func DefaultStyle() Style {
	return Style{Background: "#FFFFFF", Foreground: "#000000"}
}

// Canvas draws labels onto a private copy of an image.
type Canvas struct {
	img   *image.NRGBA
	fonts *FontSet
	bg    color.NRGBA
	fg    color.NRGBA
}

var _ placement.Canvas = (*Canvas)(nil)

// NewCanvas copies src and prepares it for drawing with the given style.
func NewCanvas(src image.Image, fonts *FontSet, style Style) (*Canvas, error) {
	if style.Background == "" {
		style.Background = DefaultStyle().Background
	}
	if style.Foreground == "" {
		style.Foreground = DefaultStyle().Foreground
	}

	bg, err := colorful.Hex(style.Background)
	if err != nil {
		return nil, fmt.Errorf("invalid background color %q: %w", style.Background, err)
	}

	var fg colorful.Color
	if strings.EqualFold(style.Foreground, AutoColor) {
		fg = ContrastColor(bg)
	} else {
		fg, err = colorful.Hex(style.Foreground)
		if err != nil {
			return nil, fmt.Errorf("invalid foreground color %q: %w", style.Foreground, err)
		}
	}

	return &Canvas{
		img:   imaging.Clone(src),
		fonts: fonts,
		bg:    toNRGBA(bg, 255),
		fg:    toNRGBA(fg, 255),
	}, nil
}

// ContrastColor returns black for light backgrounds and white for dark ones.
func ContrastColor(bg colorful.Color) colorful.Color {
	l, _, _ := bg.Lab()
	if l > 0.5 {
		return colorful.Color{R: 0, G: 0, B: 0}
	}
	return colorful.Color{R: 1, G: 1, B: 1}
}

func toNRGBA(c colorful.Color, alpha uint8) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}

// MeasureText returns the width and height of text rendered in the named
// font at size pixels. The height spans ascent plus descent.
func (c *Canvas) MeasureText(text, fontName string, size int) (int, int, error) {
	face, err := c.fonts.Face(fontName, size)
	if err != nil {
		return 0, 0, err
	}
	m := face.Metrics()
	return font.MeasureString(face, text).Ceil(), (m.Ascent + m.Descent).Ceil(), nil
}

// PlaceLabel draws one label and merges it onto the image.
func (c *Canvas) PlaceLabel(ins placement.Instruction) error {
	if ins.Rect.Empty() {
		return fmt.Errorf("label %s has an empty rectangle", ins.LayerName)
	}
	face, err := c.fonts.Face(ins.Font, ins.FontSize)
	if err != nil {
		return err
	}

	size := ins.Rect.Size()
	layer := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))

	bg := c.bg
	bg.A = uint8(ins.Opacity * 255 / 100)
	draw.Draw(layer, layer.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// Text is positioned relative to the rectangle and clipped to it.
	ascent := face.Metrics().Ascent
	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(c.fg),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(ins.TextOrigin.X - ins.Rect.Min.X),
			Y: fixed.I(ins.TextOrigin.Y-ins.Rect.Min.Y) + ascent,
		},
	}
	d.DrawString(ins.Text)

	draw.Draw(c.img, ins.Rect, layer, image.Point{}, draw.Over)
	return nil
}

// Image returns the labeled image.
func (c *Canvas) Image() image.Image {
	return c.img
}

// CheckFormat reports whether Save can write path: the extension must
// name a supported format and the directory must exist.
func CheckFormat(path string) error {
	if _, err := encoder(path); err != nil {
		return err
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", filepath.Dir(path))
	}
	return nil
}

func encoder(path string) (imgio.Encoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imgio.PNGEncoder(), nil
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(95), nil
	case ".bmp":
		return imgio.BMPEncoder(), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", filepath.Ext(path))
}

// Save writes img to path, picking the encoder from the file extension.
func Save(path string, img image.Image) error {
	enc, err := encoder(path)
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
