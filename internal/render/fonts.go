package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSet resolves font names to faces and caches them.
//
// A name that points to a .ttf or .otf file is loaded from disk. Any other
// name is mapped onto the embedded Go fonts by its style words: "Arial
// Bold" becomes Go Bold, "Courier" or "Mono" selects Go Mono, and so on.
// FontSet is safe for concurrent use.
type FontSet struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	name string
	size int
}

// NewFontSet creates an empty font set.
func NewFontSet() *FontSet {
	return &FontSet{
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Face returns the face for name at size pixels.
func (fs *FontSet) Face(name string, size int) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %d", size)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := faceKey{name: name, size: size}
	if face, ok := fs.faces[key]; ok {
		return face, nil
	}

	f, err := fs.fontLocked(name)
	if err != nil {
		return nil, err
	}

	// At 72 DPI one point is one pixel.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face for %q: %w", name, err)
	}
	fs.faces[key] = face
	return face, nil
}

// Close releases every cached face.
func (fs *FontSet) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for k, face := range fs.faces {
		face.Close()
		delete(fs.faces, k)
	}
	return nil
}

func (fs *FontSet) fontLocked(name string) (*opentype.Font, error) {
	if f, ok := fs.fonts[name]; ok {
		return f, nil
	}

	var data []byte
	if isFontFile(name) {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		data = b
	} else {
		data = builtinFont(name)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %q: %w", name, err)
	}
	fs.fonts[name] = f
	return f, nil
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

// builtinFont picks the embedded Go font closest to a font name.
func builtinFont(name string) []byte {
	n := strings.ToLower(name)
	bold := strings.Contains(n, "bold") || strings.Contains(n, "heavy") || strings.Contains(n, "black")
	italic := strings.Contains(n, "italic") || strings.Contains(n, "oblique")
	mono := strings.Contains(n, "mono") || strings.Contains(n, "courier") || strings.Contains(n, "consol")

	switch {
	case mono && bold:
		return gomonobold.TTF
	case mono:
		return gomono.TTF
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}
