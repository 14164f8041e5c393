package placement

import (
	"fmt"
	"image"
	"strconv"

	"github.com/ironsheep/specimen-labels/internal/anchor"
	"github.com/ironsheep/specimen-labels/internal/label"
	"github.com/ironsheep/specimen-labels/internal/params"
)

// Limits on user-supplied options.
const (
	MinFontSize = 6
	MaxFontSize = 400
	MaxBoxSize  = 1000

	// autoPadding is added to the measured text on each axis when the
	// rectangle is auto-sized.
	autoPadding = 10
)

// Options are the per-run choices. Empty strings and zero numbers in the
// override fields mean "use the saved parameter".
type Options struct {
	// Overrides persisted to the parameter store when set.
	MuseumCode     string `json:"museum_code,omitempty"`
	CollectionCode string `json:"collection_code,omitempty"`
	Font           string `json:"font,omitempty"`
	FontSize       int    `json:"font_size,omitempty"`

	// UseSavedNumber starts from the saved start_number. When false,
	// StartNumber is used if it is a non-negative decimal integer.
	UseSavedNumber bool   `json:"use_saved_number"`
	StartNumber    string `json:"start_number,omitempty"`

	Digits              int            `json:"digits"`
	CustomField         string         `json:"custom_field,omitempty"`
	CustomFieldPosition label.Position `json:"custom_field_position"`

	// AutoSize sizes the rectangle from the text; otherwise BoxWidth and
	// BoxHeight are used.
	AutoSize  bool `json:"auto_size"`
	BoxWidth  int  `json:"box_width"`
	BoxHeight int  `json:"box_height"`

	// Opacity of the background rectangle, 0-100.
	Opacity int `json:"opacity"`

	// Source identifies the image being labeled in logs and history.
	Source string `json:"source,omitempty"`
}

// DefaultOptions returns the options a run uses when nothing is specified.
func DefaultOptions() Options {
	return Options{
		UseSavedNumber:      true,
		Digits:              label.DefaultDigits,
		CustomFieldPosition: label.DefaultPosition,
		AutoSize:            true,
		BoxWidth:            175,
		BoxHeight:           30,
		Opacity:             100,
	}
}

// Validate checks ranges of numeric options.
func (o Options) Validate() error {
	if o.Digits < label.MinDigits || o.Digits > label.MaxDigits {
		return fmt.Errorf("digits must be between %d and %d, got %d", label.MinDigits, label.MaxDigits, o.Digits)
	}
	if o.FontSize != 0 && (o.FontSize < MinFontSize || o.FontSize > MaxFontSize) {
		return fmt.Errorf("font size must be between %d and %d, got %d", MinFontSize, MaxFontSize, o.FontSize)
	}
	if o.Opacity < 0 || o.Opacity > 100 {
		return fmt.Errorf("opacity must be between 0 and 100, got %d", o.Opacity)
	}
	if !o.AutoSize {
		if o.BoxWidth < 1 || o.BoxWidth > MaxBoxSize || o.BoxHeight < 1 || o.BoxHeight > MaxBoxSize {
			return fmt.Errorf("box size must be between 1 and %d, got %dx%d", MaxBoxSize, o.BoxWidth, o.BoxHeight)
		}
	}
	return nil
}

// Override is a saved parameter replaced by a run.
type Override struct {
	Key   string
	Value string
}

// Overrides lists the non-empty override fields of o in the order they
// are persisted.
func (o Options) Overrides() []Override {
	var out []Override
	for _, kv := range []Override{
		{params.KeyMuseumCode, o.MuseumCode},
		{params.KeyCollectionCode, o.CollectionCode},
		{params.KeyFont, o.Font},
	} {
		if kv.Value != "" {
			out = append(out, kv)
		}
	}
	if o.FontSize != 0 {
		out = append(out, Override{params.KeyFontSize, strconv.Itoa(o.FontSize)})
	}
	return out
}

// Preview applies the overrides and start number of opts to cfg in memory
// and returns the resulting parameters and first number. Nothing is
// persisted.
func Preview(cfg params.Config, opts Options) (params.Config, int) {
	start := cfg.StartNumber
	if !opts.UseSavedNumber {
		if n, ok := parseStartNumber(opts.StartNumber); ok {
			start = n
		}
	}
	for _, o := range opts.Overrides() {
		// Values were range-checked by Validate; a rejected one keeps the
		// saved value, as the store does.
		_ = cfg.Set(o.Key, o.Value)
	}
	cfg.StartNumber = start
	return cfg, start
}

// parseStartNumber accepts only a non-empty string of ASCII digits.
func parseStartNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Instruction describes one label for the drawing stage.
type Instruction struct {
	// Index is the position of the anchor in traversal order.
	Index int `json:"index"`

	Number    int          `json:"number"`
	Text      string       `json:"text"`
	LayerName string       `json:"layer_name"`
	Anchor    anchor.Point `json:"anchor"`

	// Rect is the background rectangle in image coordinates.
	Rect image.Rectangle `json:"rect"`

	// TextOrigin is the top-left corner of the text box; TextSize is its
	// measured extent.
	TextOrigin image.Point `json:"text_origin"`
	TextSize   image.Point `json:"text_size"`

	Font     string `json:"font"`
	FontSize int    `json:"font_size"`
	Opacity  int    `json:"opacity"`
}

// Measurer reports the pixel extent of rendered text.
type Measurer interface {
	MeasureText(text, font string, size int) (width, height int, err error)
}

// PlanLabel computes the instruction for a single anchor.
func PlanLabel(index, number int, at anchor.Point, cfg params.Config, opts Options, m Measurer) (Instruction, error) {
	text := label.Compose(number, opts.Digits, cfg.MuseumCode, cfg.CollectionCode, opts.CustomField, opts.CustomFieldPosition)

	tw, th, err := m.MeasureText(text, cfg.Font, cfg.FontSize)
	if err != nil {
		return Instruction{}, fmt.Errorf("failed to measure %q: %w", text, err)
	}

	rw, rh := opts.BoxWidth, opts.BoxHeight
	if opts.AutoSize {
		rw, rh = tw+autoPadding, th+autoPadding
	}

	rx, ry := centered(at.X, rw), centered(at.Y, rh)
	tx, ty := centered(at.X, tw), centered(at.Y, th)

	return Instruction{
		Index:      index,
		Number:     number,
		Text:       text,
		LayerName:  label.LayerName(number, opts.Digits, cfg.MuseumCode, cfg.CollectionCode),
		Anchor:     at,
		Rect:       image.Rect(rx, ry, rx+rw, ry+rh),
		TextOrigin: image.Pt(tx, ty),
		TextSize:   image.Pt(tw, th),
		Font:       cfg.Font,
		FontSize:   cfg.FontSize,
		Opacity:    opts.Opacity,
	}, nil
}

// Plan computes instructions for every anchor, numbering from start. It
// draws nothing and persists nothing.
func Plan(anchors []anchor.Point, cfg params.Config, start int, opts Options, m Measurer) ([]Instruction, error) {
	out := make([]Instruction, 0, len(anchors))
	for i, at := range anchors {
		ins, err := PlanLabel(i, start+i, at, cfg, opts, m)
		if err != nil {
			return out, err
		}
		out = append(out, ins)
	}
	return out, nil
}

// centered returns the offset that centers an extent of size on c. The
// half size is an integer division and the result truncates toward zero.
func centered(c float64, size int) int {
	return int(c - float64(size/2))
}
