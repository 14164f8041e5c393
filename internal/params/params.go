package params

import (
	"fmt"
	"sort"
	"strconv"
)

// Parameter keys as they appear in the file.
const (
	KeyMuseumCode     = "museum_code"
	KeyCollectionCode = "collection_code"
	KeyFont           = "font"
	KeyFontSize       = "font_size"
	KeyStartNumber    = "start_number"
)

// knownKeys is the order keys are written in.
var knownKeys = []string{KeyMuseumCode, KeyCollectionCode, KeyFont, KeyFontSize, KeyStartNumber}

// Config holds the persisted labeling parameters.
type Config struct {
	MuseumCode     string `json:"museum_code"`
	CollectionCode string `json:"collection_code"`
	Font           string `json:"font"`
	FontSize       int    `json:"font_size"`

	// StartNumber is the next sequence number to hand out.
	StartNumber int `json:"start_number"`

	// Extra keeps keys this version does not know about so they survive a
	// load/save round trip.
	Extra map[string]string `json:"extra,omitempty"`
}

// Defaults returns the parameters used on first run.
func Defaults() Config {
	return Config{
		MuseumCode:     "MUS",
		CollectionCode: "COL",
		Font:           "Arial Bold",
		FontSize:       20,
		StartNumber:    1,
	}
}

// IsIntKey reports whether values for key are integers.
func IsIntKey(key string) bool {
	return key == KeyFontSize || key == KeyStartNumber
}

// Get returns the string form of a parameter.
func (c Config) Get(key string) (string, bool) {
	switch key {
	case KeyMuseumCode:
		return c.MuseumCode, true
	case KeyCollectionCode:
		return c.CollectionCode, true
	case KeyFont:
		return c.Font, true
	case KeyFontSize:
		return strconv.Itoa(c.FontSize), true
	case KeyStartNumber:
		return strconv.Itoa(c.StartNumber), true
	}
	v, ok := c.Extra[key]
	return v, ok
}

// Set assigns a parameter from its string form. Integer keys must hold a
// decimal integer. Unknown keys are kept in Extra.
func (c *Config) Set(key, value string) error {
	if key == "" {
		return &ValueError{Key: key, Value: value, Reason: "empty key"}
	}
	if IsIntKey(key) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ValueError{Key: key, Value: value, Reason: "not an integer"}
		}
		if key == KeyFontSize {
			c.FontSize = n
		} else {
			c.StartNumber = n
		}
		return nil
	}

	switch key {
	case KeyMuseumCode:
		c.MuseumCode = value
	case KeyCollectionCode:
		c.CollectionCode = value
	case KeyFont:
		c.Font = value
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[key] = value
	}
	return nil
}

// Keys returns every key of c: the known keys in file order followed by
// extra keys sorted by name.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(knownKeys)+len(c.Extra))
	keys = append(keys, knownKeys...)
	extra := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// clone returns a copy of c that does not share Extra.
func (c Config) clone() Config {
	out := c
	if c.Extra != nil {
		out.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ValueError reports a parameter value that cannot be stored under its key.
type ValueError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q: %s", e.Value, e.Key, e.Reason)
}
