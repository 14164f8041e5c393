// Package label composes specimen label identifiers.
package label

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator joins the parts of a label.
const Separator = "-"

// Position is the index the custom field is inserted at.
type Position int

// Custom field positions offered to users.
const (
	BeforeMuseum Position = iota
	AfterMuseum
	AfterCollection
	AtEnd
)

// DefaultPosition places the custom field after the collection code.
const DefaultPosition = AfterCollection

// Digit limits for the zero-padded sequence number.
const (
	MinDigits     = 1
	MaxDigits     = 10
	DefaultDigits = 5
)

var positionNames = map[string]Position{
	"before_museum":    BeforeMuseum,
	"after_museum":     AfterMuseum,
	"after_collection": AfterCollection,
	"end":              AtEnd,
}

// ParsePosition accepts either a position name (before_museum,
// after_museum, after_collection, end) or its numeric index.
func ParsePosition(s string) (Position, error) {
	if p, ok := positionNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("unknown custom field position %q", s)
	}
	return Position(n), nil
}

func (p Position) String() string {
	for name, v := range positionNames {
		if v == p {
			return name
		}
	}
	return strconv.Itoa(int(p))
}

// ZeroPad left-pads the decimal form of n with zeros to digits characters.
// Longer numbers are returned as is.
func ZeroPad(n, digits int) string {
	s := strconv.Itoa(n)
	if len(s) >= digits {
		return s
	}
	return strings.Repeat("0", digits-len(s)) + s
}

// Compose builds a label such as "MUS-COL-00007".
//
// When custom is non-empty it is inserted at position, clamped to the
// range [0, number of parts]; a position past the end appends.
func Compose(number, digits int, museum, collection, custom string, position Position) string {
	parts := []string{museum, collection, ZeroPad(number, digits)}
	if custom != "" {
		parts = insertAt(parts, custom, int(position))
	}
	return strings.Join(parts, Separator)
}

// LayerName is the name given to a merged label layer. The custom field
// is not part of it.
func LayerName(number, digits int, museum, collection string) string {
	return "Label-" + strings.Join([]string{museum, collection, ZeroPad(number, digits)}, Separator)
}

func insertAt(parts []string, s string, i int) []string {
	if i < 0 {
		i = 0
	}
	if i > len(parts) {
		i = len(parts)
	}
	out := make([]string, 0, len(parts)+1)
	out = append(out, parts[:i]...)
	out = append(out, s)
	return append(out, parts[i:]...)
}
