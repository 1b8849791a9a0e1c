package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// DefaultColor is used for classes without an explicit style.
	DefaultColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// ClassStyle is the visual style of one class.
type ClassStyle struct {
	// Color is used for the box outline, the tag fill, and the zoom border.
	Color color.RGBA

	// Danger marks classes that represent a violation (e.g. "no helmet").
	// Danger tags always use white text.
	Danger bool

	// Text fixes the tag text color. The zero value picks it automatically.
	Text color.RGBA
}

// TextColor returns the tag text color for this style.
//
// Safe styles without a fixed Text pick black or white by the CIE L*
// lightness of the fill.
func (s ClassStyle) TextColor() color.RGBA {
	if s.Danger {
		return white
	}
	if s.Text.A != 0 {
		return s.Text
	}
	c, ok := colorful.MakeColor(s.Color)
	if !ok {
		return black
	}
	l, _, _ := c.Lab()
	if l > 0.5 {
		return black
	}
	return white
}

// StyleFromHex builds a ClassStyle from a "#RRGGBB" string.
func StyleFromHex(hex string, danger bool) (ClassStyle, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return ClassStyle{}, fmt.Errorf("invalid style color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return ClassStyle{Color: color.RGBA{R: r, G: g, B: b, A: 255}, Danger: danger}, nil
}

// MustStyle is like StyleFromHex but panics on an invalid color. It is meant
// for package-level style tables.
func MustStyle(hex string, danger bool) ClassStyle {
	s, err := StyleFromHex(hex, danger)
	if err != nil {
		panic(err)
	}
	return s
}

// KeywordStyle applies a style to every label containing Keyword.
type KeywordStyle struct {
	Keyword string
	Style   ClassStyle
}

// StyleTable resolves the style of a detection.
//
// Lookup order: explicit class ID, then the first keyword contained in the
// label (case-insensitive), then Default. A StyleTable is read-only after
// construction and may be shared by concurrent renders.
type StyleTable struct {
	Classes  map[int]ClassStyle
	Keywords []KeywordStyle
	Default  ClassStyle
}

// Lookup returns the style for a class ID and its resolved label.
func (t *StyleTable) Lookup(classID int, label string) ClassStyle {
	if t == nil {
		return ClassStyle{Color: DefaultColor}
	}
	if s, ok := t.Classes[classID]; ok {
		return s
	}
	lower := strings.ToLower(label)
	for _, k := range t.Keywords {
		if k.Keyword != "" && strings.Contains(lower, strings.ToLower(k.Keyword)) {
			return k.Style
		}
	}
	if t.Default.Color == (color.RGBA{}) {
		return ClassStyle{Color: DefaultColor, Danger: t.Default.Danger}
	}
	return t.Default
}
