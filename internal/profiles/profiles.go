// Package profiles defines the built-in scan profiles.
//
// A profile bundles everything that differs between the fruit, helmet, mask
// and license plate scanners: the label table, the style rules, the render
// options, the default confidence threshold and the model files to look for.
// Profiles are read-only once the registry is built and are shared by all
// requests.
package profiles

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ironsheep/scanlab/internal/render"
)

// Threshold bounds accepted from users.
const (
	MinThreshold = 0.05
	MaxThreshold = 1.0
)

// Profile describes one scanner configuration.
type Profile struct {
	// Name is the registry key ("fruit", "helmet", ...).
	Name string `json:"name"`

	// Title is a human-readable name for listings.
	Title string `json:"title"`

	// Noun and Plural name the detected things in user messages.
	Noun   string `json:"noun"`
	Plural string `json:"plural"`

	// Labels maps class IDs to display names. An empty table means the names
	// shipped with the model are used.
	Labels render.LabelTable `json:"labels"`

	Styles  render.StyleTable `json:"-"`
	Options render.Options    `json:"options"`

	// Threshold is the default confidence threshold.
	Threshold float64 `json:"threshold"`

	// ModelFiles are tried in order; the first one present is loaded.
	ModelFiles []string `json:"model_files"`

	// InputSize is the square model input edge in pixels.
	InputSize int `json:"input_size"`

	// ReadPlates enables OCR of detected regions.
	ReadPlates bool `json:"read_plates"`
}

// ClampThreshold limits a user threshold to [MinThreshold, MaxThreshold].
// Zero (unset) and NaN select the profile default.
func (p *Profile) ClampThreshold(t float64) float64 {
	if t == 0 || math.IsNaN(t) {
		t = p.Threshold
	}
	if t < MinThreshold {
		return MinThreshold
	}
	if t > MaxThreshold {
		return MaxThreshold
	}
	return t
}

// HasFixedLabels reports whether the profile overrides the model's names.
func (p *Profile) HasFixedLabels() bool {
	return len(p.Labels.Names) > 0
}

// Message returns the user-facing result line for n identified objects.
func (p *Profile) Message(n int) string {
	if n == 0 {
		return "No " + p.Plural + " identified in this scan. Try lowering the confidence threshold."
	}
	noun := p.Plural
	if n == 1 {
		noun = p.Noun
	}
	return fmt.Sprintf("Scan complete: %d %s identified.", n, noun)
}

var (
	red    = render.ClassStyle{Color: color.RGBA{R: 255, A: 255}, Danger: true}
	cyan   = render.ClassStyle{Color: color.RGBA{G: 255, B: 255, A: 255}}
	green  = render.ClassStyle{Color: render.DefaultColor}
	orange = render.ClassStyle{Color: color.RGBA{R: 255, G: 165, A: 255}}
)

// FruitLabels is the fixed fruit label table. It replaces the names stored
// in the fruit model, which were exported with dataset metadata in place of
// category names.
var FruitLabels = render.LabelTable{
	Version: "fruit-v3",
	Names: map[int]string{
		0: "Banana",
		1: "Pineapple",
		2: "Apple",
		3: "Orange",
		4: "Mango",
		5: "Grapes",
		6: "Strawberry",
		7: "Watermelon",
	},
	Placeholder: "Fruit %d",
}

// fruitStyle is a fruit class style. Fruit tags always use black text.
func fruitStyle(c color.RGBA) render.ClassStyle {
	return render.ClassStyle{Color: c, Text: color.RGBA{A: 255}}
}

// Fruit returns the fruit profile.
func Fruit() *Profile {
	opts := render.DefaultOptions()
	opts.ZoomEnabled = true
	opts.LabelFormat = render.FormatPercent
	return &Profile{
		Name:   "fruit",
		Title:  "Fruit Scanner",
		Noun:   "fruit",
		Plural: "fruits",
		Labels: copyLabels(FruitLabels),
		Styles: render.StyleTable{
			Classes: map[int]render.ClassStyle{
				0: fruitStyle(color.RGBA{G: 100, B: 255, A: 255}),
				1: fruitStyle(cyan.Color),
				2: fruitStyle(color.RGBA{R: 255, A: 255}),
				3: fruitStyle(orange.Color),
				4: fruitStyle(color.RGBA{R: 255, G: 255, A: 255}),
				5: fruitStyle(color.RGBA{R: 255, B: 255, A: 255}),
			},
			Default: fruitStyle(green.Color),
		},
		Options:    opts,
		Threshold:  0.25,
		ModelFiles: []string{"fruit_best.onnx", "yolov11n.onnx"},
		InputSize:  640,
	}
}

// Helmet returns the safety helmet profile. Labels containing "no" are
// violations.
func Helmet() *Profile {
	opts := render.DefaultOptions()
	opts.LabelFormat = render.FormatDecimal
	opts.HumanizeLabels = true
	opts.BoxThickness = 3
	return &Profile{
		Name:   "helmet",
		Title:  "Helmet Compliance",
		Noun:   "person",
		Plural: "people",
		Styles: render.StyleTable{
			Keywords: []render.KeywordStyle{{Keyword: "no", Style: red}},
			Default:  cyan,
		},
		Options:    opts,
		Threshold:  0.4,
		ModelFiles: []string{"helmet_best.onnx", "best.onnx"},
		InputSize:  640,
	}
}

// Mask returns the face mask profile.
func Mask() *Profile {
	opts := render.DefaultOptions()
	opts.LabelFormat = render.FormatDecimal
	opts.HumanizeLabels = true
	return &Profile{
		Name:   "mask",
		Title:  "Mask Detection",
		Noun:   "face",
		Plural: "faces",
		Styles: render.StyleTable{
			Keywords: []render.KeywordStyle{
				{Keyword: "without", Style: red},
				{Keyword: "no", Style: red},
			},
			Default: green,
		},
		Options:    opts,
		Threshold:  0.4,
		ModelFiles: []string{"best.onnx"},
		InputSize:  640,
	}
}

// Plate returns the license plate profile.
func Plate() *Profile {
	opts := render.DefaultOptions()
	opts.LabelFormat = render.FormatDecimal
	return &Profile{
		Name:       "plate",
		Title:      "License Plate Reader",
		Noun:       "license plate",
		Plural:     "license plates",
		Styles:     render.StyleTable{Default: green},
		Options:    opts,
		Threshold:  0.4,
		ModelFiles: []string{"license_best.onnx"},
		InputSize:  640,
		ReadPlates: true,
	}
}

func copyLabels(t render.LabelTable) render.LabelTable {
	names := make(map[int]string, len(t.Names))
	for k, v := range t.Names {
		names[k] = v
	}
	t.Names = names
	return t
}
