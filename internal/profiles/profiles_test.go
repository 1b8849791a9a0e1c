package profiles

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ironsheep/scanlab/internal/render"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	want := []string{"fruit", "helmet", "mask", "plate"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names: got %v, want %v", got, want)
	}
	if _, ok := r.Get("vehicle"); ok {
		t.Error("Get should report unknown profiles")
	}
	if got := len(r.All()); got != 4 {
		t.Errorf("All: got %d profiles, want 4", got)
	}
}

func TestFruitProfile(t *testing.T) {
	p := Fruit()

	if !p.Options.ZoomEnabled {
		t.Error("fruit profile should enable zoom")
	}
	if p.Threshold != 0.25 {
		t.Errorf("Threshold: got %v, want 0.25", p.Threshold)
	}
	if got := p.Labels.Resolve(2); got != "Apple" {
		t.Errorf("Resolve(2): got %q, want Apple", got)
	}
	if got := p.Labels.Resolve(12); got != "Fruit 12" {
		t.Errorf("Resolve(12): got %q, want %q", got, "Fruit 12")
	}
	if got := p.Styles.Lookup(2, "Apple").Color; got.R != 255 || got.G != 0 || got.B != 0 {
		t.Errorf("Apple color: got %v, want red", got)
	}
	if got := p.Styles.Lookup(7, "Watermelon").Color; got != render.DefaultColor {
		t.Errorf("Watermelon color: got %v, want default green", got)
	}
}

func TestFruitLabelsAreCopied(t *testing.T) {
	p := Fruit()
	p.Labels.Names[0] = "Plantain"
	if FruitLabels.Names[0] != "Banana" {
		t.Error("modifying a profile changed the shared fruit label table")
	}
}

func TestFruitTextIsBlack(t *testing.T) {
	p := Fruit()
	black := color.RGBA{A: 255}

	for id := 0; id <= 7; id++ {
		label := p.Labels.Resolve(id)
		if got := p.Styles.Lookup(id, label).TextColor(); got != black {
			t.Errorf("%s text: got %v, want black", label, got)
		}
	}
}

func TestKeywordStyles(t *testing.T) {
	tests := []struct {
		profile    *Profile
		label      string
		wantDanger bool
	}{
		{Helmet(), "no_helmet", true},
		{Helmet(), "helmet", false},
		{Mask(), "without_mask", true},
		{Mask(), "with_mask", false},
		{Plate(), "license_plate", false},
	}

	for _, tt := range tests {
		t.Run(tt.profile.Name+"/"+tt.label, func(t *testing.T) {
			s := tt.profile.Styles.Lookup(0, tt.label)
			if s.Danger != tt.wantDanger {
				t.Errorf("Danger: got %v, want %v", s.Danger, tt.wantDanger)
			}
		})
	}
}

func TestClampThreshold(t *testing.T) {
	p := Fruit()
	tests := []struct {
		in, want float64
	}{
		{0, 0.25},
		{0.5, 0.5},
		{0.01, MinThreshold},
		{-1, MinThreshold},
		{1.5, MaxThreshold},
		{math.NaN(), 0.25},
		{math.Inf(1), MaxThreshold},
		{math.Inf(-1), MinThreshold},
	}
	for _, tt := range tests {
		if got := p.ClampThreshold(tt.in); got != tt.want {
			t.Errorf("ClampThreshold(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMessage(t *testing.T) {
	p := Fruit()
	tests := []struct {
		n    int
		want string
	}{
		{0, "No fruits identified in this scan. Try lowering the confidence threshold."},
		{1, "Scan complete: 1 fruit identified."},
		{3, "Scan complete: 3 fruits identified."},
	}
	for _, tt := range tests {
		if got := p.Message(tt.n); got != tt.want {
			t.Errorf("Message(%d): got %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	r := Default()
	err := r.ApplyOverrides(map[string]LabelOverride{
		"fruit":  {Version: "fruit-v4", Names: map[string]string{"0": "Plantain", "8": "Kiwi"}},
		"helmet": {Names: map[string]string{"0": "hardhat", "1": "no_hardhat"}, Threshold: 0.5},
	})
	if err != nil {
		t.Fatalf("ApplyOverrides failed: %v", err)
	}

	fruit, _ := r.Get("fruit")
	if fruit.Labels.Version != "fruit-v4" {
		t.Errorf("Version: got %q, want fruit-v4", fruit.Labels.Version)
	}
	if got := fruit.Labels.Resolve(8); got != "Kiwi" {
		t.Errorf("Resolve(8): got %q, want Kiwi", got)
	}
	if got := fruit.Labels.Resolve(2); got != "Fruit 2" {
		t.Errorf("Resolve(2) after full replacement: got %q, want %q", got, "Fruit 2")
	}

	helmet, _ := r.Get("helmet")
	if !helmet.HasFixedLabels() {
		t.Error("helmet should have fixed labels after override")
	}
	if helmet.Threshold != 0.5 {
		t.Errorf("Threshold: got %v, want 0.5", helmet.Threshold)
	}
}

func TestApplyOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]LabelOverride
	}{
		{"unknown profile", map[string]LabelOverride{"vehicle": {}}},
		{"bad class id", map[string]LabelOverride{"fruit": {Names: map[string]string{"apple": "Apple"}}}},
		{"negative class id", map[string]LabelOverride{"fruit": {Names: map[string]string{"-1": "Apple"}}}},
		{"bad threshold", map[string]LabelOverride{"fruit": {Threshold: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			if err := r.ApplyOverrides(tt.overrides); err == nil {
				t.Error("ApplyOverrides should fail")
			}
			fruit, _ := r.Get("fruit")
			if fruit.Labels.Version != "fruit-v3" {
				t.Error("failed ApplyOverrides should leave profiles unchanged")
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.json")
	content := `{"fruit": {"version": "fruit-v4", "names": {"0": "Banana", "1": "Pineapple"}}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write overrides: %v", err)
	}

	overrides, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}
	if got := overrides["fruit"].Names["1"]; got != "Pineapple" {
		t.Errorf("names[1]: got %q, want Pineapple", got)
	}

	if _, err := LoadOverrides(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadOverrides should fail for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte("{"), 0o644)
	if _, err := LoadOverrides(bad); err == nil {
		t.Error("LoadOverrides should fail for invalid JSON")
	}
}
