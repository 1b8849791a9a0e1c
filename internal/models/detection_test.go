package models

import (
	"image"
	"testing"
)

func TestBox_Clamp(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)

	tests := []struct {
		name string
		in   Box
		want Box
	}{
		{"inside", Box{10, 10, 50, 50}, Box{10, 10, 50, 50}},
		{"negative corner", Box{-5, -10, 20, 20}, Box{0, 0, 20, 20}},
		{"past right and bottom", Box{90, 70, 150, 120}, Box{90, 70, 100, 80}},
		{"fully outside", Box{120, 90, 200, 100}, Box{100, 80, 100, 80}},
		{"inverted stays inverted", Box{60, 10, 20, 40}, Box{60, 10, 20, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clamp(bounds)
			if got != tt.want {
				t.Errorf("Clamp(%+v): got %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBox_Empty(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		want bool
	}{
		{"normal", Box{0, 0, 10, 10}, false},
		{"zero width", Box{5, 0, 5, 10}, true},
		{"zero height", Box{0, 5, 10, 5}, true},
		{"inverted", Box{10, 10, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Empty(); got != tt.want {
				t.Errorf("Empty(): got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBox_Dimensions(t *testing.T) {
	b := Box{X1: 10, Y1: 20, X2: 40, Y2: 70}
	if b.Width() != 30 || b.Height() != 50 {
		t.Errorf("dimensions: got %dx%d, want 30x50", b.Width(), b.Height())
	}
	if r := b.Rect(); r != image.Rect(10, 20, 40, 70) {
		t.Errorf("Rect(): got %v", r)
	}
}
