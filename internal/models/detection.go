// Package models holds the data passed between the detector, the renderer,
// and the upload surfaces.
package models

import "image"

// Box is an axis-aligned bounding box in source-image pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive). Detectors may report boxes that fall partly outside the
// image or whose corners are out of order; call Clamp before drawing.
type Box struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Width returns X2 - X1, which is negative for inverted boxes.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1, which is negative for inverted boxes.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Empty reports whether the box encloses no pixels.
func (b Box) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// Rect converts the box to an image.Rectangle without normalizing it.
func (b Box) Rect() image.Rectangle {
	return image.Rectangle{Min: image.Pt(b.X1, b.Y1), Max: image.Pt(b.X2, b.Y2)}
}

// Clamp limits every coordinate to the given bounds.
//
// Corners are clamped independently and never swapped, so an inverted box
// stays inverted (and Empty) after clamping.
func (b Box) Clamp(bounds image.Rectangle) Box {
	return Box{
		X1: clampInt(b.X1, bounds.Min.X, bounds.Max.X),
		Y1: clampInt(b.Y1, bounds.Min.Y, bounds.Max.Y),
		X2: clampInt(b.X2, bounds.Min.X, bounds.Max.X),
		Y2: clampInt(b.Y2, bounds.Min.Y, bounds.Max.Y),
	}
}

// Detection is one object instance reported by a detector.
type Detection struct {
	// ClassID identifies the category in the detector's ontology.
	ClassID int `json:"class_id"`

	// Confidence is the detector score, expected in [0, 1].
	Confidence float64 `json:"confidence"`

	// Box is the raw bounding box as reported by the detector.
	Box Box `json:"box"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
