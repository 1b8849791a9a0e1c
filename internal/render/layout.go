package render

import "image"

// zoomMargin is the gap between zoom slots and the image edge.
const zoomMargin = 20

// ZoomSlot describes one magnified crop placed on the output image.
type ZoomSlot struct {
	// Index is the 0-based slot number (ordinal of the accepted detection).
	Index int `json:"index"`

	// Origin is the top-left corner of the slot on the output image.
	Origin image.Point `json:"origin"`

	// Size is the side length of the square slot in pixels.
	Size int `json:"size"`

	// Item is the index into Result.Items of the detection shown.
	Item int `json:"item"`
}

// Rect returns the area covered by the slot.
func (z ZoomSlot) Rect() image.Rectangle {
	return image.Rectangle{Min: z.Origin, Max: z.Origin.Add(image.Pt(z.Size, z.Size))}
}

// SlotOrigin returns where slot index is placed on a canvas of the given
// width: a single column along the right edge, top to bottom.
func SlotOrigin(index, canvasWidth, size int) image.Point {
	return image.Pt(canvasWidth-size-zoomMargin, zoomMargin+index*(size+zoomMargin))
}

// slotFits reports whether a slot at origin lies within bounds. Slots that
// would overflow are skipped, never wrapped to another column.
func slotFits(origin image.Point, size int, bounds image.Rectangle) bool {
	r := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))}
	return r.In(bounds)
}
