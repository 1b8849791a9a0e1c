// Package render draws detection results onto images.
//
// A Renderer turns a list of raw detections into an annotated copy of the
// source image plus an ordered summary of the labels it accepted. It is shared
// by every scan profile; the differences between profiles (label tables,
// colors, tag formatting, zoom views) are expressed as data.
//
// # Pipeline
//
// Each detection passes through the same stages, in input order:
//
//  1. Label resolution: the class ID is looked up in the LabelTable injected
//     at construction time. Unknown IDs get a "Class {id}" placeholder.
//  2. Corruption filter: labels that look like leaked model metadata
//     ("dataset", "created on") are dropped from drawing and from the summary.
//  3. Clamping: the box is clamped to the image. A box that collapses to zero
//     area is not drawn and gets no zoom view, but its label stays in the
//     summary.
//  4. Drawing: one outline and one filled label tag per detection.
//  5. Zoom views (optional): the first ZoomSlotLimit accepted detections get
//     a magnified crop in a fixed column along the right edge of the image.
//
// # Coordinate System
//
// The output image always starts at (0,0), matching the detector's pixel grid.
// Boxes use an inclusive top-left and exclusive bottom-right corner.
//
// # Thread Safety
//
// Render never mutates the source image, the Renderer, or the StyleTable, so a
// Renderer and its style tables may be shared by concurrent requests. Each
// call allocates its own output buffer.
package render
