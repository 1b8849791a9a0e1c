package render

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/scanlab/internal/models"
)

// LabelFormat selects how confidence is written in a label tag.
type LabelFormat int

const (
	// FormatPercent renders "Apple 87%".
	FormatPercent LabelFormat = iota
	// FormatDecimal renders "Apple 0.87".
	FormatDecimal
)

// Default option values.
const (
	DefaultZoomSlotLimit = 4
	DefaultZoomSize      = 150
	DefaultBoxThickness  = 2
)

const (
	tagPadding      = 10 // added to text width and ascent for the tag size
	tagTextInset    = 5  // text x offset inside the tag
	tagBaselineLift = 7  // text baseline distance from the tag bottom
	zoomBorder      = 3
	captionLift     = 5 // caption baseline distance above a zoom slot
)

// Options controls per-call rendering behavior.
//
// Zero values for ZoomSlotLimit, ZoomSize and BoxThickness mean the defaults.
type Options struct {
	ZoomEnabled    bool        `json:"zoom_enabled"`
	ZoomSlotLimit  int         `json:"zoom_slot_limit"`
	ZoomSize       int         `json:"zoom_size"`
	LabelFormat    LabelFormat `json:"label_format"`
	HumanizeLabels bool        `json:"humanize_labels"` // "no_helmet" is tagged as "no helmet"
	BoxThickness   int         `json:"box_thickness"`
}

// DefaultOptions returns options with zoom disabled and default sizes.
func DefaultOptions() Options {
	return Options{
		ZoomSlotLimit: DefaultZoomSlotLimit,
		ZoomSize:      DefaultZoomSize,
		BoxThickness:  DefaultBoxThickness,
	}
}

func (o Options) withDefaults() Options {
	if o.ZoomSlotLimit <= 0 {
		o.ZoomSlotLimit = DefaultZoomSlotLimit
	}
	if o.ZoomSize <= 0 {
		o.ZoomSize = DefaultZoomSize
	}
	if o.BoxThickness <= 0 {
		o.BoxThickness = DefaultBoxThickness
	}
	return o
}

// Item is one accepted detection in a Result.
type Item struct {
	// Label is the resolved class name as it appears in the summary.
	Label string `json:"label"`

	// Tag is the text drawn in the label tag.
	Tag string `json:"tag"`

	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`

	// Box is the detection box after clamping to the image.
	Box models.Box `json:"box"`

	// Drawn is false when the clamped box had zero area.
	Drawn bool `json:"drawn"`

	// Source is the index of the detection in the input slice.
	Source int `json:"source"`
}

// Result is the output of a Render call.
type Result struct {
	// Image is the annotated copy, same size as the source, origin (0,0).
	Image *image.NRGBA

	// Summary lists the labels of all accepted detections, in input order.
	Summary []string

	// Items carries the details behind each summary entry.
	Items []Item

	// Zooms lists the zoom slots that were composited.
	Zooms []ZoomSlot

	// Filtered counts detections rejected by the corruption filter.
	Filtered int

	// Degenerate counts accepted detections whose box clamped to zero area.
	Degenerate int
}

// Renderer draws detections using an injected label table and filter.
type Renderer struct {
	labels LabelTable
	filter CorruptionFilter
	log    logrus.FieldLogger
}

// NewRenderer creates a Renderer. A nil logger discards log output.
func NewRenderer(labels LabelTable, filter CorruptionFilter, log logrus.FieldLogger) *Renderer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Renderer{labels: labels, filter: filter, log: log}
}

// Labels returns the label table the renderer resolves class IDs with.
func (r *Renderer) Labels() LabelTable {
	return r.labels
}

// Render annotates a copy of src with dets.
//
// Render never fails and never modifies src. An empty detection list yields
// an unannotated copy and an empty summary. See the package documentation for
// the per-detection pipeline.
func (r *Renderer) Render(src image.Image, dets []models.Detection, styles *StyleTable, opts Options) *Result {
	opts = opts.withDefaults()

	base := imaging.Clone(src)
	canvas := imaging.Clone(base)
	bounds := canvas.Bounds()

	res := &Result{
		Image:   canvas,
		Summary: make([]string, 0, len(dets)),
		Items:   make([]Item, 0, len(dets)),
	}

	for i, det := range dets {
		label := r.labels.Resolve(det.ClassID)
		if r.filter.IsCorrupt(label) {
			res.Filtered++
			r.log.WithFields(logrus.Fields{
				"class_id":      det.ClassID,
				"label":         label,
				"label_version": r.labels.Version,
			}).Debug("Skipping detection with metadata-like label")
			continue
		}

		ordinal := len(res.Items)
		item := Item{
			Label:      label,
			Tag:        formatTag(label, det.Confidence, opts),
			ClassID:    det.ClassID,
			Confidence: det.Confidence,
			Box:        det.Box.Clamp(bounds),
			Source:     i,
		}
		res.Summary = append(res.Summary, label)

		if item.Box.Empty() {
			res.Degenerate++
			res.Items = append(res.Items, item)
			r.log.WithFields(logrus.Fields{
				"class_id": det.ClassID,
				"label":    label,
				"box":      det.Box,
			}).Warn("Dropping detection with zero-area box")
			continue
		}

		style := styles.Lookup(det.ClassID, label)
		drawDetection(canvas, item, style, opts)
		item.Drawn = true
		res.Items = append(res.Items, item)

		if opts.ZoomEnabled && ordinal < opts.ZoomSlotLimit {
			if slot, ok := r.drawZoom(canvas, base, item, ordinal, style, opts); ok {
				res.Zooms = append(res.Zooms, slot)
			}
		}
	}

	return res
}

// formatTag builds the tag text for a label and confidence.
func formatTag(label string, confidence float64, opts Options) string {
	if opts.HumanizeLabels {
		label = strings.ReplaceAll(label, "_", " ")
	}
	c := math.Max(0, math.Min(1, confidence))
	if math.IsNaN(confidence) {
		c = 0
	}
	if opts.LabelFormat == FormatDecimal {
		return fmt.Sprintf("%s %.2f", label, c)
	}
	return fmt.Sprintf("%s %d%%", label, int(math.Round(c*100)))
}

// tagRect returns the filled tag rectangle for a box and tag text.
// The tag sits on the box's top edge; its top is clamped to 0.
func tagRect(box models.Box, text string) image.Rectangle {
	tw, th := textSize(text)
	h := th + tagPadding
	top := box.Y1 - h
	if top < 0 {
		top = 0
	}
	return image.Rect(box.X1, top, box.X1+tw+tagPadding, top+h)
}

func drawDetection(canvas draw.Image, item Item, style ClassStyle, opts Options) {
	strokeRect(canvas, item.Box.Rect(), style.Color, opts.BoxThickness)

	tag := tagRect(item.Box, item.Tag)
	fillRect(canvas, tag, style.Color)
	drawText(canvas, tag.Min.X+tagTextInset, tag.Max.Y-tagBaselineLift, item.Tag, style.TextColor())
}

// drawZoom composites the magnified crop of item into slot ordinal.
// Any panic from cropping or compositing is contained to this detection.
func (r *Renderer) drawZoom(canvas *image.NRGBA, base image.Image, item Item, ordinal int, style ClassStyle, opts Options) (slot ZoomSlot, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithFields(logrus.Fields{
				"label": item.Label,
				"slot":  ordinal,
			}).Warnf("Zoom view failed: %v", rec)
			ok = false
		}
	}()

	size := opts.ZoomSize
	origin := SlotOrigin(ordinal, canvas.Bounds().Dx(), size)
	if !slotFits(origin, size, canvas.Bounds()) {
		return ZoomSlot{}, false
	}

	crop := imaging.Crop(base, item.Box.Rect())
	if crop.Bounds().Empty() {
		return ZoomSlot{}, false
	}
	zoom := imaging.Resize(crop, size, size, imaging.Linear)
	strokeRect(zoom, zoom.Bounds(), style.Color, zoomBorder)

	slot = ZoomSlot{Index: ordinal, Origin: origin, Size: size, Item: ordinal}
	draw.Draw(canvas, slot.Rect(), zoom, image.Point{}, draw.Src)

	drawText(canvas, origin.X, origin.Y-captionLift, fmt.Sprintf("SCAN #%d", ordinal+1), style.Color)
	drawLine(canvas, image.Pt(item.Box.X2, item.Box.Y1), origin, style.Color)

	return slot, true
}
