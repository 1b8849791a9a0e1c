// Package scan ties a profile, a detector and the renderer into one scan.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/scanlab/internal/detector"
	"github.com/ironsheep/scanlab/internal/models"
	"github.com/ironsheep/scanlab/internal/profiles"
	"github.com/ironsheep/scanlab/internal/render"
)

// ErrUnknownProfile is returned for profile names missing from the registry.
var ErrUnknownProfile = errors.New("unknown profile")

// ErrNoDetector is returned when a profile has no detector configured.
var ErrNoDetector = errors.New("no detector configured")

// PlateReader reads text inside a region. *ocr.PlateReader implements it.
type PlateReader interface {
	Read(ctx context.Context, img image.Image, box models.Box) (string, error)
}

// Request is one scan.
type Request struct {
	Profile string
	Image   image.Image

	// Threshold is the confidence threshold; zero uses the profile default.
	// Values are clamped to the accepted range.
	Threshold float64

	// Zoom overrides the profile's zoom setting when non-nil.
	Zoom *bool
}

// Finding is one identified object in a report.
type Finding struct {
	render.Item

	// Plate is the text read from the region, for profiles that read plates.
	Plate string `json:"plate,omitempty"`
}

// Report is the result of a scan.
type Report struct {
	ID           uuid.UUID         `json:"id"`
	Profile      string            `json:"profile"`
	LabelVersion string            `json:"label_version,omitempty"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Threshold    float64           `json:"threshold"`
	Summary      []string          `json:"summary"`
	Items        []Finding         `json:"items"`
	Zooms        []render.ZoomSlot `json:"zooms"`
	Found        bool              `json:"found"`
	Message      string            `json:"message"`
	Filtered     int               `json:"filtered"`
	Degenerate   int               `json:"degenerate"`
	CreatedAt    time.Time         `json:"created_at"`
	Duration     time.Duration     `json:"duration_ns"`

	// Image is the annotated image, or the unannotated copy when nothing
	// was found.
	Image image.Image `json:"-"`
}

// Config configures a Service.
type Config struct {
	Profiles *profiles.Registry

	// Detectors maps profile names to detectors.
	Detectors map[string]detector.Detector

	// Plates reads plate text for profiles with ReadPlates set. Optional.
	Plates PlateReader

	// Filter rejects corrupted labels; nil Sentinels selects the default.
	Filter render.CorruptionFilter

	Log logrus.FieldLogger
}

// Service runs scans. It is safe for concurrent use.
type Service struct {
	profiles  *profiles.Registry
	detectors map[string]detector.Detector
	plates    PlateReader
	filter    render.CorruptionFilter
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	filter := cfg.Filter
	if filter.Sentinels == nil {
		filter = render.DefaultCorruptionFilter()
	}
	reg := cfg.Profiles
	if reg == nil {
		reg = profiles.Default()
	}
	return &Service{
		profiles:  reg,
		detectors: cfg.Detectors,
		plates:    cfg.Plates,
		filter:    filter,
		log:       log,
		now:       time.Now,
	}
}

// Profiles returns the registry the service resolves profiles from.
func (s *Service) Profiles() *profiles.Registry {
	return s.profiles
}

// Scan detects objects in req.Image and renders the result.
func (s *Service) Scan(ctx context.Context, req Request) (*Report, error) {
	p, ok := s.profiles.Get(req.Profile)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, req.Profile)
	}
	det, ok := s.detectors[p.Name]
	if !ok || det == nil {
		return nil, fmt.Errorf("%w for profile %s", ErrNoDetector, p.Name)
	}

	start := s.now()
	threshold := p.ClampThreshold(req.Threshold)

	dets, err := det.Detect(ctx, req.Image, threshold)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	labels := s.labelsFor(p, det)
	return s.build(ctx, p, labels, req, threshold, dets, start), nil
}

// Render draws caller-supplied detections with a profile's labels and
// styles, without running a model. Detections below the threshold are
// ignored.
func (s *Service) Render(ctx context.Context, req Request, dets []models.Detection) (*Report, error) {
	p, ok := s.profiles.Get(req.Profile)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, req.Profile)
	}
	start := s.now()
	threshold := p.ClampThreshold(req.Threshold)

	kept := make([]models.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= threshold {
			kept = append(kept, d)
		}
	}

	labels := p.Labels
	if det, ok := s.detectors[p.Name]; ok && !p.HasFixedLabels() {
		labels = s.labelsFor(p, det)
	}
	return s.build(ctx, p, labels, req, threshold, kept, start), nil
}

// labelsFor returns the profile's fixed labels, or the class names the
// detector reports when the profile has none.
func (s *Service) labelsFor(p *profiles.Profile, det detector.Detector) render.LabelTable {
	if p.HasFixedLabels() {
		return p.Labels
	}
	namer, ok := det.(detector.ClassNamer)
	if !ok {
		return p.Labels
	}
	names, err := namer.ClassNames()
	if err != nil {
		s.log.WithError(err).WithField("profile", p.Name).Warn("Model class names unavailable")
		return p.Labels
	}
	table := render.LabelTable{
		Version:     p.Name + "-model",
		Names:       make(map[int]string, len(names)),
		Placeholder: p.Labels.Placeholder,
	}
	for i, n := range names {
		table.Names[i] = n
	}
	return table
}

func (s *Service) build(ctx context.Context, p *profiles.Profile, labels render.LabelTable, req Request, threshold float64, dets []models.Detection, start time.Time) *Report {
	opts := p.Options
	if req.Zoom != nil {
		opts.ZoomEnabled = *req.Zoom
	}

	r := render.NewRenderer(labels, s.filter, s.log.WithField("profile", p.Name))
	res := r.Render(req.Image, dets, &p.Styles, opts)

	rep := &Report{
		ID:           uuid.New(),
		Profile:      p.Name,
		LabelVersion: labels.Version,
		Width:        res.Image.Bounds().Dx(),
		Height:       res.Image.Bounds().Dy(),
		Threshold:    threshold,
		Summary:      res.Summary,
		Items:        make([]Finding, len(res.Items)),
		Zooms:        res.Zooms,
		Found:        len(res.Summary) > 0,
		Message:      p.Message(len(res.Summary)),
		Filtered:     res.Filtered,
		Degenerate:   res.Degenerate,
		CreatedAt:    start,
		Image:        res.Image,
	}
	for i, item := range res.Items {
		rep.Items[i] = Finding{Item: item}
	}

	if p.ReadPlates && s.plates != nil {
		s.readPlates(ctx, req.Image, rep)
	}

	rep.Duration = s.now().Sub(start)
	s.log.WithFields(logrus.Fields{
		"scan_id":    rep.ID,
		"profile":    p.Name,
		"found":      len(rep.Summary),
		"filtered":   rep.Filtered,
		"degenerate": rep.Degenerate,
		"duration":   rep.Duration,
	}).Info("Scan finished")
	return rep
}

// readPlates fills in plate text for every drawn finding. Failures are
// logged and leave the text empty.
func (s *Service) readPlates(ctx context.Context, src image.Image, rep *Report) {
	for i := range rep.Items {
		f := &rep.Items[i]
		if !f.Drawn {
			continue
		}
		if ctx.Err() != nil {
			s.log.WithField("scan_id", rep.ID).Warn("Plate reading canceled")
			return
		}
		text, err := s.plates.Read(ctx, src, f.Box)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"scan_id": rep.ID,
				"item":    i,
			}).Warn("Plate reading failed")
			continue
		}
		f.Plate = text
	}
}
