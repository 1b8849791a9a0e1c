// Package detector runs object detection models over images.
//
// The Detector interface is what the scan pipeline consumes. ONNXDetector
// implements it for YOLO-style models exported to ONNX; Func adapts plain
// functions and is used for fixed detections and tests.
package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/scanlab/internal/models"
)

// ErrModelNotFound is returned when none of the configured model files exist.
var ErrModelNotFound = errors.New("model file not found")

// Detector finds objects in an image.
//
// Implementations return confidences in [0, 1] and boxes in the pixel grid
// of img, with (0, 0) at the image's top-left pixel. Detections below
// threshold are not returned.
type Detector interface {
	Detect(ctx context.Context, img image.Image, threshold float64) ([]models.Detection, error)
}

// ClassNamer is implemented by detectors that know their model's class names.
type ClassNamer interface {
	ClassNames() ([]string, error)
}

// Func adapts a function to the Detector interface.
type Func func(ctx context.Context, img image.Image, threshold float64) ([]models.Detection, error)

// Detect calls f.
func (f Func) Detect(ctx context.Context, img image.Image, threshold float64) ([]models.Detection, error) {
	return f(ctx, img, threshold)
}

// Static returns a Detector that reports dets filtered by threshold.
func Static(dets []models.Detection) Detector {
	return Func(func(ctx context.Context, _ image.Image, threshold float64) ([]models.Detection, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := make([]models.Detection, 0, len(dets))
		for _, d := range dets {
			if d.Confidence >= threshold {
				out = append(out, d)
			}
		}
		return out, nil
	})
}

// Metadata describes a model's tensors and classes. It is read from a JSON
// file next to the model with the same base name ("best.onnx" →
// "best.json"). Every field is optional.
type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// ResolveModel returns the path of the first file in names that exists in
// dir. Absolute names are used as given.
func ResolveModel(dir string, names []string) (string, error) {
	for _, name := range names {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s in %s", ErrModelNotFound, strings.Join(names, ", "), dir)
}

// LoadMetadata reads the metadata file for modelPath.
// A missing file yields empty metadata and no error.
func LoadMetadata(modelPath string) (Metadata, error) {
	path := strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".json"
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	return meta, nil
}
