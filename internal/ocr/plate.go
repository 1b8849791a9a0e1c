package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/scanlab/internal/imaging"
	"github.com/ironsheep/scanlab/internal/models"
)

// PlateAlphabet is the set of characters Tesseract may report.
const PlateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Default preprocessing values.
const (
	DefaultLanguage = "eng"
	DefaultScale    = 2.0
	DefaultContrast = 40.0
)

// PlateReaderConfig configures a PlateReader. Zero values select defaults.
type PlateReaderConfig struct {
	// Language is the Tesseract language code.
	Language string

	// TessdataDir overrides the Tesseract data directory.
	TessdataDir string

	// Scale is the upscale factor applied to the plate crop.
	Scale float64

	// Contrast is the bild contrast change in percent (-100 to 100).
	Contrast float64
}

// PlateReader reads the text of license plate regions.
type PlateReader struct {
	cfg PlateReaderConfig
}

// NewPlateReader creates a PlateReader.
func NewPlateReader(cfg PlateReaderConfig) *PlateReader {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	if cfg.Contrast == 0 {
		cfg.Contrast = DefaultContrast
	}
	return &PlateReader{cfg: cfg}
}

// Read returns the normalized plate text inside box.
//
// The result may be empty when Tesseract finds no characters.
func (r *PlateReader) Read(ctx context.Context, img image.Image, box models.Box) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	crop, ok := imaging.CropBox(img, box)
	if !ok {
		return "", fmt.Errorf("plate region (%d,%d)-(%d,%d) is empty", box.X1, box.Y1, box.X2, box.Y2)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Preprocess(crop, r.cfg.Scale, r.cfg.Contrast)); err != nil {
		return "", fmt.Errorf("failed to encode plate image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if r.cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(r.cfg.TessdataDir); err != nil {
			return "", fmt.Errorf("failed to set tessdata directory: %w", err)
		}
	}
	if err := client.SetLanguage(r.cfg.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(PlateAlphabet); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return Normalize(text), nil
}

// Preprocess prepares a plate crop for recognition: grayscale, contrast
// adjustment, then upscaling by scale.
func Preprocess(img image.Image, scale, contrast float64) *image.RGBA {
	gray := effect.Grayscale(img)
	out := adjust.Contrast(gray, contrast/100)

	if scale > 0 && scale != 1 {
		b := out.Bounds()
		w := int(float64(b.Dx()) * scale)
		h := int(float64(b.Dy()) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		out = transform.Resize(out, w, h, transform.Linear)
	}
	return out
}

// Normalize upper-cases text and drops everything outside PlateAlphabet.
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if strings.ContainsRune(PlateAlphabet, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
