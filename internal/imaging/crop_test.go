package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/ironsheep/scanlab/internal/models"
)

// createPatternImage creates a quadrant test image:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func decodePNG(t *testing.T, enc *EncodedImage) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	return img
}

func TestCropBox(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, ok := CropBox(img, models.Box{X1: 60, Y1: 10, X2: 90, Y2: 40})
	if !ok {
		t.Fatal("CropBox returned !ok for a valid region")
	}
	if cropped.Bounds() != image.Rect(0, 0, 30, 30) {
		t.Errorf("bounds: got %v, want (0,0)-(30,30)", cropped.Bounds())
	}
	if got := cropped.NRGBAAt(15, 15); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("color: got %v, want green", got)
	}
}

func TestCropBox_Clamped(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, ok := CropBox(img, models.Box{X1: -20, Y1: -20, X2: 30, Y2: 30})
	if !ok {
		t.Fatal("CropBox returned !ok for a partly visible region")
	}
	if cropped.Bounds().Dx() != 30 || cropped.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 30x30", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}
}

func TestCropBox_Degenerate(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name string
		box  models.Box
	}{
		{"zero width", models.Box{X1: 50, Y1: 0, X2: 50, Y2: 50}},
		{"inverted", models.Box{X1: 60, Y1: 60, X2: 10, Y2: 10}},
		{"outside", models.Box{X1: 150, Y1: 150, X2: 200, Y2: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := CropBox(img, tt.box); ok {
				t.Error("CropBox should report !ok for an empty region")
			}
		})
	}
}

func TestCropBox_OffsetBounds(t *testing.T) {
	// Sub-images keep their parent's coordinates; boxes are relative to the
	// top-left pixel.
	parent := createPatternImage(100, 100)
	sub := parent.SubImage(image.Rect(50, 50, 100, 100))

	cropped, ok := CropBox(sub, models.Box{X1: 0, Y1: 0, X2: 10, Y2: 10})
	if !ok {
		t.Fatal("CropBox returned !ok")
	}
	if got := cropped.NRGBAAt(5, 5); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("color: got %v, want white", got)
	}
}

func TestCropDetection(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := CropDetection(img, models.Box{X1: 0, Y1: 0, X2: 50, Y2: 50}, 1.0, "")
	if err != nil {
		t.Fatalf("CropDetection failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded := decodePNG(t, result)
	r, g, b, _ := decoded.At(25, 25).RGBA()
	if uint8(r>>8) != 255 || uint8(g>>8) != 0 || uint8(b>>8) != 0 {
		t.Errorf("cropped color: got (%d,%d,%d), want (255,0,0)", r>>8, g>>8, b>>8)
	}
}

func TestCropDetection_WithScale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name         string
		scale        float64
		wantW, wantH int
	}{
		{"double", 2.0, 100, 100},
		{"half", 0.5, 25, 25},
		{"zero means one", 0, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CropDetection(img, models.Box{X1: 0, Y1: 0, X2: 50, Y2: 50}, tt.scale, "png")
			if err != nil {
				t.Fatalf("CropDetection failed: %v", err)
			}
			if result.Width != tt.wantW || result.Height != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d", result.Width, result.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCropDetection_Empty(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})
	if _, err := CropDetection(img, models.Box{X1: 10, Y1: 10, X2: 10, Y2: 40}, 1.0, ""); err == nil {
		t.Error("CropDetection should fail for an empty region")
	}
}

func TestEncode_Formats(t *testing.T) {
	img := createInMemoryImage(20, 10, color.RGBA{0, 0, 255, 255})

	jpg, err := Encode(img, "JPEG")
	if err != nil {
		t.Fatalf("Encode(jpeg) failed: %v", err)
	}
	if jpg.MimeType != "image/jpeg" || jpg.Width != 20 || jpg.Height != 10 {
		t.Errorf("jpeg result: got %+v", jpg)
	}
	data, _ := base64.StdEncoding.DecodeString(jpg.ImageBase64)
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a valid JPEG: %v", err)
	}

	if _, err := Encode(img, "tiff"); err == nil {
		t.Error("Encode should reject unsupported output formats")
	}
}

func TestValidFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{"png", false},
		{"PNG", false},
		{"jpg", false},
		{"jpeg", false},
		{"tiff", true},
		{"gif", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidFormat(%q): got %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}
