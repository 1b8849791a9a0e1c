package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/scanlab/internal/models"
)

// CropBox cuts the region covered by box out of img.
//
// The box is interpreted relative to the image's top-left pixel and clamped
// to the image first. The second return value is false when the clamped box
// has no area, in which case the returned image is nil.
func CropBox(img image.Image, box models.Box) (*image.NRGBA, bool) {
	bounds := img.Bounds()
	local := box.Clamp(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if local.Empty() {
		return nil, false
	}
	r := local.Rect().Add(bounds.Min)
	return imaging.Crop(img, r), true
}

// CropDetection crops a detection region for close inspection and encodes it.
//
// Parameters:
//   - img: The source image.
//   - box: The region, clamped to the image before cropping.
//   - scale: Magnification factor; values <= 0 are treated as 1.0.
//   - format: Output format, "png" (default) or "jpeg".
//
// Returns an error if the clamped region is empty or encoding fails.
func CropDetection(img image.Image, box models.Box, scale float64, format string) (*EncodedImage, error) {
	cropped, ok := CropBox(img, box)
	if !ok {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) is empty inside a %dx%d image",
			box.X1, box.Y1, box.X2, box.Y2, img.Bounds().Dx(), img.Bounds().Dy())
	}

	if scale > 0 && scale != 1.0 {
		w := int(float64(cropped.Bounds().Dx()) * scale)
		h := int(float64(cropped.Bounds().Dy()) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}

	return Encode(cropped, format)
}
