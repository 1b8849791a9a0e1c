package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// EncodedImage is an image encoded for JSON transport.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// jpegQuality is used for JPEG output.
const jpegQuality = 90

// Encode encodes img as "png" (the default when format is empty) or "jpeg".
func Encode(img image.Image, format string) (*EncodedImage, error) {
	f, mime, err := outputFormat(format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &EncodedImage{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mime,
	}, nil
}

// ValidFormat returns the error Encode would give for format, or nil.
func ValidFormat(format string) error {
	_, _, err := outputFormat(format)
	return err
}

func outputFormat(format string) (imaging.Format, string, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return imaging.PNG, "image/png", nil
	case "jpg", "jpeg":
		return imaging.JPEG, "image/jpeg", nil
	default:
		return 0, "", fmt.Errorf("unsupported output format: %s", format)
	}
}
