package imaging

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is wrapped by InputImageError when the file extension
// is not an accepted upload format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// SupportedExtensions lists the accepted upload extensions.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png"}

// InputImageError reports an upload that cannot be used as scan input.
//
// The message is meant for end users; Err carries the underlying cause.
type InputImageError struct {
	// Name is the file name or path the user supplied.
	Name string

	// Err is the underlying cause (ErrUnsupportedFormat, a decode error, or an
	// I/O error).
	Err error
}

func (e *InputImageError) Error() string {
	if errors.Is(e.Err, ErrUnsupportedFormat) {
		return fmt.Sprintf("%s: unsupported image format, use JPG, JPEG or PNG", e.Name)
	}
	return fmt.Sprintf("%s: cannot read image: %v", e.Name, e.Err)
}

func (e *InputImageError) Unwrap() error {
	return e.Err
}

// FormatForName returns the image format implied by a file name's extension.
//
// Only the extensions in SupportedExtensions are accepted. The result is
// based on the name alone; the file content is not inspected.
func FormatForName(name string) (imaging.Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	supported := false
	for _, s := range SupportedExtensions {
		if ext == s {
			supported = true
			break
		}
	}
	if !supported {
		return 0, &InputImageError{Name: name, Err: ErrUnsupportedFormat}
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return 0, &InputImageError{Name: name, Err: ErrUnsupportedFormat}
	}
	return format, nil
}

// DecodeUpload validates an upload's name and decodes its content.
//
// EXIF orientation is applied. Errors are always *InputImageError.
func DecodeUpload(name string, r io.Reader) (image.Image, error) {
	if _, err := FormatForName(name); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &InputImageError{Name: name, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &InputImageError{Name: name, Err: errors.New("image has no pixels")}
	}
	return img, nil
}

// ImageCache provides thread-safe caching of images loaded by path.
//
// The MCP surface addresses images by path and often scans the same file
// with several profiles or thresholds; the cache avoids decoding it again.
// Cached images stay in memory until Evict or Clear is called.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the image at path, decoding it on first use.
//
// The same extension rules as uploads apply. Errors are *InputImageError.
// Images are cached by the exact path string.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	if _, err := FormatForName(path); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &InputImageError{Name: path, Err: err}
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes the image cached under path, if any.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
