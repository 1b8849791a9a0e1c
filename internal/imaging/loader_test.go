package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// createInMemoryImage creates a solid-color RGBA image.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createTestImage writes a solid-color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, createInMemoryImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFormatForName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"photo.jpg", false},
		{"photo.JPEG", false},
		{"scan.png", false},
		{"/tmp/dir.v2/fruit.Png", false},
		{"anim.gif", true},
		{"document.pdf", true},
		{"noextension", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatForName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatForName(%q): err=%v, wantErr=%v", tt.name, err, tt.wantErr)
			}
			if err != nil {
				var inputErr *InputImageError
				if !errors.As(err, &inputErr) {
					t.Errorf("error should be *InputImageError, got %T", err)
				}
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Error("error should wrap ErrUnsupportedFormat")
				}
			}
		})
	}
}

func TestDecodeUpload_PNG(t *testing.T) {
	data := pngBytes(t, createInMemoryImage(40, 30, color.RGBA{255, 0, 0, 255}))

	img, err := DecodeUpload("apple.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeUpload failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDecodeUpload_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createInMemoryImage(64, 48, color.RGBA{0, 128, 0, 255}), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}

	img, err := DecodeUpload("plate.JPG", &buf)
	if err != nil {
		t.Fatalf("DecodeUpload failed: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("dimensions: got %dx%d, want 64x48", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDecodeUpload_UnsupportedExtension(t *testing.T) {
	data := pngBytes(t, createInMemoryImage(10, 10, color.White))

	_, err := DecodeUpload("apple.gif", bytes.NewReader(data))
	if err == nil {
		t.Fatal("DecodeUpload should reject .gif uploads")
	}
	if !strings.Contains(err.Error(), "unsupported image format") {
		t.Errorf("error message: got %q", err.Error())
	}
}

func TestDecodeUpload_CorruptContent(t *testing.T) {
	_, err := DecodeUpload("apple.png", strings.NewReader("not an image"))
	if err == nil {
		t.Fatal("DecodeUpload should fail for invalid image data")
	}
	var inputErr *InputImageError
	if !errors.As(err, &inputErr) {
		t.Fatalf("error should be *InputImageError, got %T", err)
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Error("decode failures should not report an unsupported format")
	}
	if !strings.Contains(err.Error(), "cannot read image") {
		t.Errorf("error message: got %q", err.Error())
	}
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.Len() != 0 {
		t.Errorf("new cache should be empty, has %d", cache.Len())
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 100, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img1.Bounds().Dx() != 100 || img1.Bounds().Dy() != 100 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x100", img1.Bounds().Dx(), img1.Bounds().Dy())
	}

	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	_, err := cache.Load("/nonexistent/path/to/image.png")
	if err == nil {
		t.Fatal("Load should fail for non-existent file")
	}
	var inputErr *InputImageError
	if !errors.As(err, &inputErr) {
		t.Errorf("error should be *InputImageError, got %T", err)
	}
}

func TestImageCache_Load_UnsupportedExtension(t *testing.T) {
	cache := NewImageCache()
	_, err := cache.Load("/tmp/whatever.bmp")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.bmp): got %v, want ErrUnsupportedFormat", err)
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{0, 255, 0, 255})

	if _, err := cache.Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Evict(imgPath)
	if cache.Len() != 0 {
		t.Errorf("Evict did not remove image, %d remain", cache.Len())
	}

	if _, err := cache.Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache, %d remain", cache.Len())
	}

	// Evicting a missing path is a no-op
	cache.Evict("/nonexistent/path")
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}
