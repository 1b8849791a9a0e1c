// Package ocr reads license plate text using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). A plate
// region is cropped from the source image, converted to grayscale, given
// extra contrast and upscaled before recognition, then read as a single
// line restricted to A-Z and 0-9.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A custom tessdata directory can be configured with
// PlateReaderConfig.TessdataDir.
//
// # Error Handling
//
// Read returns an error when the region is empty or Tesseract fails. The scan
// pipeline logs such errors and leaves the plate text empty; a missing plate
// reading never fails a scan.
//
// # Concurrency
//
// A PlateReader is safe for concurrent use. Each Read creates its own
// Tesseract client, since gosseract clients are not goroutine-safe.
package ocr
