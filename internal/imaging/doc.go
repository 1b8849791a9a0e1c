// Package imaging handles image input and output for the scan surfaces.
//
// It decodes uploads and on-disk images, enforces the accepted upload formats,
// caches images loaded by path, crops detection regions for inspection, and
// encodes annotated results for transport.
//
// # Accepted Formats
//
// Uploads are accepted by file extension only: ".jpg", ".jpeg" and ".png"
// (case-insensitive). Content is not sniffed before decoding; a file whose
// bytes do not match its extension fails at decode time instead. Both cases
// are reported as *InputImageError so surfaces can show the message to the
// user without a partial render.
//
// # Orientation
//
// JPEG uploads are rotated according to their EXIF orientation tag, so
// detector coordinates match what the user sees.
//
// # Coordinate System
//
// Decoded images are normalized so that (0,0) is the top-left pixel, X grows
// rightward and Y grows downward. Regions use an inclusive top-left corner and
// an exclusive bottom-right corner.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless.
package imaging
