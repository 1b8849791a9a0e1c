package detector

import (
	"image"

	"github.com/nfnt/resize"
)

// Preprocess stretches img to size×size and returns it as a CHW float32
// tensor with values in [0, 1], RGB channel order.
func Preprocess(img image.Image, size int) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
	b := resized.Bounds()

	stride := size * size
	input := make([]float32, 3*stride)
	idx := 0
	for y := b.Min.Y; y < b.Min.Y+size; y++ {
		for x := b.Min.X; x < b.Min.X+size; x++ {
			r, g, bl, _ := resized.At(x, y).RGBA()
			input[idx] = float32(r>>8) / 255.0
			input[idx+stride] = float32(g>>8) / 255.0
			input[idx+2*stride] = float32(bl>>8) / 255.0
			idx++
		}
	}
	return input
}

// AnchorCount returns the number of predictions a YOLOv8-style head emits
// for a square input: one per cell at strides 8, 16 and 32.
func AnchorCount(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		cells := size / stride
		n += cells * cells
	}
	return n
}
