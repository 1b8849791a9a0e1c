package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// labelFace is the fixed-size face used for tags and zoom captions.
var labelFace font.Face = basicfont.Face7x13

// textSize returns the advance width and ascent of text in labelFace.
func textSize(text string) (width, ascent int) {
	width = font.MeasureString(labelFace, text).Ceil()
	ascent = labelFace.Metrics().Ascent.Ceil()
	return width, ascent
}

// drawText draws text with its baseline starting at (x, baseline).
// Glyphs falling outside dst are clipped.
func drawText(dst draw.Image, x, baseline int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: labelFace,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

// fillRect paints r, clipped to dst.
func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// strokeRect draws an outline of the given thickness on the inside of r.
func strokeRect(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	if r.Dx() <= 2*thickness || r.Dy() <= 2*thickness {
		fillRect(dst, r, c)
		return
	}
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// drawLine draws a 1px line from p0 to p1 (Bresenham), clipped to dst.
func drawLine(dst draw.Image, p0, p1 image.Point, c color.Color) {
	bounds := dst.Bounds()
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	err := dx + dy
	x, y := p0.X, p0.Y
	for {
		if image.Pt(x, y).In(bounds) {
			dst.Set(x, y, c)
		}
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
