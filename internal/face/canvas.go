package face

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dyuri/dialface/internal/model"
)

// Canvas is an ARGB8 frame buffer the face renders into
type Canvas struct {
	Pix    []model.Color
	Stride int
	Rect   image.Rectangle
}

// NewCanvas creates a black canvas of the given size
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Pix:    make([]model.Color, w*h),
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}
	c.Fill(model.ColorBlack)
	return c
}

func (c *Canvas) ColorModel() color.Model { return model.ColorModel }

func (c *Canvas) Bounds() image.Rectangle { return c.Rect }

func (c *Canvas) At(x, y int) color.Color {
	return c.ColorAt(x, y)
}

// ColorAt returns the pixel at (x, y), clear outside the canvas
func (c *Canvas) ColorAt(x, y int) model.Color {
	if !image.Pt(x, y).In(c.Rect) {
		return model.ColorClear
	}
	return c.Pix[c.offset(x, y)]
}

func (c *Canvas) Set(x, y int, col color.Color) {
	c.SetColor(x, y, model.ColorFromRGBA(col))
}

// SetColor writes one pixel, ignoring points outside the canvas
func (c *Canvas) SetColor(x, y int, col model.Color) {
	if !image.Pt(x, y).In(c.Rect) {
		return
	}
	c.Pix[c.offset(x, y)] = col
}

func (c *Canvas) offset(x, y int) int {
	return (y-c.Rect.Min.Y)*c.Stride + (x - c.Rect.Min.X)
}

// Fill paints the whole canvas
func (c *Canvas) Fill(col model.Color) {
	for i := range c.Pix {
		c.Pix[i] = col
	}
}

// FillRect paints r clipped to the canvas
func (c *Canvas) FillRect(r image.Rectangle, col model.Color) {
	r = r.Intersect(c.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := c.Pix[c.offset(r.Min.X, y):c.offset(r.Max.X, y)]
		for i := range row {
			row[i] = col
		}
	}
}

// over blends src onto dst by src alpha
func over(dst, src model.Color) model.Color {
	a := src.A()
	switch a {
	case 0:
		return dst
	case 3:
		return src
	}
	mix := func(s, d uint8) uint8 {
		return uint8((uint16(s)*uint16(a) + uint16(d)*uint16(3-a) + 1) / 3)
	}
	return model.NewColor(3, mix(src.R(), dst.R()), mix(src.G(), dst.G()), mix(src.B(), dst.B()))
}

// Blit composites bmp with its top-left corner at at
func (c *Canvas) Blit(bmp *model.Bitmap, at image.Point, op model.CompOp) {
	if bmp == nil || bmp.Released() {
		return
	}
	r := image.Rectangle{Min: at, Max: at.Add(image.Pt(bmp.Width, bmp.Height))}.Intersect(c.Rect)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sx, sy := x-at.X, y-at.Y
			i := c.offset(x, y)
			if bmp.Format != model.Format1Bit {
				c.Pix[i] = over(c.Pix[i], bmp.ColorAt(sx, sy))
				continue
			}
			on := bmp.Index(sx, sy) != 0
			switch op {
			case model.CompAssign:
				c.Pix[i] = bw(on)
			case model.CompAssignInverted:
				c.Pix[i] = bw(!on)
			case model.CompOr:
				if on {
					c.Pix[i] = model.ColorWhite
				}
			case model.CompAnd:
				if !on {
					c.Pix[i] = model.ColorBlack
				}
			case model.CompClear:
				if on {
					c.Pix[i] = model.ColorBlack
				}
			case model.CompSet:
				if !on {
					c.Pix[i] = model.ColorWhite
				}
			}
		}
	}
}

func bw(white bool) model.Color {
	if white {
		return model.ColorWhite
	}
	return model.ColorBlack
}

// FillMask paints col through an alpha mask
func (c *Canvas) FillMask(mask *image.Alpha, col model.Color) {
	if col.IsClear() {
		return
	}
	r := mask.Bounds().Intersect(c.Rect)
	draw.DrawMask(c, r, image.NewUniform(col), image.Point{}, mask, r.Min, draw.Over)
}

// TextFace is the font of cards and readouts
var TextFace font.Face = basicfont.Face7x13

// DrawText draws s centered in r
func (c *Canvas) DrawText(s string, r image.Rectangle, col model.Color) {
	if s == "" || col.IsClear() {
		return
	}
	m := TextFace.Metrics()
	width := font.MeasureString(TextFace, s)
	height := m.Ascent + m.Descent

	x := fixed.I(r.Min.X) + (fixed.I(r.Dx())-width)/2
	y := fixed.I(r.Min.Y) + (fixed.I(r.Dy())-height)/2 + m.Ascent

	d := &font.Drawer{
		Dst:  c,
		Src:  image.NewUniform(col),
		Face: TextFace,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(s)
}
