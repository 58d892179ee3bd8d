package model

import (
	"fmt"
	"image/color"
)

// Color is a one-byte ARGB color code: two bits per channel laid out
// as aarrggbb. Palette streams store one Color per entry.
type Color uint8

// Common colors
const (
	ColorClear Color = 0x00
	ColorBlack Color = 0xc0
	ColorWhite Color = 0xff
)

// NewColor builds a Color from 2-bit channel values (0-3)
func NewColor(a, r, g, b uint8) Color {
	return Color((a&3)<<6 | (r&3)<<4 | (g&3)<<2 | b&3)
}

// A returns the alpha channel (0-3)
func (c Color) A() uint8 { return uint8(c>>6) & 3 }

// R returns the red channel (0-3)
func (c Color) R() uint8 { return uint8(c>>4) & 3 }

// G returns the green channel (0-3)
func (c Color) G() uint8 { return uint8(c>>2) & 3 }

// B returns the blue channel (0-3)
func (c Color) B() uint8 { return uint8(c) & 3 }

// IsClear reports whether the color is fully transparent
func (c Color) IsClear() bool { return c.A() == 0 }

// RGBA implements color.Color. Channels expand 0-3 to 0-0xffff and are
// premultiplied by alpha.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(c.A()) * 0x5555
	r = uint32(c.R()) * 0x5555 * a / 0xffff
	g = uint32(c.G()) * 0x5555 * a / 0xffff
	b = uint32(c.B()) * 0x5555 * a / 0xffff
	return r, g, b, a
}

func (c Color) String() string {
	return fmt.Sprintf("0x%02x", uint8(c))
}

// ColorFromRGBA quantizes any color to the nearest 2-bit-per-channel code.
func ColorFromRGBA(c color.Color) Color {
	if mc, ok := c.(Color); ok {
		return mc
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return NewColor(quant2(nc.A), quant2(nc.R), quant2(nc.G), quant2(nc.B))
}

// quant2 maps 0-255 to the nearest of 0, 85, 170, 255
func quant2(v uint8) uint8 {
	return uint8((uint16(v) + 42) / 85)
}

// ColorModel converts arbitrary colors to Color.
var ColorModel = color.ModelFunc(func(c color.Color) color.Color {
	return ColorFromRGBA(c)
})
