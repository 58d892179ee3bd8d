package model

import (
	"fmt"
	"image"
	"image/color"
)

// Format defines bitmap pixel encoding
type Format uint8

const (
	Format1Bit         Format = iota // 1-bit black/white, LSB-first, 32-bit aligned rows
	Format1BitPalette                // 1-bit indexed (2 colors)
	Format2BitPalette                // 2-bit indexed (4 colors)
	Format4BitPalette                // 4-bit indexed (16 colors)
	Format8Bit                       // One Color per pixel
	Format8BitCircular               // 8-bit for round displays
)

// Valid reports whether f is a known format
func (f Format) Valid() bool {
	return f <= Format8BitCircular
}

// BitsPerPixel returns the pixel width in bits
func (f Format) BitsPerPixel() int {
	switch f {
	case Format1Bit, Format1BitPalette:
		return 1
	case Format2BitPalette:
		return 2
	case Format4BitPalette:
		return 4
	default:
		return 8
	}
}

// PaletteSize returns the number of palette entries carried by the format
func (f Format) PaletteSize() int {
	switch f {
	case Format1BitPalette:
		return 2
	case Format2BitPalette:
		return 4
	case Format4BitPalette:
		return 16
	default:
		return 0
	}
}

// HasPalette reports whether pixels are palette indexes
func (f Format) HasPalette() bool {
	return f.PaletteSize() != 0
}

// LSBFirst reports whether sub-byte pixels fill a byte from bit 0 upward.
// Only the legacy 1-bit format does; palettized formats start at bit 7.
func (f Format) LSBFirst() bool {
	return f == Format1Bit
}

// Stride returns the row size in bytes for a given width
func (f Format) Stride(width int) int {
	switch f {
	case Format1Bit:
		return ((width + 31) / 32) * 4
	case Format8Bit, Format8BitCircular:
		return width
	default:
		return (width*f.BitsPerPixel() + 7) / 8
	}
}

func (f Format) String() string {
	switch f {
	case Format1Bit:
		return "1bit"
	case Format1BitPalette:
		return "1bit-palette"
	case Format2BitPalette:
		return "2bit-palette"
	case Format4BitPalette:
		return "4bit-palette"
	case Format8Bit:
		return "8bit"
	case Format8BitCircular:
		return "8bit-circular"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseFormat maps a format name back to a Format
func ParseFormat(s string) (Format, error) {
	for f := Format1Bit; f <= Format8BitCircular; f++ {
		if f.String() == s {
			return f, nil
		}
	}
	switch s {
	case "1bitpal":
		return Format1BitPalette, nil
	case "2bit":
		return Format2BitPalette, nil
	case "4bit":
		return Format4BitPalette, nil
	}
	return 0, fmt.Errorf("unknown format: %s", s)
}

// Bitmap is a decoded image with an owned pixel buffer.
// A Bitmap is held by exactly one owner, which must call Release.
type Bitmap struct {
	Width   int     // Width in pixels
	Height  int     // Height in pixels
	Stride  int     // Bytes per row
	Format  Format  // Pixel encoding
	Palette []Color // Palette entries (palettized formats only)
	Data    []byte  // Height*Stride bytes

	alloc Allocator
}

// NewBitmap allocates a zeroed bitmap. The palette is sized to the
// format and zero (clear) filled.
func NewBitmap(a Allocator, width, height int, format Format) (*Bitmap, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unknown format %d", ErrFormat, format)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: bad dimensions %dx%d", ErrUsage, width, height)
	}

	stride := format.Stride(width)
	data, err := alloc(a, height*stride)
	if err != nil {
		return nil, err
	}

	bmp := &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Data:   data,
		alloc:  a,
	}
	if n := format.PaletteSize(); n > 0 {
		bmp.Palette = make([]Color, n)
	}
	return bmp, nil
}

// Release returns the pixel buffer to its allocator. It is safe to call
// on a nil or already released bitmap.
func (b *Bitmap) Release() {
	if b == nil || b.Data == nil {
		return
	}
	if b.alloc != nil {
		b.alloc.Free(b.Data)
	}
	b.Data = nil
	b.Palette = nil
}

// Released reports whether the pixel buffer is gone
func (b *Bitmap) Released() bool {
	return b == nil || b.Data == nil
}

// Clone copies the bitmap into a buffer from the same allocator
func (b *Bitmap) Clone() (*Bitmap, error) {
	c, err := NewBitmap(b.alloc, b.Width, b.Height, b.Format)
	if err != nil {
		return nil, err
	}
	copy(c.Data, b.Data)
	copy(c.Palette, b.Palette)
	return c, nil
}

// Row returns the bytes of row y
func (b *Bitmap) Row(y int) []byte {
	return b.Data[y*b.Stride : (y+1)*b.Stride]
}

// Index returns the raw pixel value at (x, y): a palette index, a bit,
// or a Color for 8-bit formats.
func (b *Bitmap) Index(x, y int) uint8 {
	bpp := b.Format.BitsPerPixel()
	if bpp == 8 {
		return b.Data[y*b.Stride+x]
	}
	bit := x * bpp
	v := b.Data[y*b.Stride+bit/8]
	mask := uint8(1)<<bpp - 1
	if b.Format.LSBFirst() {
		return (v >> (bit % 8)) & mask
	}
	return (v >> (8 - bpp - bit%8)) & mask
}

// SetIndex stores a raw pixel value at (x, y)
func (b *Bitmap) SetIndex(x, y int, value uint8) {
	bpp := b.Format.BitsPerPixel()
	p := &b.Data[y*b.Stride+x*bpp/8]
	if bpp == 8 {
		*p = value
		return
	}
	mask := uint8(1)<<bpp - 1
	shift := 8 - bpp - (x*bpp)%8
	if b.Format.LSBFirst() {
		shift = (x * bpp) % 8
	}
	*p = *p&^(mask<<shift) | (value&mask)<<shift
}

// ColorAt resolves the pixel at (x, y) to a Color
func (b *Bitmap) ColorAt(x, y int) Color {
	v := b.Index(x, y)
	switch {
	case b.Format == Format1Bit:
		if v != 0 {
			return ColorWhite
		}
		return ColorBlack
	case b.Format.HasPalette():
		if int(v) < len(b.Palette) {
			return b.Palette[v]
		}
		return ColorClear
	default:
		return Color(v)
	}
}

// ColorModel implements image.Image
func (b *Bitmap) ColorModel() color.Model { return ColorModel }

// Bounds implements image.Image
func (b *Bitmap) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// At implements image.Image
func (b *Bitmap) At(x, y int) color.Color {
	if !image.Pt(x, y).In(b.Bounds()) || b.Data == nil {
		return ColorClear
	}
	return b.ColorAt(x, y)
}
