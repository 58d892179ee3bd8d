// Package bitmap implements in-place transforms on decoded bitmaps:
// mirroring, palette recoloring and checkerboard removal.
package bitmap

import (
	"fmt"
	"math/bits"

	"github.com/dyuri/dialface/internal/model"
)

// reversePixels reverses the order of the bpp-wide pixels packed in a byte
func reversePixels(b byte, bpp int) byte {
	switch bpp {
	case 1:
		return bits.Reverse8(b)
	case 2:
		return b>>6 | (b>>2)&0x0c | (b<<2)&0x30 | b<<6
	case 4:
		return b>>4 | b<<4
	default:
		return b
	}
}

// FlipX mirrors the bitmap horizontally in place. The row width in bits
// must be a whole number of bytes. cx, if not nil, is mirrored too.
func FlipX(bmp *model.Bitmap, cx *int) error {
	bpp := bmp.Format.BitsPerPixel()
	if (bmp.Width*bpp)%8 != 0 {
		return fmt.Errorf("%w: flip of %d-pixel row at %d bpp is not byte aligned", model.ErrUsage, bmp.Width, bpp)
	}
	used := bmp.Width * bpp / 8

	for y := 0; y < bmp.Height; y++ {
		row := bmp.Row(y)[:used]
		for i, j := 0, used-1; i <= j; i, j = i+1, j-1 {
			row[i], row[j] = reversePixels(row[j], bpp), reversePixels(row[i], bpp)
		}
	}

	if cx != nil {
		*cx = bmp.Width - 1 - *cx
	}
	return nil
}

// FlipY mirrors the bitmap vertically in place, swapping rows through a
// single row of scratch space. cy, if not nil, is mirrored too.
func FlipY(bmp *model.Bitmap, cy *int) error {
	tmp := make([]byte, bmp.Stride)
	for top, bottom := 0, bmp.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a, b := bmp.Row(top), bmp.Row(bottom)
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}

	if cy != nil {
		*cy = bmp.Height - 1 - *cy
	}
	return nil
}

// Unscreen removes a checkerboard by XORing the first width/8 bytes of
// each row with 0xaa on even rows and 0x55 on odd rows. The byte count
// follows the 1-bit layout whatever the format. It is its own inverse.
func Unscreen(bmp *model.Bitmap) {
	used := bmp.Width / 8
	mask := byte(0xaa)
	for y := 0; y < bmp.Height; y++ {
		row := bmp.Row(y)[:used]
		for i := range row {
			row[i] ^= mask
		}
		mask ^= 0xff
	}
}
