package bitmap

import (
	"fmt"

	"github.com/dyuri/dialface/internal/model"
)

// RemapColors recolors a palettized bitmap. Each palette entry starts at
// cb and is moved toward c1, c2 and c3 by its own red, green and blue
// channel (0-3, so a pure primary lands exactly on its target color).
// The three offsets add up and are clamped. Alpha is kept; invert flips
// the color bits afterward.
//
// Non-palette formats return ErrUsage and are left untouched.
func RemapColors(bmp *model.Bitmap, cb, c1, c2, c3 model.Color, invert bool) error {
	if !bmp.Format.HasPalette() {
		return fmt.Errorf("%w: remap on %s bitmap", model.ErrUsage, bmp.Format)
	}
	for i, entry := range bmp.Palette {
		bmp.Palette[i] = RemapColor(entry, cb, c1, c2, c3, invert)
	}
	return nil
}

// RemapColor applies the RemapColors blend to one color
func RemapColor(entry, cb, c1, c2, c3 model.Color, invert bool) model.Color {
	// Work in thirds: channels are 0-3, weights are 0-3.
	base := [3]int{int(cb.R()), int(cb.G()), int(cb.B())}
	out := [3]int{3 * base[0], 3 * base[1], 3 * base[2]}

	blend := func(target model.Color, weight uint8) {
		t := [3]int{int(target.R()), int(target.G()), int(target.B())}
		for k := range out {
			out[k] += int(weight) * (t[k] - base[k])
		}
	}
	blend(c1, entry.R())
	blend(c2, entry.G())
	blend(c3, entry.B())

	var ch [3]uint8
	for k, v := range out {
		ch[k] = clamp2(divRound(v, 3))
	}

	c := model.NewColor(entry.A(), ch[0], ch[1], ch[2])
	if invert {
		c ^= 0x3f
	}
	return c
}

func clamp2(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 3:
		return 3
	default:
		return uint8(v)
	}
}

func divRound(v, d int) int {
	if v < 0 {
		return -((-v + d/2) / d)
	}
	return (v + d/2) / d
}
