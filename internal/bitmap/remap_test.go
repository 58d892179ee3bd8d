package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyuri/dialface/internal/model"
)

var (
	base  = model.NewColor(3, 0, 0, 1) // navy
	red   = model.NewColor(3, 3, 0, 0)
	green = model.NewColor(3, 0, 3, 0)
	gold  = model.NewColor(3, 3, 2, 0)
)

func TestRemapColorPrimaries(t *testing.T) {
	tests := []struct {
		name  string
		entry model.Color
		want  model.Color
	}{
		{"black keeps base", model.NewColor(3, 0, 0, 0), base},
		{"red becomes c1", model.NewColor(3, 3, 0, 0), red},
		{"green becomes c2", model.NewColor(3, 0, 3, 0), green},
		{"blue becomes c3", model.NewColor(3, 0, 0, 3), gold},
		{"alpha kept", model.NewColor(0, 3, 0, 0), model.NewColor(0, 3, 0, 0)},
		{"partial red", model.NewColor(3, 1, 0, 0), model.NewColor(3, 1, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemapColor(tt.entry, base, red, green, gold, false)
			if got != tt.want {
				t.Errorf("RemapColor(%s) = %s, want %s", tt.entry, got, tt.want)
			}
		})
	}
}

func TestRemapColorClampsAndInverts(t *testing.T) {
	white := model.NewColor(3, 3, 3, 3)
	// base + (red-base) + (green-base) + (gold-base) overshoots red.
	got := RemapColor(white, base, red, green, gold, false)
	assert.Equal(t, model.NewColor(3, 3, 3, 0), got)

	inv := RemapColor(white, base, red, green, gold, true)
	assert.Equal(t, model.NewColor(3, 0, 0, 3), inv)
}

func TestRemapColorsPalette(t *testing.T) {
	bmp, err := model.NewBitmap(nil, 4, 4, model.Format2BitPalette)
	require.NoError(t, err)
	copy(bmp.Palette, []model.Color{model.ColorClear, model.NewColor(3, 0, 0, 0), model.NewColor(3, 3, 0, 0), model.NewColor(3, 0, 3, 0)})
	bmp.Data[0] = 0x1b

	require.NoError(t, RemapColors(bmp, base, red, green, gold, false))
	assert.Equal(t, []model.Color{model.NewColor(0, 0, 0, 1), base, red, green}, bmp.Palette)
	assert.Equal(t, byte(0x1b), bmp.Data[0])
}

func TestRemapColorsRejects8Bit(t *testing.T) {
	bmp, err := model.NewBitmap(nil, 4, 2, model.Format8Bit)
	require.NoError(t, err)
	for i := range bmp.Data {
		bmp.Data[i] = byte(i * 31)
	}
	before := append([]byte(nil), bmp.Data...)

	err = RemapColors(bmp, base, red, green, gold, false)
	assert.ErrorIs(t, err, model.ErrUsage)
	assert.Equal(t, before, bmp.Data)
	assert.Nil(t, bmp.Palette)
}
