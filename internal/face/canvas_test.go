package face

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyuri/dialface/internal/model"
)

// stripe is a 2x1 1-bit bitmap: pixel 0 off, pixel 1 on
func stripe(t *testing.T) *model.Bitmap {
	t.Helper()
	bmp, err := model.NewBitmap(nil, 2, 1, model.Format1Bit)
	require.NoError(t, err)
	bmp.SetIndex(1, 0, 1)
	return bmp
}

func TestBlitCompOps(t *testing.T) {
	const gray = model.Color(0xea)
	b, w := model.ColorBlack, model.ColorWhite
	tests := []struct {
		op      model.CompOp
		off, on model.Color
	}{
		{model.CompAssign, b, w},
		{model.CompAssignInverted, w, b},
		{model.CompOr, gray, w},
		{model.CompAnd, b, gray},
		{model.CompClear, gray, b},
		{model.CompSet, w, gray},
	}
	src := stripe(t)
	for _, tt := range tests {
		c := NewCanvas(2, 1)
		c.Fill(gray)
		c.Blit(src, image.Point{}, tt.op)
		if got := c.ColorAt(0, 0); got != tt.off {
			t.Errorf("%s: off pixel = %s, want %s", tt.op, got, tt.off)
		}
		if got := c.ColorAt(1, 0); got != tt.on {
			t.Errorf("%s: on pixel = %s, want %s", tt.op, got, tt.on)
		}
	}
}

func TestBlitPaletteAlpha(t *testing.T) {
	bmp, err := model.NewBitmap(nil, 3, 1, model.Format2BitPalette)
	require.NoError(t, err)
	red := model.NewColor(3, 3, 0, 0)
	bmp.Palette = []model.Color{model.ColorClear, red, model.NewColor(1, 0, 0, 3), model.ColorWhite}
	bmp.SetIndex(0, 0, 0)
	bmp.SetIndex(1, 0, 1)
	bmp.SetIndex(2, 0, 2)

	c := NewCanvas(3, 1)
	c.Blit(bmp, image.Point{}, model.CompClear)
	assert.Equal(t, model.ColorBlack, c.ColorAt(0, 0), "clear source leaves the canvas")
	assert.Equal(t, red, c.ColorAt(1, 0))
	assert.Equal(t, model.NewColor(3, 0, 0, 1), c.ColorAt(2, 0), "one third blue over black")
}

func TestBlitClips(t *testing.T) {
	c := NewCanvas(4, 4)
	src := stripe(t)
	c.Blit(src, image.Pt(3, 3), model.CompAssign)
	c.Blit(src, image.Pt(-1, 0), model.CompAssign)
	assert.Equal(t, model.ColorBlack, c.ColorAt(3, 3))
	assert.Equal(t, model.ColorWhite, c.ColorAt(0, 0))
	assert.Equal(t, model.ColorClear, c.ColorAt(4, 3))
}

func TestFillRectAndMask(t *testing.T) {
	c := NewCanvas(10, 10)
	c.FillRect(image.Rect(8, 8, 20, 20), model.ColorWhite)
	assert.Equal(t, model.ColorWhite, c.ColorAt(9, 9))
	assert.Equal(t, model.ColorBlack, c.ColorAt(7, 9))

	mask := image.NewAlpha(image.Rect(0, 0, 10, 10))
	mask.SetAlpha(2, 3, color.Alpha{A: 0xff})
	c.FillMask(mask, model.ColorWhite)
	assert.Equal(t, model.ColorWhite, c.ColorAt(2, 3))
	assert.Equal(t, model.ColorBlack, c.ColorAt(3, 3))
}

func TestDrawTextStaysInside(t *testing.T) {
	c := NewCanvas(60, 30)
	r := image.Rect(10, 5, 50, 25)
	c.DrawText("Mon", r, model.ColorWhite)

	inside := 0
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			if c.ColorAt(x, y) == model.ColorBlack {
				continue
			}
			if !image.Pt(x, y).In(r) {
				t.Fatalf("text pixel at (%d,%d) outside %v", x, y, r)
			}
			inside++
		}
	}
	assert.Greater(t, inside, 10)
}
