package model

import (
	"errors"
	"image/color"
	"testing"
)

func TestFormatStride(t *testing.T) {
	tests := []struct {
		format Format
		width  int
		want   int
	}{
		{Format1Bit, 1, 4},
		{Format1Bit, 32, 4},
		{Format1Bit, 33, 8},
		{Format1BitPalette, 9, 2},
		{Format2BitPalette, 5, 2},
		{Format4BitPalette, 3, 2},
		{Format8Bit, 7, 7},
		{Format8BitCircular, 144, 144},
	}
	for _, tt := range tests {
		if got := tt.format.Stride(tt.width); got != tt.want {
			t.Errorf("%s.Stride(%d) = %d, want %d", tt.format, tt.width, got, tt.want)
		}
	}
}

func TestSetIndexBitOrder(t *testing.T) {
	mono, _ := NewBitmap(nil, 8, 1, Format1Bit)
	mono.SetIndex(1, 0, 1)
	if mono.Data[0] != 0x02 {
		t.Errorf("1-bit pixel 1 = %#x, want 0x02", mono.Data[0])
	}

	pal, _ := NewBitmap(nil, 8, 1, Format1BitPalette)
	pal.SetIndex(1, 0, 1)
	if pal.Data[0] != 0x40 {
		t.Errorf("palettized pixel 1 = %#x, want 0x40", pal.Data[0])
	}

	quad, _ := NewBitmap(nil, 4, 1, Format2BitPalette)
	quad.SetIndex(2, 0, 3)
	quad.SetIndex(0, 0, 1)
	if quad.Data[0] != 0x4c {
		t.Errorf("2-bit row = %#x, want 0x4c", quad.Data[0])
	}
	if got := quad.Index(2, 0); got != 3 {
		t.Errorf("Index(2, 0) = %d, want 3", got)
	}
	quad.SetIndex(2, 0, 0)
	if got := quad.Index(2, 0); got != 0 {
		t.Errorf("Index(2, 0) after clear = %d, want 0", got)
	}
}

func TestBitmapColorAt(t *testing.T) {
	bmp, _ := NewBitmap(nil, 2, 1, Format1BitPalette)
	bmp.Palette[0] = ColorClear
	bmp.Palette[1] = NewColor(3, 3, 0, 0)
	bmp.SetIndex(1, 0, 1)

	if got := bmp.ColorAt(0, 0); got != ColorClear {
		t.Errorf("ColorAt(0, 0) = %s, want clear", got)
	}
	if got := bmp.ColorAt(1, 0); got != NewColor(3, 3, 0, 0) {
		t.Errorf("ColorAt(1, 0) = %s, want red", got)
	}
	if got := bmp.At(5, 5); got != ColorClear {
		t.Errorf("At outside bounds = %v, want clear", got)
	}
}

func TestHeapBudget(t *testing.T) {
	heap := NewHeap(100)
	a, err := NewBitmap(heap, 32, 10, Format1Bit) // 40 bytes
	if err != nil {
		t.Fatalf("NewBitmap failed: %v", err)
	}
	if _, err := NewBitmap(heap, 8, 8, Format8Bit); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("second bitmap error = %v, want ErrOutOfMemory", err)
	}
	if heap.Used() != 40 {
		t.Errorf("Used() = %d, want 40", heap.Used())
	}

	a.Release()
	a.Release()
	if heap.Used() != 0 {
		t.Errorf("Used() after release = %d, want 0", heap.Used())
	}
	if !a.Released() {
		t.Error("Released() = false after Release")
	}
	if heap.Peak() != 40 {
		t.Errorf("Peak() = %d, want 40", heap.Peak())
	}
}

func TestColorConversion(t *testing.T) {
	tests := []struct {
		in   color.Color
		want Color
	}{
		{color.Black, ColorBlack},
		{color.White, ColorWhite},
		{color.Transparent, ColorClear},
		{color.NRGBA{R: 0xff, G: 0x55, B: 0x00, A: 0xff}, NewColor(3, 3, 1, 0)},
		{color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, NewColor(3, 2, 2, 2)},
	}
	for _, tt := range tests {
		if got := ColorFromRGBA(tt.in); got != tt.want {
			t.Errorf("ColorFromRGBA(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}

	r, g, b, a := ColorWhite.RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Errorf("white RGBA = %x %x %x %x", r, g, b, a)
	}
}

func TestDrawModeTable(t *testing.T) {
	normal, inverted := LookupDrawMode(0), LookupDrawMode(1)
	if normal.Colors[SlotForeground] != inverted.Colors[SlotBackground] {
		t.Error("inverted mode should swap foreground and background")
	}
	if normal.PaintMask != inverted.PaintFG || normal.PaintFG != inverted.PaintMask {
		t.Error("inverted mode should swap mask and foreground ops")
	}
	if LookupDrawMode(3) != inverted {
		t.Error("draw mode bit should be masked to one bit")
	}
}
