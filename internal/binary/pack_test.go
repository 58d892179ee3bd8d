package binary

import (
	"bytes"
	"testing"
)

func TestPack1LSBFirst(t *testing.T) {
	dst := make([]byte, 4)
	p := NewPacker(dst, true)
	p.Pack1(0, 3)
	p.Pack1(1, 7) // bits 3..9
	p.Pack1(0, 6)
	p.Pack1(1, 16) // bytes 2 and 3

	want := []byte{0xf8, 0x03, 0xff, 0xff}
	if !bytes.Equal(dst, want) {
		t.Errorf("got % x, want % x", dst, want)
	}
	if !p.Done() {
		pos, bit := p.Offset()
		t.Errorf("Done() = false at %d.%d", pos, bit)
	}
}

func TestPack1MSBFirst(t *testing.T) {
	dst := make([]byte, 2)
	p := NewPacker(dst, false)
	p.Pack1(0, 3)
	p.Pack1(1, 7)
	p.Pack1(0, 6)

	want := []byte{0x1f, 0xc0}
	if !bytes.Equal(dst, want) {
		t.Errorf("got % x, want % x", dst, want)
	}
}

func TestPack2And4(t *testing.T) {
	dst := make([]byte, 3)
	p := NewPacker(dst, false)
	p.Pack2(1, 1)
	p.Pack2(2, 2)
	p.Pack2(3, 1)
	p.Pack4(0xa, 1)
	p.Pack4(0x5, 3)

	want := []byte{0x6b, 0xa5, 0x55}
	if !bytes.Equal(dst, want) {
		t.Errorf("got % x, want % x", dst, want)
	}
	if !p.Done() {
		t.Error("Done() = false")
	}
}

func TestPack8(t *testing.T) {
	dst := make([]byte, 6)
	p := NewPacker(dst, false)
	p.Pack8(0x00, 2)
	p.Pack8(0xc3, 3)
	p.Pack8(0x7f, 1)

	want := []byte{0, 0, 0xc3, 0xc3, 0xc3, 0x7f}
	if !bytes.Equal(dst, want) {
		t.Errorf("got % x, want % x", dst, want)
	}
}

func TestPackZeroRunOnlyAdvances(t *testing.T) {
	dst := make([]byte, 8)
	p := NewPacker(dst, true)
	p.Pack1(0, 61)
	if pos, bit := p.Offset(); pos != 7 || bit != 5 {
		t.Errorf("Offset() = %d.%d, want 7.5", pos, bit)
	}
	if got := p.RemainingBits(); got != 3 {
		t.Errorf("RemainingBits() = %d, want 3", got)
	}
	for i, b := range dst {
		if b != 0 {
			t.Errorf("dst[%d] = %#x, want 0", i, b)
		}
	}
}

func TestPackLongRunAcrossBoundary(t *testing.T) {
	dst := make([]byte, 10)
	p := NewPacker(dst, true)
	p.Pack1(0, 4)
	p.Pack1(1, 72)
	p.Pack1(0, 4)

	want := []byte{0xf0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0f}
	if !bytes.Equal(dst, want) {
		t.Errorf("got % x, want % x", dst, want)
	}
	if !p.Done() {
		t.Error("Done() = false")
	}
}
