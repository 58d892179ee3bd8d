package binary

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/dyuri/dialface/internal/model"
)

// blobBitmap fills a bitmap with runs of random length, the way hand
// artwork has long stretches of one color.
func blobBitmap(t *testing.T, rng *rand.Rand, w, h int, f model.Format) *model.Bitmap {
	t.Helper()
	bmp, err := model.NewBitmap(nil, w, h, f)
	if err != nil {
		t.Fatalf("NewBitmap failed: %v", err)
	}

	levels := 1 << f.BitsPerPixel()
	if f.BitsPerPixel() == 8 {
		levels = 256
	}
	v := uint8(0)
	left := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if left == 0 {
				v = uint8(rng.IntN(levels))
				left = 1 + rng.IntN(12)
			}
			bmp.SetIndex(x, y, v)
			left--
		}
	}
	for i := range bmp.Palette {
		bmp.Palette[i] = model.Color(rng.IntN(256))
	}
	return bmp
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	formats := []model.Format{
		model.Format1Bit,
		model.Format1BitPalette,
		model.Format2BitPalette,
		model.Format4BitPalette,
		model.Format8Bit,
		model.Format8BitCircular,
	}
	sizes := [][2]int{{1, 1}, {8, 3}, {13, 7}, {40, 17}, {64, 64}}

	for _, f := range formats {
		for _, sz := range sizes {
			bmp := blobBitmap(t, rng, sz[0], sz[1], f)
			data, header, err := Encode(bmp, EncodeOptions{})
			if err != nil {
				t.Fatalf("%s %dx%d: Encode failed: %v", f, sz[0], sz[1], err)
			}

			got, err := Decode(data, nil)
			if err != nil {
				t.Fatalf("%s %dx%d (chunk %d): Decode failed: %v", f, sz[0], sz[1], header.ChunkSize, err)
			}

			if !bytes.Equal(got.Data, bmp.Data) {
				t.Errorf("%s %dx%d: pixels differ after round trip", f, sz[0], sz[1])
			}
			if !slices.Equal(got.Palette, bmp.Palette) {
				t.Errorf("%s %dx%d: palette = %v, want %v", f, sz[0], sz[1], got.Palette, bmp.Palette)
			}
			if got.Stride != bmp.Stride {
				t.Errorf("%s %dx%d: Stride = %d, want %d", f, sz[0], sz[1], got.Stride, bmp.Stride)
			}
		}
	}
}

func TestEncodeEveryChunkSize(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	bmp := blobBitmap(t, rng, 24, 20, model.Format4BitPalette)

	for _, n := range []int{1, 2, 4, 8} {
		data, header, err := Encode(bmp, EncodeOptions{ChunkSize: n})
		if err != nil {
			t.Fatalf("chunk %d: Encode failed: %v", n, err)
		}
		if header.ChunkSize != n {
			t.Errorf("ChunkSize = %d, want %d", header.ChunkSize, n)
		}

		got, err := Decode(data, nil)
		if err != nil {
			t.Fatalf("chunk %d: Decode failed: %v", n, err)
		}
		if !bytes.Equal(got.Data, bmp.Data) {
			t.Errorf("chunk %d: pixels differ after round trip", n)
		}
	}
}

func TestEncodePicksSmallest(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	bmp := blobBitmap(t, rng, 32, 32, model.Format1Bit)

	best, _, err := Encode(bmp, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for _, n := range []int{1, 2, 4, 8} {
		forced, _, err := Encode(bmp, EncodeOptions{ChunkSize: n, Unscreen: UnscreenOff})
		if err != nil {
			t.Fatalf("chunk %d: Encode failed: %v", n, err)
		}
		if len(best) > len(forced) {
			t.Errorf("best = %d bytes, chunk %d alone = %d bytes", len(best), n, len(forced))
		}
	}
}

func TestEncodeCheckerboardUnscreens(t *testing.T) {
	bmp, err := model.NewBitmap(nil, 32, 16, model.Format1Bit)
	if err != nil {
		t.Fatalf("NewBitmap failed: %v", err)
	}
	for y := 0; y < bmp.Height; y++ {
		for x := 0; x < bmp.Width; x++ {
			bmp.SetIndex(x, y, uint8((x^y)&1))
		}
	}

	auto, header, err := Encode(bmp, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !header.Unscreen {
		t.Error("checkerboard was not unscreened")
	}

	plain, _, err := Encode(bmp, EncodeOptions{Unscreen: UnscreenOff})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(auto) >= len(plain) {
		t.Errorf("unscreened = %d bytes, plain = %d bytes", len(auto), len(plain))
	}

	got, err := Decode(auto, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got.Data, bmp.Data) {
		t.Error("pixels differ after round trip")
	}
}

func TestWriterWritesResource(t *testing.T) {
	bmp, err := model.NewBitmap(nil, 8, 1, model.Format1Bit)
	if err != nil {
		t.Fatalf("NewBitmap failed: %v", err)
	}
	bmp.Data[0] = 0x0f

	var buf bytes.Buffer
	w := NewWriter(&buf, EncodeOptions{ChunkSize: 8, Unscreen: UnscreenOff})
	if err := w.Write(bmp); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := []byte{8, 1, 8, 0, 11, 0, 0, 0, 0x01, 0x04, 0x1c}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("wrote % x, want % x", buf.Bytes(), want)
	}
}

func TestEncodeRejects(t *testing.T) {
	big, err := model.NewBitmap(nil, 300, 2, model.Format8Bit)
	if err != nil {
		t.Fatalf("NewBitmap failed: %v", err)
	}
	if _, _, err := Encode(big, EncodeOptions{}); !errors.Is(err, model.ErrUsage) {
		t.Errorf("Encode 300 wide error = %v, want ErrUsage", err)
	}

	small, err := model.NewBitmap(nil, 8, 8, model.Format8Bit)
	if err != nil {
		t.Fatalf("NewBitmap failed: %v", err)
	}
	if _, _, err := Encode(small, EncodeOptions{ChunkSize: 3}); !errors.Is(err, model.ErrUsage) {
		t.Errorf("Encode chunk 3 error = %v, want ErrUsage", err)
	}
}
