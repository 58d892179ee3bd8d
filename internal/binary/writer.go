package binary

import (
	"bytes"
	"fmt"
	"io"
	"math/bits"

	"github.com/dyuri/dialface/internal/bitmap"
	"github.com/dyuri/dialface/internal/model"
)

// UnscreenMode controls the checkerboard pre-pass of 1-bit images
type UnscreenMode int

const (
	UnscreenAuto UnscreenMode = iota // Keep whichever encoding is smaller
	UnscreenOff
	UnscreenOn
)

// EncodeOptions tunes the encoder
type EncodeOptions struct {
	ChunkSize int // Run-length chunk size; 0 tries 1, 2, 4 and 8
	Unscreen  UnscreenMode
}

// Writer encodes bitmaps into the run-length image format
type Writer struct {
	w    io.Writer
	opts EncodeOptions
}

// NewWriter creates an encoder writing to w
func NewWriter(w io.Writer, opts EncodeOptions) *Writer {
	return &Writer{w: w, opts: opts}
}

// Write encodes bmp and writes the resource
func (w *Writer) Write(bmp *model.Bitmap) error {
	data, _, err := Encode(bmp, w.opts)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// run is one stretch of identical pixels
type run struct {
	value uint8
	count int
}

// Encode produces the smallest encoding allowed by opts, along with its header
func Encode(bmp *model.Bitmap, opts EncodeOptions) ([]byte, *Header, error) {
	if !bmp.Format.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown pixel format %d", model.ErrFormat, uint8(bmp.Format))
	}
	if bmp.Width > 0xff || bmp.Height > 0xff {
		return nil, nil, fmt.Errorf("%w: %dx%d exceeds 255x255", model.ErrUsage, bmp.Width, bmp.Height)
	}
	if len(bmp.Data) != bmp.Height*bmp.Stride || bmp.Stride != bmp.Format.Stride(bmp.Width) {
		return nil, nil, fmt.Errorf("%w: buffer of %d bytes for %dx%d %s", model.ErrUsage, len(bmp.Data), bmp.Width, bmp.Height, bmp.Format)
	}

	chunks := []int{1, 2, 4, 8}
	if opts.ChunkSize != 0 {
		switch opts.ChunkSize {
		case 1, 2, 4, 8:
		default:
			return nil, nil, fmt.Errorf("%w: chunk size %d", model.ErrUsage, opts.ChunkSize)
		}
		chunks = []int{opts.ChunkSize}
	}

	screens := []bool{false}
	if bmp.Format.BitsPerPixel() == 1 {
		switch opts.Unscreen {
		case UnscreenAuto:
			screens = []bool{false, true}
		case UnscreenOn:
			screens = []bool{true}
		}
	}

	var best []byte
	var bestHeader *Header
	for _, unscreen := range screens {
		runs, err := buildRuns(bmp, unscreen)
		if err != nil {
			return nil, nil, err
		}
		for _, n := range chunks {
			data, h, err := assemble(bmp, runs, n, unscreen)
			if err != nil {
				return nil, nil, err
			}
			if best == nil || len(data) < len(best) {
				best, bestHeader = data, h
			}
		}
	}
	return best, bestHeader, nil
}

// buildRuns walks every pixel slot of the buffer, row padding included,
// in the format's bit order.
func buildRuns(bmp *model.Bitmap, unscreen bool) ([]run, error) {
	data := bmp.Data
	if unscreen {
		screened, err := bmp.Clone()
		if err != nil {
			return nil, err
		}
		defer screened.Release()
		bitmap.Unscreen(screened)
		data = screened.Data
	}

	bpp := bmp.Format.BitsPerPixel()
	mask := uint8(1)<<bpp - 1
	perByte := 8 / bpp
	lsb := bmp.Format.LSBFirst()

	var runs []run
	cur := run{}
	if bpp == 1 {
		// Implicit leading black pixel: no run is ever empty.
		cur.count = 1
	}
	for _, c := range data {
		for k := 0; k < perByte; k++ {
			shift := 8 - bpp - k*bpp
			if lsb {
				shift = k * bpp
			}
			v := (c >> shift) & mask
			switch {
			case cur.count == 0:
				cur = run{value: v, count: 1}
			case v == cur.value:
				cur.count++
			default:
				runs = append(runs, cur)
				cur = run{value: v, count: 1}
			}
		}
	}
	if cur.count > 0 {
		runs = append(runs, cur)
	}
	return runs, nil
}

// bitWriter appends n-bit chunks most significant bit first
type bitWriter struct {
	buf  bytes.Buffer
	cur  byte
	used uint
}

func (w *bitWriter) put(v uint, n uint) {
	for n > 0 {
		take := 8 - w.used
		if n < take {
			take = n
		}
		n -= take
		w.cur |= byte((v>>n)&(1<<take-1)) << (8 - w.used - take)
		w.used += take
		if w.used == 8 {
			w.buf.WriteByte(w.cur)
			w.cur, w.used = 0, 0
		}
	}
}

// putExpanded writes v (>= 1) as zero-prefixed n-bit chunks
func (w *bitWriter) putExpanded(v int, n uint) {
	numChunks := (uint(bits.Len(uint(v))) + n - 1) / n
	for i := uint(1); i < numChunks; i++ {
		w.put(0, n)
	}
	w.put(uint(v), numChunks*n)
}

func (w *bitWriter) bytes() []byte {
	if w.used > 0 {
		w.buf.WriteByte(w.cur)
		w.cur, w.used = 0, 0
	}
	return w.buf.Bytes()
}

func assemble(bmp *model.Bitmap, runs []run, n int, unscreen bool) ([]byte, *Header, error) {
	bpp := bmp.Format.BitsPerPixel()

	var rl, vals bitWriter
	for _, r := range runs {
		rl.putExpanded(r.count, uint(n))
		if bpp > 1 {
			vals.put(uint(r.value), uint(bpp))
		}
	}
	rlBytes := rl.bytes()
	valBytes := vals.bytes()

	h := &Header{
		Width:       bmp.Width,
		Height:      bmp.Height,
		ChunkSize:   n,
		Unscreen:    unscreen,
		Format:      bmp.Format,
		ValueOffset: HeaderSize + len(rlBytes),
	}
	if bmp.Format.HasPalette() {
		h.PaletteOffset = h.ValueOffset + len(valBytes)
	}
	total := h.ValueOffset + len(valBytes) + bmp.Format.PaletteSize()
	if total > 0xffff {
		return nil, nil, fmt.Errorf("%w: encoded size %d exceeds 16-bit offsets", model.ErrUsage, total)
	}

	head, err := h.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	out := make([]byte, 0, total)
	out = append(out, head...)
	out = append(out, rlBytes...)
	out = append(out, valBytes...)
	for i := 0; i < bmp.Format.PaletteSize(); i++ {
		var c model.Color
		if i < len(bmp.Palette) {
			c = bmp.Palette[i]
		}
		out = append(out, byte(c))
	}
	return out, h, nil
}
