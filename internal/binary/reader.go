package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dyuri/dialface/internal/bitmap"
	"github.com/dyuri/dialface/internal/model"
)

// HeaderSize is the fixed size of an encoded image header
const HeaderSize = 8

// Bit 7 of the chunk-size byte requests the unscreen post-pass
const unscreenFlag = 0x80

// rawHeader mirrors the on-disk header layout
type rawHeader struct {
	Width         uint8
	Height        uint8
	N             uint8
	Format        uint8
	ValueOffset   uint16
	PaletteOffset uint16
}

// Header describes an encoded image resource
type Header struct {
	Width         int
	Height        int
	ChunkSize     int  // Bits per run-length chunk: 1, 2, 4 or 8
	Unscreen      bool // XOR the checkerboard after decoding
	Format        model.Format
	ValueOffset   int // Start of the value stream
	PaletteOffset int // Start of the palette, 0 if the format has none
}

// MarshalBinary encodes the header
func (h *Header) MarshalBinary() ([]byte, error) {
	n := uint8(h.ChunkSize)
	if h.Unscreen {
		n |= unscreenFlag
	}
	raw := rawHeader{
		Width:         uint8(h.Width),
		Height:        uint8(h.Height),
		N:             n,
		Format:        uint8(h.Format),
		ValueOffset:   uint16(h.ValueOffset),
		PaletteOffset: uint16(h.PaletteOffset),
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the header fields without validating them
func (h *Header) UnmarshalBinary(data []byte) error {
	var raw rawHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw); err != nil {
		return fmt.Errorf("%w: truncated header", model.ErrFormat)
	}
	*h = Header{
		Width:         int(raw.Width),
		Height:        int(raw.Height),
		ChunkSize:     int(raw.N &^ unscreenFlag),
		Unscreen:      raw.N&unscreenFlag != 0,
		Format:        model.Format(raw.Format),
		ValueOffset:   int(raw.ValueOffset),
		PaletteOffset: int(raw.PaletteOffset),
	}
	return nil
}

// Validate checks the header against the resource size
func (h *Header) Validate(size int64) error {
	switch h.ChunkSize {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("%w: chunk size %d", model.ErrFormat, h.ChunkSize)
	}
	if !h.Format.Valid() {
		return fmt.Errorf("%w: unknown pixel format %d", model.ErrFormat, uint8(h.Format))
	}
	if h.ValueOffset < HeaderSize || int64(h.ValueOffset) > size {
		return fmt.Errorf("%w: value offset %d outside [%d, %d]", model.ErrFormat, h.ValueOffset, HeaderSize, size)
	}
	if int64(h.PaletteOffset) > size {
		return fmt.Errorf("%w: palette offset %d past end %d", model.ErrFormat, h.PaletteOffset, size)
	}
	if n := h.Format.PaletteSize(); n > 0 || h.PaletteOffset != 0 {
		if h.PaletteOffset < h.ValueOffset {
			return fmt.Errorf("%w: palette offset %d before value offset %d", model.ErrFormat, h.PaletteOffset, h.ValueOffset)
		}
		if int64(h.PaletteOffset+n) > size {
			return fmt.Errorf("%w: palette of %d entries runs past end %d", model.ErrFormat, n, size)
		}
	}
	return nil
}

// Reader decodes encoded image resources
type Reader struct {
	r      io.ReaderAt
	data   []byte // set for in-memory resources
	size   int64
	header *Header
}

// NewReader creates a decoder over a resource served by ReadAt
func NewReader(r io.ReaderAt, size int64) *Reader {
	return &Reader{r: r, size: size}
}

// NewBytesReader creates a decoder over an in-memory resource
func NewBytesReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data), data: data, size: int64(len(data))}
}

// ReadHeader reads and validates the resource header
func (r *Reader) ReadHeader() (*Header, error) {
	if r.header != nil {
		return r.header, nil
	}

	buf := make([]byte, HeaderSize)
	if _, err := r.r.ReadAt(buf, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated header", model.ErrFormat)
		}
		return nil, fmt.Errorf("%w: %w", model.ErrResourceRead, err)
	}

	var h Header
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	if err := h.Validate(r.size); err != nil {
		return nil, err
	}

	r.header = &h
	return r.header, nil
}

func (r *Reader) stream() *Buffer {
	var b *Buffer
	if r.data != nil {
		b = NewBytesBuffer(r.data)
	} else {
		b = NewBuffer(r.r, 0, r.size)
	}
	b.Discard(HeaderSize)
	return b
}

// Decode reconstructs the bitmap. Buffers come from alloc, which may be
// nil. Any failure releases the partial bitmap and returns an error; a
// returned bitmap always has every byte accounted for.
func (r *Reader) Decode(alloc model.Allocator) (*model.Bitmap, error) {
	h, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}

	bmp, err := model.NewBitmap(alloc, h.Width, h.Height, h.Format)
	if err != nil {
		return nil, fmt.Errorf("allocate %dx%d %s bitmap: %w", h.Width, h.Height, h.Format, err)
	}

	if err := r.decodeInto(h, bmp); err != nil {
		bmp.Release()
		return nil, err
	}
	return bmp, nil
}

func (r *Reader) decodeInto(h *Header, bmp *model.Bitmap) error {
	runs := r.stream()
	values := runs.Split(int64(h.ValueOffset))

	var palette *Buffer
	if h.Format.HasPalette() {
		palette = values.Split(int64(h.PaletteOffset))
	}

	bpp := h.Format.BitsPerPixel()
	packer := NewPacker(bmp.Data, h.Format.LSBFirst())
	rl := NewUnpacker(runs, h.ChunkSize, true)

	if bpp == 1 {
		// Runs alternate black and white after an implicit leading black pixel.
		value := uint8(0)
		first := true
		for {
			count, ok := rl.Next()
			if !ok {
				break
			}
			if first {
				count--
				first = false
			}
			if count > packer.RemainingBits() {
				return fmt.Errorf("%w: run of %d overflows buffer at %d", model.ErrFormat, count, runs.Offset())
			}
			packer.Pack1(value, count)
			value ^= 1
		}
	} else {
		vals := NewUnpacker(values, bpp, false)
		for {
			count, ok := rl.Next()
			if !ok {
				break
			}
			value, ok := vals.Next()
			if !ok {
				return fmt.Errorf("%w: value stream ended before run stream", model.ErrFormat)
			}
			if count*bpp > packer.RemainingBits() {
				return fmt.Errorf("%w: run of %d overflows buffer at %d", model.ErrFormat, count, runs.Offset())
			}
			packer.Pack(bpp, uint8(value), count)
		}
	}

	if !packer.Done() {
		pos, bit := packer.Offset()
		return fmt.Errorf("%w: decoded %d bytes + %d bits, want %d bytes", model.ErrFormat, pos, bit, len(bmp.Data))
	}

	if palette != nil {
		for i := range bmp.Palette {
			c, err := palette.ReadByte()
			if err != nil {
				return fmt.Errorf("%w: palette truncated at entry %d", model.ErrFormat, i)
			}
			bmp.Palette[i] = model.Color(c)
		}
	}

	if h.Unscreen {
		bitmap.Unscreen(bmp)
	}
	return nil
}

// Decode is a convenience for decoding an in-memory resource
func Decode(data []byte, alloc model.Allocator) (*model.Bitmap, error) {
	return NewBytesReader(data).Decode(alloc)
}
