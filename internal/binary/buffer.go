package binary

import (
	"fmt"
	"io"
)

// PageSize is the read-ahead window of a paged Buffer
const PageSize = 64

// Buffer is a sequential byte source over either a paged io.ReaderAt
// range or an in-memory slice. Short or failed reads while paging end
// the stream; they never surface as errors.
type Buffer struct {
	r      io.ReaderAt // nil for in-memory buffers
	page   []byte      // page[k] holds the byte at absolute offset base+k
	base   int64
	i      int   // next index in page
	filled int   // valid bytes in page
	pos    int64 // next absolute offset to fetch from r
	end    int64 // logical end (exclusive)
}

// NewBuffer creates a paged reader over r[offset:offset+size]
func NewBuffer(r io.ReaderAt, offset, size int64) *Buffer {
	return &Buffer{
		r:    r,
		page: make([]byte, PageSize),
		base: offset,
		pos:  offset,
		end:  offset + size,
	}
}

// NewBytesBuffer creates a reader over an in-memory slice
func NewBytesBuffer(data []byte) *Buffer {
	return &Buffer{
		page:   data,
		filled: len(data),
		pos:    int64(len(data)),
		end:    int64(len(data)),
	}
}

// ReadByte returns the next byte or io.EOF
func (b *Buffer) ReadByte() (byte, error) {
	if b.i >= b.filled && !b.fill() {
		return 0, io.EOF
	}
	c := b.page[b.i]
	b.i++
	return c, nil
}

// fill fetches the next page; it reports false at end of stream
func (b *Buffer) fill() bool {
	if b.r == nil || b.pos >= b.end {
		return false
	}
	n := int64(len(b.page))
	if rest := b.end - b.pos; rest < n {
		n = rest
	}
	got, _ := b.r.ReadAt(b.page[:n], b.pos)
	if got <= 0 {
		// Treat a failed read as the end of the range.
		b.end = b.pos
		return false
	}
	b.base = b.pos
	b.pos += int64(got)
	b.i = 0
	b.filled = got
	return true
}

// Offset returns the absolute offset of the next byte ReadByte will return
func (b *Buffer) Offset() int64 {
	return b.base + int64(b.i)
}

// End returns the logical end offset
func (b *Buffer) End() int64 {
	return b.end
}

// Split returns a reader over [point, end) and truncates b to end at
// point. Bytes past point already paged into b are clipped. Splitting
// behind the read position is a programming error and panics.
func (b *Buffer) Split(point int64) *Buffer {
	if point > b.end {
		point = b.end
	}
	if point < b.Offset() {
		panic(fmt.Sprintf("binary: split at %d behind read offset %d", point, b.Offset()))
	}

	back := &Buffer{r: b.r, base: point, pos: point, end: b.end}
	if b.r == nil {
		back.page = b.page[point-b.base : b.end-b.base]
		back.filled = len(back.page)
		back.pos = b.end
	} else {
		back.page = make([]byte, PageSize)
	}

	b.end = point
	if b.pos > point {
		b.pos = point
	}
	if limit := int(point - b.base); b.filled > limit {
		b.filled = limit
	}
	return back
}

// Discard skips up to n bytes and returns how many were skipped
func (b *Buffer) Discard(n int) int {
	for i := 0; i < n; i++ {
		if _, err := b.ReadByte(); err != nil {
			return i
		}
	}
	return n
}
