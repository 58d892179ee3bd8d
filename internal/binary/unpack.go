package binary

import "io"

// maxValueBits bounds a zero-expanded value so it always fits a
// non-negative int32.
const maxValueBits = 31

// Unpacker decodes a stream of n-bit chunks into integers.
//
// In zero-expanding mode each value is prefixed by k zero chunks and
// occupies (k+1)*n bits, most significant chunk first; its first chunk
// is therefore never zero. Otherwise every chunk is one value.
type Unpacker struct {
	src         io.ByteReader
	n           uint
	zeroExpands bool

	b   byte
	bi  uint // unread bits left in b, counted from the top
	eof bool
}

// NewUnpacker creates an unpacker over src with chunk size n (1, 2, 4 or 8)
func NewUnpacker(src io.ByteReader, n int, zeroExpands bool) *Unpacker {
	u := &Unpacker{src: src, n: uint(n), zeroExpands: zeroExpands}
	u.next()
	return u
}

func (u *Unpacker) next() {
	c, err := u.src.ReadByte()
	if err != nil {
		u.eof = true
		u.bi = 0
		return
	}
	u.b = c
	u.bi = 8
}

func (u *Unpacker) chunk() byte {
	u.bi -= u.n
	return (u.b >> u.bi) & (1<<u.n - 1)
}

// Next returns the next value; ok is false at end of stream. A value
// cut short by the end of stream, or one wider than 31 bits, also ends
// the sequence.
func (u *Unpacker) Next() (value int, ok bool) {
	if u.n == 0 || u.n > 8 {
		return 0, false
	}
	if !u.zeroExpands {
		if u.bi == 0 {
			u.next()
		}
		if u.eof {
			return 0, false
		}
		return int(u.chunk()), true
	}

	// Count leading zero chunks.
	zeros := uint(0)
	for {
		if u.bi == 0 {
			u.next()
		}
		if u.eof {
			return 0, false
		}
		if (u.b>>(u.bi-u.n))&(1<<u.n-1) != 0 {
			break
		}
		zeros++
		u.bi -= u.n
		if (zeros+1)*u.n > maxValueBits {
			u.eof = true
			u.bi = 0
			return 0, false
		}
	}

	bits := (zeros + 1) * u.n
	for bits > 0 {
		if u.bi == 0 {
			u.next()
			if u.eof {
				return 0, false
			}
		}
		take := u.bi
		if bits < take {
			take = bits
		}
		u.bi -= take
		value = value<<take | int((u.b>>u.bi)&(1<<take-1))
		bits -= take
	}
	return value, true
}
