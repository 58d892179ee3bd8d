package binary

import "github.com/dyuri/dialface/internal/assert"

// Packer writes runs of repeated pixel values into a zeroed buffer,
// carrying a bit offset across calls.
type Packer struct {
	dst      []byte
	pos      int  // current byte
	bit      int  // bits already used in dst[pos]
	lsbFirst bool // pixels fill a byte from bit 0 upward
}

// NewPacker creates a packer over a zeroed destination buffer
func NewPacker(dst []byte, lsbFirst bool) *Packer {
	return &Packer{dst: dst, lsbFirst: lsbFirst}
}

// Pack1 appends count 1-bit pixels
func (p *Packer) Pack1(value uint8, count int) {
	p.fill(0xff*(value&1), count)
}

// Pack2 appends count 2-bit pixels
func (p *Packer) Pack2(value uint8, count int) {
	p.fill(0x55*(value&3), count*2)
}

// Pack4 appends count 4-bit pixels
func (p *Packer) Pack4(value uint8, count int) {
	p.fill(0x11*(value&0xf), count*4)
}

// Pack8 appends count 8-bit pixels
func (p *Packer) Pack8(value uint8, count int) {
	p.fill(value, count*8)
}

// Pack dispatches on the pixel width
func (p *Packer) Pack(bpp int, value uint8, count int) {
	switch bpp {
	case 1:
		p.Pack1(value, count)
	case 2:
		p.Pack2(value, count)
	case 4:
		p.Pack4(value, count)
	default:
		p.Pack8(value, count)
	}
}

// RemainingBits returns how many bits can still be written
func (p *Packer) RemainingBits() int {
	return (len(p.dst)-p.pos)*8 - p.bit
}

// Done reports whether the buffer was filled exactly
func (p *Packer) Done() bool {
	return p.pos == len(p.dst) && p.bit == 0
}

// Offset returns the current byte and bit position
func (p *Packer) Offset() (int, int) {
	return p.pos, p.bit
}

// mask selects bits [from, to) of a byte in pixel order
func (p *Packer) mask(from, to int) byte {
	if p.lsbFirst {
		return byte(1<<uint(to)-1) &^ byte(1<<uint(from)-1)
	}
	return byte(0xff>>uint(from)) &^ byte(0xff>>uint(to))
}

// fill writes nbits of a replicated byte pattern
func (p *Packer) fill(pattern byte, nbits int) {
	if nbits <= 0 {
		return
	}
	assert.That(nbits <= p.RemainingBits(), "packer overrun: %d bits into %d", nbits, p.RemainingBits())

	if pattern == 0 {
		// Destination is zeroed; only advance.
		total := p.bit + nbits
		p.pos += total / 8
		p.bit = total % 8
		return
	}

	if p.bit != 0 {
		end := p.bit + nbits
		if end < 8 {
			p.dst[p.pos] |= pattern & p.mask(p.bit, end)
			p.bit = end
			return
		}
		p.dst[p.pos] |= pattern & p.mask(p.bit, 8)
		p.pos++
		p.bit = 0
		nbits = end - 8
	}

	if full := nbits / 8; full > 0 {
		seg := p.dst[p.pos : p.pos+full]
		for i := range seg {
			seg[i] = pattern
		}
		p.pos += full
		nbits -= full * 8
	}

	if nbits > 0 {
		p.dst[p.pos] |= pattern & p.mask(0, nbits)
		p.bit = nbits
	}
}
