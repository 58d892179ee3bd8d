// Package resource reads and writes resource packs: numbered byte
// blobs (mostly encoded images) in one file.
package resource

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	dfbinary "github.com/dyuri/dialface/internal/binary"
	"github.com/dyuri/dialface/internal/model"
)

// Magic opens every pack file
const Magic = "DFRP"

// Version of the pack layout written by Builder
const Version = 1

// Header of a pack file
type Header struct {
	Magic   [4]byte
	Version uint16
	Count   uint16
}

// Entry locates one resource inside the pack
type Entry struct {
	Offset uint32
	Size   uint32
}

const (
	headerSize = 8
	entrySize  = 8
)

// Pack serves byte ranges of numbered resources. IDs start at 1.
type Pack struct {
	r       io.ReaderAt
	size    int64
	entries []Entry
	alloc   model.Allocator
	closer  io.Closer
}

// Open parses the entry table of a pack held by r
func Open(r io.ReaderAt, size int64) (*Pack, error) {
	sr := io.NewSectionReader(r, 0, size)

	var header Header
	if err := binary.Read(sr, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read pack header: %w", err)
	}
	if string(header.Magic[:]) != Magic {
		return nil, fmt.Errorf("invalid pack signature: %q (expected %s)", header.Magic[:], Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("unsupported pack version %d", header.Version)
	}

	entries := make([]Entry, header.Count)
	if err := binary.Read(sr, binary.LittleEndian, entries); err != nil {
		return nil, fmt.Errorf("failed to read pack entries: %w", err)
	}
	for i, e := range entries {
		if int64(e.Offset)+int64(e.Size) > size {
			return nil, fmt.Errorf("resource %d: %d bytes at %d past end of pack (%d bytes)", i+1, e.Size, e.Offset, size)
		}
	}

	return &Pack{r: r, size: size, entries: entries}, nil
}

// OpenFile opens a pack file. Files ending in .zst are decompressed
// into memory first.
func OpenFile(path string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pack: %w", err)
	}

	if strings.HasSuffix(path, ".zst") {
		defer f.Close()
		data, err := decompress(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		return Open(bytes.NewReader(data), int64(len(data)))
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	p, err := Open(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

func decompress(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return io.ReadAll(dec)
}

// Close releases the underlying file, if any
func (p *Pack) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// SetAllocator makes Load allocate bitmaps from a
func (p *Pack) SetAllocator(a model.Allocator) { p.alloc = a }

// Len returns the number of resources
func (p *Pack) Len() int { return len(p.entries) }

func (p *Pack) entry(id int) (Entry, error) {
	if id < 1 || id > len(p.entries) {
		return Entry{}, fmt.Errorf("%w: no resource %d in pack of %d", model.ErrResourceRead, id, len(p.entries))
	}
	return p.entries[id-1], nil
}

// Size returns the byte length of a resource
func (p *Pack) Size(id int) (int64, error) {
	e, err := p.entry(id)
	if err != nil {
		return 0, err
	}
	return int64(e.Size), nil
}

// ReadRange reads up to length bytes of resource id starting at
// offset. A range running past the resource is cut short.
func (p *Pack) ReadRange(id int, offset, length int64) ([]byte, error) {
	e, err := p.entry(id)
	if err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("%w: range %d+%d", model.ErrUsage, offset, length)
	}
	if offset >= int64(e.Size) {
		return nil, nil
	}
	length = min(length, int64(e.Size)-offset)

	buf := make([]byte, length)
	n, err := p.r.ReadAt(buf, int64(e.Offset)+offset)
	if n < len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return buf[:n], fmt.Errorf("%w: resource %d: %v", model.ErrResourceRead, id, err)
	}
	return buf, nil
}

// Section returns a reader over one resource
func (p *Pack) Section(id int) (*io.SectionReader, error) {
	e, err := p.entry(id)
	if err != nil {
		return nil, err
	}
	return io.NewSectionReader(p.r, int64(e.Offset), int64(e.Size)), nil
}

// Header returns the encoded image header of a resource
func (p *Pack) Header(id int) (*dfbinary.Header, error) {
	sr, err := p.Section(id)
	if err != nil {
		return nil, err
	}
	return dfbinary.NewReader(sr, sr.Size()).ReadHeader()
}

// Load decodes the image stored as resource id
func (p *Pack) Load(id int) (*model.Bitmap, error) {
	sr, err := p.Section(id)
	if err != nil {
		return nil, err
	}
	bmp, err := dfbinary.NewReader(sr, sr.Size()).Decode(p.alloc)
	if err != nil {
		return nil, fmt.Errorf("resource %d: %w", id, err)
	}
	return bmp, nil
}
