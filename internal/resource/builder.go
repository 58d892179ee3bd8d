package resource

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// Builder collects resources and writes them as a pack
type Builder struct {
	blobs [][]byte
}

// Add appends a resource and returns its id
func (b *Builder) Add(data []byte) int {
	b.blobs = append(b.blobs, data)
	return len(b.blobs)
}

// Len returns the number of resources added
func (b *Builder) Len() int { return len(b.blobs) }

// Bytes returns the pack file contents
func (b *Builder) Bytes() ([]byte, error) {
	if len(b.blobs) > math.MaxUint16 {
		return nil, fmt.Errorf("too many resources: %d", len(b.blobs))
	}

	header := Header{Version: Version, Count: uint16(len(b.blobs))}
	copy(header.Magic[:], Magic)

	entries := make([]Entry, len(b.blobs))
	offset := int64(headerSize + entrySize*len(b.blobs))
	for i, blob := range b.blobs {
		if offset+int64(len(blob)) > math.MaxUint32 {
			return nil, fmt.Errorf("pack exceeds 4 GiB at resource %d", i+1)
		}
		entries[i] = Entry{Offset: uint32(offset), Size: uint32(len(blob))}
		offset += int64(len(blob))
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, entries); err != nil {
		return nil, err
	}
	for _, blob := range b.blobs {
		buf.Write(blob)
	}
	return buf.Bytes(), nil
}

// Save writes the pack to w, zstd-compressed if compress is set
func (b *Builder) Save(w io.Writer, compress bool) (int64, error) {
	data, err := b.Bytes()
	if err != nil {
		return 0, err
	}
	if !compress {
		n, err := w.Write(data)
		return int64(n), err
	}

	cw := &countingWriter{w: w}
	enc, err := zstd.NewWriter(cw, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return 0, err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return cw.n, err
	}
	if err := enc.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
