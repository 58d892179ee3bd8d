package binary

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func drain(t *testing.T, b *Buffer) []byte {
	t.Helper()
	var out []byte
	for {
		c, err := b.ReadByte()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadByte failed: %v", err)
		}
		out = append(out, c)
	}
}

func TestBufferPagedReadsWholeRange(t *testing.T) {
	data := sequence(200)
	b := NewBuffer(bytes.NewReader(data), 0, int64(len(data)))
	if got := drain(t, b); !bytes.Equal(got, data) {
		t.Errorf("read % x, want % x", got, data)
	}

	// EOF is sticky.
	if _, err := b.ReadByte(); err != io.EOF {
		t.Errorf("ReadByte after end = %v, want io.EOF", err)
	}
}

func TestBufferPagedSubrange(t *testing.T) {
	data := sequence(200)
	b := NewBuffer(bytes.NewReader(data), 70, 50)
	if got := drain(t, b); !bytes.Equal(got, data[70:120]) {
		t.Errorf("read % x, want % x", got, data[70:120])
	}
}

func TestBufferSplitClipsLookahead(t *testing.T) {
	data := sequence(100)
	for name, b := range map[string]*Buffer{
		"paged":  NewBuffer(bytes.NewReader(data), 0, int64(len(data))),
		"memory": NewBytesBuffer(data),
	} {
		t.Run(name, func(t *testing.T) {
			// The first read pages in more than the split point.
			c, err := b.ReadByte()
			if err != nil || c != 0 {
				t.Fatalf("ReadByte = %d, %v, want 0, nil", c, err)
			}

			back := b.Split(10)
			if got := drain(t, b); !bytes.Equal(got, data[1:10]) {
				t.Errorf("front = % x, want % x", got, data[1:10])
			}
			if got := drain(t, back); !bytes.Equal(got, data[10:]) {
				t.Errorf("back = % x, want % x", got, data[10:])
			}
		})
	}
}

func TestBufferSplitTwice(t *testing.T) {
	data := sequence(100)
	b := NewBuffer(bytes.NewReader(data), 0, int64(len(data)))
	mid := b.Split(30)
	tail := mid.Split(80)

	for _, part := range []struct {
		name string
		b    *Buffer
		want []byte
	}{
		{"head", b, data[:30]},
		{"mid", mid, data[30:80]},
		{"tail", tail, data[80:]},
	} {
		if got := drain(t, part.b); !bytes.Equal(got, part.want) {
			t.Errorf("%s = % x, want % x", part.name, got, part.want)
		}
	}
}

func TestBufferSplitBehindReadPanics(t *testing.T) {
	b := NewBytesBuffer(sequence(40))
	if got := b.Discard(20); got != 20 {
		t.Fatalf("Discard(20) = %d, want 20", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("Split behind the read position did not panic")
		}
	}()
	b.Split(10)
}

func TestBufferSplitPastEnd(t *testing.T) {
	b := NewBytesBuffer(sequence(10))
	back := b.Split(50)
	if got := drain(t, b); len(got) != 10 {
		t.Errorf("front length = %d, want 10", len(got))
	}
	if got := drain(t, back); len(got) != 0 {
		t.Errorf("back = % x, want empty", got)
	}
}

// failingReader serves the first n bytes and then errors
type failingReader struct {
	data []byte
	n    int64
}

func (f *failingReader) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.n {
		return 0, errors.New("device busy")
	}
	avail := f.n - off
	if int64(len(p)) > avail {
		copy(p, f.data[off:f.n])
		return int(avail), errors.New("device busy")
	}
	return copy(p, f.data[off:]), nil
}

func TestBufferShortReadIsEndOfStream(t *testing.T) {
	data := sequence(150)
	b := NewBuffer(&failingReader{data: data, n: 90}, 0, int64(len(data)))
	if got := drain(t, b); !bytes.Equal(got, data[:90]) {
		t.Errorf("read %d bytes, want the first 90", len(got))
	}
}
