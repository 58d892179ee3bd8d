// Package dialface provides functions for working with watch-face
// artwork and face definitions.
//
// This package can be used as a library to encode and decode run-length
// image resources and to parse face definition files.
//
// Example usage:
//
//	f, _ := os.Open("hand.rle")
//	defer f.Close()
//	stat, _ := f.Stat()
//
//	bmp, err := dialface.DecodeImage(f, stat.Size())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png.Encode(out, dialface.ToImage(bmp))
package dialface

import (
	"errors"
	"image"
	"image/color"
	"io"

	"github.com/ericpauley/go-quantize/quantize"

	"github.com/dyuri/dialface/internal/binary"
	"github.com/dyuri/dialface/internal/model"
	"github.com/dyuri/dialface/internal/text"
)

type (
	Bitmap        = model.Bitmap
	Format        = model.Format
	Color         = model.Color
	FaceDef       = model.FaceDef
	Header        = binary.Header
	EncodeOptions = binary.EncodeOptions
)

// DecodeImage reads an encoded image resource.
//
// The reader must support ReadAt for random access. The size parameter
// should be the total resource size in bytes.
func DecodeImage(r io.ReaderAt, size int64) (*Bitmap, error) {
	bmp, err := binary.NewReader(r, size).Decode(nil)
	if err != nil {
		return nil, wrap(err)
	}
	return bmp, nil
}

// ReadHeader reads only the header of an encoded image resource
func ReadHeader(r io.ReaderAt, size int64) (*Header, error) {
	h, err := binary.NewReader(r, size).ReadHeader()
	if err != nil {
		return nil, wrap(err)
	}
	return h, nil
}

// EncodeImage writes bmp in the run-length image format.
//
// Example:
//
//	out, _ := os.Create("hand.rle")
//	defer out.Close()
//	err := EncodeImage(out, bmp, EncodeOptions{})
func EncodeImage(w io.Writer, bmp *Bitmap, opts EncodeOptions) error {
	if err := binary.NewWriter(w, opts).Write(bmp); err != nil {
		return wrap(err)
	}
	return nil
}

// ParseFace reads a face definition file
func ParseFace(r io.Reader) (*FaceDef, error) {
	def, err := text.NewReader(r).Read()
	if err != nil {
		return nil, &Error{Code: "invalid_face", Message: "invalid face definition", Cause: err}
	}
	if err := def.Validate(); err != nil {
		return nil, &Error{Code: "invalid_face", Message: "invalid face definition", Cause: err}
	}
	return def, nil
}

// WriteFace writes a face definition file
func WriteFace(w io.Writer, def *FaceDef) error {
	return text.NewWriter(w).Write(def)
}

// ToImage converts a bitmap to a standard image
func ToImage(bmp *Bitmap) *image.NRGBA {
	img := image.NewNRGBA(bmp.Bounds())
	for y := 0; y < bmp.Height; y++ {
		for x := 0; x < bmp.Width; x++ {
			img.Set(x, y, bmp.ColorAt(x, y))
		}
	}
	return img
}

// AutoFormat picks the smallest format that holds img without
// further color loss.
func AutoFormat(img image.Image) Format {
	seen := make(map[Color]bool)
	bw := true
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := model.ColorFromRGBA(img.At(x, y))
			seen[c] = true
			if c != model.ColorBlack && c != model.ColorWhite {
				bw = false
			}
		}
	}
	switch {
	case bw:
		return model.Format1Bit
	case len(seen) <= 2:
		return model.Format1BitPalette
	case len(seen) <= 4:
		return model.Format2BitPalette
	case len(seen) <= 16:
		return model.Format4BitPalette
	default:
		return model.Format8Bit
	}
}

// FromImage converts img to a bitmap of the given format. Palette
// formats with too few entries for the image are quantized with a
// median cut.
func FromImage(img image.Image, format Format) (*Bitmap, error) {
	b := img.Bounds()
	bmp, err := model.NewBitmap(nil, b.Dx(), b.Dy(), format)
	if err != nil {
		return nil, wrap(err)
	}

	switch {
	case format == model.Format1Bit:
		for y := 0; y < bmp.Height; y++ {
			for x := 0; x < bmp.Width; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				if g.Y >= 0x80 && a >= 0x8000 {
					bmp.SetIndex(x, y, 1)
				}
			}
		}

	case format.HasPalette():
		pal := palette(img, format.PaletteSize())
		bmp.Palette = make([]Color, format.PaletteSize())
		for i, c := range pal {
			bmp.Palette[i] = c.(Color)
		}
		for y := 0; y < bmp.Height; y++ {
			for x := 0; x < bmp.Width; x++ {
				c := model.ColorFromRGBA(img.At(b.Min.X+x, b.Min.Y+y))
				bmp.SetIndex(x, y, uint8(pal.Index(c)))
			}
		}

	default:
		for y := 0; y < bmp.Height; y++ {
			for x := 0; x < bmp.Width; x++ {
				bmp.SetIndex(x, y, uint8(model.ColorFromRGBA(img.At(b.Min.X+x, b.Min.Y+y))))
			}
		}
	}
	return bmp, nil
}

// palette returns at most n distinct colors covering img
func palette(img image.Image, n int) color.Palette {
	var exact color.Palette
	seen := make(map[Color]bool)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := model.ColorFromRGBA(img.At(x, y))
			if !seen[c] {
				seen[c] = true
				exact = append(exact, c)
			}
		}
	}
	if len(exact) <= n {
		return exact
	}

	q := quantize.MedianCutQuantizer{}
	var out color.Palette
	seen = make(map[Color]bool)
	for _, c := range q.Quantize(make(color.Palette, 0, n), img) {
		mc := model.ColorFromRGBA(c)
		if !seen[mc] {
			seen[mc] = true
			out = append(out, mc)
		}
	}
	return out
}

// Common errors
var (
	ErrInvalidFormat = &Error{Code: "invalid_format", Message: "invalid image format"}
	ErrInvalidUsage  = &Error{Code: "invalid_usage", Message: "invalid usage"}
	ErrResourceRead  = &Error{Code: "resource_read", Message: "resource read failed"}
	ErrOutOfMemory   = &Error{Code: "out_of_memory", Message: "out of memory"}
)

var sentinels = map[string]error{
	"invalid_format": model.ErrFormat,
	"invalid_usage":  model.ErrUsage,
	"resource_read":  model.ErrResourceRead,
	"out_of_memory":  model.ErrOutOfMemory,
}

// Error represents a dialface error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code, and the internal sentinel
// behind each code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	return sentinels[e.Code] != nil && sentinels[e.Code] == target
}

// wrap classifies an internal error under its public code
func wrap(err error) error {
	for _, pub := range []*Error{ErrInvalidFormat, ErrInvalidUsage, ErrResourceRead, ErrOutOfMemory} {
		if errors.Is(err, sentinels[pub.Code]) {
			return &Error{Code: pub.Code, Message: pub.Message, Cause: err}
		}
	}
	return err
}
