package text

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/dyuri/dialface/internal/model"
)

// xpmBuilder builds a bitmap from XPM strings
type xpmBuilder struct {
	width   int
	height  int
	ncolors int
	cpp     int // chars per pixel
	lines   []string
}

// newXPMBuilder creates a builder from the values line
// "width height ncolors cpp"
func newXPMBuilder(header string) (*xpmBuilder, error) {
	parts := strings.Fields(strings.Trim(header, "\""))
	if len(parts) < 4 {
		return nil, fmt.Errorf("XPM values %q: want width height ncolors cpp", header)
	}

	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("XPM values %q: bad field %d", header, i+1)
		}
		v[i] = n
	}
	if v[0] > 255 || v[1] > 255 {
		return nil, fmt.Errorf("XPM %dx%d exceeds 255x255", v[0], v[1])
	}

	return &xpmBuilder{width: v[0], height: v[1], ncolors: v[2], cpp: v[3]}, nil
}

// addLine adds a color or pixel row string
func (x *xpmBuilder) addLine(line string) {
	x.lines = append(x.lines, strings.Trim(line, "\""))
}

// parseXPMColor reads the "c" key of a color line
func parseXPMColor(def string) (model.Color, error) {
	fields := strings.Fields(def)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] != "c" {
			continue
		}
		v := fields[i+1]
		switch {
		case strings.EqualFold(v, "none"):
			return model.ColorClear, nil
		case strings.EqualFold(v, "black"):
			return model.ColorBlack, nil
		case strings.EqualFold(v, "white"):
			return model.ColorWhite, nil
		case strings.HasPrefix(v, "#") && len(v) == 7:
			rgb, err := strconv.ParseUint(v[1:], 16, 32)
			if err != nil {
				return 0, fmt.Errorf("bad color %q", v)
			}
			return model.ColorFromRGBA(color.NRGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}), nil
		default:
			return 0, fmt.Errorf("unsupported color %q", v)
		}
	}
	return 0, fmt.Errorf("no color key in %q", def)
}

// build constructs the bitmap in the smallest format holding its colors
func (x *xpmBuilder) build() (*model.Bitmap, error) {
	if len(x.lines) < x.ncolors+x.height {
		return nil, fmt.Errorf("XPM has %d strings, want %d", len(x.lines), x.ncolors+x.height)
	}

	index := make(map[string]int, x.ncolors)
	palette := make([]model.Color, 0, x.ncolors)
	for _, line := range x.lines[:x.ncolors] {
		if len(line) < x.cpp {
			return nil, fmt.Errorf("XPM color line %q too short", line)
		}
		c, err := parseXPMColor(line[x.cpp:])
		if err != nil {
			return nil, err
		}
		index[line[:x.cpp]] = len(palette)
		palette = append(palette, c)
	}

	format := formatFor(palette)
	bmp, err := model.NewBitmap(nil, x.width, x.height, format)
	if err != nil {
		return nil, err
	}
	if format.HasPalette() {
		bmp.Palette = make([]model.Color, format.PaletteSize())
		copy(bmp.Palette, palette)
	}

	for y, line := range x.lines[x.ncolors : x.ncolors+x.height] {
		if len(line) < x.width*x.cpp {
			return nil, fmt.Errorf("XPM row %d too short: expected %d chars, got %d", y, x.width*x.cpp, len(line))
		}
		for col := 0; col < x.width; col++ {
			code := line[col*x.cpp : (col+1)*x.cpp]
			idx, ok := index[code]
			if !ok {
				return nil, fmt.Errorf("XPM row %d: undefined pixel %q", y, code)
			}
			switch format {
			case model.Format1Bit:
				if palette[idx] == model.ColorWhite {
					bmp.SetIndex(col, y, 1)
				}
			case model.Format8Bit:
				bmp.SetIndex(col, y, uint8(palette[idx]))
			default:
				bmp.SetIndex(col, y, uint8(idx))
			}
		}
	}
	return bmp, nil
}

// formatFor picks the smallest format able to hold the colors
func formatFor(palette []model.Color) model.Format {
	bw := true
	for _, c := range palette {
		if c != model.ColorBlack && c != model.ColorWhite {
			bw = false
		}
	}
	switch {
	case bw:
		return model.Format1Bit
	case len(palette) <= 2:
		return model.Format1BitPalette
	case len(palette) <= 4:
		return model.Format2BitPalette
	case len(palette) <= 16:
		return model.Format4BitPalette
	default:
		return model.Format8Bit
	}
}

// ReadXPM parses an XPM image. Only quoted strings are significant,
// so both XPM files and bare string lists are accepted.
func ReadXPM(r io.Reader) (*model.Bitmap, error) {
	scanner := bufio.NewScanner(r)
	var x *xpmBuilder
	line := 0
	for scanner.Scan() {
		line++
		for _, s := range quoted(scanner.Text()) {
			if x == nil {
				b, err := newXPMBuilder(s)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				x = b
				continue
			}
			x.addLine(s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	if x == nil {
		return nil, fmt.Errorf("no XPM data")
	}
	return x.build()
}

// quoted returns the double-quoted strings of a line
func quoted(s string) []string {
	var out []string
	for {
		i := strings.IndexByte(s, '"')
		if i < 0 {
			return out
		}
		j := strings.IndexByte(s[i+1:], '"')
		if j < 0 {
			return out
		}
		out = append(out, s[i+1:i+1+j])
		s = s[i+j+2:]
	}
}

const xpmChars = ".#abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789+@$%&*=-;:>,<'/"

// WriteXPM writes bmp as an XPM image named name. Partly transparent
// colors are written opaque.
func WriteXPM(w io.Writer, bmp *model.Bitmap, name string) error {
	// Collect the colors in first-use order.
	var colors []model.Color
	seen := make(map[model.Color]int)
	for y := 0; y < bmp.Height; y++ {
		for x := 0; x < bmp.Width; x++ {
			c := bmp.ColorAt(x, y)
			if _, ok := seen[c]; !ok {
				seen[c] = len(colors)
				colors = append(colors, c)
			}
		}
	}
	cpp := 1
	if len(colors) > len(xpmChars) {
		cpp = 2
	}
	code := func(i int) string {
		if cpp == 1 {
			return xpmChars[i : i+1]
		}
		return string([]byte{xpmChars[i/len(xpmChars)], xpmChars[i%len(xpmChars)]})
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "/* XPM */\nstatic char *%s[] = {\n", name)
	fmt.Fprintf(bw, "\"%d %d %d %d\",\n", bmp.Width, bmp.Height, len(colors), cpp)
	for i, c := range colors {
		fmt.Fprintf(bw, "\"%s c %s\",\n", code(i), xpmColor(c))
	}
	for y := 0; y < bmp.Height; y++ {
		var row strings.Builder
		for x := 0; x < bmp.Width; x++ {
			row.WriteString(code(seen[bmp.ColorAt(x, y)]))
		}
		sep := ","
		if y == bmp.Height-1 {
			sep = ""
		}
		fmt.Fprintf(bw, "\"%s\"%s\n", row.String(), sep)
	}
	fmt.Fprintf(bw, "};\n")
	return bw.Flush()
}

func xpmColor(c model.Color) string {
	if c.IsClear() {
		return "None"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R()*85, c.G()*85, c.B()*85)
}
