package text

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/dyuri/dialface/internal/model"
)

// Reader handles reading face definitions from the text format
type Reader struct {
	scanner *bufio.Scanner
	line    int
	dec     *encoding.Decoder
}

// NewReader creates a new text format reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		line:    0,
	}
}

// Read parses the entire text file and returns the face definition
func (r *Reader) Read() (*model.FaceDef, error) {
	def := &model.FaceDef{}

	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines and comments
		if skippable(line) {
			continue
		}

		if !strings.HasPrefix(line, "[") {
			return nil, fmt.Errorf("line %d: %q outside of a section", r.line, line)
		}
		section := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")

		switch section {
		case "_face":
			if err := r.readFace(def); err != nil {
				return nil, fmt.Errorf("line %d: read face: %w", r.line, err)
			}

		case "_hand":
			h, err := r.readHand()
			if err != nil {
				return nil, fmt.Errorf("line %d: read hand: %w", r.line, err)
			}
			def.Hands = append(def.Hands, h)

		case "_window":
			w, err := r.readWindow()
			if err != nil {
				return nil, fmt.Errorf("line %d: read window: %w", r.line, err)
			}
			def.Windows = append(def.Windows, w)

		case "_colors":
			cs, err := r.readScheme()
			if err != nil {
				return nil, fmt.Errorf("line %d: read colors: %w", r.line, err)
			}
			def.Schemes = append(def.Schemes, cs)

		case "end":
			continue

		default:
			// Unknown section - skip until [end]
			if err := r.skipToEnd(); err != nil {
				return nil, fmt.Errorf("line %d: skip unknown section: %w", r.line, err)
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return def, nil
}

func skippable(line string) bool {
	return line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";")
}

// section calls fn for each Key=Value line up to [end]
func (r *Reader) section(fn func(key, value string) error) error {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())

		if skippable(line) {
			continue
		}
		if strings.HasPrefix(line, "[end]") {
			return nil
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("line %d: expected Key=Value, got %q", r.line, line)
		}
		if err := fn(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("line %d: %s: %w", r.line, strings.TrimSpace(key), err)
		}
	}
	if err := r.scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("missing [end]")
}

// decode converts a text value from the file's code page
func (r *Reader) decode(s string) (string, error) {
	if r.dec == nil {
		return s, nil
	}
	return r.dec.String(s)
}

// readFace reads the [_face] section
func (r *Reader) readFace(def *model.FaceDef) error {
	return r.section(func(key, value string) error {
		var err error
		switch key {
		case "Name":
			def.Name, err = r.decode(value)
		case "CodePage":
			def.CodePage, err = strconv.Atoi(value)
			if err == nil {
				r.dec, err = decoderFor(def.CodePage)
			}
		case "Size":
			def.Size, err = parsePoint(value)
		case "Background":
			def.Background, err = parseInt(value)
		}
		return err
	})
}

// readHand reads a [_hand] section
func (r *Reader) readHand() (model.HandDef, error) {
	var h model.HandDef
	var group *model.VectorGroup

	err := r.section(func(key, value string) error {
		var err error
		switch key {
		case "Hand":
			h.Hand, err = model.ParseHandID(value)
		case "Steps":
			h.Steps, err = parseInt(value)
		case "Image":
			h.Image, err = parseInt(value)
		case "Mask":
			h.Mask, err = parseInt(value)
		case "Place":
			h.Place, err = parsePoint(value)
		case "PaintBlack":
			h.PaintBlack, err = parseBool(value)
		case "Frame":
			var f model.HandFrame
			f, err = parseFrame(value)
			h.Frames = append(h.Frames, f)
		case "Fill":
			// Each Fill starts a new polygon
			var c model.Color
			c, err = parseColor(value)
			if h.Vector == nil {
				h.Vector = &model.VectorHand{}
			}
			h.Vector.Groups = append(h.Vector.Groups, model.VectorGroup{Fill: c})
			group = &h.Vector.Groups[len(h.Vector.Groups)-1]
		case "Points":
			if group == nil {
				return fmt.Errorf("points before fill")
			}
			group.Points, err = parsePoints(value)
		}
		return err
	})
	return h, err
}

// readWindow reads a [_window] section
func (r *Reader) readWindow() (model.Window, error) {
	var w model.Window
	err := r.section(func(key, value string) error {
		var err error
		switch key {
		case "Kind":
			w.Kind, err = model.ParseWindowKind(value)
		case "Rect":
			w.Rect, err = parseRect(value)
		case "Image":
			w.Image, err = parseInt(value)
		case "Mask":
			w.Mask, err = parseInt(value)
		case "Extra":
			w.Extra, err = parseInt(value)
		}
		return err
	})
	return w, err
}

// readScheme reads a [_colors] section
func (r *Reader) readScheme() (model.ColorScheme, error) {
	var cs model.ColorScheme
	err := r.section(func(key, value string) error {
		var err error
		switch key {
		case "Name":
			cs.Name, err = r.decode(value)
		case "Base":
			cs.Base, err = parseColor(value)
		case "C1":
			cs.C1, err = parseColor(value)
		case "C2":
			cs.C2, err = parseColor(value)
		case "C3":
			cs.C3, err = parseColor(value)
		case "Invert":
			cs.Invert, err = parseBool(value)
		}
		return err
	})
	return cs, err
}

// skipToEnd skips lines until [end] is found
func (r *Reader) skipToEnd() error {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if strings.HasPrefix(line, "[end]") {
			return nil
		}
	}
	return r.scanner.Err()
}

// decoderFor returns the decoder of a Windows code page, nil for UTF-8
func decoderFor(codePage int) (*encoding.Decoder, error) {
	cm, err := charmapFor(codePage)
	if err != nil || cm == nil {
		return nil, err
	}
	return cm.NewDecoder(), nil
}

func charmapFor(codePage int) (*charmap.Charmap, error) {
	switch codePage {
	case 0, 65001:
		return nil, nil
	case 1250:
		return charmap.Windows1250, nil
	case 1251:
		return charmap.Windows1251, nil
	case 1252:
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported code page %d", codePage)
	}
}

// parseInt accepts decimal or 0x-prefixed hex
func parseInt(s string) (int, error) {
	v, err := strconv.ParseInt(s, 0, 32)
	return int(v), err
}

func parseColor(s string) (model.Color, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	return model.Color(v), err
}

func parseBool(s string) (bool, error) {
	switch strings.ToUpper(s) {
	case "Y":
		return true, nil
	case "N":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// parseInts splits a comma separated list of n integers
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%q: want %d values", s, n)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := parseInt(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parsePoint(s string) (image.Point, error) {
	v, err := parseInts(s, 2)
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(v[0], v[1]), nil
}

func parseRect(s string) (image.Rectangle, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}

// parsePoints parses space separated x,y pairs
func parsePoints(s string) ([]image.Point, error) {
	var pts []image.Point
	for _, f := range strings.Fields(s) {
		pt, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		pts = append(pts, pt)
	}
	return pts, nil
}

// parseFrame parses "bitmap,cx,cy[,flags]" where flags holds X and/or Y
func parseFrame(s string) (model.HandFrame, error) {
	var f model.HandFrame
	parts := strings.Split(s, ",")
	if len(parts) == 4 {
		flags := strings.ToUpper(strings.TrimSpace(parts[3]))
		f.FlipX = strings.Contains(flags, "X")
		f.FlipY = strings.Contains(flags, "Y")
		parts = parts[:3]
	}
	v, err := parseInts(strings.Join(parts, ","), 3)
	if err != nil {
		return f, err
	}
	f.Bitmap, f.CX, f.CY = v[0], v[1], v[2]
	return f, nil
}
