package text

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/dyuri/dialface/internal/model"
)

// Writer handles writing face definitions in the text format
type Writer struct {
	w   *bufio.Writer
	enc *encoding.Encoder
}

// NewWriter creates a new text format writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write outputs the face definition
func (w *Writer) Write(def *model.FaceDef) error {
	cm, err := charmapFor(def.CodePage)
	if err != nil {
		return err
	}
	w.enc = nil
	if cm != nil {
		w.enc = cm.NewEncoder()
	}

	if err := w.writeFace(def); err != nil {
		return fmt.Errorf("write face: %w", err)
	}

	for i := range def.Hands {
		w.writeHand(&def.Hands[i])
	}

	for _, win := range def.Windows {
		w.writeWindow(win)
	}

	for _, cs := range def.Schemes {
		if err := w.writeScheme(cs); err != nil {
			return fmt.Errorf("write colors %q: %w", cs.Name, err)
		}
	}

	return w.w.Flush()
}

// encode converts a text value to the file's code page
func (w *Writer) encode(s string) (string, error) {
	if w.enc == nil {
		return s, nil
	}
	return w.enc.String(s)
}

// writeFace writes the [_face] section
func (w *Writer) writeFace(def *model.FaceDef) error {
	name, err := w.encode(def.Name)
	if err != nil {
		return err
	}

	fmt.Fprintf(w.w, "[_face]\n")
	if def.CodePage != 0 {
		fmt.Fprintf(w.w, "CodePage=%d\n", def.CodePage)
	}
	if name != "" {
		fmt.Fprintf(w.w, "Name=%s\n", name)
	}
	fmt.Fprintf(w.w, "Size=%d,%d\n", def.Size.X, def.Size.Y)
	if def.Background != 0 {
		fmt.Fprintf(w.w, "Background=%d\n", def.Background)
	}
	fmt.Fprintf(w.w, "[end]\n\n")
	return nil
}

// writeHand writes a [_hand] section
func (w *Writer) writeHand(h *model.HandDef) {
	fmt.Fprintf(w.w, "[_hand]\n")
	fmt.Fprintf(w.w, "Hand=%s\n", h.Hand)
	fmt.Fprintf(w.w, "Steps=%d\n", h.Steps)
	if h.Image != 0 {
		fmt.Fprintf(w.w, "Image=%d\n", h.Image)
	}
	if h.Mask != 0 {
		fmt.Fprintf(w.w, "Mask=%d\n", h.Mask)
	}
	fmt.Fprintf(w.w, "Place=%d,%d\n", h.Place.X, h.Place.Y)
	if h.PaintBlack {
		fmt.Fprintf(w.w, "PaintBlack=Y\n")
	}

	for _, f := range h.Frames {
		flags := ""
		if f.FlipX {
			flags += "X"
		}
		if f.FlipY {
			flags += "Y"
		}
		if flags != "" {
			fmt.Fprintf(w.w, "Frame=%d,%d,%d,%s\n", f.Bitmap, f.CX, f.CY, flags)
		} else {
			fmt.Fprintf(w.w, "Frame=%d,%d,%d\n", f.Bitmap, f.CX, f.CY)
		}
	}

	if h.Vector != nil {
		for _, g := range h.Vector.Groups {
			pts := make([]string, len(g.Points))
			for i, pt := range g.Points {
				pts[i] = fmt.Sprintf("%d,%d", pt.X, pt.Y)
			}
			fmt.Fprintf(w.w, "Fill=0x%02x\n", uint8(g.Fill))
			fmt.Fprintf(w.w, "Points=%s\n", strings.Join(pts, " "))
		}
	}
	fmt.Fprintf(w.w, "[end]\n\n")
}

// writeWindow writes a [_window] section
func (w *Writer) writeWindow(win model.Window) {
	r := win.Rect
	fmt.Fprintf(w.w, "[_window]\n")
	fmt.Fprintf(w.w, "Kind=%s\n", win.Kind)
	fmt.Fprintf(w.w, "Rect=%d,%d,%d,%d\n", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
	if win.Image != 0 {
		fmt.Fprintf(w.w, "Image=%d\n", win.Image)
	}
	if win.Mask != 0 {
		fmt.Fprintf(w.w, "Mask=%d\n", win.Mask)
	}
	if win.Extra != 0 {
		fmt.Fprintf(w.w, "Extra=%d\n", win.Extra)
	}
	fmt.Fprintf(w.w, "[end]\n\n")
}

// writeScheme writes a [_colors] section
func (w *Writer) writeScheme(cs model.ColorScheme) error {
	name, err := w.encode(cs.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.w, "[_colors]\n")
	fmt.Fprintf(w.w, "Name=%s\n", name)
	fmt.Fprintf(w.w, "Base=0x%02x\n", uint8(cs.Base))
	fmt.Fprintf(w.w, "C1=0x%02x\n", uint8(cs.C1))
	fmt.Fprintf(w.w, "C2=0x%02x\n", uint8(cs.C2))
	fmt.Fprintf(w.w, "C3=0x%02x\n", uint8(cs.C3))
	if cs.Invert {
		fmt.Fprintf(w.w, "Invert=Y\n")
	}
	fmt.Fprintf(w.w, "[end]\n\n")
	return nil
}
