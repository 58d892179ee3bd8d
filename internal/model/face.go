package model

import (
	"fmt"
	"image"
)

// CompOp is a compositing rule used when a bitmap lands on a surface.
// For 1-bit sources a set bit is "source on"; for palettized and 8-bit
// sources every op draws the source over the destination, honoring alpha.
type CompOp int

const (
	CompAssign         CompOp = iota // dst = src
	CompAssignInverted               // dst = !src
	CompOr                           // white where src is on
	CompAnd                          // black where src is off
	CompClear                        // black where src is on
	CompSet                          // white where src is off
)

func (op CompOp) String() string {
	switch op {
	case CompAssign:
		return "assign"
	case CompAssignInverted:
		return "assign-inverted"
	case CompOr:
		return "or"
	case CompAnd:
		return "and"
	case CompClear:
		return "clear"
	case CompSet:
		return "set"
	default:
		return fmt.Sprintf("compop(%d)", int(op))
	}
}

// Palette slots of a DrawMode
const (
	SlotClear = iota
	SlotForeground
	SlotBackground
)

// DrawMode maps semantic paint operations to compositing rules and
// gives the three-color palette used for text and fills.
type DrawMode struct {
	PaintBlack  CompOp
	PaintWhite  CompOp
	PaintAssign CompOp
	PaintFG     CompOp
	PaintMask   CompOp
	Colors      [3]Color
}

// DrawModeTable holds the normal (0) and inverted (1) color schemes.
var DrawModeTable = [2]DrawMode{
	{
		PaintBlack:  CompClear,
		PaintWhite:  CompOr,
		PaintAssign: CompAssign,
		PaintFG:     CompClear,
		PaintMask:   CompOr,
		Colors:      [3]Color{ColorClear, ColorBlack, ColorWhite},
	},
	{
		PaintBlack:  CompOr,
		PaintWhite:  CompClear,
		PaintAssign: CompAssignInverted,
		PaintFG:     CompOr,
		PaintMask:   CompClear,
		Colors:      [3]Color{ColorClear, ColorWhite, ColorBlack},
	},
}

// LookupDrawMode returns the table entry for a draw-mode bit
func LookupDrawMode(bit uint8) DrawMode {
	return DrawModeTable[bit&1]
}

// HandID names a hand slot
type HandID int

const (
	HandHour HandID = iota
	HandMinute
	HandSecond
	HandChronoMinute
	HandChronoSecond
	HandChronoTenth
	NumHands
)

var handNames = [NumHands]string{"hour", "minute", "second", "chrono_minute", "chrono_second", "chrono_tenth"}

func (h HandID) String() string {
	if h >= 0 && h < NumHands {
		return handNames[h]
	}
	return fmt.Sprintf("hand(%d)", int(h))
}

// ParseHandID maps a hand name to its HandID
func ParseHandID(s string) (HandID, error) {
	for i, n := range handNames {
		if n == s {
			return HandID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown hand: %s", s)
}

// IsChrono reports whether the hand belongs to the stopwatch dial
func (h HandID) IsChrono() bool {
	return h >= HandChronoMinute && h < NumHands
}

// HandStyle tells how a hand is drawn
type HandStyle int

const (
	HandNone HandStyle = iota
	HandBitmap
	HandVector
)

// HandFrame describes the artwork for one step of a bitmap hand
type HandFrame struct {
	Bitmap int  // Offset added to the hand's image/mask resource ids
	CX, CY int  // Pivot inside the stored (unflipped) artwork
	FlipX  bool // Mirror horizontally after decoding
	FlipY  bool // Mirror vertically after decoding
}

// VectorGroup is one filled polygon of a vector hand, drawn pointing
// at 12 o'clock relative to the pivot.
type VectorGroup struct {
	Fill   Color
	Points []image.Point
}

// VectorHand is a hand drawn from up to two polygons
type VectorHand struct {
	Groups []VectorGroup
}

// MaxVectorGroups bounds the cached path objects per hand
const MaxVectorGroups = 2

// HandDef is the build-time description of one hand
type HandDef struct {
	Hand       HandID
	Steps      int         // Discrete positions per revolution
	Image      int         // Base resource id of the frames, 0 if none
	Mask       int         // Base mask resource id; 0 or Image means no mask
	Place      image.Point // Pivot on the face
	PaintBlack bool        // Unmasked hands paint black instead of white
	Frames     []HandFrame // Indexed by step; a single frame serves every step
	Vector     *VectorHand
}

// Style returns how the hand is drawn
func (h *HandDef) Style() HandStyle {
	switch {
	case h.Image != 0:
		return HandBitmap
	case h.Vector != nil && len(h.Vector.Groups) > 0:
		return HandVector
	default:
		return HandNone
	}
}

// HasMask reports whether a distinct mask resource exists
func (h *HandDef) HasMask() bool {
	return h.Mask != 0 && h.Mask != h.Image
}

// Frame returns the frame used for a step index
func (h *HandDef) Frame(index int) HandFrame {
	switch len(h.Frames) {
	case 0:
		return HandFrame{}
	case 1:
		return h.Frames[0]
	}
	return h.Frames[index%len(h.Frames)]
}

// WindowKind selects what a face window shows
type WindowKind int

const (
	WindowDay WindowKind = iota
	WindowDate
	WindowMonth
	WindowDigital
	WindowBattery
	WindowBluetooth
)

var windowNames = []string{"day", "date", "month", "digital", "battery", "bluetooth"}

func (k WindowKind) String() string {
	if k >= 0 && int(k) < len(windowNames) {
		return windowNames[k]
	}
	return fmt.Sprintf("window(%d)", int(k))
}

// ParseWindowKind maps a window name to its kind
func ParseWindowKind(s string) (WindowKind, error) {
	for i, n := range windowNames {
		if n == s {
			return WindowKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown window: %s", s)
}

// Window is a rectangular card on the face
type Window struct {
	Kind  WindowKind
	Rect  image.Rectangle
	Image int // Card or icon resource id, 0 for none
	Mask  int // Mask resource id, 0 for none
	Extra int // Secondary icon (charging bolt for the battery)
}

// ColorScheme recolors structural palette entries (see bitmap.RemapColors)
type ColorScheme struct {
	Name       string
	Base       Color
	C1, C2, C3 Color
	Invert     bool
}

// FaceDef is the build-time description of a watch face
type FaceDef struct {
	Name       string
	CodePage   int         // Encoding of the definition file, 0 for UTF-8
	Size       image.Point // Screen size
	Background int         // Background resource id
	Hands      []HandDef   // In stacking order, bottom first
	Windows    []Window
	Schemes    []ColorScheme
}

// Capabilities enumerates the features a face definition enables
type Capabilities struct {
	DayCard    bool
	DateCard   bool
	MonthCard  bool
	Chrono     bool
	Digital    bool
	SecondHand bool
	Battery    bool
	Bluetooth  bool
	HandStyles [NumHands]HandStyle
}

// Caps derives the capability set from the definition
func (f *FaceDef) Caps() Capabilities {
	var c Capabilities
	for i := range f.Hands {
		h := &f.Hands[i]
		if h.Hand < 0 || h.Hand >= NumHands {
			continue
		}
		c.HandStyles[h.Hand] = h.Style()
		switch {
		case h.Hand == HandSecond:
			c.SecondHand = true
		case h.Hand.IsChrono():
			c.Chrono = true
		}
	}
	for _, w := range f.Windows {
		switch w.Kind {
		case WindowDay:
			c.DayCard = true
		case WindowDate:
			c.DateCard = true
		case WindowMonth:
			c.MonthCard = true
		case WindowDigital:
			c.Digital = true
		case WindowBattery:
			c.Battery = true
		case WindowBluetooth:
			c.Bluetooth = true
		}
	}
	return c
}

// Hand returns the definition for a hand slot, or nil
func (f *FaceDef) Hand(id HandID) *HandDef {
	for i := range f.Hands {
		if f.Hands[i].Hand == id {
			return &f.Hands[i]
		}
	}
	return nil
}

// Window returns the first window of a kind, or nil
func (f *FaceDef) Window(kind WindowKind) *Window {
	for i := range f.Windows {
		if f.Windows[i].Kind == kind {
			return &f.Windows[i]
		}
	}
	return nil
}

// Validate checks the definition for structural errors
func (f *FaceDef) Validate() error {
	if f.Size.X <= 0 || f.Size.Y <= 0 {
		return fmt.Errorf("face %q: bad screen size %v", f.Name, f.Size)
	}
	seen := make(map[HandID]bool)
	for _, h := range f.Hands {
		if h.Hand < 0 || h.Hand >= NumHands {
			return fmt.Errorf("face %q: unknown hand %d", f.Name, h.Hand)
		}
		if seen[h.Hand] {
			return fmt.Errorf("face %q: duplicate %s hand", f.Name, h.Hand)
		}
		seen[h.Hand] = true
		if h.Steps <= 0 {
			return fmt.Errorf("face %q: %s hand has %d steps", f.Name, h.Hand, h.Steps)
		}
		if len(h.Frames) > 1 && len(h.Frames) != h.Steps {
			return fmt.Errorf("face %q: %s hand has %d frames for %d steps", f.Name, h.Hand, len(h.Frames), h.Steps)
		}
		if h.Vector != nil && len(h.Vector.Groups) > MaxVectorGroups {
			return fmt.Errorf("face %q: %s hand has %d vector groups, max %d", f.Name, h.Hand, len(h.Vector.Groups), MaxVectorGroups)
		}
	}
	return nil
}
