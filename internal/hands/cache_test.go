package hands

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/dyuri/dialface/internal/model"
)

// fakeLoader builds a 16x4 1-bit bitmap per id with only the pixel at
// x == id%16 set on the first row, and counts calls. Hand fixtures keep
// their Image and Mask bases at multiples of 16 so artwork n sets x == n.
type fakeLoader struct {
	calls int
	fail  map[int]error
	heap  *model.Heap
}

func (l *fakeLoader) Load(id int) (*model.Bitmap, error) {
	l.calls++
	if err := l.fail[id]; err != nil {
		return nil, err
	}
	var alloc model.Allocator
	if l.heap != nil {
		alloc = l.heap
	}
	bmp, err := model.NewBitmap(alloc, 16, 4, model.Format1Bit)
	if err != nil {
		return nil, err
	}
	bmp.SetIndex(id%16, 0, 1)
	return bmp, nil
}

type blit struct {
	at  image.Point
	op  model.CompOp
	bmp *model.Bitmap
}

type fakeSurface struct {
	blits []blit
	fills []model.Color
	areas []int
}

func (s *fakeSurface) Bounds() image.Rectangle { return image.Rect(0, 0, 144, 168) }

func (s *fakeSurface) Blit(bmp *model.Bitmap, at image.Point, op model.CompOp) {
	s.blits = append(s.blits, blit{at: at, op: op, bmp: bmp})
}

func (s *fakeSurface) FillMask(mask *image.Alpha, c model.Color) {
	area := 0
	for _, a := range mask.Pix {
		if a > 0x80 {
			area++
		}
	}
	s.fills = append(s.fills, c)
	s.areas = append(s.areas, area)
}

func minuteHand() *model.HandDef {
	frames := make([]model.HandFrame, 60)
	for i := range frames {
		frames[i] = model.HandFrame{Bitmap: i % 16, CX: 2, CY: 3}
	}
	frames[45].FlipX = true
	frames[30].FlipY = true
	return &model.HandDef{
		Hand:   model.HandMinute,
		Steps:  60,
		Image:  96,
		Mask:   208,
		Place:  image.Pt(72, 84),
		Frames: frames,
	}
}

func mustDraw(t *testing.T, c *Cache, s Surface, index int, mode model.DrawMode) {
	t.Helper()
	if err := c.Draw(s, index, mode); err != nil {
		t.Fatalf("Draw(%d) error = %v", index, err)
	}
}

func TestFixtureArtworkPixel(t *testing.T) {
	def := minuteHand()
	loader := &fakeLoader{}
	for _, base := range []int{def.Image, def.Mask} {
		bmp, err := loader.Load(base + 13)
		if err != nil {
			t.Fatal(err)
		}
		if got := bmp.Index(13, 0); got != 1 {
			t.Errorf("artwork 13 from base %d: pixel at x=13 = %d, want 1", base, got)
		}
	}
}

func TestCacheHitSkipsDecode(t *testing.T) {
	loader := &fakeLoader{}
	cache := NewCache(minuteHand(), loader, nil)
	surface := &fakeSurface{}
	mode := model.LookupDrawMode(0)

	mustDraw(t, cache, surface, 7, mode)
	mustDraw(t, cache, surface, 7, mode)

	// Image and mask, once.
	if loader.calls != 2 {
		t.Errorf("loader calls = %d, want 2", loader.calls)
	}
	if got := cache.Decodes(); got != 2 {
		t.Errorf("Decodes() = %d, want 2", got)
	}
	if got := cache.Index(); got != 7 {
		t.Errorf("Index() = %d, want 7", got)
	}
	if len(surface.blits) != 4 {
		t.Errorf("blits = %d, want 4", len(surface.blits))
	}

	mustDraw(t, cache, surface, 8, mode)
	if loader.calls != 4 {
		t.Errorf("loader calls after index change = %d, want 4", loader.calls)
	}
}

func TestCacheMaskDrawnFirst(t *testing.T) {
	cache := NewCache(minuteHand(), &fakeLoader{}, nil)
	surface := &fakeSurface{}
	mode := model.LookupDrawMode(0)

	mustDraw(t, cache, surface, 3, mode)
	if len(surface.blits) != 2 {
		t.Fatalf("blits = %d, want 2", len(surface.blits))
	}
	if got := surface.blits[0].op; got != mode.PaintMask {
		t.Errorf("first blit op = %v, want mask op %v", got, mode.PaintMask)
	}
	if got := surface.blits[1].op; got != mode.PaintFG {
		t.Errorf("second blit op = %v, want foreground op %v", got, mode.PaintFG)
	}
	if got, want := surface.blits[0].at, image.Pt(70, 81); got != want {
		t.Errorf("mask at %v, want %v", got, want)
	}
}

func TestCacheUnmaskedPaintOp(t *testing.T) {
	def := minuteHand()
	def.Mask = def.Image
	def.PaintBlack = true
	cache := NewCache(def, &fakeLoader{}, nil)
	surface := &fakeSurface{}
	mode := model.LookupDrawMode(1)

	mustDraw(t, cache, surface, 0, mode)
	if len(surface.blits) != 1 {
		t.Fatalf("blits = %d, want 1", len(surface.blits))
	}
	if got := surface.blits[0].op; got != mode.PaintBlack {
		t.Errorf("op = %v, want %v", got, mode.PaintBlack)
	}
}

func TestCacheAppliesFlips(t *testing.T) {
	cache := NewCache(minuteHand(), &fakeLoader{}, nil)
	surface := &fakeSurface{}

	mustDraw(t, cache, surface, 45, model.LookupDrawMode(0))
	if cx, cy := cache.Center(); cx != 13 || cy != 3 {
		t.Errorf("flipped X center = (%d, %d), want (13, 3)", cx, cy)
	}

	// Frame 45 uses artwork 13, so its set pixel moves from x = 13 to x = 2.
	for i, b := range surface.blits {
		if got := b.bmp.Index(2, 0); got != 1 {
			t.Errorf("blit %d: pixel at (2, 0) = %d, want 1", i, got)
		}
		if got := b.bmp.Index(13, 0); got != 0 {
			t.Errorf("blit %d: pixel at (13, 0) = %d, want 0", i, got)
		}
	}
	if got, want := surface.blits[1].at, image.Pt(72-13, 84-3); got != want {
		t.Errorf("image at %v, want %v", got, want)
	}

	mustDraw(t, cache, surface, 30, model.LookupDrawMode(0))
	if cx, cy := cache.Center(); cx != 2 || cy != 0 {
		t.Errorf("flipped Y center = (%d, %d), want (2, 0)", cx, cy)
	}
	img := surface.blits[len(surface.blits)-1].bmp
	if got := img.Index(14, 3); got != 1 {
		t.Errorf("pixel at (14, 3) = %d, want 1", got)
	}
	if got := img.Index(14, 0); got != 0 {
		t.Errorf("pixel at (14, 0) = %d, want 0", got)
	}
}

func TestCacheReleasesOnIndexChange(t *testing.T) {
	heap := model.NewHeap(0)
	cache := NewCache(minuteHand(), &fakeLoader{heap: heap}, nil)
	surface := &fakeSurface{}

	mustDraw(t, cache, surface, 1, model.LookupDrawMode(0))
	held := heap.Used()
	mustDraw(t, cache, surface, 2, model.LookupDrawMode(0))
	if got := heap.Used(); got != held {
		t.Errorf("heap used = %d, want %d", got, held)
	}

	cache.Release()
	if got := heap.Used(); got != 0 {
		t.Errorf("heap used after Release = %d, want 0", got)
	}
	if got := cache.Index(); got != NoIndex {
		t.Errorf("Index() after Release = %d, want NoIndex", got)
	}
}

func TestCacheDecodeFailure(t *testing.T) {
	def := minuteHand()
	loader := &fakeLoader{fail: map[int]error{def.Image + 5: fmt.Errorf("%w: bad runs", model.ErrFormat)}}
	cache := NewCache(def, loader, nil)
	surface := &fakeSurface{}

	// A corrupt frame leaves the hand blank without retrying each tick.
	mustDraw(t, cache, surface, 5, model.LookupDrawMode(0))
	mustDraw(t, cache, surface, 5, model.LookupDrawMode(0))
	if len(surface.blits) != 0 {
		t.Errorf("blits = %d, want none", len(surface.blits))
	}
	if loader.calls != 1 {
		t.Errorf("loader calls = %d, want 1", loader.calls)
	}
	if got := cache.Index(); got != 5 {
		t.Errorf("Index() = %d, want 5", got)
	}
}

func TestCacheOutOfMemory(t *testing.T) {
	def := minuteHand()
	loader := &fakeLoader{fail: map[int]error{def.Mask + 6: model.ErrOutOfMemory}}
	cache := NewCache(def, loader, nil)

	err := cache.Draw(&fakeSurface{}, 6, model.LookupDrawMode(0))
	if !errors.Is(err, model.ErrOutOfMemory) {
		t.Errorf("Draw error = %v, want ErrOutOfMemory", err)
	}
	if got := cache.Index(); got != NoIndex {
		t.Errorf("Index() = %d, want NoIndex", got)
	}
}

func TestCacheVectorHand(t *testing.T) {
	def := &model.HandDef{
		Hand:  model.HandSecond,
		Steps: 60,
		Place: image.Pt(72, 84),
		Vector: &model.VectorHand{Groups: []model.VectorGroup{
			{Fill: model.ColorBlack, Points: []image.Point{{-2, 0}, {2, 0}, {2, -40}, {-2, -40}}},
			{Fill: model.ColorWhite, Points: []image.Point{{-1, 0}, {1, 0}, {0, -10}}},
		}},
	}
	loader := &fakeLoader{}
	cache := NewCache(def, loader, nil)
	surface := &fakeSurface{}
	mode := model.LookupDrawMode(1)

	mustDraw(t, cache, surface, 15, mode)
	if loader.calls != 0 {
		t.Errorf("loader calls = %d, want 0", loader.calls)
	}
	if len(surface.fills) != 2 {
		t.Fatalf("fills = %d, want 2", len(surface.fills))
	}
	if got, want := surface.fills[0], mode.Colors[model.SlotForeground]; got != want {
		t.Errorf("first fill = %v, want %v", got, want)
	}
	if got, want := surface.fills[1], mode.Colors[model.SlotBackground]; got != want {
		t.Errorf("second fill = %v, want %v", got, want)
	}
	if a := surface.areas[0]; a < 148 || a > 172 {
		t.Errorf("bar area = %d, want 160 +/- 12", a)
	}

	// Pointing at 3 o'clock: the bar lies right of the pivot.
	p := cache.paths[0]
	for _, pt := range p.pts {
		if pt[0] < -0.01 {
			t.Errorf("point %v lies left of the pivot", pt)
		}
	}
}
