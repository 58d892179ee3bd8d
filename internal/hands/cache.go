package hands

import (
	"errors"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/dialface/internal/bitmap"
	"github.com/dyuri/dialface/internal/model"
)

// NoIndex marks an empty cache entry
const NoIndex = -1

// Loader decodes image resources by id
type Loader interface {
	Load(id int) (*model.Bitmap, error)
}

// Surface is the drawing target of hands
type Surface interface {
	Bounds() image.Rectangle
	Blit(bmp *model.Bitmap, at image.Point, op model.CompOp)
	FillMask(mask *image.Alpha, c model.Color)
}

// Cache holds the artwork of one hand slot for the last index drawn.
// The artwork is only valid for that index.
type Cache struct {
	def    *model.HandDef
	loader Loader
	log    logrus.FieldLogger

	index  int
	image  *model.Bitmap
	mask   *model.Bitmap
	cx, cy int
	paths  []path

	decodes int
}

// NewCache creates an empty cache entry for a hand
func NewCache(def *model.HandDef, loader Loader, log logrus.FieldLogger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{
		def:    def,
		loader: loader,
		log:    log.WithField("hand", def.Hand.String()),
		index:  NoIndex,
	}
}

// Index returns the index the cached artwork belongs to
func (c *Cache) Index() int { return c.index }

// Decodes returns how many resources the cache has decoded
func (c *Cache) Decodes() int { return c.decodes }

// Center returns the pivot inside the cached (possibly flipped) artwork
func (c *Cache) Center() (int, int) { return c.cx, c.cy }

// Release drops the cached artwork
func (c *Cache) Release() {
	c.image.Release()
	c.mask.Release()
	c.image, c.mask = nil, nil
	c.paths = nil
	c.index = NoIndex
}

// Prepare makes the cache hold the artwork for index, decoding only
// when the index changed. Decode failures other than running out of
// memory are logged and leave the hand blank for that index.
func (c *Cache) Prepare(index int) error {
	if index == c.index {
		return nil
	}
	c.Release()

	switch c.def.Style() {
	case model.HandBitmap:
		if err := c.loadBitmaps(index); err != nil {
			c.Release()
			if errors.Is(err, model.ErrOutOfMemory) {
				return err
			}
			c.log.WithError(err).WithField("index", index).Warn("hand artwork unavailable")
		}
	case model.HandVector:
		c.paths = rotate(c.def.Vector, index, c.def.Steps)
	}
	c.index = index
	return nil
}

func (c *Cache) loadBitmaps(index int) error {
	frame := c.def.Frame(index)

	img, err := c.loader.Load(c.def.Image + frame.Bitmap)
	c.decodes++
	if err != nil {
		return err
	}
	c.image = img

	if c.def.HasMask() {
		mask, err := c.loader.Load(c.def.Mask + frame.Bitmap)
		c.decodes++
		if err != nil {
			return err
		}
		c.mask = mask
	}

	c.cx, c.cy = frame.CX, frame.CY
	if frame.FlipX {
		c.flip(bitmap.FlipX, &c.cx)
	}
	if frame.FlipY {
		c.flip(bitmap.FlipY, &c.cy)
	}
	return nil
}

func (c *Cache) flip(fn func(*model.Bitmap, *int) error, center *int) {
	moved := *center
	if err := fn(c.image, &moved); err != nil {
		c.log.WithError(err).Warn("hand flip skipped")
		return
	}
	if c.mask != nil {
		if err := fn(c.mask, nil); err != nil {
			c.log.WithError(err).Warn("hand mask flip skipped")
		}
	}
	*center = moved
}

// Draw renders the hand at index onto s
func (c *Cache) Draw(s Surface, index int, mode model.DrawMode) error {
	if err := c.Prepare(index); err != nil {
		return err
	}

	if c.image != nil {
		at := c.def.Place.Sub(image.Pt(c.cx, c.cy))
		if c.mask != nil {
			// Opaque hand: clear its footprint, then paint it.
			s.Blit(c.mask, at, mode.PaintMask)
			s.Blit(c.image, at, mode.PaintFG)
		} else {
			op := mode.PaintWhite
			if c.def.PaintBlack {
				op = mode.PaintBlack
			}
			s.Blit(c.image, at, op)
		}
	}

	for _, p := range c.paths {
		s.FillMask(p.rasterize(s.Bounds(), c.def.Place), themed(p.fill, mode))
	}
	return nil
}

// themed maps pure black and white through the draw mode
func themed(fill model.Color, mode model.DrawMode) model.Color {
	switch fill {
	case model.ColorBlack:
		return mode.Colors[model.SlotForeground]
	case model.ColorWhite:
		return mode.Colors[model.SlotBackground]
	default:
		return fill
	}
}
