package face

import (
	"image"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/dialface/internal/bitmap"
	"github.com/dyuri/dialface/internal/hands"
	"github.com/dyuri/dialface/internal/lang"
	"github.com/dyuri/dialface/internal/model"
)

// schemeLoader recolors palettized artwork with the active color scheme
type schemeLoader struct {
	base   hands.Loader
	scheme *model.ColorScheme
	log    logrus.FieldLogger
}

func (l *schemeLoader) Load(id int) (*model.Bitmap, error) {
	bmp, err := l.base.Load(id)
	if err != nil || l.scheme == nil || !bmp.Format.HasPalette() {
		return bmp, err
	}
	s := l.scheme
	if err := bitmap.RemapColors(bmp, s.Base, s.C1, s.C2, s.C3, s.Invert); err != nil {
		l.log.WithError(err).WithField("resource", id).Warn("artwork not recolored")
	}
	return bmp, nil
}

const lineHeight = 13

// Render draws a full frame. Running out of memory evicts every cached
// bitmap and skips the frame; the returned error then wraps
// model.ErrOutOfMemory. Other artwork failures are logged and the
// element is left out.
func (f *Face) Render(c *Canvas) error {
	mode := model.LookupDrawMode(f.opts.DrawMode)
	err := f.render(c, mode)
	if !f.keepAssets {
		f.releaseAssets()
	}
	if err != nil {
		f.lowMemory++
		f.log.WithError(err).WithField("events", f.lowMemory).Warn("low memory, frame skipped")
		f.evict()
		return err
	}
	f.dirty = 0
	f.frames++
	return nil
}

func (f *Face) render(c *Canvas, mode model.DrawMode) error {
	c.Fill(mode.Colors[model.SlotBackground])

	if f.def.Background != 0 {
		if err := f.drawArt(c, f.def.Background, 0, image.Point{}, mode.PaintAssign, mode); err != nil {
			return err
		}
	}

	for i := range f.def.Windows {
		if err := f.drawWindow(c, &f.def.Windows[i], mode); err != nil {
			return err
		}
	}

	for i := range f.def.Hands {
		id := f.def.Hands[i].Hand
		if !f.handShown(id) {
			continue
		}
		if err := f.caches[id].Draw(c, f.placement.Hands[id], mode); err != nil {
			return err
		}
	}
	return nil
}

func (f *Face) handShown(id model.HandID) bool {
	switch id {
	case model.HandSecond:
		return f.opts.SecondHand
	case model.HandChronoTenth:
		return f.opts.ChronoDial != model.DialOff
	}
	return true
}

// drawArt draws an image, opaquely through its mask when it has one.
// Only running out of memory is returned as an error.
func (f *Face) drawArt(c *Canvas, img, mask int, at image.Point, op model.CompOp, mode model.DrawMode) error {
	if img == 0 {
		return nil
	}
	bmp, err := f.asset(img)
	if err != nil {
		return f.skip(err, img)
	}
	if mask == 0 || mask == img {
		c.Blit(bmp, at, op)
		return nil
	}
	m, err := f.asset(mask)
	if err != nil {
		return f.skip(err, mask)
	}
	c.Blit(m, at, mode.PaintMask)
	c.Blit(bmp, at, mode.PaintFG)
	return nil
}

func (f *Face) skip(err error, id int) error {
	if isOOM(err) {
		return err
	}
	f.log.WithError(err).WithField("resource", id).Warn("artwork unavailable")
	return nil
}

func (f *Face) drawWindow(c *Canvas, w *model.Window, mode model.DrawMode) error {
	p := f.placement

	switch w.Kind {
	case model.WindowDay:
		if f.opts.ShowDay {
			return f.drawCard(c, w, mode, lang.Weekday(int(f.opts.DisplayLang), p.Weekday))
		}
	case model.WindowDate:
		if f.opts.ShowDate {
			return f.drawCard(c, w, mode, strconv.Itoa(p.Date))
		}
	case model.WindowMonth:
		if f.opts.ShowDate && p.Month >= 1 && p.Month <= 12 {
			return f.drawCard(c, w, mode, time.Month(p.Month).String()[:3])
		}
	case model.WindowDigital:
		if f.digital {
			f.drawDigital(c, w, mode)
		}
	case model.WindowBattery:
		return f.drawBattery(c, w, mode)
	case model.WindowBluetooth:
		return f.drawBluetooth(c, w, mode)
	default:
		f.log.WithField("window", w.Kind).Debug("unknown window")
	}
	return nil
}

func (f *Face) drawCard(c *Canvas, w *model.Window, mode model.DrawMode, text string) error {
	if err := f.drawArt(c, w.Image, w.Mask, w.Rect.Min, mode.PaintAssign, mode); err != nil {
		return err
	}
	c.DrawText(text, w.Rect, mode.Colors[model.SlotForeground])
	return nil
}

// drawDigital shows the stopwatch time with the laps below, newest
// first, as far as the window has room.
func (f *Face) drawDigital(c *Canvas, w *model.Window, mode model.DrawMode) {
	c.FillRect(w.Rect, mode.Colors[model.SlotBackground])
	fg := mode.Colors[model.SlotForeground]

	line := image.Rect(w.Rect.Min.X, w.Rect.Min.Y, w.Rect.Max.X, w.Rect.Min.Y+lineHeight)
	c.DrawText(f.chrono.Digital(hands.MSOfDay(f.timers.Now())), line, fg)

	for i := len(f.chrono.Laps) - 1; i >= 0; i-- {
		s := f.chrono.LapString(i)
		if s == "" {
			continue
		}
		line = line.Add(image.Pt(0, lineHeight))
		if line.Max.Y > w.Rect.Max.Y {
			break
		}
		c.DrawText(s, line, fg)
	}
}

// drawBattery draws the gauge: an icon with a charge bar, or the
// percentage as text in digital mode.
func (f *Face) drawBattery(c *Canvas, w *model.Window, mode model.DrawMode) error {
	b := f.battery
	switch f.opts.BatteryGauge {
	case model.IndicatorOff:
		return nil
	case model.IndicatorWhenNeeded:
		if !b.Charging && !b.Plugged && b.Percent > 20 {
			return nil
		}
	}
	fg := mode.Colors[model.SlotForeground]
	r := w.Rect

	if f.opts.BatteryGauge == model.IndicatorDigital {
		c.FillRect(r, mode.Colors[model.SlotBackground])
		c.DrawText(strconv.Itoa(b.Percent), r, fg)
	} else {
		if err := f.drawArt(c, w.Image, w.Mask, r.Min, mode.PaintFG, mode); err != nil {
			return err
		}
		bar := b.Percent / 10
		if !b.Charging && b.Plugged && b.Percent >= 80 {
			bar = 10
		}
		c.FillRect(image.Rect(r.Min.X+4, r.Min.Y+3, r.Min.X+4+bar, r.Min.Y+7), fg)
	}

	if b.Charging {
		return f.drawArt(c, w.Extra, 0, r.Min, mode.PaintFG, mode)
	}
	return nil
}

// drawBluetooth draws the connected icon (not in when-needed mode) or
// the disconnected icon.
func (f *Face) drawBluetooth(c *Canvas, w *model.Window, mode model.DrawMode) error {
	m := f.opts.BluetoothIndicator
	if m == model.IndicatorOff {
		return nil
	}
	if f.connected {
		if m == model.IndicatorWhenNeeded {
			return nil
		}
		return f.drawArt(c, w.Image, w.Mask, w.Rect.Min, mode.PaintFG, mode)
	}
	id := w.Extra
	if id == 0 {
		id = w.Image
	}
	return f.drawArt(c, id, w.Mask, w.Rect.Min, mode.PaintFG, mode)
}
