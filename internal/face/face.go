// Package face is the watch-face application: it owns the options,
// the stopwatch, the hand caches and the redraw timer, and renders
// frames onto a Canvas.
package face

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/dialface/internal/chrono"
	"github.com/dyuri/dialface/internal/config"
	"github.com/dyuri/dialface/internal/hands"
	"github.com/dyuri/dialface/internal/model"
	"github.com/dyuri/dialface/internal/sched"
	"github.com/dyuri/dialface/internal/store"
)

// Button is a hardware button
type Button int

const (
	ButtonBack Button = iota
	ButtonUp
	ButtonSelect
	ButtonDown
)

var buttonNames = []string{"back", "up", "select", "down"}

func (b Button) String() string {
	if b >= 0 && int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("button(%d)", int(b))
}

// ParseButton maps a button name to the button
func ParseButton(s string) (Button, error) {
	for i, n := range buttonNames {
		if n == s {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button: %s", s)
}

// Pattern is a vibration pattern
type Pattern int

const (
	PulseShort Pattern = iota
	PulseDouble
	PulseTap
)

// Vibrator drives the vibration motor
type Vibrator interface {
	Vibrate(p Pattern)
}

// BatteryState is a battery charge report
type BatteryState struct {
	Percent  int
	Charging bool
	Plugged  bool
}

// Sensors reports the device state shown by the indicators
type Sensors interface {
	Battery() BatteryState
	Bluetooth() bool
}

// StaticSensors always reports the same state
type StaticSensors struct {
	State     BatteryState
	Connected bool
}

func (s StaticSensors) Battery() BatteryState { return s.State }
func (s StaticSensors) Bluetooth() bool       { return s.Connected }

type noVibrator struct{}

func (noVibrator) Vibrate(Pattern) {}

// Redraw intervals
const (
	DigitalInterval  = 100 * time.Millisecond
	MinSweepInterval = 50 * time.Millisecond
)

// Params wires a Face to its collaborators
type Params struct {
	Def      *model.FaceDef
	Loader   hands.Loader
	Timers   sched.Timers
	Store    store.Store    // Defaults to an in-memory store
	Sensors  Sensors        // Defaults to a full, connected device
	Vibrator Vibrator       // Defaults to none
	Log      logrus.FieldLogger
	// KeepAssets keeps indicator and card artwork between frames
	KeepAssets bool
	// OnInvalidate is called with the pending layers whenever a
	// layer needs redrawing
	OnInvalidate func(hands.Layer)
}

// Face is the running watch-face state
type Face struct {
	def     *model.FaceDef
	caps    model.Capabilities
	loader  *schemeLoader
	timers  sched.Timers
	store   store.Store
	sensors Sensors
	vib     Vibrator
	log     logrus.FieldLogger

	keepAssets   bool
	onInvalidate func(hands.Layer)

	opts   config.Options
	chrono *chrono.Data
	steps  [model.NumHands]int
	caches [model.NumHands]*hands.Cache
	assets map[int]*model.Bitmap

	placement hands.Placement
	dirty     hands.Layer
	started   bool
	digital   bool
	battery   BatteryState
	connected bool

	sweep     *sched.Sweep
	interval  time.Duration
	frames    int
	lowMemory int
}

// New creates a stopped face
func New(p Params) (*Face, error) {
	if p.Def == nil || p.Loader == nil || p.Timers == nil {
		return nil, fmt.Errorf("%w: face needs a definition, a loader and timers", model.ErrUsage)
	}
	if err := p.Def.Validate(); err != nil {
		return nil, err
	}
	if p.Store == nil {
		p.Store = store.NewMemory()
	}
	if p.Sensors == nil {
		p.Sensors = StaticSensors{State: BatteryState{Percent: 100}, Connected: true}
	}
	if p.Vibrator == nil {
		p.Vibrator = noVibrator{}
	}
	if p.Log == nil {
		p.Log = logrus.StandardLogger()
	}
	log := p.Log.WithField("face", p.Def.Name)

	f := &Face{
		def:          p.Def,
		caps:         p.Def.Caps(),
		loader:       &schemeLoader{base: p.Loader, log: log},
		timers:       p.Timers,
		store:        p.Store,
		sensors:      p.Sensors,
		vib:          p.Vibrator,
		log:          log,
		keepAssets:   p.KeepAssets,
		onInvalidate: p.OnInvalidate,
		opts:         config.Defaults(),
		chrono:       chrono.New(log),
		steps:        hands.Steps(p.Def),
		assets:       make(map[int]*model.Bitmap),
		sweep:        sched.NewSweep(p.Timers),
	}
	for i := range p.Def.Hands {
		h := &p.Def.Hands[i]
		f.caches[h.Hand] = hands.NewCache(h, f.loader, log)
	}
	return f, nil
}

// Start loads the persisted state, computes the first placement and
// arms the redraw timer.
func (f *Face) Start() {
	now := f.timers.Now()

	opts, err := config.Load(f.store, f.log)
	if err != nil {
		f.log.WithError(err).Warn("using default config")
	}
	f.opts = opts
	if err := f.chrono.Load(f.store, hands.MSOfDay(now)); err != nil {
		f.log.WithError(err).Warn("chrono data not restored")
	}
	f.battery = f.sensors.Battery()
	f.connected = f.sensors.Bluetooth()
	f.loader.scheme = f.scheme()

	f.placement = f.placementAt(now)
	f.started = true
	f.invalidate(hands.LayerAll)
	f.schedule()
}

// Stop cancels the timer, persists the stopwatch and drops all artwork
func (f *Face) Stop() {
	f.sweep.Stop()
	if err := f.chrono.Save(f.store); err != nil {
		f.log.WithError(err).Error("chrono data not saved")
	}
	f.evict()
	f.started = false
}

func (f *Face) scheme() *model.ColorScheme {
	if int(f.opts.ColorMode) < len(f.def.Schemes) {
		return &f.def.Schemes[f.opts.ColorMode]
	}
	return nil
}

func (f *Face) placementAt(now time.Time) hands.Placement {
	in := hands.Inputs{
		Time:  now,
		Sweep: f.opts.SweepSeconds,
		Dial:  f.opts.ChronoDial,
	}
	if f.caps.Chrono {
		in.Chrono = hands.ChronoReading{
			MS:      f.chrono.Elapsed(hands.MSOfDay(now)),
			Running: f.chrono.Counting(),
		}
	}
	return hands.Compute(f.steps, in)
}

func (f *Face) invalidate(l hands.Layer) {
	if l == 0 {
		return
	}
	f.dirty |= l
	if f.onInvalidate != nil {
		f.onInvalidate(f.dirty)
	}
}

// Tick recomputes the placement and invalidates what moved
func (f *Face) Tick() {
	now := f.timers.Now()
	p := f.placementAt(now)
	changed := p.Diff(f.placement)

	if f.started && f.opts.HourBuzzer && p.HourBuzzer != f.placement.HourBuzzer {
		f.log.WithField("hour", p.HourBuzzer).Debug("hour buzzer")
		f.vib.Vibrate(PulseShort)
	}
	if f.digital && f.chrono.Counting() {
		changed |= hands.LayerDigital
	}
	f.placement = p
	f.invalidate(changed)
}

// Interval returns the period of the redraw timer. It is the shortest
// step among the animated elements on show, or a minute.
func (f *Face) Interval() time.Duration {
	iv := time.Minute
	if f.opts.SecondHand && f.caps.SecondHand {
		iv = min(iv, f.handInterval(model.HandSecond))
	}
	if f.caps.Chrono && f.chrono.Counting() {
		iv = min(iv, f.handInterval(model.HandChronoSecond))
	}
	if f.digital && f.chrono.Counting() {
		iv = min(iv, DigitalInterval)
	}
	return iv
}

func (f *Face) handInterval(id model.HandID) time.Duration {
	if !f.opts.SweepSeconds {
		return time.Second
	}
	step := time.Duration(hands.Period(id)/int64(f.steps[id])) * time.Millisecond
	return max(step, MinSweepInterval)
}

// schedule re-arms the redraw timer for the next interval boundary
func (f *Face) schedule() {
	if !f.started {
		return
	}
	iv := f.Interval()
	if iv != f.interval {
		f.log.WithField("interval", iv).Debug("redraw interval")
		f.interval = iv
	}
	ms := hands.MSOfDay(f.timers.Now())
	step := iv.Milliseconds()
	delay := time.Duration(step-ms%step) * time.Millisecond
	f.sweep.Arm(delay, func() {
		f.Tick()
		f.schedule()
	})
}

// HandleButton applies a button press. Select starts and stops the
// stopwatch, down records a lap (a long press resets a stopped
// stopwatch) and up toggles the digital readout.
func (f *Face) HandleButton(b Button, long bool) {
	if !f.caps.Chrono {
		return
	}
	ms := hands.MSOfDay(f.timers.Now())

	switch b {
	case ButtonSelect:
		f.chrono.StartStop(ms)
		f.vib.Vibrate(PulseTap)
	case ButtonDown:
		switch {
		case f.chrono.Running:
			f.chrono.Lap(ms, f.digital)
			f.vib.Vibrate(PulseTap)
		case long:
			f.chrono.Reset()
			f.vib.Vibrate(PulseDouble)
		default:
			return
		}
	case ButtonUp:
		f.digital = !f.digital
	default:
		return
	}
	f.invalidate(hands.LayerDigital)
	f.Tick()
	f.schedule()
}

// ApplyConfig applies an option update message. A change is persisted
// and takes effect at once.
func (f *Face) ApplyConfig(updates map[config.Key]int32) bool {
	if !f.opts.Apply(updates, f.log) {
		return false
	}
	if err := config.Save(f.store, f.opts, f.log); err != nil {
		f.log.WithError(err).Error("config not saved")
	}

	f.evict()
	f.loader.scheme = f.scheme()
	f.placement = f.placementAt(f.timers.Now())
	f.invalidate(hands.LayerAll)
	f.schedule()
	return true
}

// HandleBattery records a battery report
func (f *Face) HandleBattery(s BatteryState) {
	if s == f.battery {
		return
	}
	f.battery = s
	f.log.WithFields(logrus.Fields{"percent": s.Percent, "charging": s.Charging, "plugged": s.Plugged}).Info("battery changed")
	if f.opts.BatteryGauge != model.IndicatorOff {
		f.invalidate(hands.LayerIndicators)
	}
}

// HandleBluetooth records a connection change. Losing the connection
// buzzes when enabled.
func (f *Face) HandleBluetooth(connected bool) {
	if connected == f.connected {
		return
	}
	f.connected = connected
	if !connected && f.opts.BluetoothBuzzer {
		f.vib.Vibrate(PulseShort)
	}
	if f.opts.BluetoothIndicator != model.IndicatorOff {
		f.invalidate(hands.LayerIndicators)
	}
}

// evict drops every cached bitmap
func (f *Face) evict() {
	for _, c := range f.caches {
		if c != nil {
			c.Release()
		}
	}
	f.releaseAssets()
}

func (f *Face) releaseAssets() {
	for id, bmp := range f.assets {
		bmp.Release()
		delete(f.assets, id)
	}
}

// asset returns a decoded card or indicator bitmap
func (f *Face) asset(id int) (*model.Bitmap, error) {
	if bmp, ok := f.assets[id]; ok {
		return bmp, nil
	}
	bmp, err := f.loader.Load(id)
	if err != nil {
		return nil, err
	}
	f.assets[id] = bmp
	return bmp, nil
}

// Options returns the active options
func (f *Face) Options() config.Options { return f.opts }

// Chrono returns the stopwatch
func (f *Face) Chrono() *chrono.Data { return f.chrono }

// Placement returns the current hand placement
func (f *Face) Placement() hands.Placement { return f.placement }

// Dirty returns the layers waiting for a redraw
func (f *Face) Dirty() hands.Layer { return f.dirty }

// DigitalShowing reports whether the stopwatch readout is shown
func (f *Face) DigitalShowing() bool { return f.digital }

// Frames returns the number of frames rendered
func (f *Face) Frames() int { return f.frames }

// LowMemoryEvents returns how many frames were skipped for memory
func (f *Face) LowMemoryEvents() int { return f.lowMemory }

// Cache returns the artwork cache of a hand slot, or nil
func (f *Face) Cache(id model.HandID) *hands.Cache {
	if id < 0 || id >= model.NumHands {
		return nil
	}
	return f.caches[id]
}

// AssetsHeld returns the number of card and indicator bitmaps held
func (f *Face) AssetsHeld() int { return len(f.assets) }

func isOOM(err error) bool {
	return errors.Is(err, model.ErrOutOfMemory)
}
