// Package hands maps time to discrete hand positions and keeps the
// decoded artwork for each hand slot.
package hands

import (
	"time"

	"github.com/dyuri/dialface/internal/model"
)

// Periods in milliseconds
const (
	MSPerSecond        = 1000
	MSPerMinute        = 60 * MSPerSecond
	MSPerHour          = 60 * MSPerMinute
	MSPerDay           = 24 * MSPerHour
	HourPeriod         = 12 * MSPerHour
	ChronoMinutePeriod = 30 * MSPerMinute
	TenthPeriod        = MSPerSecond
)

// DefaultSteps is used for hands a face does not define
var DefaultSteps = [model.NumHands]int{48, 60, 60, 30, 60, 10}

// Index returns floor(steps * (elapsed mod period) / period) mod steps
func Index(steps int, elapsedMS, periodMS int64) int {
	if steps <= 0 || periodMS <= 0 {
		return 0
	}
	ms := elapsedMS % periodMS
	if ms < 0 {
		ms += periodMS
	}
	return int(int64(steps) * ms / periodMS % int64(steps))
}

// Period returns the revolution time of a clock hand
func Period(id model.HandID) int64 {
	switch id {
	case model.HandHour:
		return HourPeriod
	case model.HandMinute:
		return MSPerHour
	case model.HandChronoMinute:
		return ChronoMinutePeriod
	case model.HandChronoTenth:
		return TenthPeriod
	default:
		return MSPerMinute
	}
}

// HandIndex returns the step of a hand for ms milliseconds past its
// epoch (midnight, or the stopwatch start). Without sweep the time is
// first truncated to a whole second.
func HandIndex(id model.HandID, steps int, ms int64, sweep bool) int {
	if !sweep {
		ms = ms / MSPerSecond * MSPerSecond
	}
	return Index(steps, ms, Period(id))
}

// MSOfDay returns milliseconds since local midnight
func MSOfDay(t time.Time) int64 {
	return int64((t.Hour()*60+t.Minute())*60+t.Second())*MSPerSecond + int64(t.Nanosecond()/int(time.Millisecond))
}

// Steps returns the step counts of every hand slot of a face
func Steps(def *model.FaceDef) [model.NumHands]int {
	steps := DefaultSteps
	if def == nil {
		return steps
	}
	for _, h := range def.Hands {
		if h.Hand >= 0 && h.Hand < model.NumHands && h.Steps > 0 {
			steps[h.Hand] = h.Steps
		}
	}
	return steps
}

// Layer is a set of face layers needing a redraw
type Layer uint32

const (
	LayerHour Layer = 1 << iota
	LayerMinute
	LayerSecond
	LayerChronoMinute
	LayerChronoSecond
	LayerChronoTenth
	LayerDay
	LayerDate
	LayerMonth
	LayerChronoDial
	LayerDigital
	LayerIndicators

	LayerAll Layer = 1<<iota - 1
)

// HandLayer returns the layer bit of a hand slot
func HandLayer(id model.HandID) Layer {
	return LayerHour << uint(id)
}

// Has reports whether every bit of o is set
func (l Layer) Has(o Layer) bool {
	return l&o == o
}

// ChronoReading is the stopwatch state placement depends on
type ChronoReading struct {
	MS      int64 // Elapsed stopwatch time
	Running bool  // Counting and not paused on a lap
}

// Inputs gathers what a placement is derived from
type Inputs struct {
	Time   time.Time
	Sweep  bool
	Chrono ChronoReading
	Dial   model.ChronoDial
}

// Placement is a snapshot of every discrete position on the face
type Placement struct {
	Hands      [model.NumHands]int
	Weekday    int // 0 is Sunday
	Date       int // Day of month
	Month      int // 1-12
	HourBuzzer int // Whole hours since midnight
	Tenths     bool
}

// Compute derives a placement from the inputs
func Compute(steps [model.NumHands]int, in Inputs) Placement {
	ms := MSOfDay(in.Time)
	p := Placement{
		Weekday:    int(in.Time.Weekday()),
		Date:       in.Time.Day(),
		Month:      int(in.Time.Month()),
		HourBuzzer: int(ms / MSPerHour),
	}

	for _, id := range []model.HandID{model.HandHour, model.HandMinute, model.HandSecond} {
		p.Hands[id] = HandIndex(id, steps[id], ms, in.Sweep)
	}

	chrono := in.Chrono.MS
	p.Hands[model.HandChronoMinute] = Index(steps[model.HandChronoMinute], chrono, ChronoMinutePeriod)
	p.Hands[model.HandChronoSecond] = HandIndex(model.HandChronoSecond, steps[model.HandChronoSecond], chrono, in.Sweep)

	switch in.Dial {
	case model.DialHours:
		p.Tenths = false
	case model.DialDual:
		p.Tenths = chrono < ChronoMinutePeriod
	default:
		p.Tenths = true
	}

	tenth := steps[model.HandChronoTenth]
	switch {
	case in.Dial == model.DialOff:
		// Parked when the dial is hidden.
	case !p.Tenths:
		p.Hands[model.HandChronoTenth] = Index(tenth, chrono, HourPeriod)
	case in.Chrono.Running:
		// Tenths are not animated while counting.
	default:
		p.Hands[model.HandChronoTenth] = Index(tenth, chrono/100*100, TenthPeriod)
	}
	return p
}

// Diff returns the layers whose content differs between p and prev
func (p Placement) Diff(prev Placement) Layer {
	var changed Layer
	for id := model.HandID(0); id < model.NumHands; id++ {
		if p.Hands[id] != prev.Hands[id] {
			changed |= HandLayer(id)
		}
	}
	if p.Weekday != prev.Weekday {
		changed |= LayerDay
	}
	if p.Date != prev.Date {
		changed |= LayerDate
	}
	if p.Month != prev.Month {
		changed |= LayerMonth
	}
	if p.Tenths != prev.Tenths {
		changed |= LayerChronoDial
	}
	return changed
}
