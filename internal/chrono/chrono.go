// Package chrono implements the stopwatch: start, stop, lap and reset,
// its digital readout and its persisted state.
package chrono

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/dialface/internal/store"
)

const (
	// MaxLaps is the number of lap times remembered
	MaxLaps = 4
	// BlobSize is the length of the persisted state
	BlobSize = 26

	msPerDay = 24 * 60 * 60 * 1000
)

// state is the persisted layout, little-endian and packed
type state struct {
	Start     uint32 // Consulted while running and not lap paused
	Hold      uint32 // Consulted while stopped or lap paused
	Running   uint8
	LapPaused uint8
	Laps      [MaxLaps]uint32
}

// Data is the stopwatch state. All times are milliseconds of the day.
type Data struct {
	Start     int64
	Hold      int64
	Running   bool
	LapPaused bool
	Laps      [MaxLaps]int64 // Oldest first; zero is an empty slot

	saved []byte
	log   logrus.FieldLogger
}

// New creates a reset stopwatch
func New(log logrus.FieldLogger) *Data {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Data{log: log.WithField("component", "chrono")}
}

func (d *Data) logger() logrus.FieldLogger {
	if d.log == nil {
		d.log = logrus.StandardLogger().WithField("component", "chrono")
	}
	return d.log
}

func modDay(ms int64) int64 {
	ms %= msPerDay
	if ms < 0 {
		ms += msPerDay
	}
	return ms
}

// Counting reports whether the displayed time is advancing
func (d *Data) Counting() bool {
	return d.Running && !d.LapPaused
}

// Elapsed returns the time to display at now
func (d *Data) Elapsed(now int64) int64 {
	if d.Counting() {
		return modDay(now - d.Start)
	}
	return d.Hold
}

// StartStop stops a running stopwatch, or starts a stopped one from
// the time it shows.
func (d *Data) StartStop(now int64) {
	if d.Running {
		d.Hold = modDay(now - d.Start)
		d.Running = false
		d.LapPaused = false
		return
	}
	d.Start = modDay(now - d.Hold)
	d.Running = true
}

// Lap records a lap time and pauses the hands on it, or resumes the
// hands when already paused. With the digital readout showing the
// lap is recorded without pausing. Lap does nothing while stopped.
func (d *Data) Lap(now int64, digitalShowing bool) {
	if !d.Running {
		return
	}
	if d.LapPaused {
		d.LapPaused = false
		return
	}
	lap := modDay(now - d.Start)
	d.record(lap)
	if !digitalShowing {
		d.Hold = lap
		d.LapPaused = true
	}
}

func (d *Data) record(lap int64) {
	copy(d.Laps[:], d.Laps[1:])
	d.Laps[MaxLaps-1] = lap
}

// Reset stops the stopwatch at zero and forgets the laps
func (d *Data) Reset() {
	d.Running = false
	d.LapPaused = false
	d.Start = 0
	d.Hold = 0
	d.Laps = [MaxLaps]int64{}
}

// Format renders a duration as H:MM:SS.t
func Format(ms int64) string {
	return fmt.Sprintf("%d:%02d:%02d.%d",
		ms/(60*60*1000), ms/(60*1000)%60, ms/1000%60, ms/100%10)
}

// Digital returns the readout of the current time
func (d *Data) Digital(now int64) string {
	return Format(d.Elapsed(now))
}

// LapString returns lap i formatted, or "" for an empty slot
func (d *Data) LapString(i int) string {
	if i < 0 || i >= MaxLaps || d.Laps[i] == 0 {
		return ""
	}
	return Format(d.Laps[i])
}

func (d *Data) MarshalBinary() ([]byte, error) {
	s := state{
		Start: uint32(d.Start),
		Hold:  uint32(d.Hold),
	}
	if d.Running {
		s.Running = 1
	}
	if d.LapPaused {
		s.LapPaused = 1
	}
	for i, l := range d.Laps {
		s.Laps[i] = uint32(l)
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Data) UnmarshalBinary(data []byte) error {
	if len(data) != BlobSize {
		return fmt.Errorf("chrono state is %d bytes, want %d", len(data), BlobSize)
	}
	var s state
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &s); err != nil {
		return err
	}
	d.Start = int64(s.Start)
	d.Hold = int64(s.Hold)
	d.Running = s.Running != 0
	d.LapPaused = s.LapPaused != 0
	for i, l := range s.Laps {
		d.Laps[i] = int64(l)
	}
	return nil
}

// Load restores the persisted state. A missing or mis-sized blob
// leaves the stopwatch reset. A running start time is moved into the
// current day.
func (d *Data) Load(s store.Store, now int64) error {
	blob, ok, err := s.Load(store.KeyChrono)
	if err != nil {
		return err
	}
	if !ok || len(blob) != BlobSize {
		d.logger().WithField("size", len(blob)).Info("no previous chrono data")
		return nil
	}
	if err := d.UnmarshalBinary(blob); err != nil {
		return err
	}
	d.saved = blob

	if d.Running {
		start := now - modDay(now-d.Start)
		d.logger().WithFields(logrus.Fields{"from": d.Start, "to": modDay(start)}).Debug("modulated start")
		d.Start = modDay(start)
	}
	d.logger().Info("loaded chrono data")
	return nil
}

// Save persists the state if it changed since the last Load or Save
func (d *Data) Save(s store.Store) error {
	blob, err := d.MarshalBinary()
	if err != nil {
		return err
	}
	if bytes.Equal(blob, d.saved) {
		d.logger().Debug("chrono data unchanged")
		return nil
	}
	if err := s.Save(store.KeyChrono, blob); err != nil {
		d.logger().WithError(err).Error("saving chrono data")
		return err
	}
	d.saved = blob
	d.logger().Info("saved chrono data")
	return nil
}
