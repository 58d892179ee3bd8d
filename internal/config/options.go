// Package config holds the user-adjustable watch-face options and
// their persisted form.
package config

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/dialface/internal/model"
	"github.com/dyuri/dialface/internal/store"
)

// Key identifies an option in an update message
type Key uint8

const (
	KeyBatteryGauge Key = iota
	KeyBluetoothIndicator
	KeySecondHand
	KeyHourBuzzer
	KeyDrawMode
	KeyChronoDial
	KeySweepSeconds
	KeyShowDay
	KeyShowDate
	KeyDisplayLang
	KeyFaceIndex
	KeyBluetoothBuzzer
	KeyColorMode
	NumKeys
)

var keyNames = [NumKeys]string{
	"battery_gauge",
	"bluetooth_indicator",
	"second_hand",
	"hour_buzzer",
	"draw_mode",
	"chrono_dial",
	"sweep_seconds",
	"show_day",
	"show_date",
	"display_lang",
	"face_index",
	"bluetooth_buzzer",
	"color_mode",
}

func (k Key) String() string {
	if k < NumKeys {
		return keyNames[k]
	}
	return fmt.Sprintf("key(%d)", uint8(k))
}

// ParseKey maps an option name to its key
func ParseKey(s string) (Key, error) {
	s = strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for i, n := range keyNames {
		if n == s {
			return Key(i), nil
		}
	}
	return 0, fmt.Errorf("unknown option: %s", s)
}

// BlobSize is the length of the persisted options
const BlobSize = int(NumKeys)

// Options is the watch-face configuration. The field order is the
// persisted byte order.
type Options struct {
	BatteryGauge       model.IndicatorMode
	BluetoothIndicator model.IndicatorMode
	SecondHand         bool
	HourBuzzer         bool
	DrawMode           uint8 // 0 normal, 1 inverted
	ChronoDial         model.ChronoDial
	SweepSeconds       bool
	ShowDay            bool
	ShowDate           bool
	DisplayLang        uint8
	FaceIndex          uint8
	BluetoothBuzzer    bool
	ColorMode          uint8 // Index into the face's color schemes
}

// Defaults returns the options used before any are stored
func Defaults() Options {
	return Options{
		BatteryGauge:       model.IndicatorWhenNeeded,
		BluetoothIndicator: model.IndicatorWhenNeeded,
		SecondHand:         true,
		ChronoDial:         model.DialDual,
		ShowDay:            true,
		ShowDate:           true,
		BluetoothBuzzer:    true,
	}
}

func (o Options) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Options) UnmarshalBinary(data []byte) error {
	if len(data) != BlobSize {
		return fmt.Errorf("options are %d bytes, want %d", len(data), BlobSize)
	}
	var n Options
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &n); err != nil {
		return err
	}
	*o = n
	return nil
}

// Get returns the value of one option
func (o *Options) Get(k Key) int32 {
	switch k {
	case KeyBatteryGauge:
		return int32(o.BatteryGauge)
	case KeyBluetoothIndicator:
		return int32(o.BluetoothIndicator)
	case KeySecondHand:
		return b2i(o.SecondHand)
	case KeyHourBuzzer:
		return b2i(o.HourBuzzer)
	case KeyDrawMode:
		return int32(o.DrawMode)
	case KeyChronoDial:
		return int32(o.ChronoDial)
	case KeySweepSeconds:
		return b2i(o.SweepSeconds)
	case KeyShowDay:
		return b2i(o.ShowDay)
	case KeyShowDate:
		return b2i(o.ShowDate)
	case KeyDisplayLang:
		return int32(o.DisplayLang)
	case KeyFaceIndex:
		return int32(o.FaceIndex)
	case KeyBluetoothBuzzer:
		return b2i(o.BluetoothBuzzer)
	case KeyColorMode:
		return int32(o.ColorMode)
	}
	return 0
}

// Set assigns one option. Enumerated options reject values outside
// their range.
func (o *Options) Set(k Key, v int32) error {
	switch k {
	case KeyBatteryGauge, KeyBluetoothIndicator:
		if v < 0 || v > int32(model.IndicatorDigital) {
			return fmt.Errorf("%s: indicator mode %d out of range", k, v)
		}
		if k == KeyBatteryGauge {
			o.BatteryGauge = model.IndicatorMode(v)
		} else {
			o.BluetoothIndicator = model.IndicatorMode(v)
		}
	case KeySecondHand:
		o.SecondHand = v != 0
	case KeyHourBuzzer:
		o.HourBuzzer = v != 0
	case KeyDrawMode:
		if v != 0 && v != 1 {
			return fmt.Errorf("%s: %d is not 0 or 1", k, v)
		}
		o.DrawMode = uint8(v)
	case KeyChronoDial:
		if v < 0 || v > int32(model.DialDual) {
			return fmt.Errorf("%s: dial mode %d out of range", k, v)
		}
		o.ChronoDial = model.ChronoDial(v)
	case KeySweepSeconds:
		o.SweepSeconds = v != 0
	case KeyShowDay:
		o.ShowDay = v != 0
	case KeyShowDate:
		o.ShowDate = v != 0
	case KeyDisplayLang, KeyFaceIndex, KeyColorMode:
		if v < 0 || v > 0xff {
			return fmt.Errorf("%s: %d out of range", k, v)
		}
		switch k {
		case KeyDisplayLang:
			o.DisplayLang = uint8(v)
		case KeyFaceIndex:
			o.FaceIndex = uint8(v)
		default:
			o.ColorMode = uint8(v)
		}
	case KeyBluetoothBuzzer:
		o.BluetoothBuzzer = v != 0
	default:
		return fmt.Errorf("unknown option key %d", uint8(k))
	}
	return nil
}

// SetString parses a "name=value" assignment. Values may be numbers,
// true/false, or the names of indicator and dial modes.
func (o *Options) SetString(assign string) error {
	name, value, ok := strings.Cut(assign, "=")
	if !ok {
		return fmt.Errorf("option %q: want name=value", assign)
	}
	k, err := ParseKey(strings.TrimSpace(name))
	if err != nil {
		return err
	}
	v, err := parseValue(k, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	return o.Set(k, v)
}

func parseValue(k Key, s string) (int32, error) {
	if b, err := strconv.ParseBool(s); err == nil {
		return b2i(b), nil
	}
	if n, err := strconv.ParseInt(s, 0, 32); err == nil {
		return int32(n), nil
	}
	switch k {
	case KeyBatteryGauge, KeyBluetoothIndicator:
		for m := model.IndicatorOff; m <= model.IndicatorDigital; m++ {
			if m.String() == s {
				return int32(m), nil
			}
		}
	case KeyChronoDial:
		d, err := model.ParseChronoDial(s)
		if err != nil {
			return 0, err
		}
		return int32(d), nil
	case KeyDrawMode:
		switch s {
		case "normal":
			return 0, nil
		case "inverted":
			return 1, nil
		}
	}
	return 0, fmt.Errorf("invalid value %q", s)
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Apply applies an update message and reports whether anything
// changed. Invalid entries are logged and skipped.
func (o *Options) Apply(updates map[Key]int32, log logrus.FieldLogger) bool {
	if log == nil {
		log = logrus.StandardLogger()
	}
	orig := *o

	keys := make([]Key, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		if err := o.Set(k, updates[k]); err != nil {
			log.WithError(err).Warn("ignoring option update")
		}
	}
	if *o == orig {
		log.Info("config is unchanged")
		return false
	}
	log.WithField("config", o.String()).Info("new config")
	return true
}

func (o Options) String() string {
	var sb strings.Builder
	for k := Key(0); k < NumKeys; k++ {
		if k > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %d", k, o.Get(k))
	}
	return sb.String()
}

// Load returns the defaults overlaid by a stored blob of the right size
func Load(s store.Store, log logrus.FieldLogger) (Options, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	o := Defaults()

	blob, ok, err := s.Load(store.KeyConfig)
	if err != nil {
		return o, err
	}
	if !ok || len(blob) != BlobSize {
		log.WithField("size", len(blob)).Info("wrong previous config size or no previous config")
		return o, nil
	}
	if err := o.UnmarshalBinary(blob); err != nil {
		return Defaults(), err
	}
	log.WithField("config", o.String()).Info("loaded config")
	return o, nil
}

// Save persists the options
func Save(s store.Store, o Options, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	blob, err := o.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.Save(store.KeyConfig, blob); err != nil {
		log.WithError(err).Error("saving config")
		return err
	}
	log.WithField("config", o.String()).Info("saved config")
	return nil
}
