package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/dyuri/dialface/internal/model"
)

// timeValue is a pflag.Value holding an RFC 3339 time, now by default
type timeValue struct {
	t   time.Time
	set bool
}

var _ pflag.Value = (*timeValue)(nil)

func (v *timeValue) String() string {
	if !v.set {
		return "now"
	}
	return v.t.Format(time.RFC3339)
}

func (v *timeValue) Set(s string) error {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("want RFC 3339 time: %w", err)
	}
	v.t, v.set = t, true
	return nil
}

func (v *timeValue) Type() string { return "time" }

// Time returns the flag value, or the current time if unset
func (v *timeValue) Time() time.Time {
	if !v.set {
		return time.Now()
	}
	return v.t
}

// formatValue is a pflag.Value holding a pixel format or "auto"
type formatValue struct {
	format model.Format
	auto   bool
}

var _ pflag.Value = (*formatValue)(nil)

func (v *formatValue) String() string {
	if v.auto {
		return "auto"
	}
	return v.format.String()
}

func (v *formatValue) Set(s string) error {
	if s == "auto" {
		v.auto = true
		return nil
	}
	f, err := model.ParseFormat(s)
	if err != nil {
		return err
	}
	v.format, v.auto = f, false
	return nil
}

func (v *formatValue) Type() string { return "format" }

// addTimeFlag registers --time on fs
func addTimeFlag(fs *pflag.FlagSet, v *timeValue) {
	fs.Var(v, "time", "Wall-clock time as RFC 3339 (default: now)")
}

// faceFlags are the options shared by render and run
func faceFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("face", pflag.ExitOnError)
	fs.String("store", "", "SQLite file holding persisted config and stopwatch state")
	fs.StringArray("set", nil, "Config option as key=value (repeatable)")
	fs.String("locale", "", "Pick the display language from a locale such as de_AT")
	fs.String("draw-mode", "", "Override draw mode: normal, inverted")
	fs.Int("battery", 100, "Battery percentage")
	fs.Bool("charging", false, "Battery is charging")
	fs.Bool("plugged", false, "Charger is plugged in")
	fs.Bool("disconnected", false, "Bluetooth is disconnected")
	fs.Bool("keep-assets", false, "Keep indicator artwork between frames")
	fs.Int("scale", 1, "Scale the output image by an integer factor")
	fs.Int("heap", 0, "Artwork memory budget in bytes (default: unlimited)")
	return fs
}
