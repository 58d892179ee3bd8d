package model

import "fmt"

// IndicatorMode controls when a status indicator is drawn
type IndicatorMode uint8

const (
	IndicatorOff        IndicatorMode = iota // Never shown
	IndicatorWhenNeeded                      // Shown when it has news
	IndicatorAlways                          // Always shown
	IndicatorDigital                         // Shown as text
)

var indicatorNames = []string{"off", "when_needed", "always", "digital"}

func (m IndicatorMode) String() string {
	if int(m) < len(indicatorNames) {
		return indicatorNames[m]
	}
	return fmt.Sprintf("indicator(%d)", uint8(m))
}

// ChronoDial selects what the stopwatch sub-dial hand shows
type ChronoDial uint8

const (
	DialOff    ChronoDial = iota // Hand parked
	DialTenths                   // Tenths of a second
	DialHours                    // Hours on a 12-hour wheel
	DialDual                     // Tenths under 30 minutes, hours after
)

var dialNames = []string{"off", "tenths", "hours", "dual"}

func (d ChronoDial) String() string {
	if int(d) < len(dialNames) {
		return dialNames[d]
	}
	return fmt.Sprintf("dial(%d)", uint8(d))
}

// ParseChronoDial maps a dial name to its mode
func ParseChronoDial(s string) (ChronoDial, error) {
	for i, n := range dialNames {
		if n == s {
			return ChronoDial(i), nil
		}
	}
	return 0, fmt.Errorf("unknown chrono dial: %s", s)
}
