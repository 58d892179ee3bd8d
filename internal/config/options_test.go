package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyuri/dialface/internal/model"
	"github.com/dyuri/dialface/internal/store"
)

func TestBlobLayout(t *testing.T) {
	o := Defaults()
	o.DrawMode = 1
	o.FaceIndex = 7
	blob, err := o.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, blob, BlobSize)

	for k := Key(0); k < NumKeys; k++ {
		if got := int32(blob[k]); got != o.Get(k) {
			t.Errorf("byte %d (%s) = %d, want %d", k, k, got, o.Get(k))
		}
	}

	var back Options
	require.NoError(t, back.UnmarshalBinary(blob))
	assert.Equal(t, o, back)
	assert.Error(t, back.UnmarshalBinary(blob[1:]))
}

func TestLoadDefaults(t *testing.T) {
	s := store.NewMemory()
	o, err := Load(s, nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), o)

	// A blob of another size is ignored.
	require.NoError(t, s.Save(store.KeyConfig, []byte{1, 1, 1}))
	o, err = Load(s, nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), o)
}

func TestSaveLoad(t *testing.T) {
	s := store.NewMemory()
	o := Defaults()
	o.ChronoDial = model.DialHours
	o.SweepSeconds = true
	require.NoError(t, Save(s, o, nil))

	back, err := Load(s, nil)
	require.NoError(t, err)
	assert.Equal(t, o, back)
}

func TestApply(t *testing.T) {
	o := Defaults()
	assert.False(t, o.Apply(map[Key]int32{KeySecondHand: 1}, nil))

	changed := o.Apply(map[Key]int32{
		KeyDrawMode:     1,
		KeyChronoDial:   int32(model.DialTenths),
		KeyBatteryGauge: 9,
	}, nil)
	assert.True(t, changed)
	assert.Equal(t, uint8(1), o.DrawMode)
	assert.Equal(t, model.DialTenths, o.ChronoDial)
	assert.Equal(t, model.IndicatorWhenNeeded, o.BatteryGauge, "out of range value skipped")
}

func TestSetString(t *testing.T) {
	o := Defaults()
	tests := []struct {
		in   string
		key  Key
		want int32
	}{
		{"sweep_seconds=true", KeySweepSeconds, 1},
		{"chrono-dial=hours", KeyChronoDial, int32(model.DialHours)},
		{"battery_gauge=always", KeyBatteryGauge, int32(model.IndicatorAlways)},
		{"draw_mode=inverted", KeyDrawMode, 1},
		{"face_index=0x03", KeyFaceIndex, 3},
	}
	for _, tt := range tests {
		if err := o.SetString(tt.in); err != nil {
			t.Errorf("SetString(%q): %v", tt.in, err)
			continue
		}
		if got := o.Get(tt.key); got != tt.want {
			t.Errorf("after %q %s = %d, want %d", tt.in, tt.key, got, tt.want)
		}
	}

	for _, bad := range []string{"sweep", "nope=1", "draw_mode=2", "chrono_dial=weekly"} {
		assert.Error(t, o.SetString(bad), bad)
	}
}
