package lang

import "testing"

func TestWeekday(t *testing.T) {
	tests := []struct {
		index, wd int
		want      string
	}{
		{0, 0, "Sun"},
		{5, 3, "Mi"},
		{3, 6, "sáb"},
		{13, 1, "пн"},
		{99, 2, "Tue"},
		{0, 7, ""},
	}
	for _, tt := range tests {
		if got := Weekday(tt.index, tt.wd); got != tt.want {
			t.Errorf("Weekday(%d, %d) = %q, want %q", tt.index, tt.wd, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		locale string
		want   int
	}{
		{"en_US", 0},
		{"fr-FR", 1},
		{"de-AT", 5},
		{"cs_CZ", 15},
		{"ru", 13},
		{"ja-JP", 0},
		{"not a locale!", 0},
	}
	for _, tt := range tests {
		if got := Match(tt.locale); got != tt.want {
			t.Errorf("Match(%q) = %d (%s), want %d", tt.locale, got, Get(got).Name, tt.want)
		}
	}
}
