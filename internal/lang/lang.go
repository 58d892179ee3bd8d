// Package lang holds the weekday names shown on the day card
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Lang is one display language
type Lang struct {
	Locale   string
	Name     string
	Weekdays [7]string // Sunday first
}

// Table lists the display languages by index
var Table = []Lang{
	{"en_US", "English", [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}},
	{"fr_FR", "French", [7]string{"Dim", "Lun", "Mar", "Mer", "Jeu", "Ven", "Sam"}},
	{"it_IT", "Italian", [7]string{"Dom", "Lun", "Mar", "Mer", "Gio", "Ven", "Sab"}},
	{"es_ES", "Spanish", [7]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}},
	{"pt_PT", "Portuguese", [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}},
	{"de_DE", "German", [7]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}},
	{"nl_NL", "Dutch", [7]string{"zo", "ma", "di", "wo", "do", "vr", "za"}},
	{"da_DK", "Danish", [7]string{"Søn", "Man", "Tir", "Ons", "Tor", "Fre", "Lør"}},
	{"sv_SE", "Swedish", [7]string{"Sön", "Mån", "Tis", "Ons", "Tor", "Fre", "Lör"}},
	{"no_NO", "Norwegian", [7]string{"søn", "man", "tir", "ons", "tor", "fre", "lør"}},
	{"is_IS", "Icelandic", [7]string{"sun", "mán", "þri", "mið", "fim", "fös", "lau"}},
	{"el_GR", "Greek", [7]string{"Κυρ", "Δευ", "Τρι", "Τετ", "Πεμ", "Παρ", "Σαβ"}},
	{"hu_HU", "Hungarian", [7]string{"Vas", "Hét", "Ked", "Sze", "Csü", "Pén", "Szo"}},
	{"ru_RU", "Russian", [7]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}},
	{"pl_PL", "Polish", [7]string{"ndz", "pon", "wto", "śro", "czw", "ptk", "sob"}},
	{"cs_CZ", "Czech", [7]string{"ne", "po", "út", "st", "čt", "pá", "so"}},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(Table))
	for i, l := range Table {
		tags[i] = language.Make(strings.ReplaceAll(l.Locale, "_", "-"))
	}
	return language.NewMatcher(tags)
}()

// Get returns the language at index, falling back to the first one
func Get(index int) Lang {
	if index < 0 || index >= len(Table) {
		return Table[0]
	}
	return Table[index]
}

// Weekday returns the short name of weekday wd (0 is Sunday)
func Weekday(index, wd int) string {
	if wd < 0 || wd > 6 {
		return ""
	}
	return Get(index).Weekdays[wd]
}

// Match picks the table index best serving a locale such as "de-AT"
// or "pt_BR". Unknown locales map to English.
func Match(locale string) int {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return 0
	}
	_, index, conf := matcher.Match(tag)
	if conf == language.No {
		return 0
	}
	return index
}
