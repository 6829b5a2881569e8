// Package lang defines the fixed set of languages available for dictation.
package lang

import "golang.org/x/text/language"

// Language is an immutable per-language descriptor. The table is set at
// startup and never mutated.
type Language struct {
	Code string // ISO 639-1 code used by the transcription engine
	Name string
	Flag string
}

var table = []Language{
	{"es", "Spanish", "🇪🇸"},
	{"en", "English", "🇬🇧"},
	{"ja", "Japanese", "🇯🇵"},
	{"fr", "French", "🇫🇷"},
	{"de", "German", "🇩🇪"},
	{"it", "Italian", "🇮🇹"},
	{"pt", "Portuguese", "🇵🇹"},
	{"zh", "Chinese", "🇨🇳"},
	{"ru", "Russian", "🇷🇺"},
	{"ko", "Korean", "🇰🇷"},
}

// All returns the language table in display order.
func All() []Language {
	out := make([]Language, len(table))
	copy(out, table)
	return out
}

// Lookup returns the descriptor for a language code.
func Lookup(code string) (Language, bool) {
	for _, l := range table {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Valid reports whether code names a supported language.
func Valid(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Canonical normalizes a user-supplied code ("EN", "en-US") to the base
// code used by the table. Returns "" if the code cannot be parsed or the
// base language is not in the table.
func Canonical(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	c := base.String()
	if !Valid(c) {
		return ""
	}
	return c
}

// Default is the language selected when no configuration exists.
func Default() Language { return table[0] }
