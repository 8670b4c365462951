package host

import (
	"fmt"
	"unicode/utf8"
)

// MaxNameBytes is the longest data-block name the host accepts, in UTF-8 bytes.
const MaxNameBytes = 63

// UniqueName returns desired, or desired with a ".001", ".002", ... suffix,
// such that taken reports false for it. The stem is trimmed on a rune
// boundary so the result never exceeds MaxNameBytes.
func UniqueName(desired string, taken func(string) bool) string {
	stem := trimName(desired, MaxNameBytes)
	suffix := ""
	for n := 1; ; n++ {
		name := stem + suffix
		if len(name) > MaxNameBytes {
			stem = trimName(stem, MaxNameBytes-len(suffix))
			name = stem + suffix
		}
		if !taken(name) {
			return name
		}
		suffix = fmt.Sprintf(".%03d", n)
	}
}

// NameSet is a set of used names.
type NameSet map[string]struct{}

// Has reports whether name is used.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Claim reserves a unique variant of desired and returns it.
func (s NameSet) Claim(desired string) string {
	name := UniqueName(desired, s.Has)
	s[name] = struct{}{}
	return name
}

func trimName(s string, max int) string {
	if max < 0 {
		max = 0
	}
	for len(s) > max {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
