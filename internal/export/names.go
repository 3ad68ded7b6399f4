package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	unsafeChars  = `<>:"/\|?*`
	unnamed      = "unnamed"
	maxNameBytes = 200
)

func replaceUnsafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(unsafeChars, r) {
			return '_'
		}
		return r
	}, norm.NFC.String(s))
}

// Sanitize turns a group value into a file name stem. It may return "".
func Sanitize(s string) string {
	s = strings.Trim(replaceUnsafe(s), " .")
	for len(s) > maxNameBytes {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return strings.TrimRight(s, " .")
}

// sanitizePrefix keeps trailing separators such as "Team " or "2025_".
func sanitizePrefix(s string) string {
	return strings.TrimLeft(replaceUnsafe(s), " .")
}

// FileNames returns one distinct .xlsx name per group, in order. Names are
// compared case-insensitively and clashes get a " (n)" suffix.
func FileNames(groups []string, prefix string) []string {
	prefix = sanitizePrefix(prefix)
	seen := make(map[string]bool, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		stem := Sanitize(g)
		if stem == "" {
			stem = unnamed
		}
		stem = prefix + stem
		candidate := stem
		for n := 2; seen[strings.ToLower(candidate)]; n++ {
			candidate = fmt.Sprintf("%s (%d)", stem, n)
		}
		seen[strings.ToLower(candidate)] = true
		names[i] = candidate + ".xlsx"
	}
	return names
}

// WorkbookName returns name with an .xlsx extension, or fallback when name
// is blank.
func WorkbookName(name, fallback string) string {
	name = Sanitize(name)
	if name == "" {
		name = fallback
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}
