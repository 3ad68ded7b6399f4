// Package header resolves the grouping column of a sheet and the group names
// found in it.
package header

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Target is the canonical name of a grouping column.
type Target string

const (
	TeamLead Target = "Team Lead"
	Mentor   Target = "Mentor"
)

// Targets lists the supported grouping columns.
var Targets = []Target{TeamLead, Mentor}

// aliases maps each target to the header spellings recognised for it.
var aliases = map[Target][]string{
	TeamLead: {"Team Lead", "TeamLead", "Lead", "Team Leader"},
	Mentor:   {"Mentor"},
}

// valueAliases collapses spelling variants of one person into a single group.
// Keys are normalized with Normalize.
var valueAliases = map[string]string{
	"fauziahasansiddiqui": "Fauzia Hasan",
}

// Normalize reduces a header or value to its comparison key: NFKC, case
// folded, without whitespace and without the separators _ - and .
func Normalize(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '_' || r == '-' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseTarget maps user input such as "team-lead", "Team Leads" or "mentor"
// onto a Target.
func ParseTarget(s string) (Target, error) {
	if strings.TrimSpace(s) == "" {
		return TeamLead, nil
	}
	for _, t := range Targets {
		if t.Matches(s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown header %q (want %q or %q)", s, TeamLead, Mentor)
}

// Matches reports whether raw is one of the target's aliases. Simple plurals
// are accepted, so "Team Leads" and "Mentors" match too.
func (t Target) Matches(raw string) bool {
	n := Normalize(raw)
	if n == "" {
		return false
	}
	for _, alias := range aliases[t] {
		a := Normalize(alias)
		if n == a || strings.TrimRight(n, "s") == strings.TrimRight(a, "s") {
			return true
		}
	}
	return false
}

// Key is the column key the target is stored under in a column set.
func (t Target) Key() string {
	return Normalize(string(t))
}

// Slug is the lower-case, dash separated form used in file names.
func (t Target) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(t)), " ", "-")
}

// Plural is the lower-case plural used in user messages ("team leads").
func (t Target) Plural() string {
	return strings.ToLower(string(t)) + "s"
}

func (t Target) String() string {
	return string(t)
}

// CanonicalValue trims a group cell value and resolves known spelling
// variants. An empty result means the row has no group.
func CanonicalValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if canonical, ok := valueAliases[Normalize(v)]; ok {
		return canonical
	}
	return v
}
