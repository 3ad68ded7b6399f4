package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Team Lead", "teamlead"},
		{"  TEAM   LEAD ", "teamlead"},
		{"team_lead", "teamlead"},
		{"Team-Lead.", "teamlead"},
		{"ＴｅａｍＬｅａｄ", "teamlead"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestTargetMatches(t *testing.T) {
	tests := []struct {
		target Target
		raw    string
		want   bool
	}{
		{TeamLead, "Team Lead", true},
		{TeamLead, "TeamLead", true},
		{TeamLead, "teamlead", true},
		{TeamLead, "Lead", true},
		{TeamLead, "Team Leads", true},
		{TeamLead, "Team Leader", true},
		{TeamLead, "team_lead", true},
		{TeamLead, "Mentor", false},
		{TeamLead, "Leader Board", false},
		{TeamLead, "", false},
		{Mentor, "mentor", true},
		{Mentor, "Mentors", true},
		{Mentor, " MENTOR ", true},
		{Mentor, "Team Lead", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.target.Matches(tt.raw), "%s.Matches(%q)", tt.target, tt.raw)
	}
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Target{
		"":          TeamLead,
		"team-lead": TeamLead,
		"Team Lead": TeamLead,
		"lead":      TeamLead,
		"mentor":    Mentor,
		"Mentors":   Mentor,
	} {
		got, err := ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTarget("manager")
	assert.Error(t, err)
}

func TestTargetNames(t *testing.T) {
	assert.Equal(t, "team-lead", TeamLead.Slug())
	assert.Equal(t, "mentor", Mentor.Slug())
	assert.Equal(t, "team leads", TeamLead.Plural())
	assert.Equal(t, "teamlead", TeamLead.Key())
}

func TestCanonicalValue(t *testing.T) {
	assert.Equal(t, "", CanonicalValue("   "))
	assert.Equal(t, "Alice", CanonicalValue("  Alice "))
	assert.Equal(t, "Fauzia Hasan", CanonicalValue("Fauzia Hasan Siddiqui"))
	assert.Equal(t, "Fauzia Hasan", CanonicalValue("fauzia hasan  siddiqui"))
	assert.Equal(t, "Fauzia Hasan", CanonicalValue("Fauzia Hasan"))
}
