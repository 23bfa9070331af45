package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flosslyDevs/ToothMatch/internal/directory"
)

func f(v float64) *float64 { return &v }

func TestScoreCandidateToJob_Example(t *testing.T) {
	pref := &directory.Preference{
		JobType:        "full_time",
		WorkingPattern: "day-shift",
		PayMin:         f(20),
		PayMax:         f(30),
	}
	listing := &directory.Listing{
		Kind:       directory.KindLocum,
		JobType:    "full_time",
		Time:       "Day shift 9-5",
		HourlyRate: f(25),
	}

	// job type 10 + pattern 10 + pay 40
	assert.Equal(t, 60, ScoreCandidateToJob(pref, listing, TargetLocum))
	// deterministic
	assert.Equal(t, ScoreCandidateToJob(pref, listing, TargetLocum), ScoreCandidateToJob(pref, listing, TargetLocum))
}

func TestScoreCandidateToJob_Components(t *testing.T) {
	full := &directory.Preference{
		JobType:        " Full_Time ",
		WorkingPattern: "weekdays",
		PayMin:         f(40000),
		PayMax:         f(50000),
		SearchRadiusKm: f(25),
		Latitude:       f(51.5),
		Longitude:      f(-0.12),
	}
	permanent := &directory.Listing{
		Kind:             directory.KindPermanent,
		JobType:          "full_time",
		WorkingHours:     "Weekdays 8-6",
		SalaryRange:      "£45,000 - £60,000",
		OwnerHasLocation: true,
	}

	tests := []struct {
		name    string
		pref    *directory.Preference
		listing *directory.Listing
		kind    TargetType
		want    int
	}{
		{"everything", full, permanent, TargetPermanent, 80},
		{"nil preference gets pay and location", nil, permanent, TargetPermanent, 50},
		{"empty listing no preference", nil, &directory.Listing{}, TargetLocum, 40},
		{
			"salary below candidate minimum",
			&directory.Preference{PayMin: f(70000)},
			permanent, TargetPermanent, 10,
		},
		{
			"open upper bound",
			&directory.Preference{PayMin: f(50000)},
			permanent, TargetPermanent, 50,
		},
		{
			"hourly rate used as upper bound",
			&directory.Preference{HourlyRate: f(20)},
			&directory.Listing{Kind: directory.KindLocum, HourlyRate: f(25)}, TargetLocum, 0,
		},
		{
			"day rate fallback",
			&directory.Preference{PayMin: f(300), PayMax: f(400)},
			&directory.Listing{Kind: directory.KindLocum, DayRate: f(350)}, TargetLocum, 40,
		},
		{
			"listing without pay data fails a stated preference",
			&directory.Preference{PayMin: f(20)},
			&directory.Listing{Kind: directory.KindLocum}, TargetLocum, 0,
		},
		{
			"radius without coordinates",
			&directory.Preference{SearchRadiusKm: f(10), Latitude: f(1)},
			&directory.Listing{}, TargetLocum, 40,
		},
		{
			"blank job types never match",
			&directory.Preference{JobType: "  "},
			&directory.Listing{JobType: ""}, TargetLocum, 40,
		},
		{
			"leading dash pattern does not match everything",
			&directory.Preference{WorkingPattern: "-x"},
			&directory.Listing{Time: "morning"}, TargetLocum, 40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreCandidateToJob(tt.pref, tt.listing, tt.kind)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ in, want int }{
		{-5, 0},
		{0, 0},
		{80, 80},
		{100, 100},
		{130, 100},
	}
	for _, tt := range tests {
		if got := clamp(tt.in, 0, 100); got != tt.want {
			t.Errorf("clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseSalaryRange(t *testing.T) {
	tests := []struct {
		in     string
		lo, hi float64
		ok     bool
	}{
		{"£40,000 - £55,000", 40000, 55000, true},
		{"up to 60000", 60000, 60000, true},
		{"35k-45k, negotiable", 35, 45, true},
		{"competitive", 0, 0, false},
		{"", 0, 0, false},
		{", ,", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi, ok := ParseSalaryRange(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}
