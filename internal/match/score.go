package match

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/flosslyDevs/ToothMatch/internal/directory"
)

const (
	pointsJobType  = 10
	pointsPattern  = 10
	pointsPay      = 40
	pointsRadius   = 10
	pointsLocation = 10
)

var salaryToken = regexp.MustCompile(`[\d,]+`)

// ScoreCandidateToJob rates how well a candidate's preference fits a
// listing, 0 to 100. A nil preference is treated as an empty one.
func ScoreCandidateToJob(pref *directory.Preference, l *directory.Listing, kind TargetType) int {
	var p directory.Preference
	if pref != nil {
		p = *pref
	}

	score := 0.0
	if jobTypeMatches(p.JobType, l.JobType) {
		score += pointsJobType
	}

	schedule := l.WorkingHours
	if strings.TrimSpace(schedule) == "" {
		schedule = l.Time
	}
	if patternMatches(p.WorkingPattern, schedule) {
		score += pointsPattern
	}

	if payMatches(p, l, kind) {
		score += pointsPay
	}

	if positive(p.SearchRadiusKm) && p.Latitude != nil && p.Longitude != nil {
		score += pointsRadius
	}
	if l.OwnerHasLocation {
		score += pointsLocation
	}

	return clamp(int(math.Round(score)), 0, 100)
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func jobTypeMatches(pref, listing string) bool {
	a, b := normalize(pref), normalize(listing)
	return a != "" && b != "" && a == b
}

// patternMatches accepts "day-shift" against "Day shift 9-5" through the
// prefix before the first dash.
func patternMatches(pattern, schedule string) bool {
	wp, wh := normalize(pattern), normalize(schedule)
	if wp == "" || wh == "" {
		return false
	}
	if strings.Contains(wh, wp) {
		return true
	}
	prefix, _, _ := strings.Cut(wp, "-")
	return prefix != "" && strings.Contains(wh, prefix)
}

func payMatches(p directory.Preference, l *directory.Listing, kind TargetType) bool {
	candMin, hasMin := positiveValue(p.PayMin)
	candMax, hasMax := positiveValue(p.PayMax)
	if !hasMax {
		candMax, hasMax = positiveValue(p.HourlyRate)
	}
	if !hasMin && !hasMax {
		return true
	}
	if !hasMin {
		candMin = math.Inf(-1)
	}
	if !hasMax {
		candMax = math.Inf(1)
	}

	listMin, listMax, ok := listingPay(l, kind)
	if !ok {
		return false
	}
	return listMax >= candMin && listMin <= candMax
}

// listingPay returns the pay range a listing offers. Locum shifts quote an
// hourly or day rate; permanent jobs a free-text salary range.
func listingPay(l *directory.Listing, kind TargetType) (float64, float64, bool) {
	if kind == TargetPermanent {
		return ParseSalaryRange(l.SalaryRange)
	}
	if rate, ok := positiveValue(l.HourlyRate); ok {
		return rate, rate, true
	}
	if rate, ok := positiveValue(l.DayRate); ok {
		return rate, rate, true
	}
	return 0, 0, false
}

// ParseSalaryRange extracts the smallest and largest number in s, ignoring
// thousands separators. "£40,000 - £55,000" yields 40000 and 55000.
func ParseSalaryRange(s string) (float64, float64, bool) {
	var (
		lo, hi float64
		found  bool
	)
	for _, tok := range salaryToken.FindAllString(s, -1) {
		tok = strings.ReplaceAll(tok, ",", "")
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		if !found || v < lo {
			lo = v
		}
		if !found || v > hi {
			hi = v
		}
		found = true
	}
	return lo, hi, found
}

func positive(v *float64) bool {
	_, ok := positiveValue(v)
	return ok
}

func positiveValue(v *float64) (float64, bool) {
	if v == nil || *v <= 0 || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
