package contextstore

import (
	"math"
	"time"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// recencyHalfLifeMonths controls how fast finished work fades from
// compilation weight: the score halves every 18 months past the entry's
// end date.
const recencyHalfLifeMonths = 18.0

// dateLayouts are the formats accepted for date_start/date_end values in
// structured entry data.
var dateLayouts = []string{"2006-01-02", "2006-01"}

// recencyScore derives the recency weight for an entry at append time.
// Evergreen entries score 1.0 regardless of age, and so do entries
// without a date_end in their data (current positions, open-ended work).
// Everything else decays exponentially from its end date.
func recencyScore(data map[string]any, evergreen bool, now time.Time) float64 {
	if evergreen {
		return 1.0
	}
	end, ok := parseDataDate(data, "date_end")
	if !ok {
		return 1.0
	}
	months := monthsBetween(end, now)
	if months <= 0 {
		return 1.0
	}
	return clamp01(math.Pow(0.5, months/recencyHalfLifeMonths))
}

// evergreenByDefault reports whether an entry type never decays unless
// the caller says otherwise. Skills and certifications stay relevant
// until tombstoned.
func evergreenByDefault(entryType string) bool {
	return entryType == types.EntryTypeSkill || entryType == types.EntryTypeCertification
}

func parseDataDate(data map[string]any, key string) (time.Time, bool) {
	raw, ok := data[key].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// monthsBetween measures fractional months from start to end, counting
// days at 30 per month. Never negative.
func monthsBetween(start, end time.Time) float64 {
	years := end.Year() - start.Year()
	months := int(end.Month()) - int(start.Month())
	dayFrac := float64(end.Day()-start.Day()) / 30.0
	total := float64(years*12+months) + dayFrac
	if total < 0 {
		return 0
	}
	return total
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
