// Package age resolves dates of birth to fractional ages at a travel
// date and maps ages onto ticket categories.
package age

import (
	"strings"
	"time"

	"namesgen/internal/booking"
)

// Category thresholds in years.
const (
	ChildMax = 18 // under 18 is Child
	YouthMax = 25 // 18 up to but not including 25 is Youth
	AdultMin = 25 // EU adult threshold; non-EU adults start at 18
)

var dobFormats = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02.01.2006",
}

// ParseDOB parses a date of birth. Day-first formats are tried before
// ISO, matching how the source channels write dates.
func ParseDOB(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, f := range dobFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// At computes the fractional age in years at the reference date. The
// second return is false when the DOB cannot be parsed or the birth
// date is after the reference date.
func At(dob string, ref time.Time) (float64, bool) {
	d, ok := ParseDOB(dob)
	if !ok {
		return 0, false
	}
	days := ref.Sub(d).Hours() / 24
	if days < 0 {
		return 0, false
	}
	return days / 365.25, true
}

// Category maps an age to the ticket category it belongs to by age
// alone, without the country-specific adult rule.
func Category(years float64) booking.UnitType {
	switch {
	case years < ChildMax:
		return booking.UnitChild
	case years < YouthMax:
		return booking.UnitYouth
	default:
		return booking.UnitAdult
	}
}

// IsAdult applies the country-specific adult threshold: 25 in the EU,
// 18 elsewhere. Travelers from unknown countries get the EU rule.
func IsAdult(years float64, country string) bool {
	if booking.IsEUCountry(country) {
		return years >= AdultMin
	}
	return years >= ChildMax
}

// IsYouth reports whether the age falls in the youth band.
func IsYouth(years float64) bool {
	return years >= ChildMax && years < YouthMax
}

// IsChild reports whether the age is under the child threshold.
func IsChild(years float64) bool {
	return years < ChildMax
}

// Resolve fills in the ages of DOB-carrying candidates at the travel
// date. Candidates whose age was stated directly keep it; candidates
// with an unparseable DOB are left without an age.
func Resolve(cands []booking.Candidate, travelDate time.Time, hasDate bool) {
	if !hasDate {
		return
	}
	for i := range cands {
		if cands[i].HasAge {
			continue
		}
		if cands[i].DOB != "" {
			if years, ok := At(cands[i].DOB, travelDate); ok {
				cands[i].Age = years
				cands[i].HasAge = true
			}
			continue
		}
		// Year-only extractions get a whole-year age.
		if y := cands[i].BirthYear; y > 0 && y <= travelDate.Year() {
			cands[i].Age = float64(travelDate.Year() - y)
			cands[i].HasAge = true
		}
	}
}
