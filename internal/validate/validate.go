// Package validate holds the booking-level checks. Validators report
// conditions as descriptive text attached to travelers; they never
// correct data.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"namesgen/internal/age"
	"namesgen/internal/booking"
)

const (
	// ErrNoNames flags a booking whose notes yielded no travelers.
	ErrNoNames = "No names could be extracted from booking"
	// ErrDuplicateNames flags travelers whose name repeats within a
	// booking after the secondary-source retry failed.
	ErrDuplicateNames = "Duplicated names in the booking"
	// ErrCheckNames flags names carrying forbidden content.
	ErrCheckNames = "Please Check Names before Insertion"
)

var unitAnnotation = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// BaseName strips a trailing unit annotation like "(Adult)" so that
// "Mary Jones (Adult)" and "Mary Jones (Child)" compare equal.
func BaseName(name string) string {
	return strings.TrimSpace(unitAnnotation.ReplaceAllString(strings.TrimSpace(name), ""))
}

// Duplicates returns the full names that repeat within a booking.
// Names are compared with unit annotations stripped, so the same
// person booked under two unit types still counts as a duplicate.
func Duplicates(names []string) []string {
	counts := make(map[string]int)
	for _, n := range names {
		if base := BaseName(n); base != "" {
			counts[base]++
		}
	}
	var dupes []string
	for _, n := range names {
		if counts[BaseName(n)] > 1 {
			dupes = append(dupes, n)
		}
	}
	return dupes
}

var forbiddenKeywords = []string{"adult", "child", "client", "traveler", "travel", "infant"}

// HasForbiddenContent reports whether a name contains a placeholder
// keyword, a digit, or a single-letter first or last part. Such names
// are almost always extraction noise rather than a real person.
func HasForbiddenContent(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range forbiddenKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, r := range name {
		if unicode.IsDigit(r) {
			return true
		}
	}
	parts := strings.Fields(name)
	if len(parts) >= 2 {
		if len([]rune(parts[0])) == 1 || len([]rune(parts[len(parts)-1])) == 1 {
			return true
		}
	}
	return false
}

// ProblemNames returns the names that fail content validation.
func ProblemNames(names []string) []string {
	var bad []string
	for _, n := range names {
		if HasForbiddenContent(n) {
			bad = append(bad, n)
		}
	}
	return bad
}

// UnitMismatch reports a purchased-unit versus traveler-count
// disagreement, or "" when the counts line up.
func UnitMismatch(totalUnits, totalTravelers int) string {
	if totalUnits == totalTravelers {
		return ""
	}
	return fmt.Sprintf("Number of provided units (%d) and Travelers (%d) in the booking does not match", totalUnits, totalTravelers)
}

// MissingDOBs flags a mixed-unit booking that lacks enough dates of
// birth to tell the categories apart.
func MissingDOBs(hasMixedUnits bool, dobCount, nameCount int) string {
	if hasMixedUnits && dobCount < nameCount {
		return "Booking has no Date of Birth indicated"
	}
	return ""
}

// AllUnder18 flags a mixed-unit booking where every computed age is
// under 18. An accompanying adult is normally required, so this points
// at bad dates rather than a party of children.
func AllUnder18(dobs []string, travelDate time.Time, hasDate, hasMixedUnits bool) string {
	if !hasMixedUnits || len(dobs) == 0 || !hasDate {
		return ""
	}
	for _, dob := range dobs {
		years, ok := age.At(dob, travelDate)
		if !ok || years >= age.ChildMax {
			return ""
		}
	}
	return "All travelers under 18 with mixed unit types"
}

// OnlyChildInfant flags a booking with Child or Infant units and no
// Adult or Youth unit at all.
func OnlyChildInfant(counts map[booking.UnitType]int) string {
	childCount := counts[booking.UnitChild] + counts[booking.UnitInfant]
	adultCount := counts[booking.UnitAdult] + counts[booking.UnitYouth]
	if childCount > 0 && adultCount == 0 {
		return "Booking has only Child/Infant units"
	}
	return ""
}

// YouthErrors validates Youth units against traveler ages. Only EU
// bookings are checked; non-EU Youth units were already reclassified
// during assignment and carry no error. GYG bookings get per-band
// count checks, others a simple flag.
func YouthErrors(travelers []booking.Traveler, counts map[booking.UnitType]int, country string, isGYG bool) []string {
	youthUnits := counts[booking.UnitYouth]
	if youthUnits == 0 || !booking.IsEUCountry(country) {
		return nil
	}

	var errs []string
	if !isGYG {
		return append(errs, "Youth in the booking")
	}

	var youthByAge, childByAge, adultByAge int
	for _, t := range travelers {
		if !t.HasAge {
			continue
		}
		switch {
		case age.IsChild(t.Age):
			childByAge++
		case age.IsYouth(t.Age):
			youthByAge++
		default:
			adultByAge++
		}
	}
	childUnits := counts[booking.UnitChild] + counts[booking.UnitInfant]
	adultUnits := counts[booking.UnitAdult]

	if youthByAge != youthUnits {
		errs = append(errs, fmt.Sprintf("Youth unit mismatch: %d youth units booked but %d travelers in youth age range (18-25)", youthUnits, youthByAge))
	}
	if childByAge != childUnits {
		errs = append(errs, fmt.Sprintf("Child unit mismatch: %d child units booked but %d travelers under 18", childUnits, childByAge))
	}
	if adultByAge != adultUnits {
		errs = append(errs, fmt.Sprintf("Adult unit mismatch: %d adult units booked but %d travelers over 25", adultUnits, adultByAge))
	}
	return errs
}

// AgeUnitMismatches reports travelers whose assigned unit type
// contradicts their computed age. Travelers reclassified during
// assignment are skipped; their conversion already resolved the
// contradiction.
func AgeUnitMismatches(travelers []booking.Traveler) []string {
	var errs []string
	for _, t := range travelers {
		if !t.HasAge || t.Converted {
			continue
		}
		switch {
		case age.IsChild(t.Age) && t.UnitType == booking.UnitAdult:
			errs = append(errs, fmt.Sprintf("Child %s (age %.1f) booked as Adult", t.Name, t.Age))
		case !age.IsChild(t.Age) && !age.IsYouth(t.Age) && t.UnitType == booking.UnitChild:
			errs = append(errs, fmt.Sprintf("Adult %s (age %.1f) booked as Child", t.Name, t.Age))
		case !age.IsYouth(t.Age) && t.UnitType == booking.UnitYouth:
			errs = append(errs, fmt.Sprintf("Youth unit %s (age %.1f) is outside 18-25 range", t.Name, t.Age))
		}
	}
	return errs
}

// ErrorClass maps a reported condition to a short class label for
// analytics grouping.
func ErrorClass(msg string) string {
	switch {
	case msg == ErrNoNames:
		return "no_names"
	case msg == ErrDuplicateNames:
		return "duplicates"
	case msg == ErrCheckNames:
		return "check_names"
	case strings.HasPrefix(msg, "Number of provided units"):
		return "unit_mismatch"
	case msg == "Booking has no Date of Birth indicated":
		return "missing_dob"
	case msg == "All travelers under 18 with mixed unit types":
		return "all_under_18"
	case msg == "Booking has only Child/Infant units":
		return "child_infant_only"
	case msg == "Youth in the booking" || strings.Contains(msg, "unit mismatch:"):
		return "youth"
	case strings.Contains(msg, "booked as") || strings.Contains(msg, "outside 18-25"):
		return "age_mismatch"
	case strings.Contains(msg, "update file"):
		return "update_mismatch"
	}
	return "other"
}
