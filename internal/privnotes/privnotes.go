// Package privnotes parses the NAM CONF template the operations team
// leaves in a booking's private notes. The template is the manually
// confirmed traveler list, so it outranks anything extracted from the
// customer-facing notes.
package privnotes

import (
	"regexp"
	"strings"

	"namesgen/internal/booking"
)

// Entry is one template line: a name, with the unit type when the
// line carried a "(adult)" style keyword.
type Entry struct {
	Name string
	Unit booking.UnitType
}

var unitKeywords = map[string]booking.UnitType{
	"adult":  booking.UnitAdult,
	"child":  booking.UnitChild,
	"youth":  booking.UnitYouth,
	"infant": booking.UnitInfant,
}

var (
	// NAM CONF
	// Laura Bianchi (adult)
	// Marco Bianchi (child)
	namConfRe = regexp.MustCompile(`(?is)nam\s+conf\.?\s*(.*)`)
	lineRe    = regexp.MustCompile(`^(.*?)(?:\s*\(([^)]+)\))?\s*$`)
)

// ParseTemplate extracts the traveler lines following a NAM CONF
// marker. It returns nil when the notes carry no marker.
func ParseTemplate(notes string) []Entry {
	m := namConfRe.FindStringSubmatch(notes)
	if m == nil {
		return nil
	}

	var entries []Entry
	for _, raw := range strings.Split(m[1], "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lm := lineRe.FindStringSubmatch(line)
		name := strings.Trim(lm[1], " -•\t")
		if name == "" {
			continue
		}
		entries = append(entries, Entry{
			Name: name,
			Unit: unitKeywords[strings.ToLower(strings.TrimSpace(lm[2]))],
		})
	}
	return entries
}

// Travelers builds travelers from the template. Lines without a unit
// keyword fall back on the booking's purchased units in row order; the
// second return reports whether any line needed that fallback.
func Travelers(notes string, bookingUnits []booking.UnitType) ([]booking.Traveler, bool) {
	entries := ParseTemplate(notes)
	if len(entries) == 0 {
		return nil, false
	}

	var (
		travelers   []booking.Traveler
		unitIdx     int
		missingUnit bool
	)
	for _, e := range entries {
		unit := e.Unit
		if unit == "" {
			missingUnit = true
			if unitIdx < len(bookingUnits) {
				unit = bookingUnits[unitIdx]
				unitIdx++
			}
		}
		travelers = append(travelers, booking.Traveler{
			Name:         e.Name,
			UnitType:     unit,
			OriginalUnit: unit,
		})
	}
	return travelers, missingUnit
}
