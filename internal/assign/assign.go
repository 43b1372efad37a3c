// Package assign distributes a booking's purchased units across the
// extracted travelers, youngest first.
package assign

import (
	"log"
	"strings"

	"namesgen/internal/age"
	"namesgen/internal/booking"
)

// Input carries the booking-level facts assignment depends on.
type Input struct {
	UnitCounts  map[booking.UnitType]int
	ProductTags string
	Country     string
	IsGYG       bool
}

// Travelers assigns a unit type to every candidate. When assignment
// succeeds, the multiset of original unit types equals the purchased
// multiset. Travelers come back sorted youngest first.
func Travelers(cands []booking.Candidate, in Input) []booking.Traveler {
	ts := make([]booking.Traveler, len(cands))
	for i, c := range cands {
		ts[i] = booking.Traveler{
			Name:   c.Name,
			DOB:    c.DOB,
			Age:    c.Age,
			HasAge: c.HasAge,
		}
	}
	booking.SortByAge(ts)

	infantUnits := in.UnitCounts[booking.UnitInfant]
	childUnits := in.UnitCounts[booking.UnitChild] + infantUnits
	youthUnits := in.UnitCounts[booking.UnitYouth]
	adultUnits := in.UnitCounts[booking.UnitAdult]
	isEU := booking.IsEUCountry(in.Country)

	// Child and Infant units go to the youngest under-18 travelers.
	// The youngest fill the Infant slots first.
	assigned := 0
	for i := range ts {
		if assigned >= childUnits {
			break
		}
		if !underEighteen(cands, ts[i]) {
			continue
		}
		if assigned < infantUnits {
			ts[i].OriginalUnit = booking.UnitInfant
		} else {
			ts[i].OriginalUnit = booking.UnitChild
		}
		ts[i].UnitType = ts[i].OriginalUnit
		assigned++
	}

	// Youth units. Non-GYG bookings and GYG EU bookings keep Youth as
	// purchased; out-of-range ages are the validators' problem. GYG
	// non-EU bookings reclassify by age and mark the conversion.
	assigned = 0
	for i := range ts {
		if assigned >= youthUnits {
			break
		}
		if ts[i].UnitType != "" {
			continue
		}
		ts[i].OriginalUnit = booking.UnitYouth
		switch {
		case !in.IsGYG || isEU:
			ts[i].UnitType = booking.UnitYouth
		case ts[i].HasAge && ts[i].Age < age.ChildMax:
			ts[i].UnitType = booking.UnitChild
			ts[i].Converted = true
		default:
			ts[i].UnitType = booking.UnitAdult
			ts[i].Converted = true
		}
		assigned++
	}

	// Remaining Adult units, still in age order.
	assigned = 0
	for i := range ts {
		if assigned >= adultUnits {
			break
		}
		if ts[i].UnitType != "" {
			continue
		}
		ts[i].OriginalUnit = booking.UnitAdult
		ts[i].UnitType = booking.UnitAdult
		assigned++
	}

	// Leftovers mean missing age data or a unit-count mismatch. Give
	// them a best-effort type so every traveler exports with one.
	for i := range ts {
		if ts[i].UnitType != "" {
			continue
		}
		if !ts[i].HasAge {
			log.Printf("assign: no age for %q, falling back on available units", ts[i].Name)
			switch {
			case adultUnits > 0:
				ts[i].UnitType = booking.UnitAdult
			case childUnits > 0:
				ts[i].UnitType = booking.UnitChild
			case youthUnits > 0:
				ts[i].UnitType = booking.UnitYouth
			default:
				ts[i].UnitType = booking.UnitAdult
			}
		} else {
			log.Printf("assign: unit count mismatch, typing %q (age %.1f) by age", ts[i].Name, ts[i].Age)
			ts[i].UnitType = age.Category(ts[i].Age)
		}
		ts[i].OriginalUnit = ts[i].UnitType
	}

	// The Colosseum sells Infant and Child tickets identically, so
	// Infant assignments export as Child there.
	if hasColosseumTag(in.ProductTags) {
		for i := range ts {
			if ts[i].UnitType == booking.UnitInfant {
				ts[i].UnitType = booking.UnitChild
			}
		}
	}
	return ts
}

// underEighteen reports whether a traveler qualifies for a Child or
// Infant unit, either by computed age or by a stated category marker
// in the notes.
func underEighteen(cands []booking.Candidate, t booking.Traveler) bool {
	if t.HasAge {
		return t.Age < age.ChildMax
	}
	for _, c := range cands {
		if c.Name != t.Name || c.UnitHint == "" {
			continue
		}
		return c.UnitHint == booking.UnitChild || c.UnitHint == booking.UnitInfant
	}
	return false
}

var colosseumKeywords = []string{"colosseum", "colosseo", "kolosseum", "colisée"}

func hasColosseumTag(tags string) bool {
	lower := strings.ToLower(tags)
	for _, kw := range colosseumKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
