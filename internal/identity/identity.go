// Package identity maps assigned travelers back onto the source rows
// they were booked under. Each row carries one purchased unit, so the
// mapping pairs rows and travelers by unit type in original order.
package identity

import (
	"log"

	"namesgen/internal/booking"
)

// Map sets RowID on each traveler by walking the booking's rows in
// order and drawing from the travelers grouped by original unit type.
// Infant and Child rows fall back on each other's group, since venue
// rules can reclassify between the two in either direction. Travelers
// and rows left over keep an empty identifier.
func Map(travelers []booking.Traveler, rows []booking.SourceRow) []booking.Traveler {
	groups := make(map[booking.UnitType][]int)
	for i, t := range travelers {
		groups[t.OriginalUnit] = append(groups[t.OriginalUnit], i)
	}

	pop := func(unit booking.UnitType) (int, bool) {
		g := groups[unit]
		if len(g) == 0 {
			return 0, false
		}
		groups[unit] = g[1:]
		return g[0], true
	}

	for _, row := range rows {
		idx, ok := pop(row.UnitType)
		if !ok {
			switch row.UnitType {
			case booking.UnitInfant:
				idx, ok = pop(booking.UnitChild)
			case booking.UnitChild:
				idx, ok = pop(booking.UnitInfant)
			}
		}
		if !ok {
			log.Printf("identity: no traveler for row %s (%s unit)", row.ID, row.UnitType)
			continue
		}
		travelers[idx].RowID = row.ID
	}
	return travelers
}
