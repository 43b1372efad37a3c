// Package update reconciles a run against a previously exported
// results file. Rows already resolved in the prior run keep their
// name and unit type; only genuinely new rows go back through
// extraction.
package update

import (
	"namesgen/internal/booking"
)

// ErrBookingMismatch is attached to every traveler of a booking whose
// row identifiers disagree with the update file.
const ErrBookingMismatch = "Booking does not match update file"

// Record is one row of a prior run's output.
type Record struct {
	RowID      string
	OrderRef   string
	FullName   string
	UnitType   booking.UnitType
	DOB        string
	Tag        string
	TravelDate string
}

// Set indexes update records by row identifier and by normalized
// order reference.
type Set struct {
	byRow   map[string]Record
	byOrder map[string][]Record
}

// NewSet builds a Set. Records without a row identifier are dropped;
// they cannot be matched back to a source row.
func NewSet(records []Record) *Set {
	s := &Set{
		byRow:   make(map[string]Record),
		byOrder: make(map[string][]Record),
	}
	for _, r := range records {
		if r.RowID == "" {
			continue
		}
		s.byRow[r.RowID] = r
		ref := booking.NormalizeRef(r.OrderRef)
		s.byOrder[ref] = append(s.byOrder[ref], r)
	}
	return s
}

// Empty reports whether the set holds no usable records.
func (s *Set) Empty() bool { return s == nil || len(s.byRow) == 0 }

// Lookup returns the prior record for a row identifier.
func (s *Set) Lookup(rowID string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	r, ok := s.byRow[rowID]
	return r, ok
}

// Known reports whether the update file covers the order reference at
// all. Unknown references are new bookings and skip reconciliation.
func (s *Set) Known(orderRef string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byOrder[booking.NormalizeRef(orderRef)]
	return ok
}

// Matches reports whether the update file's row identifiers for the
// order reference are exactly the current set. Any extra, missing, or
// renumbered identifier invalidates reuse for the whole booking.
func (s *Set) Matches(orderRef string, currentIDs []string) bool {
	if s == nil {
		return false
	}
	prior := s.byOrder[booking.NormalizeRef(orderRef)]
	if len(prior) != len(currentIDs) {
		return false
	}
	priorIDs := make(map[string]bool, len(prior))
	for _, r := range prior {
		priorIDs[r.RowID] = true
	}
	for _, id := range currentIDs {
		if !priorIDs[id] {
			return false
		}
	}
	return true
}

// Tag returns the booking-scoped manual tag, taken from the first
// record for the order reference that carries one. Travelers added to
// a known booking inherit it when their own record lacks a value.
func (s *Set) Tag(orderRef string) string {
	if s == nil {
		return ""
	}
	for _, r := range s.byOrder[booking.NormalizeRef(orderRef)] {
		if r.Tag != "" {
			return r.Tag
		}
	}
	return ""
}

// SharesTravelDate reports whether any record's travel date appears in
// the current run's dates. A fully disjoint update file means the
// wrong file was supplied, which callers treat as a hard failure.
func (s *Set) SharesTravelDate(currentDates map[string]bool) bool {
	if s == nil {
		return false
	}
	for _, r := range s.byRow {
		if r.TravelDate != "" && currentDates[r.TravelDate] {
			return true
		}
	}
	return false
}
