// Package booking defines the core data model for traveler extraction:
// source rows from the bookings export, ops-sheet rows, grouped bookings,
// extraction candidates and finished traveler records.
package booking

import (
	"sort"
	"strings"
	"time"
)

// UnitType is a purchased ticket category.
type UnitType string

const (
	UnitAdult  UnitType = "Adult"
	UnitYouth  UnitType = "Youth"
	UnitChild  UnitType = "Child"
	UnitInfant UnitType = "Infant"
)

// ParseUnitType maps a raw unit column value onto a known category.
// Unknown values come back unchanged so they stay visible downstream.
func ParseUnitType(s string) UnitType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "adult", "adults":
		return UnitAdult
	case "youth", "youths":
		return UnitYouth
	case "child", "children", "kid":
		return UnitChild
	case "infant", "infants":
		return UnitInfant
	}
	return UnitType(strings.TrimSpace(s))
}

// SourceRow is one line of the bookings export. Each row represents a
// single purchased unit; a multi-traveler order spans several rows that
// share the same order reference.
type SourceRow struct {
	ID              string
	BookingRef      string
	OrderRef        string
	Customer        string
	Status          string
	Product         string
	ProductCode     string
	ProductTags     string
	Reseller        string
	UnitType        UnitType
	FirstName       string
	LastName        string
	PublicNotes     string
	PrivateNotes    string
	CustomerCountry string
	TourTime        string
	TravelDate      time.Time
	HasTravelDate   bool
}

// OpsRow is one line of the operations sheet, keyed by order reference.
// It carries fields the bookings export does not have: the ticket PNR,
// the ticket group and a second free-text notes field.
type OpsRow struct {
	OrderRef    string
	Client      string
	TravelDate  time.Time
	HasDate     bool
	TourTime    string
	ProductCode string
	PNR         string
	TicketGroup string
	Notes       string
}

// Booking groups the source rows that share one normalized order
// reference. Rows keep their original export order.
type Booking struct {
	OrderRef string // raw reference from the first row
	NormRef  string
	Rows     []SourceRow
	Ops      *OpsRow // nil when the ops sheet has no matching row
}

// UnitCounts tallies purchased units by category.
func (b *Booking) UnitCounts() map[UnitType]int {
	counts := make(map[UnitType]int)
	for _, r := range b.Rows {
		counts[r.UnitType]++
	}
	return counts
}

// TotalUnits is the number of purchased units (rows) in the booking.
func (b *Booking) TotalUnits() int { return len(b.Rows) }

// First returns the booking's lead row.
func (b *Booking) First() SourceRow {
	if len(b.Rows) == 0 {
		return SourceRow{}
	}
	return b.Rows[0]
}

// PublicNotes returns the first non-empty public notes field across the
// booking's rows. Exports repeat notes on every row, but some channels
// fill only the lead row.
func (b *Booking) PublicNotes() string {
	for _, r := range b.Rows {
		if s := strings.TrimSpace(r.PublicNotes); s != "" {
			return s
		}
	}
	return ""
}

// PrivateNotes returns the first non-empty private notes field.
func (b *Booking) PrivateNotes() string {
	for _, r := range b.Rows {
		if s := strings.TrimSpace(r.PrivateNotes); s != "" {
			return s
		}
	}
	return ""
}

// TravelDate returns the first known travel date in the booking.
func (b *Booking) TravelDate() (time.Time, bool) {
	for _, r := range b.Rows {
		if r.HasTravelDate {
			return r.TravelDate, true
		}
	}
	return time.Time{}, false
}

// Group collects source rows into bookings by normalized order
// reference. Bookings come back in first-appearance order.
func Group(rows []SourceRow) []*Booking {
	byRef := make(map[string]*Booking)
	var out []*Booking
	for _, r := range rows {
		ref := NormalizeRef(r.OrderRef)
		if ref == "" {
			ref = NormalizeRef(r.BookingRef)
		}
		bk, ok := byRef[ref]
		if !ok {
			bk = &Booking{OrderRef: r.OrderRef, NormRef: ref}
			byRef[ref] = bk
			out = append(out, bk)
		}
		bk.Rows = append(bk.Rows, r)
	}
	return out
}

// AttachOps links ops-sheet rows to their bookings by normalized order
// reference. Bookings are returned reordered to follow the ops sheet,
// with bookings missing from the sheet appended afterwards.
func AttachOps(bookings []*Booking, ops []OpsRow) []*Booking {
	byRef := make(map[string]*Booking, len(bookings))
	for _, bk := range bookings {
		byRef[bk.NormRef] = bk
	}

	seen := make(map[string]bool, len(bookings))
	var ordered []*Booking
	for i := range ops {
		ref := NormalizeRef(ops[i].OrderRef)
		bk, ok := byRef[ref]
		if !ok || seen[ref] {
			continue
		}
		bk.Ops = &ops[i]
		seen[ref] = true
		ordered = append(ordered, bk)
	}
	for _, bk := range bookings {
		if !seen[bk.NormRef] {
			ordered = append(ordered, bk)
		}
	}
	return ordered
}

// Candidate is a single extraction hit before unit assignment: a name
// with, optionally, a date of birth or a directly stated age.
type Candidate struct {
	Name      string
	DOB       string  // normalized DD/MM/YYYY when present
	BirthYear int     // year-only extractions, when no full DOB exists
	Age       float64 // fractional years at the travel date
	HasAge    bool
	UnitHint  UnitType // stated category ("adult"/"child" markers), if any
}

// Traveler is a candidate after unit-type assignment.
type Traveler struct {
	Name         string
	DOB          string
	Age          float64
	HasAge       bool
	UnitType     UnitType // category the traveler was assigned to
	OriginalUnit UnitType // purchased category before any conversion
	Converted    bool     // Infant slot reported as Child, or Youth reclassified
	RowID        string   // source row identifier, set by the identity mapper
}

// SortByAge orders travelers youngest first. Travelers with unknown
// ages sort after all known ones, keeping their relative order.
func SortByAge(ts []Traveler) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].HasAge != ts[j].HasAge {
			return ts[i].HasAge
		}
		return ts[i].Age < ts[j].Age
	})
}

// Result is one output record: a traveler joined with booking-level
// fields, ready for export.
type Result struct {
	FullName     string
	OrderRef     string
	RowID        string
	TravelDate   string
	TourTime     string
	UnitType     UnitType
	OriginalUnit UnitType
	TotalUnits   int
	Language     string
	TourType     string
	Reseller     string
	DOB          string
	PrivateNotes string
	PNR          string
	TicketGroup  string
	TixNom       string
	Tag          string
	FromUpdate   bool
	Errors       []string
}

// ErrorText joins the record's errors for export.
func (r *Result) ErrorText() string {
	return strings.Join(r.Errors, " | ")
}

// AddError appends msg unless the record already carries it.
func (r *Result) AddError(msg string) {
	for _, e := range r.Errors {
		if e == msg {
			return
		}
	}
	r.Errors = append(r.Errors, msg)
}
