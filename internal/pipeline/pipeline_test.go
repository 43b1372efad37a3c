package pipeline

import (
	"context"
	"testing"
	"time"

	"namesgen/internal/booking"
	"namesgen/internal/update"
	"namesgen/internal/validate"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func gygRow(id, ref, notes string, unit booking.UnitType, country string, travel time.Time) booking.SourceRow {
	return booking.SourceRow{
		ID:              id,
		OrderRef:        ref,
		Reseller:        "GetYourGuide",
		UnitType:        unit,
		PublicNotes:     notes,
		CustomerCountry: country,
		TravelDate:      travel,
		HasTravelDate:   true,
	}
}

func run(t *testing.T, req Request) []booking.Result {
	t.Helper()
	results, err := New().Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	return results
}

func TestProcessGYGLabeledGrammar(t *testing.T) {
	notes := "First Name: Ann\nLast Name: Lee\nDate of Birth: 1990-05-01"
	rows := []booking.SourceRow{gygRow("r1", "GYG123", notes, booking.UnitAdult, "Italy", date(2024, 5, 1))}

	got := run(t, Request{Rows: rows})
	if len(got) != 1 {
		t.Fatalf("Process returned %d results, want 1", len(got))
	}
	r := got[0]
	if r.FullName != "Ann Lee" {
		t.Errorf("name = %q, want Ann Lee", r.FullName)
	}
	if r.UnitType != booking.UnitAdult {
		t.Errorf("unit = %q, want Adult", r.UnitType)
	}
	if r.DOB != "01/05/1990" {
		t.Errorf("dob = %q, want 01/05/1990", r.DOB)
	}
	if r.RowID != "r1" {
		t.Errorf("row id = %q, want r1", r.RowID)
	}
	if r.ErrorText() != "" {
		t.Errorf("errors = %q, want none", r.ErrorText())
	}
}

func TestProcessGYGCascadeFallback(t *testing.T) {
	rows := []booking.SourceRow{gygRow("r1", "GYG456", "John Smith (12/06/2010)", booking.UnitChild, "Italy", date(2024, 6, 12))}

	got := run(t, Request{Rows: rows})
	if len(got) != 1 {
		t.Fatalf("Process returned %d results, want 1", len(got))
	}
	if got[0].FullName != "John Smith" {
		t.Errorf("name = %q, want John Smith", got[0].FullName)
	}
	if got[0].UnitType != booking.UnitChild {
		t.Errorf("unit = %q, want Child", got[0].UnitType)
	}
}

func TestProcessMixedUnitsAssignedByAge(t *testing.T) {
	notes := "First Name: Young Kid\nLast Name: Smith\nDate of Birth: 2016-01-01\n" +
		"First Name: Old Parent\nLast Name: Smith\nDate of Birth: 1984-01-01"
	travel := date(2024, 1, 1)
	rows := []booking.SourceRow{
		gygRow("r1", "GYGMIX", notes, booking.UnitAdult, "Italy", travel),
		gygRow("r2", "GYGMIX", notes, booking.UnitChild, "Italy", travel),
	}

	got := run(t, Request{Rows: rows})
	if len(got) != 2 {
		t.Fatalf("Process returned %d results, want 2", len(got))
	}
	byName := map[string]booking.Result{}
	for _, r := range got {
		byName[r.FullName] = r
	}
	if r := byName["Young Kid Smith"]; r.UnitType != booking.UnitChild || r.RowID != "r2" {
		t.Errorf("child = %q on row %q, want Child on r2", r.UnitType, r.RowID)
	}
	if r := byName["Old Parent Smith"]; r.UnitType != booking.UnitAdult || r.RowID != "r1" {
		t.Errorf("adult = %q on row %q, want Adult on r1", r.UnitType, r.RowID)
	}
}

func TestProcessNonEUYouthReclassified(t *testing.T) {
	notes := "First Name: Tim\nLast Name: Young\nDate of Birth: 2008-06-01"
	rows := []booking.SourceRow{gygRow("r1", "GYGYTH", notes, booking.UnitYouth, "United States", date(2024, 6, 1))}

	got := run(t, Request{Rows: rows})
	r := got[0]
	if r.UnitType != booking.UnitChild {
		t.Errorf("unit = %q, want Child", r.UnitType)
	}
	if r.OriginalUnit != booking.UnitYouth {
		t.Errorf("original unit = %q, want Youth", r.OriginalUnit)
	}
	if r.ErrorText() != "" {
		t.Errorf("errors = %q, want none for reclassified Youth", r.ErrorText())
	}
}

func TestProcessNonGYGStructuredRows(t *testing.T) {
	travel := date(2024, 6, 1)
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "VIA1", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Paula", LastName: "Rossi", TravelDate: travel, HasTravelDate: true},
		{ID: "r2", OrderRef: "VIA1", Reseller: "Viator", UnitType: booking.UnitAdult,
			Customer: "Carla Verdi", TravelDate: travel, HasTravelDate: true},
	}

	got := run(t, Request{Rows: rows})
	if len(got) != 2 {
		t.Fatalf("Process returned %d results, want 2", len(got))
	}
	names := map[string]bool{}
	for _, r := range got {
		names[r.FullName] = true
	}
	if !names["Paula Rossi"] || !names["Carla Verdi"] {
		t.Errorf("names = %v, want Paula Rossi and Carla Verdi", names)
	}
}

func TestProcessViatorDOBSupplement(t *testing.T) {
	travel := date(2024, 6, 1)
	notes := "Q:Date of Birth\nA:01/06/2014, 01/06/1984"
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "VIA2", Reseller: "Viator", UnitType: booking.UnitChild,
			FirstName: "Little", LastName: "Rossi", PublicNotes: notes, TravelDate: travel, HasTravelDate: true},
		{ID: "r2", OrderRef: "VIA2", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Grown", LastName: "Rossi", PublicNotes: notes, TravelDate: travel, HasTravelDate: true},
	}

	got := run(t, Request{Rows: rows})
	byName := map[string]booking.Result{}
	for _, r := range got {
		byName[r.FullName] = r
	}
	if r := byName["Little Rossi"]; r.UnitType != booking.UnitChild || r.DOB != "01/06/2014" {
		t.Errorf("Little Rossi = %q unit, dob %q; want Child with supplemented DOB", r.UnitType, r.DOB)
	}
	if r := byName["Grown Rossi"]; r.UnitType != booking.UnitAdult {
		t.Errorf("Grown Rossi unit = %q, want Adult", r.UnitType)
	}
}

func TestProcessDuplicateNamesFlagged(t *testing.T) {
	travel := date(2024, 6, 1)
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "DUP1", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Mary", LastName: "Jones", TravelDate: travel, HasTravelDate: true},
		{ID: "r2", OrderRef: "DUP1", Reseller: "Viator", UnitType: booking.UnitChild,
			FirstName: "Mary", LastName: "Jones", TravelDate: travel, HasTravelDate: true},
	}

	got := run(t, Request{Rows: rows})
	if len(got) != 2 {
		t.Fatalf("Process returned %d results, want 2", len(got))
	}
	for _, r := range got {
		if r.ErrorText() == "" || !contains(r.Errors, validate.ErrDuplicateNames) {
			t.Errorf("errors for %q = %q, want duplicate flag", r.FullName, r.ErrorText())
		}
	}
}

func TestProcessDuplicatesResolvedFromPrivateNotes(t *testing.T) {
	travel := date(2024, 6, 1)
	priv := "NAM CONF\nLaura Bianchi (adult)\nMarco Bianchi (child)"
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "DUP2", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Mary", LastName: "Jones", PrivateNotes: priv, TravelDate: travel, HasTravelDate: true},
		{ID: "r2", OrderRef: "DUP2", Reseller: "Viator", UnitType: booking.UnitChild,
			FirstName: "Mary", LastName: "Jones", PrivateNotes: priv, TravelDate: travel, HasTravelDate: true},
	}

	got := run(t, Request{Rows: rows})
	byName := map[string]booking.Result{}
	for _, r := range got {
		byName[r.FullName] = r
		if contains(r.Errors, validate.ErrDuplicateNames) {
			t.Errorf("resolved booking still flags duplicates for %q", r.FullName)
		}
	}
	if r, ok := byName["Laura Bianchi"]; !ok || r.UnitType != booking.UnitAdult || r.RowID != "r1" {
		t.Errorf("Laura Bianchi = %+v, want Adult on r1", r)
	}
	if r, ok := byName["Marco Bianchi"]; !ok || r.UnitType != booking.UnitChild || r.RowID != "r2" {
		t.Errorf("Marco Bianchi = %+v, want Child on r2", r)
	}
}

func TestProcessDuplicatesResolvedFromOpsNotes(t *testing.T) {
	travel := date(2024, 6, 1)
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "DUP3", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Mary", LastName: "Jones", TravelDate: travel, HasTravelDate: true},
		{ID: "r2", OrderRef: "DUP3", Reseller: "Viator", UnitType: booking.UnitChild,
			FirstName: "Mary", LastName: "Jones", TravelDate: travel, HasTravelDate: true},
	}
	ops := []booking.OpsRow{{OrderRef: "DUP3", Notes: "NAM CONF\nLaura Bianchi (adult)\nMarco Bianchi (child)"}}

	got := run(t, Request{Rows: rows, Ops: ops})
	names := map[string]bool{}
	for _, r := range got {
		names[r.FullName] = true
		if contains(r.Errors, validate.ErrDuplicateNames) {
			t.Errorf("resolved booking still flags duplicates for %q", r.FullName)
		}
	}
	if !names["Laura Bianchi"] || !names["Marco Bianchi"] {
		t.Errorf("names = %v, want the ops-sheet template travelers", names)
	}
}

func TestProcessGYGTemplateFallback(t *testing.T) {
	row := gygRow("r1", "GYGNC1", "meet at 9:00, gate 4!", booking.UnitAdult, "Italy", date(2024, 6, 1))
	row.PrivateNotes = "NAM CONF\nLaura Bianchi (adult)"

	got := run(t, Request{Rows: []booking.SourceRow{row}})
	if len(got) != 1 {
		t.Fatalf("Process returned %d results, want 1", len(got))
	}
	r := got[0]
	if r.FullName != "Laura Bianchi" {
		t.Errorf("name = %q, want the template's Laura Bianchi", r.FullName)
	}
	if r.UnitType != booking.UnitAdult || r.RowID != "r1" {
		t.Errorf("unit = %q on row %q, want Adult on r1", r.UnitType, r.RowID)
	}
	if contains(r.Errors, validate.ErrNoNames) {
		t.Errorf("errors = %q, want no extraction failure", r.ErrorText())
	}
}

func TestProcessGYGTemplateFallbackFromOpsNotes(t *testing.T) {
	rows := []booking.SourceRow{gygRow("r1", "GYGNC2", "meet at 9:00, gate 4!", booking.UnitAdult, "Italy", date(2024, 6, 1))}
	ops := []booking.OpsRow{{OrderRef: "GYGNC2", Notes: "NAM CONF\nLaura Bianchi"}}

	got := run(t, Request{Rows: rows, Ops: ops})
	if len(got) != 1 {
		t.Fatalf("Process returned %d results, want 1", len(got))
	}
	if got[0].FullName != "Laura Bianchi" {
		t.Errorf("name = %q, want Laura Bianchi from the ops notes", got[0].FullName)
	}
	// The line carries no unit keyword, so the purchased unit applies.
	if got[0].UnitType != booking.UnitAdult {
		t.Errorf("unit = %q, want Adult", got[0].UnitType)
	}
}

func TestProcessNoNamesExtracted(t *testing.T) {
	rows := []booking.SourceRow{gygRow("r1", "EMPTY1", "meet at 9:00, gate 4!", booking.UnitAdult, "Italy", date(2024, 6, 1))}

	got := run(t, Request{Rows: rows})
	if len(got) != 1 {
		t.Fatalf("Process returned %d results, want 1", len(got))
	}
	if got[0].FullName != "" {
		t.Errorf("name = %q, want empty", got[0].FullName)
	}
	if !contains(got[0].Errors, validate.ErrNoNames) {
		t.Errorf("errors = %q, want extraction failure", got[0].ErrorText())
	}
}

func TestProcessOpsSheetFields(t *testing.T) {
	travel := date(2024, 6, 1)
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "OPS1", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Paula", LastName: "Rossi", TravelDate: travel, HasTravelDate: true},
	}
	ops := []booking.OpsRow{{OrderRef: "OPS1", PNR: "GC20250101R1415", TicketGroup: "G2"}}

	got := run(t, Request{Rows: rows, Ops: ops})
	r := got[0]
	if r.PNR != "GC20250101R1415" || r.TicketGroup != "G2" {
		t.Errorf("ops fields = %q/%q, want PNR and ticket group carried over", r.PNR, r.TicketGroup)
	}
	if r.TixNom != "(TIX NOM 14:15 REG G-CALL)" {
		t.Errorf("tix nom = %q, want (TIX NOM 14:15 REG G-CALL)", r.TixNom)
	}
}

func TestProcessUpdateReuse(t *testing.T) {
	travel := date(2024, 6, 1)
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "UPD1", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Renamed", LastName: "Person", TravelDate: travel, HasTravelDate: true},
	}
	updates := update.NewSet([]update.Record{
		{RowID: "r1", OrderRef: "UPD1", FullName: "Paula Rossi", UnitType: booking.UnitAdult, Tag: "VIP", TravelDate: "2024-06-01"},
	})

	got := run(t, Request{Rows: rows, Updates: updates})
	r := got[0]
	if !r.FromUpdate {
		t.Error("FromUpdate = false, want true")
	}
	if r.FullName != "Paula Rossi" {
		t.Errorf("name = %q, want prior run's Paula Rossi", r.FullName)
	}
	if r.Tag != "VIP" {
		t.Errorf("tag = %q, want VIP", r.Tag)
	}
}

func TestProcessUpdateMismatchForcesReextraction(t *testing.T) {
	travel := date(2024, 6, 1)
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "UPD2", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Paula", LastName: "Rossi", TravelDate: travel, HasTravelDate: true},
		{ID: "r2", OrderRef: "UPD2", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Carla", LastName: "Verdi", TravelDate: travel, HasTravelDate: true},
	}
	// The update file only knows one of the two current rows.
	updates := update.NewSet([]update.Record{
		{RowID: "r1", OrderRef: "UPD2", FullName: "Paula Rossi", UnitType: booking.UnitAdult, Tag: "VIP", TravelDate: "2024-06-01"},
	})

	got := run(t, Request{Rows: rows, Updates: updates})
	if len(got) != 2 {
		t.Fatalf("Process returned %d results, want 2", len(got))
	}
	for _, r := range got {
		if r.FromUpdate {
			t.Errorf("%q reused the update file, want full re-extraction", r.FullName)
		}
		if !contains(r.Errors, update.ErrBookingMismatch) {
			t.Errorf("errors for %q = %q, want update mismatch", r.FullName, r.ErrorText())
		}
		if r.Tag != "VIP" {
			t.Errorf("tag for %q = %q, want inherited VIP", r.FullName, r.Tag)
		}
	}
}

func TestProcessUpdateDisjointDatesFails(t *testing.T) {
	rows := []booking.SourceRow{
		{ID: "r1", OrderRef: "UPD3", Reseller: "Viator", UnitType: booking.UnitAdult,
			FirstName: "Paula", LastName: "Rossi", TravelDate: date(2024, 6, 1), HasTravelDate: true},
	}
	updates := update.NewSet([]update.Record{
		{RowID: "r1", OrderRef: "UPD3", FullName: "Paula Rossi", UnitType: booking.UnitAdult, TravelDate: "2030-01-01"},
	})

	_, err := New().Process(context.Background(), Request{Rows: rows, Updates: updates})
	if err != ErrUpdateDisjoint {
		t.Errorf("Process error = %v, want ErrUpdateDisjoint", err)
	}
}

func TestProcessCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []booking.SourceRow{gygRow("r1", "CANC1", "text", booking.UnitAdult, "Italy", date(2024, 6, 1))}
	_, err := New().Process(ctx, Request{Rows: rows})
	if err != context.Canceled {
		t.Errorf("Process error = %v, want context.Canceled", err)
	}
}

func TestProcessProgressPhases(t *testing.T) {
	var phases []Phase
	var lastDone, lastTotal int
	rows := []booking.SourceRow{gygRow("r1", "PRG1", "First Name: Ann\nLast Name: Lee", booking.UnitAdult, "Italy", date(2024, 6, 1))}

	run(t, Request{Rows: rows, Progress: func(p Phase, done, total int) {
		phases = append(phases, p)
		if p == PhaseVerify {
			lastDone, lastTotal = done, total
		}
	}})

	want := []Phase{PhaseImport, PhaseMerge, PhaseVerify, PhaseVerify, PhaseExport}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d = %q, want %q", i, phases[i], want[i])
		}
	}
	if lastDone != 1 || lastTotal != 1 {
		t.Errorf("final verify progress = %d/%d, want 1/1", lastDone, lastTotal)
	}
}

func TestProcessAgeExample(t *testing.T) {
	// The labeled grammar plus the EU adult rule: 34 years on the
	// travel date lands in the Adult band.
	notes := "First Name: Ann\nLast Name: Lee\nDate of Birth: 1990-05-01"
	rows := []booking.SourceRow{gygRow("r1", "AGE1", notes, booking.UnitAdult, "", date(2024, 5, 1))}

	got := run(t, Request{Rows: rows})
	if got[0].UnitType != booking.UnitAdult {
		t.Errorf("unit = %q, want Adult", got[0].UnitType)
	}
	if got[0].TravelDate != "2024-05-01" {
		t.Errorf("travel date = %q, want 2024-05-01", got[0].TravelDate)
	}
}

func contains(errs []string, want string) bool {
	for _, e := range errs {
		if e == want {
			return true
		}
	}
	return false
}

func TestProcessAgeUnitMismatchReported(t *testing.T) {
	// An 8-year-old forced into the only purchased unit, an Adult one.
	notes := "First Name: Mia\nLast Name: Kern\nDate of Birth: 2016-03-01"
	rows := []booking.SourceRow{gygRow("r1", "GYGAGE", notes, booking.UnitAdult, "Italy", date(2024, 3, 1))}

	got := run(t, Request{Rows: rows})
	if len(got) != 1 {
		t.Fatalf("Process returned %d results, want 1", len(got))
	}
	if !contains(got[0].Errors, "Child Mia Kern (age 8.0) booked as Adult") {
		t.Errorf("errors = %v, want age mismatch reported", got[0].Errors)
	}
}

func TestProcessObserveEvents(t *testing.T) {
	notes := "First Name: Ann\nLast Name: Lee\nDate of Birth: 1990-05-01"
	rows := []booking.SourceRow{gygRow("r1", "GYGEV1", notes, booking.UnitAdult, "Italy", date(2024, 5, 1))}

	var events []Event
	run(t, Request{Rows: rows, Observe: func(e Event) { events = append(events, e) }})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.OrderRef != "GYGEV1" {
		t.Errorf("order ref = %q, want GYGEV1", e.OrderRef)
	}
	if e.Pattern == "" {
		t.Error("pattern is empty, want the winning pattern name")
	}
	if e.TravelerCount != 1 || e.UnitCount != 1 || e.DOBCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", e.TravelerCount, e.UnitCount, e.DOBCount)
	}
	if e.FromUpdate {
		t.Error("from_update = true, want false")
	}
	if len(e.ErrorClasses) != 0 {
		t.Errorf("error classes = %v, want none", e.ErrorClasses)
	}
	if e.NotesLength != len(notes) {
		t.Errorf("notes length = %d, want %d", e.NotesLength, len(notes))
	}
}

func TestProcessObserveUpdateReuse(t *testing.T) {
	travel := date(2024, 7, 1)
	rows := []booking.SourceRow{gygRow("r1", "GYGEV2", "whatever", booking.UnitAdult, "Italy", travel)}
	set := update.NewSet([]update.Record{{
		RowID: "r1", OrderRef: "GYGEV2", FullName: "Prior Name",
		UnitType: booking.UnitAdult, TravelDate: "2024-07-01",
	}})

	var events []Event
	run(t, Request{Rows: rows, Updates: set, Observe: func(e Event) { events = append(events, e) }})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !events[0].FromUpdate {
		t.Error("from_update = false, want true")
	}
	if events[0].Pattern != "" {
		t.Errorf("pattern = %q, want empty on reuse", events[0].Pattern)
	}
}
