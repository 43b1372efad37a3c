// Package pipeline runs the whole reconciliation flow: group source
// rows into bookings, extract traveler candidates from the notes,
// resolve ages, assign purchased units, validate, and map travelers
// back onto their rows.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"namesgen/internal/age"
	"namesgen/internal/assign"
	"namesgen/internal/booking"
	"namesgen/internal/dobsupp"
	"namesgen/internal/identity"
	"namesgen/internal/privnotes"
	"namesgen/internal/registry"
	"namesgen/internal/update"
	"namesgen/internal/validate"

	_ "namesgen/internal/parsers"
)

// Phase identifies a coarse stage of a run, for progress reporting.
type Phase string

const (
	PhaseImport Phase = "import"
	PhaseMerge  Phase = "merge"
	PhaseVerify Phase = "verify"
	PhaseExport Phase = "export"
)

// Progress receives phase transitions. done/total count bookings
// within the verify phase and are zero elsewhere.
type Progress func(phase Phase, done, total int)

// ErrUpdateDisjoint means the update file and the current export share
// no travel date at all: almost certainly the wrong file.
var ErrUpdateDisjoint = errors.New("update file shares no travel date with the current export")

// Event summarizes one processed booking for analytics sinks. Pattern
// is the name of the winning notes pattern, empty for structured-row
// extraction and update reuse.
type Event struct {
	OrderRef      string
	Reseller      string
	Pattern       string
	TravelerCount int
	UnitCount     int
	DOBCount      int
	FromUpdate    bool
	ErrorClasses  []string
	NotesLength   int
}

// Request carries one run's inputs. Rows is required; the operations
// sheet and the update set are optional collaborators. Observe, when
// set, receives one event per processed booking.
type Request struct {
	Rows     []booking.SourceRow
	Ops      []booking.OpsRow
	Updates  *update.Set
	Progress Progress
	Observe  func(Event)
}

// Pipeline dispatches extraction through a pattern registry.
type Pipeline struct {
	reg *registry.Registry
}

// New returns a pipeline backed by the default registry with every
// linked pattern package registered.
func New() *Pipeline {
	r := registry.Default()
	r.Sort()
	return &Pipeline{reg: r}
}

// Process runs the full pipeline over one export. Bookings are
// processed sequentially; cancellation is checked once per booking.
func (p *Pipeline) Process(ctx context.Context, req Request) ([]booking.Result, error) {
	report := req.Progress
	if report == nil {
		report = func(Phase, int, int) {}
	}

	report(PhaseImport, 0, 0)
	bookings := booking.Group(req.Rows)

	report(PhaseMerge, 0, 0)
	if len(req.Ops) > 0 {
		bookings = booking.AttachOps(bookings, req.Ops)
	}

	if !req.Updates.Empty() {
		dates := make(map[string]bool)
		for _, b := range bookings {
			if d, ok := b.TravelDate(); ok {
				dates[d.Format("2006-01-02")] = true
			}
		}
		if !req.Updates.SharesTravelDate(dates) {
			return nil, ErrUpdateDisjoint
		}
	}

	var results []booking.Result
	report(PhaseVerify, 0, len(bookings))
	for i, b := range bookings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, p.processBooking(b, req)...)
		report(PhaseVerify, i+1, len(bookings))
	}

	report(PhaseExport, 0, 0)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OrderRef < results[j].OrderRef
	})
	return results, nil
}

func (p *Pipeline) processBooking(b *booking.Booking, req Request) []booking.Result {
	first := b.First()
	reseller := first.Reseller
	isGYG := booking.IsGYG(reseller)
	counts := b.UnitCounts()
	travelDate, hasDate := b.TravelDate()
	notes := b.PublicNotes()

	// Reuse the prior run's names when the update file covers this
	// booking with exactly the current row identifiers. Anything less
	// than an exact match forces a full re-extraction.
	var updateMismatch bool
	if req.Updates.Known(b.OrderRef) {
		ids := make([]string, len(b.Rows))
		for i, r := range b.Rows {
			ids[i] = r.ID
		}
		if req.Updates.Matches(b.OrderRef, ids) {
			results := p.reuse(b, req.Updates)
			p.observe(req, b, reseller, "", results, true, len(notes))
			return results
		}
		updateMismatch = true
	}

	cands, pattern := p.extract(b, notes, isGYG)

	// Reseller-specific note blocks can carry DOBs the name patterns
	// never see. Fill gaps in candidate order, drawing on the
	// operations sheet's notes when the public notes fall short.
	if missing := missingDOBs(cands); missing > 0 {
		supp := dobsupp.ByReseller(notes, reseller)
		if len(supp) < missing && b.Ops != nil {
			supp = append(supp, dobsupp.ByReseller(b.Ops.Notes, reseller)...)
		}
		for i, j := 0, 0; i < len(cands) && j < len(supp); i++ {
			if cands[i].DOB == "" {
				cands[i].DOB = supp[j]
				j++
			}
		}
	}
	age.Resolve(cands, travelDate, hasDate)

	bookingErrs := p.bookingErrors(b, cands, counts, travelDate, hasDate, isGYG)

	travelers, resolved := p.resolveTravelers(b, cands, counts, first, isGYG)
	youthErrs := validate.YouthErrors(travelers, counts, first.CustomerCountry, isGYG)
	ageErrs := validate.AgeUnitMismatches(travelers)
	dupes := dupeSet(travelers, resolved)
	travelers = identity.Map(travelers, b.Rows)

	inheritedTag := ""
	if updateMismatch {
		inheritedTag = req.Updates.Tag(b.OrderRef)
	}

	if len(travelers) == 0 {
		res := p.baseResult(b, first, booking.Traveler{}, hasDate, travelDate)
		res.Tag = inheritedTag
		for _, e := range bookingErrs {
			res.AddError(e)
		}
		res.AddError(validate.ErrNoNames)
		if updateMismatch {
			res.AddError(update.ErrBookingMismatch)
		}
		results := []booking.Result{res}
		p.observe(req, b, reseller, pattern, results, false, len(notes))
		return results
	}

	results := make([]booking.Result, 0, len(travelers))
	for _, t := range travelers {
		res := p.baseResult(b, first, t, hasDate, travelDate)
		res.Tag = inheritedTag
		for _, e := range bookingErrs {
			res.AddError(e)
		}
		// Reclassified Youth units are an intentional correction, not
		// a condition to report.
		if !t.Converted {
			for _, e := range youthErrs {
				res.AddError(e)
			}
			for _, e := range ageErrs {
				res.AddError(e)
			}
		}
		if validate.HasForbiddenContent(t.Name) {
			res.AddError(validate.ErrCheckNames)
		}
		if dupes[t.Name] {
			res.AddError(validate.ErrDuplicateNames)
		}
		if updateMismatch {
			res.AddError(update.ErrBookingMismatch)
		}
		results = append(results, res)
	}
	p.observe(req, b, reseller, pattern, results, false, len(notes))
	return results
}

// observe reports one booking to the analytics hook, if any.
func (p *Pipeline) observe(req Request, b *booking.Booking, reseller, pattern string, results []booking.Result, fromUpdate bool, notesLen int) {
	if req.Observe == nil {
		return
	}
	ev := Event{
		OrderRef:    b.OrderRef,
		Reseller:    reseller,
		Pattern:     pattern,
		UnitCount:   b.TotalUnits(),
		FromUpdate:  fromUpdate,
		NotesLength: notesLen,
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if r.FullName != "" {
			ev.TravelerCount++
		}
		if r.DOB != "" {
			ev.DOBCount++
		}
		for _, e := range r.Errors {
			class := validate.ErrorClass(e)
			if !seen[class] {
				seen[class] = true
				ev.ErrorClasses = append(ev.ErrorClasses, class)
			}
		}
	}
	req.Observe(ev)
}

// extract picks the extraction route for a booking, returning the
// candidates and the winning pattern name. GYG notes go through the
// labeled grammar first and fall back on the full pattern cascade;
// every other reseller exports one structured name per row.
func (p *Pipeline) extract(b *booking.Booking, notes string, isGYG bool) ([]booking.Candidate, string) {
	if isGYG {
		ext := p.reg.ExtractChannel("gyg", notes)
		if ext == nil {
			ext = p.reg.ExtractFirst("mda", notes)
		}
		if ext == nil {
			return nil, ""
		}
		return ext.Candidates, ext.Pattern
	}

	var cands []booking.Candidate
	for _, row := range b.Rows {
		if name := rowName(row); name != "" {
			cands = append(cands, booking.Candidate{Name: name})
		}
	}
	return cands, ""
}

// resolveTravelers assigns unit types, consulting the confirmed-name
// template in the secondary notes twice: as the last extraction resort
// when the GYG cascade found nothing, and as a retry when the primary
// extraction yielded duplicate names. The duplicate retry substitutes
// only when the template's unit multiset matches the purchased one
// exactly; the second return reports whether the template was used.
func (p *Pipeline) resolveTravelers(b *booking.Booking, cands []booking.Candidate, counts map[booking.UnitType]int, first booking.SourceRow, isGYG bool) ([]booking.Traveler, bool) {
	if isGYG && len(cands) == 0 {
		if confirmed := p.templateTravelers(b); len(confirmed) > 0 {
			return confirmed, true
		}
		return nil, false
	}

	in := assign.Input{
		UnitCounts:  counts,
		ProductTags: first.ProductTags,
		Country:     first.CustomerCountry,
		IsGYG:       isGYG,
	}

	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Name
	}
	if len(validate.Duplicates(names)) > 0 {
		if confirmed := p.templateTravelers(b); len(confirmed) > 0 {
			if unitMultisetMatches(confirmed, counts) {
				return confirmed, true
			}
		}
	}
	return assign.Travelers(cands, in), false
}

// templateTravelers runs the confirmed-name template over the
// booking's secondary text fields, the private notes first and then
// the operations sheet's notes, and returns the first non-empty
// result.
func (p *Pipeline) templateTravelers(b *booking.Booking) []booking.Traveler {
	units := make([]booking.UnitType, len(b.Rows))
	for i, r := range b.Rows {
		units[i] = r.UnitType
	}
	sources := []string{b.PrivateNotes()}
	if b.Ops != nil {
		sources = append(sources, b.Ops.Notes)
	}
	for _, src := range sources {
		if confirmed, _ := privnotes.Travelers(src, units); len(confirmed) > 0 {
			return confirmed
		}
	}
	return nil
}

// bookingErrors computes the booking-level validation conditions that
// attach to every traveler. They are only evaluated for GYG bookings,
// whose notes are the sole source of names and dates.
func (p *Pipeline) bookingErrors(b *booking.Booking, cands []booking.Candidate, counts map[booking.UnitType]int, travelDate time.Time, hasDate, isGYG bool) []string {
	if !isGYG || len(cands) == 0 {
		return nil
	}
	childUnits := counts[booking.UnitChild] + counts[booking.UnitInfant]
	adultUnits := counts[booking.UnitAdult] + counts[booking.UnitYouth]
	hasMixed := childUnits > 0 && adultUnits > 0

	var dobs []string
	for _, c := range cands {
		if c.DOB != "" {
			dobs = append(dobs, c.DOB)
		}
	}

	var errs []string
	if e := validate.UnitMismatch(b.TotalUnits(), len(cands)); e != "" {
		errs = append(errs, e)
	}
	if e := validate.MissingDOBs(hasMixed, len(dobs), len(cands)); e != "" {
		errs = append(errs, e)
	}
	if e := validate.AllUnder18(dobs, travelDate, hasDate, hasMixed); e != "" {
		errs = append(errs, e)
	}
	if e := validate.OnlyChildInfant(counts); e != "" {
		errs = append(errs, e)
	}
	return errs
}

// reuse rebuilds a booking's results from the update file, row by row.
// Names and unit types come from the prior run; the notes field is
// refreshed from the current export.
func (p *Pipeline) reuse(b *booking.Booking, updates *update.Set) []booking.Result {
	first := b.First()
	travelDate, hasDate := b.TravelDate()
	tag := updates.Tag(b.OrderRef)

	results := make([]booking.Result, 0, len(b.Rows))
	for _, row := range b.Rows {
		rec, ok := updates.Lookup(row.ID)
		if !ok {
			continue
		}
		t := booking.Traveler{
			Name:         rec.FullName,
			DOB:          rec.DOB,
			UnitType:     rec.UnitType,
			OriginalUnit: rec.UnitType,
			RowID:        row.ID,
		}
		res := p.baseResult(b, first, t, hasDate, travelDate)
		res.FromUpdate = true
		res.Tag = rec.Tag
		if res.Tag == "" {
			res.Tag = tag
		}
		results = append(results, res)
	}
	return results
}

// baseResult fills the booking-level output fields shared by every
// traveler of a booking.
func (p *Pipeline) baseResult(b *booking.Booking, first booking.SourceRow, t booking.Traveler, hasDate bool, travelDate time.Time) booking.Result {
	res := booking.Result{
		FullName:     t.Name,
		OrderRef:     b.OrderRef,
		RowID:        t.RowID,
		TourTime:     booking.NormalizeTime(first.TourTime),
		UnitType:     t.UnitType,
		OriginalUnit: t.OriginalUnit,
		TotalUnits:   b.TotalUnits(),
		Language:     booking.Language(first.ProductCode),
		TourType:     booking.TourType(first.ProductCode),
		Reseller:     first.Reseller,
		DOB:          t.DOB,
		PrivateNotes: b.PrivateNotes(),
	}
	if hasDate {
		res.TravelDate = travelDate.Format("2006-01-02")
	}
	if b.Ops != nil {
		res.PNR = b.Ops.PNR
		res.TicketGroup = b.Ops.TicketGroup
		res.TixNom = booking.TixNom(b.Ops.PNR)
	}
	return res
}

// rowName builds a traveler name from a row's structured columns,
// falling back on the customer field.
func rowName(row booking.SourceRow) string {
	first := strings.TrimSpace(row.FirstName)
	last := strings.TrimSpace(row.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return strings.TrimSpace(row.Customer)
}

func missingDOBs(cands []booking.Candidate) int {
	n := 0
	for _, c := range cands {
		if c.DOB == "" && !c.HasAge {
			n++
		}
	}
	return n
}

// dupeSet returns the traveler names to flag as duplicates. A booking
// resolved through the confirmed-name template was manually checked
// and is never flagged.
func dupeSet(travelers []booking.Traveler, resolved bool) map[string]bool {
	if resolved {
		return nil
	}
	names := make([]string, len(travelers))
	for i, t := range travelers {
		names[i] = t.Name
	}
	set := make(map[string]bool)
	for _, n := range validate.Duplicates(names) {
		set[n] = true
	}
	return set
}

func unitMultisetMatches(travelers []booking.Traveler, counts map[booking.UnitType]int) bool {
	implied := make(map[booking.UnitType]int)
	for _, t := range travelers {
		implied[t.UnitType]++
	}
	if len(travelers) != totalUnits(counts) {
		return false
	}
	for unit, n := range implied {
		if counts[unit] != n {
			return false
		}
	}
	return true
}

func totalUnits(counts map[booking.UnitType]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
