// Package tabular loads the three input collaborators: the bookings
// export, the operations sheet and a prior run's output used as an
// update file. Columns are matched case-insensitively so exports from
// differently configured accounts still load.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"namesgen/internal/booking"
	"namesgen/internal/update"
)

// header maps lowercased column names to their index.
type header map[string]int

func readAll(r io.Reader) (header, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("csv has no header row")
	}

	h := make(header, len(records[0]))
	for i, name := range records[0] {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h, records[1:], nil
}

// get returns the first present column among names, "" when absent.
func (h header) get(rec []string, names ...string) string {
	for _, name := range names {
		if i, ok := h[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
	}
	return ""
}

func (h header) has(names ...string) bool {
	for _, name := range names {
		if _, ok := h[name]; !ok {
			return false
		}
	}
	return true
}

// dateFormats covers the export variants seen in real files.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02/01/2006 15:04",
}

func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, f := range dateFormats {
		if t, err := time.Parse(f, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LoadSourceRows reads the primary bookings export.
func LoadSourceRows(r io.Reader) ([]booking.SourceRow, error) {
	h, records, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("bookings export: %w", err)
	}
	if !h.has("order reference", "reseller", "unit") {
		return nil, fmt.Errorf("bookings export: missing one of the critical columns (order reference, reseller, unit)")
	}

	rows := make([]booking.SourceRow, 0, len(records))
	for _, rec := range records {
		row := booking.SourceRow{
			ID:              h.get(rec, "id"),
			BookingRef:      h.get(rec, "booking reference"),
			OrderRef:        h.get(rec, "order reference"),
			Customer:        h.get(rec, "customer"),
			Status:          h.get(rec, "status"),
			Product:         h.get(rec, "product"),
			ProductCode:     h.get(rec, "product code"),
			ProductTags:     h.get(rec, "product tags"),
			Reseller:        h.get(rec, "reseller"),
			UnitType:        booking.ParseUnitType(h.get(rec, "unit")),
			FirstName:       h.get(rec, "ticket customer first name", "first name"),
			LastName:        h.get(rec, "ticket customer last name", "last name"),
			PublicNotes:     h.get(rec, "public notes"),
			PrivateNotes:    h.get(rec, "private notes"),
			CustomerCountry: h.get(rec, "customer country"),
			TourTime:        h.get(rec, "tour time"),
		}
		row.TravelDate, row.HasTravelDate = parseDate(h.get(rec, "travel date"))
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadOpsRows reads the operations sheet.
func LoadOpsRows(r io.Reader) ([]booking.OpsRow, error) {
	h, records, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("operations sheet: %w", err)
	}
	if !h.has("order reference") {
		return nil, fmt.Errorf("operations sheet: missing order reference column")
	}

	rows := make([]booking.OpsRow, 0, len(records))
	for _, rec := range records {
		row := booking.OpsRow{
			OrderRef:    h.get(rec, "order reference"),
			Client:      h.get(rec, "client"),
			TourTime:    h.get(rec, "tour time", "ticket time"),
			ProductCode: h.get(rec, "product code"),
			PNR:         h.get(rec, "ticket pnr"),
			TicketGroup: h.get(rec, "ticket group"),
			Notes:       h.get(rec, "note", "private notes"),
		}
		if row.PNR == "" {
			// Some sheets rename the PNR column; take any column
			// mentioning pnr.
			for name, i := range h {
				if strings.Contains(name, "pnr") && i < len(rec) {
					row.PNR = strings.TrimSpace(rec[i])
					break
				}
			}
		}
		row.TravelDate, row.HasDate = parseDate(h.get(rec, "travel date"))
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadUpdateRecords reads a prior run's export for reconciliation.
func LoadUpdateRecords(r io.Reader) ([]update.Record, error) {
	h, records, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("update file: %w", err)
	}
	if !h.has("order reference", "full name") {
		return nil, fmt.Errorf("update file: missing order reference or full name column")
	}

	recs := make([]update.Record, 0, len(records))
	for _, rec := range records {
		recs = append(recs, update.Record{
			RowID:      h.get(rec, "row id", "id"),
			OrderRef:   h.get(rec, "order reference"),
			FullName:   h.get(rec, "full name"),
			UnitType:   booking.ParseUnitType(h.get(rec, "unit type", "unit")),
			DOB:        h.get(rec, "dob", "date of birth"),
			Tag:        h.get(rec, "tag"),
			TravelDate: h.get(rec, "travel date"),
		})
	}
	return recs, nil
}

// WriteResults exports one csv row per assigned traveler. The PNR,
// Ticket Group and TIX NOM columns only appear when the run had an
// operations sheet, keeping sheet-less exports clean.
func WriteResults(w io.Writer, results []booking.Result, withOps bool) error {
	cw := csv.NewWriter(w)

	head := []string{
		"Full Name", "Order Reference", "Row ID", "Travel Date", "Unit Type",
		"Total Units", "Tour Time", "Language", "Tour Type", "DOB",
		"Private Notes", "Reseller", "Tag", "Error",
	}
	if withOps {
		head = append(head, "PNR", "Ticket Group", "TIX NOM")
	}
	if err := cw.Write(head); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range results {
		rec := []string{
			r.FullName, r.OrderRef, r.RowID, r.TravelDate, string(r.UnitType),
			fmt.Sprintf("%d", r.TotalUnits), r.TourTime, r.Language, r.TourType, r.DOB,
			r.PrivateNotes, r.Reseller, r.Tag, r.ErrorText(),
		}
		if withOps {
			rec = append(rec, r.PNR, r.TicketGroup, r.TixNom)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
