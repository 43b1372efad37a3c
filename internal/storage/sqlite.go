// Package storage persists processed runs and their assigned
// travelers.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"namesgen/internal/booking"
	"namesgen/internal/update"
)

// Run is one processing run's metadata.
type Run struct {
	ID            int64
	StartedAt     time.Time
	SourceFile    string
	OpsFile       string
	UpdateFile    string
	BookingCount  int
	TravelerCount int
}

// TravelerRow is one stored assigned traveler.
type TravelerRow struct {
	ID           int64
	RunID        int64
	RowID        string
	OrderRef     string
	FullName     string
	UnitType     string
	OriginalUnit string
	TravelDate   string
	TourTime     string
	Language     string
	TourType     string
	Reseller     string
	DOB          string
	PNR          string
	TicketGroup  string
	TixNom       string
	Tag          string
	FromUpdate   bool
	Error        string
}

// RunDB wraps a SQLite database connection for run storage.
type RunDB struct {
	db *sql.DB
}

// OpenRunDB opens or creates a SQLite run store at the given path.
func OpenRunDB(path string) (*RunDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &RunDB{db: db}, nil
}

// Close closes the database connection.
func (d *RunDB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		source_file TEXT,
		ops_file TEXT,
		update_file TEXT,
		booking_count INTEGER DEFAULT 0,
		traveler_count INTEGER DEFAULT 0,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS travelers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		row_id TEXT,
		order_ref TEXT NOT NULL,
		full_name TEXT,
		unit_type TEXT,
		original_unit TEXT,
		travel_date TEXT,
		tour_time TEXT,
		language TEXT,
		tour_type TEXT,
		reseller TEXT,
		dob TEXT,
		pnr TEXT,
		ticket_group TEXT,
		tix_nom TEXT,
		tag TEXT,
		from_update INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_travelers_run ON travelers(run_id);
	CREATE INDEX IF NOT EXISTS idx_travelers_order_ref ON travelers(order_ref);
	CREATE INDEX IF NOT EXISTS idx_travelers_reseller ON travelers(reseller);
	CREATE INDEX IF NOT EXISTS idx_travelers_row ON travelers(row_id);

	-- FTS5 virtual table for full-text search on traveler names.
	CREATE VIRTUAL TABLE IF NOT EXISTS travelers_fts USING fts5(
		full_name,
		content='travelers',
		content_rowid='id'
	);

	-- Triggers to keep FTS index in sync.
	CREATE TRIGGER IF NOT EXISTS travelers_ai AFTER INSERT ON travelers BEGIN
		INSERT INTO travelers_fts(rowid, full_name) VALUES (new.id, new.full_name);
	END;

	CREATE TRIGGER IF NOT EXISTS travelers_ad AFTER DELETE ON travelers BEGIN
		INSERT INTO travelers_fts(travelers_fts, rowid, full_name) VALUES('delete', old.id, old.full_name);
	END;

	CREATE TRIGGER IF NOT EXISTS travelers_au AFTER UPDATE ON travelers BEGIN
		INSERT INTO travelers_fts(travelers_fts, rowid, full_name) VALUES('delete', old.id, old.full_name);
		INSERT INTO travelers_fts(rowid, full_name) VALUES (new.id, new.full_name);
	END;
	`

	_, err := db.Exec(schema)
	return err
}

// RunMeta describes a run being saved.
type RunMeta struct {
	StartedAt    time.Time
	SourceFile   string
	OpsFile      string
	UpdateFile   string
	BookingCount int
}

// SaveRun stores a run and all its results in one transaction and
// returns the run id.
func (d *RunDB) SaveRun(meta RunMeta, results []booking.Result) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, source_file, ops_file, update_file, booking_count, traveler_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, meta.StartedAt.UTC().Format(time.RFC3339), meta.SourceFile, meta.OpsFile, meta.UpdateFile, meta.BookingCount, len(results))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO travelers (run_id, row_id, order_ref, full_name, unit_type, original_unit,
			travel_date, tour_time, language, tour_type, reseller, dob,
			pnr, ticket_group, tix_nom, tag, from_update, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		fromUpdate := 0
		if r.FromUpdate {
			fromUpdate = 1
		}
		if _, err := stmt.Exec(runID, r.RowID, r.OrderRef, r.FullName, string(r.UnitType), string(r.OriginalUnit),
			r.TravelDate, r.TourTime, r.Language, r.TourType, r.Reseller, r.DOB,
			r.PNR, r.TicketGroup, r.TixNom, r.Tag, fromUpdate, r.ErrorText()); err != nil {
			return 0, fmt.Errorf("insert traveler: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// QueryParams contains filtering options for querying travelers.
type QueryParams struct {
	RunID     int64  // Filter by run.
	OrderRef  string // Filter by order reference (exact match).
	Reseller  string // Filter by reseller (LIKE match).
	UnitType  string // Filter by assigned unit type (exact match).
	HasError  bool   // Only travelers with a non-empty error field.
	FullText  string // FTS5 full-text search on the traveler name.
	Limit     int    // Max results (default 100).
	Offset    int    // Pagination offset.
	OrderDesc bool   // Sort by id descending.
}

// Query retrieves travelers matching the given parameters.
func (d *RunDB) Query(p QueryParams) ([]TravelerRow, error) {
	var conditions []string
	var args []interface{}

	if p.RunID != 0 {
		conditions = append(conditions, "t.run_id = ?")
		args = append(args, p.RunID)
	}
	if p.OrderRef != "" {
		conditions = append(conditions, "t.order_ref = ?")
		args = append(args, p.OrderRef)
	}
	if p.Reseller != "" {
		conditions = append(conditions, "t.reseller LIKE ?")
		args = append(args, "%"+p.Reseller+"%")
	}
	if p.UnitType != "" {
		conditions = append(conditions, "t.unit_type = ?")
		args = append(args, p.UnitType)
	}
	if p.HasError {
		conditions = append(conditions, "t.error != '' AND t.error IS NOT NULL")
	}

	query := `SELECT t.id, t.run_id, t.row_id, t.order_ref, t.full_name, t.unit_type, t.original_unit,
			t.travel_date, t.tour_time, t.language, t.tour_type, t.reseller, t.dob,
			t.pnr, t.ticket_group, t.tix_nom, t.tag, t.from_update, t.error
			FROM travelers t`
	if p.FullText != "" {
		query += ` JOIN travelers_fts fts ON t.id = fts.rowid`
		conditions = append([]string{"travelers_fts MATCH ?"}, conditions...)
		args = append([]interface{}{p.FullText}, args...)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	direction := "ASC"
	if p.OrderDesc {
		direction = "DESC"
	}
	query += " ORDER BY t.id " + direction

	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, p.Offset)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query travelers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []TravelerRow
	for rows.Next() {
		t, err := scanTraveler(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTraveler(s rowScanner) (TravelerRow, error) {
	var t TravelerRow
	var fromUpdate sql.NullInt64
	err := s.Scan(&t.ID, &t.RunID, &t.RowID, &t.OrderRef, &t.FullName, &t.UnitType, &t.OriginalUnit,
		&t.TravelDate, &t.TourTime, &t.Language, &t.TourType, &t.Reseller, &t.DOB,
		&t.PNR, &t.TicketGroup, &t.TixNom, &t.Tag, &fromUpdate, &t.Error)
	if err != nil {
		return t, fmt.Errorf("scan traveler: %w", err)
	}
	t.FromUpdate = fromUpdate.Valid && fromUpdate.Int64 == 1
	return t, nil
}

// Runs lists stored runs, newest first.
func (d *RunDB) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(`
		SELECT id, started_at, source_file, ops_file, update_file, booking_count, traveler_count
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.SourceFile, &r.OpsFile, &r.UpdateFile, &r.BookingCount, &r.TravelerCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRunID returns the id of the most recent run, 0 when none.
func (d *RunDB) LatestRunID() (int64, error) {
	var id sql.NullInt64
	if err := d.db.QueryRow("SELECT MAX(id) FROM runs").Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

// UpdateRecords exports a run's travelers as update records, so a
// stored run can serve as the update-file collaborator of a later run.
func (d *RunDB) UpdateRecords(runID int64) ([]update.Record, error) {
	rows, err := d.db.Query(`
		SELECT row_id, order_ref, full_name, unit_type, dob, tag, travel_date
		FROM travelers WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query update records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []update.Record
	for rows.Next() {
		var r update.Record
		var unit string
		if err := rows.Scan(&r.RowID, &r.OrderRef, &r.FullName, &unit, &r.DOB, &r.Tag, &r.TravelDate); err != nil {
			return nil, fmt.Errorf("scan update record: %w", err)
		}
		r.UnitType = booking.UnitType(unit)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// SetTag sets the manual tag on a stored traveler.
func (d *RunDB) SetTag(id int64, tag string) error {
	_, err := d.db.Exec(`UPDATE travelers SET tag = ? WHERE id = ?`, tag, id)
	return err
}

// Stats returns aggregate statistics about stored travelers.
type Stats struct {
	TotalTravelers int
	ByUnitType     map[string]int
	ByReseller     map[string]int
	WithErrors     int
	TopErrors      map[string]int
}

// GetStats returns statistics for one run, or all runs when runID is 0.
func (d *RunDB) GetStats(runID int64) (*Stats, error) {
	stats := &Stats{
		ByUnitType: make(map[string]int),
		ByReseller: make(map[string]int),
		TopErrors:  make(map[string]int),
	}

	where := ""
	var args []interface{}
	if runID != 0 {
		where = " WHERE run_id = ?"
		args = append(args, runID)
	}

	row := d.db.QueryRow("SELECT COUNT(*) FROM travelers"+where, args...)
	if err := row.Scan(&stats.TotalTravelers); err != nil {
		return nil, err
	}

	rows, err := d.db.Query("SELECT unit_type, COUNT(*) FROM travelers"+where+" GROUP BY unit_type", args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var unit string
		var count int
		if err := rows.Scan(&unit, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByUnitType[unit] = count
	}
	_ = rows.Close()

	rows, err = d.db.Query("SELECT reseller, COUNT(*) FROM travelers"+where+" GROUP BY reseller ORDER BY COUNT(*) DESC LIMIT 20", args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var reseller string
		var count int
		if err := rows.Scan(&reseller, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByReseller[reseller] = count
	}
	_ = rows.Close()

	errWhere := " WHERE error != '' AND error IS NOT NULL"
	if runID != 0 {
		errWhere += " AND run_id = ?"
	}
	row = d.db.QueryRow("SELECT COUNT(*) FROM travelers"+errWhere, args...)
	if err := row.Scan(&stats.WithErrors); err != nil {
		return nil, err
	}

	// Error strings are pipe-delimited condition lists; tally each
	// condition separately.
	rows, err = d.db.Query("SELECT error FROM travelers"+errWhere, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var errText string
		if err := rows.Scan(&errText); err != nil {
			_ = rows.Close()
			return nil, err
		}
		for _, e := range strings.Split(errText, " | ") {
			if e = strings.TrimSpace(e); e != "" {
				stats.TopErrors[e]++
			}
		}
	}
	_ = rows.Close()

	return stats, nil
}
