package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namesgen/internal/booking"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool for the shared results store.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	-- Bookings: one row per order reference, refreshed on each export
	CREATE TABLE IF NOT EXISTS bookings (
		order_ref       TEXT PRIMARY KEY,
		reseller        TEXT NOT NULL,
		travel_date     TEXT,
		tour_time       TEXT,
		language        TEXT,
		tour_type       TEXT,
		total_units     INTEGER NOT NULL DEFAULT 0,
		traveler_count  INTEGER NOT NULL DEFAULT 0,
		pnr             TEXT,
		ticket_group    TEXT,
		tix_nom         TEXT,
		first_seen      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		export_count    INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_reseller ON bookings(reseller);
	CREATE INDEX IF NOT EXISTS idx_bookings_travel_date ON bookings(travel_date);

	-- Traveler rows: one per source row, keyed by the reseller row identifier
	CREATE TABLE IF NOT EXISTS travelers (
		row_id          TEXT PRIMARY KEY,
		order_ref       TEXT NOT NULL REFERENCES bookings(order_ref) ON DELETE CASCADE,
		full_name       TEXT NOT NULL,
		unit_type       TEXT NOT NULL,
		original_unit   TEXT,
		dob             TEXT,
		tag             TEXT,
		from_update     BOOLEAN NOT NULL DEFAULT FALSE,
		errors          JSONB,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_travelers_order_ref ON travelers(order_ref);
	CREATE INDEX IF NOT EXISTS idx_travelers_full_name ON travelers(full_name);

	-- Review annotations for bookings the validators flagged
	CREATE TABLE IF NOT EXISTS review_notes (
		order_ref       TEXT PRIMARY KEY,
		reviewed        BOOLEAN NOT NULL DEFAULT FALSE,
		note            TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	_, err := d.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	// Create partial index separately (IF NOT EXISTS syntax differs).
	_, _ = d.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_travelers_with_errors ON travelers(order_ref) WHERE errors IS NOT NULL AND errors != 'null'::jsonb`)

	return nil
}

// Booking represents a stored booking record.
type Booking struct {
	OrderRef      string
	Reseller      string
	TravelDate    string
	TourTime      string
	Language      string
	TourType      string
	TotalUnits    int
	TravelerCount int
	PNR           string
	TicketGroup   string
	TixNom        string
	FirstSeen     time.Time
	LastSeen      time.Time
	ExportCount   int
}

// Traveler represents a stored traveler row.
type Traveler struct {
	RowID        string
	OrderRef     string
	FullName     string
	UnitType     string
	OriginalUnit string
	DOB          string
	Tag          string
	FromUpdate   bool
	Errors       []string
	UpdatedAt    time.Time
}

// SaveResults publishes a run's results, upserting bookings and their
// traveler rows in one transaction. Results without a row identifier
// are skipped since the reseller row ID is the primary key.
func (d *PostgresDB) SaveResults(ctx context.Context, results []booking.Result) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	counts := make(map[string]int)
	for i := range results {
		counts[results[i].OrderRef]++
	}

	seen := make(map[string]bool)
	for i := range results {
		r := &results[i]
		if !seen[r.OrderRef] {
			seen[r.OrderRef] = true
			_, err = tx.Exec(ctx, `
				INSERT INTO bookings (order_ref, reseller, travel_date, tour_time, language, tour_type, total_units, traveler_count, pnr, ticket_group, tix_nom, first_seen, last_seen)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
				ON CONFLICT (order_ref) DO UPDATE SET
					reseller = EXCLUDED.reseller,
					travel_date = EXCLUDED.travel_date,
					tour_time = EXCLUDED.tour_time,
					language = EXCLUDED.language,
					tour_type = EXCLUDED.tour_type,
					total_units = EXCLUDED.total_units,
					traveler_count = EXCLUDED.traveler_count,
					pnr = EXCLUDED.pnr,
					ticket_group = EXCLUDED.ticket_group,
					tix_nom = EXCLUDED.tix_nom,
					last_seen = EXCLUDED.last_seen,
					export_count = bookings.export_count + 1
			`, r.OrderRef, r.Reseller, r.TravelDate, r.TourTime, r.Language, r.TourType, r.TotalUnits, counts[r.OrderRef], r.PNR, r.TicketGroup, r.TixNom, now)
			if err != nil {
				return fmt.Errorf("upsert booking %s: %w", r.OrderRef, err)
			}
		}

		if r.RowID == "" {
			continue
		}
		var errsJSON []byte
		if len(r.Errors) > 0 {
			errsJSON, _ = json.Marshal(r.Errors)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO travelers (row_id, order_ref, full_name, unit_type, original_unit, dob, tag, from_update, errors, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (row_id) DO UPDATE SET
				order_ref = EXCLUDED.order_ref,
				full_name = EXCLUDED.full_name,
				unit_type = EXCLUDED.unit_type,
				original_unit = EXCLUDED.original_unit,
				dob = EXCLUDED.dob,
				tag = COALESCE(NULLIF(EXCLUDED.tag, ''), travelers.tag),
				from_update = EXCLUDED.from_update,
				errors = EXCLUDED.errors,
				updated_at = EXCLUDED.updated_at
		`, r.RowID, r.OrderRef, r.FullName, string(r.UnitType), string(r.OriginalUnit), r.DOB, r.Tag, r.FromUpdate, errsJSON, now)
		if err != nil {
			return fmt.Errorf("upsert traveler %s: %w", r.RowID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetBooking retrieves a booking by order reference.
func (d *PostgresDB) GetBooking(ctx context.Context, orderRef string) (*Booking, error) {
	var b Booking
	err := d.pool.QueryRow(ctx, `
		SELECT order_ref, reseller, travel_date, tour_time, language, tour_type, total_units, traveler_count, pnr, ticket_group, tix_nom, first_seen, last_seen, export_count
		FROM bookings WHERE order_ref = $1
	`, orderRef).Scan(&b.OrderRef, &b.Reseller, &b.TravelDate, &b.TourTime, &b.Language, &b.TourType, &b.TotalUnits, &b.TravelerCount, &b.PNR, &b.TicketGroup, &b.TixNom, &b.FirstSeen, &b.LastSeen, &b.ExportCount)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetTraveler retrieves a traveler by row ID.
func (d *PostgresDB) GetTraveler(ctx context.Context, rowID string) (*Traveler, error) {
	var t Traveler
	var errsJSON []byte
	err := d.pool.QueryRow(ctx, `
		SELECT row_id, order_ref, full_name, unit_type, original_unit, dob, tag, from_update, errors, updated_at
		FROM travelers WHERE row_id = $1
	`, rowID).Scan(&t.RowID, &t.OrderRef, &t.FullName, &t.UnitType, &t.OriginalUnit, &t.DOB, &t.Tag, &t.FromUpdate, &errsJSON, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(errsJSON, &t.Errors)
	return &t, nil
}

// ListTravelers retrieves all traveler rows for a booking, in row order.
func (d *PostgresDB) ListTravelers(ctx context.Context, orderRef string) ([]Traveler, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT row_id, order_ref, full_name, unit_type, original_unit, dob, tag, from_update, errors, updated_at
		FROM travelers
		WHERE order_ref = $1
		ORDER BY row_id
	`, orderRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTravelers(rows)
}

// SearchTravelers retrieves traveler rows whose full name matches the
// given pattern, case-insensitively.
func (d *PostgresDB) SearchTravelers(ctx context.Context, name string, limit int) ([]Traveler, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.pool.Query(ctx, `
		SELECT row_id, order_ref, full_name, unit_type, original_unit, dob, tag, from_update, errors, updated_at
		FROM travelers
		WHERE full_name ILIKE $1
		ORDER BY order_ref, row_id
		LIMIT $2
	`, "%"+name+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTravelers(rows)
}

func scanTravelers(rows pgx.Rows) ([]Traveler, error) {
	var travelers []Traveler
	for rows.Next() {
		var t Traveler
		var errsJSON []byte
		if err := rows.Scan(&t.RowID, &t.OrderRef, &t.FullName, &t.UnitType, &t.OriginalUnit, &t.DOB, &t.Tag, &t.FromUpdate, &errsJSON, &t.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(errsJSON, &t.Errors)
		travelers = append(travelers, t)
	}
	return travelers, rows.Err()
}

// ListBookings retrieves bookings for a travel date, newest export first.
// An empty date returns the most recently exported bookings.
func (d *PostgresDB) ListBookings(ctx context.Context, travelDate string, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT order_ref, reseller, travel_date, tour_time, language, tour_type, total_units, traveler_count, pnr, ticket_group, tix_nom, first_seen, last_seen, export_count
		FROM bookings`
	args := []interface{}{}
	if travelDate != "" {
		query += ` WHERE travel_date = $1 ORDER BY last_seen DESC LIMIT $2`
		args = append(args, travelDate, limit)
	} else {
		query += ` ORDER BY last_seen DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

// ListFlagged retrieves bookings with at least one traveler row carrying
// errors and no review note marking them reviewed.
func (d *PostgresDB) ListFlagged(ctx context.Context, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT b.order_ref, b.reseller, b.travel_date, b.tour_time, b.language, b.tour_type, b.total_units, b.traveler_count, b.pnr, b.ticket_group, b.tix_nom, b.first_seen, b.last_seen, b.export_count
		FROM bookings b
		JOIN travelers t ON t.order_ref = b.order_ref
		LEFT JOIN review_notes rn ON rn.order_ref = b.order_ref
		WHERE t.errors IS NOT NULL AND t.errors != 'null'::jsonb
		  AND (rn.reviewed IS NULL OR rn.reviewed = FALSE)
		ORDER BY b.last_seen DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func scanBookings(rows pgx.Rows) ([]Booking, error) {
	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.OrderRef, &b.Reseller, &b.TravelDate, &b.TourTime, &b.Language, &b.TourType, &b.TotalUnits, &b.TravelerCount, &b.PNR, &b.TicketGroup, &b.TixNom, &b.FirstSeen, &b.LastSeen, &b.ExportCount); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// SetTravelerTag sets the tag on a traveler row.
func (d *PostgresDB) SetTravelerTag(ctx context.Context, rowID, tag string) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE travelers SET tag = $2, updated_at = $3 WHERE row_id = $1
	`, rowID, tag, time.Now())
	return err
}

// SetReviewed marks or unmarks a booking as reviewed.
func (d *PostgresDB) SetReviewed(ctx context.Context, orderRef string, reviewed bool) error {
	now := time.Now()
	_, err := d.pool.Exec(ctx, `
		INSERT INTO review_notes (order_ref, reviewed, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (order_ref) DO UPDATE SET
			reviewed = EXCLUDED.reviewed,
			updated_at = EXCLUDED.updated_at
	`, orderRef, reviewed, now)
	return err
}

// SetReviewNote sets the free-text note for a booking.
func (d *PostgresDB) SetReviewNote(ctx context.Context, orderRef, note string) error {
	now := time.Now()
	_, err := d.pool.Exec(ctx, `
		INSERT INTO review_notes (order_ref, note, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (order_ref) DO UPDATE SET
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at
	`, orderRef, note, now)
	return err
}

// ReviewNote holds the review state for a booking.
type ReviewNote struct {
	OrderRef  string
	Reviewed  bool
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetReviewNote retrieves the review state for a booking.
func (d *PostgresDB) GetReviewNote(ctx context.Context, orderRef string) (*ReviewNote, error) {
	var rn ReviewNote
	var note *string
	err := d.pool.QueryRow(ctx, `
		SELECT order_ref, reviewed, note, created_at, updated_at
		FROM review_notes WHERE order_ref = $1
	`, orderRef).Scan(&rn.OrderRef, &rn.Reviewed, &note, &rn.CreatedAt, &rn.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if note != nil {
		rn.Note = *note
	}
	return &rn, nil
}

// Pool returns the underlying connection pool for advanced operations.
func (d *PostgresDB) Pool() *pgxpool.Pool {
	return d.pool
}
