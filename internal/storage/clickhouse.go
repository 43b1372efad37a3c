package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for extraction analytics.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS booking_events (
			id              UInt64,
			processed_at    DateTime64(3),
			run_id          UInt64,
			order_ref       String,
			reseller        LowCardinality(String),
			pattern         LowCardinality(String),
			traveler_count  UInt32,
			unit_count      UInt32,
			dob_count       UInt32,
			from_update     UInt8,
			error_classes   String,
			notes_length    UInt32,
			created_at      DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(processed_at)
		ORDER BY (reseller, pattern, processed_at, id)
		SETTINGS index_granularity = 8192`,
	}

	for _, q := range queries {
		if err := d.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	// Add bloom filter index for order reference lookups (ignore error if already exists).
	_ = d.conn.Exec(ctx, `ALTER TABLE booking_events ADD INDEX IF NOT EXISTS idx_order_ref_bloom order_ref TYPE tokenbf_v1(32768, 3, 0) GRANULARITY 1`)

	return nil
}

// CHBookingEvent represents one processed booking stored in ClickHouse.
type CHBookingEvent struct {
	ID            uint64
	ProcessedAt   time.Time
	RunID         uint64
	OrderRef      string
	Reseller      string
	Pattern       string
	TravelerCount uint32
	UnitCount     uint32
	DOBCount      uint32
	FromUpdate    bool
	ErrorClasses  string
	NotesLength   uint32
	CreatedAt     time.Time
}

// CHInsertParams contains parameters for inserting a booking event.
type CHInsertParams struct {
	ID            uint64
	ProcessedAt   time.Time
	RunID         uint64
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

// Insert stores a single booking event in ClickHouse.
func (d *ClickHouseDB) Insert(ctx context.Context, p CHInsertParams) error {
	err := d.conn.Exec(ctx, `
		INSERT INTO booking_events (id, processed_at, run_id, order_ref, reseller, pattern, traveler_count, unit_count, dob_count, from_update, error_classes, notes_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.ProcessedAt, p.RunID, p.OrderRef, p.Reseller, p.Pattern,
		uint32(p.TravelerCount), uint32(p.UnitCount), uint32(p.DOBCount),
		boolToUint8(p.FromUpdate), strings.Join(p.ErrorClasses, ","), uint32(p.NotesLength))
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}

	return nil
}

// InsertBatch stores multiple booking events in ClickHouse efficiently.
func (d *ClickHouseDB) InsertBatch(ctx context.Context, events []CHInsertParams) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO booking_events (id, processed_at, run_id, order_ref, reseller, pattern, traveler_count, unit_count, dob_count, from_update, error_classes, notes_length)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range events {
		err = batch.Append(p.ID, p.ProcessedAt, p.RunID, p.OrderRef, p.Reseller, p.Pattern,
			uint32(p.TravelerCount), uint32(p.UnitCount), uint32(p.DOBCount),
			boolToUint8(p.FromUpdate), strings.Join(p.ErrorClasses, ","), uint32(p.NotesLength))
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// CHQueryParams contains filtering options for querying booking events.
type CHQueryParams struct {
	ID        uint64
	RunID     uint64
	Reseller  string
	Pattern   string
	OrderRef  string // LIKE match.
	HasErrors bool
	Limit     int
	Offset    int
	OrderBy   string
	OrderDesc bool
}

// Query retrieves booking events matching the given parameters.
func (d *ClickHouseDB) Query(ctx context.Context, p CHQueryParams) ([]CHBookingEvent, error) {
	var conditions []string
	var args []interface{}

	if p.ID != 0 {
		conditions = append(conditions, "id = ?")
		args = append(args, p.ID)
	}
	if p.RunID != 0 {
		conditions = append(conditions, "run_id = ?")
		args = append(args, p.RunID)
	}
	if p.Reseller != "" {
		conditions = append(conditions, "reseller = ?")
		args = append(args, p.Reseller)
	}
	if p.Pattern != "" {
		conditions = append(conditions, "pattern = ?")
		args = append(args, p.Pattern)
	}
	if p.OrderRef != "" {
		conditions = append(conditions, "order_ref LIKE ?")
		args = append(args, "%"+p.OrderRef+"%")
	}
	if p.HasErrors {
		conditions = append(conditions, "error_classes != ''")
	}

	query := `SELECT id, processed_at, run_id, order_ref, reseller, pattern, traveler_count, unit_count, dob_count, from_update, error_classes, notes_length, created_at FROM booking_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by.
	orderField := "id"
	if p.OrderBy != "" {
		switch p.OrderBy {
		case "processed_at", "reseller", "pattern", "traveler_count", "run_id":
			orderField = p.OrderBy
		}
	}
	direction := "ASC"
	if p.OrderDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderField, direction)

	// Limit and offset.
	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, p.Offset)

	rows, err := d.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query booking events: %w", err)
	}
	defer rows.Close()

	var events []CHBookingEvent
	for rows.Next() {
		var e CHBookingEvent
		var fromUpdate uint8
		err := rows.Scan(&e.ID, &e.ProcessedAt, &e.RunID, &e.OrderRef, &e.Reseller, &e.Pattern,
			&e.TravelerCount, &e.UnitCount, &e.DOBCount, &fromUpdate, &e.ErrorClasses, &e.NotesLength, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.FromUpdate = fromUpdate != 0
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return events, nil
}

// GetByID retrieves a single booking event by ID.
func (d *ClickHouseDB) GetByID(ctx context.Context, id uint64) (*CHBookingEvent, error) {
	events, err := d.Query(ctx, CHQueryParams{ID: id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// CHStats contains aggregate statistics about stored booking events.
type CHStats struct {
	TotalBookings   uint64
	ByReseller      map[string]uint64
	ByPattern       map[string]uint64
	WithErrors      uint64
	TopErrorClasses map[string]uint64
}

// GetStats returns statistics about stored booking events.
func (d *ClickHouseDB) GetStats(ctx context.Context) (*CHStats, error) {
	stats := &CHStats{
		ByReseller:      make(map[string]uint64),
		ByPattern:       make(map[string]uint64),
		TopErrorClasses: make(map[string]uint64),
	}

	// Total bookings.
	row := d.conn.QueryRow(ctx, "SELECT count() FROM booking_events")
	if err := row.Scan(&stats.TotalBookings); err != nil {
		return nil, err
	}

	// By reseller.
	rows, err := d.conn.Query(ctx, "SELECT reseller, count() FROM booking_events GROUP BY reseller ORDER BY count() DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var reseller string
		var count uint64
		if err := rows.Scan(&reseller, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan reseller stats: %w", err)
		}
		stats.ByReseller[reseller] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate reseller stats: %w", err)
	}
	rows.Close()

	// By winning pattern.
	rows, err = d.conn.Query(ctx, "SELECT pattern, count() FROM booking_events WHERE pattern != '' GROUP BY pattern ORDER BY count() DESC LIMIT 20")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var pattern string
		var count uint64
		if err := rows.Scan(&pattern, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan pattern stats: %w", err)
		}
		stats.ByPattern[pattern] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate pattern stats: %w", err)
	}
	rows.Close()

	// With errors.
	row = d.conn.QueryRow(ctx, "SELECT count() FROM booking_events WHERE error_classes != ''")
	if err := row.Scan(&stats.WithErrors); err != nil {
		return nil, err
	}

	// Top error classes.
	rows, err = d.conn.Query(ctx, `
		SELECT class, count() AS c
		FROM booking_events
		ARRAY JOIN splitByChar(',', error_classes) AS class
		WHERE error_classes != ''
		GROUP BY class ORDER BY c DESC LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var class string
		var count uint64
		if err := rows.Scan(&class, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan error class stats: %w", err)
		}
		stats.TopErrorClasses[class] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate error class stats: %w", err)
	}
	rows.Close()

	return stats, nil
}

// Count returns the total number of booking events, optionally filtered by reseller.
func (d *ClickHouseDB) Count(ctx context.Context, reseller string) (uint64, error) {
	var count uint64
	var err error
	if reseller != "" {
		row := d.conn.QueryRow(ctx, "SELECT count() FROM booking_events WHERE reseller = ?", reseller)
		err = row.Scan(&count)
	} else {
		row := d.conn.QueryRow(ctx, "SELECT count() FROM booking_events")
		err = row.Scan(&count)
	}
	return count, err
}

// CountByPattern returns booking counts grouped by winning pattern.
func (d *ClickHouseDB) CountByPattern(ctx context.Context) (map[string]uint64, error) {
	counts := make(map[string]uint64)
	rows, err := d.conn.Query(ctx, "SELECT pattern, count() FROM booking_events GROUP BY pattern")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pattern string
		var count uint64
		if err := rows.Scan(&pattern, &count); err != nil {
			return nil, fmt.Errorf("scan count by pattern: %w", err)
		}
		counts[pattern] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count by pattern: %w", err)
	}
	return counts, nil
}

// Distinct returns distinct values for a given column.
func (d *ClickHouseDB) Distinct(ctx context.Context, column string) ([]string, error) {
	// Validate column name to prevent SQL injection.
	validColumns := map[string]bool{
		"reseller": true,
		"pattern":  true,
	}
	if !validColumns[column] {
		return nil, fmt.Errorf("invalid column: %s", column)
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM booking_events WHERE %s != '' ORDER BY %s", column, column, column)
	rows, err := d.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct values: %w", err)
	}
	return values, nil
}

// MaxID returns the maximum event ID in the table.
func (d *ClickHouseDB) MaxID(ctx context.Context) (uint64, error) {
	var maxID uint64
	row := d.conn.QueryRow(ctx, "SELECT max(id) FROM booking_events")
	if err := row.Scan(&maxID); err != nil {
		return 0, err
	}
	return maxID, nil
}
