// Command-line entry point for the traveler name reconciliation engine.
//
// The process command reads a reseller booking export (CSV), extracts
// traveler names and dates of birth from the booking notes, assigns the
// purchased unit types, and writes one output row per traveler. An
// operations sheet and an update file from a previous day's run are
// optional collaborators; a stored run in the local run database can
// stand in for the update file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"namesgen/internal/booking"
	_ "namesgen/internal/parsers" // register all patterns via init()
	"namesgen/internal/pipeline"
	"namesgen/internal/registry"
	"namesgen/internal/storage"
	"namesgen/internal/tabular"
	"namesgen/internal/update"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "namesgen - commands:")
	fmt.Fprintln(w, "  process  - reconcile a booking export into traveler rows")
	fmt.Fprintln(w, "  runs     - list stored runs")
	fmt.Fprintln(w, "  stats    - show traveler statistics for a stored run")
	fmt.Fprintln(w, "  patterns - list registered extraction patterns")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  namesgen process -source bookings.csv [-ops ops.csv] [-update prev.csv] [-db runs.db] [-output out.csv]")
	fmt.Fprintln(w, "  namesgen runs -db runs.db")
	fmt.Fprintln(w, "  namesgen stats -db runs.db [-run N]")
	fmt.Fprintln(w, "  namesgen patterns")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "process":
		runProcess(os.Args[2:])
	case "runs":
		runRuns(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "patterns":
		runPatterns(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runProcess(args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	srcPath := fs.String("source", "", "Booking export CSV (required)")
	opsPath := fs.String("ops", "", "Operations sheet CSV")
	updPath := fs.String("update", "", "Update file CSV from a previous run")
	dbPath := fs.String("db", envOrDefault("NAMESGEN_DB", ""), "SQLite run database (saves this run when set)")
	updateRun := fs.Int64("update-run", 0, "Use a stored run as the update file (-1 for the latest, requires -db)")
	outPath := fs.String("output", "", "Output CSV file (default: stdout)")
	showStats := fs.Bool("stats", false, "Print phase progress and counters to stderr")

	publish := fs.Bool("publish", false, "Publish results to the PostgreSQL results store")
	pgHost := fs.String("pg-host", envOrDefault("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	pgPort := fs.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", 5432), "PostgreSQL port")
	pgUser := fs.String("pg-user", envOrDefault("POSTGRES_USER", "namesgen"), "PostgreSQL user")
	pgPassword := fs.String("pg-password", envOrDefault("POSTGRES_PASSWORD", "namesgen"), "PostgreSQL password")
	pgDB := fs.String("pg-database", envOrDefault("POSTGRES_DATABASE", "namesgen_results"), "PostgreSQL database")

	analytics := fs.Bool("analytics", false, "Record per-booking events in ClickHouse")
	chHost := fs.String("ch-host", envOrDefault("CLICKHOUSE_HOST", "localhost"), "ClickHouse host")
	chPort := fs.Int("ch-port", envOrDefaultInt("CLICKHOUSE_PORT", 9000), "ClickHouse port")
	chUser := fs.String("ch-user", envOrDefault("CLICKHOUSE_USER", "default"), "ClickHouse user")
	chPassword := fs.String("ch-password", envOrDefault("CLICKHOUSE_PASSWORD", ""), "ClickHouse password")
	chDB := fs.String("ch-database", envOrDefault("CLICKHOUSE_DATABASE", "namesgen"), "ClickHouse database")
	_ = fs.Parse(args)

	if *srcPath == "" {
		fmt.Fprintln(os.Stderr, "process: -source is required")
		fs.Usage()
		os.Exit(2)
	}

	rows := loadSource(*srcPath)

	var ops []booking.OpsRow
	if *opsPath != "" {
		ops = loadOps(*opsPath)
	}

	var runDB *storage.RunDB
	if *dbPath != "" {
		var err error
		runDB, err = storage.OpenRunDB(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open run database: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = runDB.Close() }()
	}

	updates := loadUpdates(*updPath, runDB, *updateRun)

	req := pipeline.Request{Rows: rows, Ops: ops, Updates: updates}
	if *showStats {
		req.Progress = func(phase pipeline.Phase, done, total int) {
			if total > 0 {
				fmt.Fprintf(os.Stderr, "phase=%s %d/%d\n", phase, done, total)
			} else {
				fmt.Fprintf(os.Stderr, "phase=%s\n", phase)
			}
		}
	}

	var events []storage.CHInsertParams
	started := time.Now()
	if *analytics {
		var seq uint64
		req.Observe = func(e pipeline.Event) {
			seq++
			events = append(events, storage.CHInsertParams{
				ID:            seq,
				ProcessedAt:   started,
				OrderRef:      e.OrderRef,
				Reseller:      e.Reseller,
				Pattern:       e.Pattern,
				TravelerCount: e.TravelerCount,
				UnitCount:     e.UnitCount,
				DOBCount:      e.DOBCount,
				FromUpdate:    e.FromUpdate,
				ErrorClasses:  e.ErrorClasses,
				NotesLength:   e.NotesLength,
			})
		}
	}

	ctx := context.Background()
	results, err := pipeline.New().Process(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
		os.Exit(1)
	}

	var runID int64
	if runDB != nil {
		runID, err = runDB.SaveRun(storage.RunMeta{
			StartedAt:    started,
			SourceFile:   *srcPath,
			OpsFile:      *opsPath,
			UpdateFile:   *updPath,
			BookingCount: countBookings(results),
		}, results)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save run: %v\n", err)
			os.Exit(1)
		}
		if *showStats {
			fmt.Fprintf(os.Stderr, "saved run %d (%d travelers)\n", runID, len(results))
		}
	}

	if *publish {
		pg, err := storage.OpenPostgres(ctx, storage.PostgresConfig{
			Host: *pgHost, Port: *pgPort, Database: *pgDB, User: *pgUser, Password: *pgPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open PostgreSQL: %v\n", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.CreateSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create results schema: %v\n", err)
			os.Exit(1)
		}
		if err := pg.SaveResults(ctx, results); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to publish results: %v\n", err)
			os.Exit(1)
		}
	}

	if *analytics && len(events) > 0 {
		ch, err := storage.OpenClickHouse(ctx, storage.ClickHouseConfig{
			Host: *chHost, Port: *chPort, Database: *chDB, User: *chUser, Password: *chPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open ClickHouse: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = ch.Close() }()
		if err := ch.CreateSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create analytics schema: %v\n", err)
			os.Exit(1)
		}
		maxID, err := ch.MaxID(ctx)
		if err == nil {
			for i := range events {
				events[i].ID += maxID
				events[i].RunID = uint64(runID)
			}
		}
		if err := ch.InsertBatch(ctx, events); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to record analytics: %v\n", err)
			os.Exit(1)
		}
	}

	var wout io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		wout = f
	}

	withOps := len(ops) > 0
	if err := tabular.WriteResults(wout, results, withOps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(1)
	}

	if *showStats {
		withErrors := 0
		for _, r := range results {
			if len(r.Errors) > 0 {
				withErrors++
			}
		}
		fmt.Fprintf(os.Stderr, "stats: bookings=%d travelers=%d with_errors=%d\n",
			countBookings(results), len(results), withErrors)
	}
}

func loadSource(path string) []booking.SourceRow {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open source: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	rows, err := tabular.LoadSourceRows(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read source: %v\n", err)
		os.Exit(1)
	}
	return rows
}

func loadOps(path string) []booking.OpsRow {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open ops sheet: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	ops, err := tabular.LoadOpsRows(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read ops sheet: %v\n", err)
		os.Exit(1)
	}
	return ops
}

// loadUpdates builds the update set from either an update CSV or a
// stored run. The two sources are mutually exclusive.
func loadUpdates(path string, runDB *storage.RunDB, updateRun int64) *update.Set {
	if path != "" && updateRun != 0 {
		fmt.Fprintln(os.Stderr, "process: -update and -update-run are mutually exclusive")
		os.Exit(2)
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open update file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		recs, err := tabular.LoadUpdateRecords(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read update file: %v\n", err)
			os.Exit(1)
		}
		return update.NewSet(recs)
	}

	if updateRun != 0 {
		if runDB == nil {
			fmt.Fprintln(os.Stderr, "process: -update-run requires -db")
			os.Exit(2)
		}
		id := updateRun
		if id < 0 {
			latest, err := runDB.LatestRunID()
			if err != nil || latest == 0 {
				fmt.Fprintln(os.Stderr, "No stored runs to use as update source")
				os.Exit(1)
			}
			id = latest
		}
		recs, err := runDB.UpdateRecords(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load run %d: %v\n", id, err)
			os.Exit(1)
		}
		return update.NewSet(recs)
	}

	return nil
}

func countBookings(results []booking.Result) int {
	refs := make(map[string]bool)
	for _, r := range results {
		refs[r.OrderRef] = true
	}
	return len(refs)
}

func runRuns(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", envOrDefault("NAMESGEN_DB", "runs.db"), "SQLite run database")
	limit := fs.Int("limit", 20, "Max runs to list")
	_ = fs.Parse(args)

	db, err := storage.OpenRunDB(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	runs, err := db.Runs(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return
	}
	for _, r := range runs {
		fmt.Printf("run %d  %s  source=%s bookings=%d travelers=%d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.SourceFile, r.BookingCount, r.TravelerCount)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("db", envOrDefault("NAMESGEN_DB", "runs.db"), "SQLite run database")
	runID := fs.Int64("run", 0, "Run to report on (0 for all runs)")
	_ = fs.Parse(args)

	db, err := storage.OpenRunDB(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	stats, err := db.GetStats(*runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compute stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("travelers: %d (with errors: %d)\n", stats.TotalTravelers, stats.WithErrors)
	printCounts("by unit type", stats.ByUnitType)
	printCounts("by reseller", stats.ByReseller)
	printCounts("top conditions", stats.TopErrors)
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-50s %d\n", k, counts[k])
	}
}

func runPatterns(args []string) {
	fs := flag.NewFlagSet("patterns", flag.ExitOnError)
	_ = fs.Parse(args)

	reg := registry.Default()
	reg.Sort()

	fmt.Printf("%d patterns registered, channels: %s\n",
		reg.PatternCount(), strings.Join(reg.RegisteredChannels(), ", "))
	for _, p := range reg.AllPatterns() {
		fmt.Printf("  %-30s priority=%-4d channels=%s\n",
			p.Name(), p.Priority(), strings.Join(p.Channels(), ","))
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
