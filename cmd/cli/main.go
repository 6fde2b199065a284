package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ingest"
	infra "github.com/dvloznov/finance-ledger/internal/infra/sqlite"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/reconcile"
	"github.com/dvloznov/finance-ledger/internal/suggest"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(log)
	case "import":
		runImport(log)
	case "orphans":
		runOrphans(log)
	case "suggest":
		runSuggest(log)
	case "reconcile":
		runReconcile(log)
	case "reconcile-line":
		runReconcileLine(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  init            Create the data file and schema")
	fmt.Println("  import          Ingest a CSV statement as an orphan batch")
	fmt.Println("  orphans         List orphan lines, filterable by batch and status")
	fmt.Println("  suggest         Rank counterpart accounts for a description/amount")
	fmt.Println("  reconcile       Fold a set of orphan lines into one balanced transaction")
	fmt.Println("  reconcile-line  Reconcile one orphan line against a counterpart account")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openStore opens the data file and wires a Store. The path defaults to the
// LEDGER_DB environment variable.
func openStore(log zerolog.Logger, path string) *infra.Store {
	if path == "" {
		path = os.Getenv("LEDGER_DB")
	}
	if path == "" {
		log.Fatal().Msg("Error: -db is required (or set LEDGER_DB)")
	}
	db, err := infra.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("db", path).Msg("Opening data file failed")
	}
	return infra.NewStore(db)
}

func newContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	return logger.WithContext(ctx, log), cancel
}

func runInit(log zerolog.Logger) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path of the SQLite data file")
	fs.Parse(os.Args[2:])

	store := openStore(log, *dbPath)
	defer store.Close()

	ctx, cancel := newContext(log)
	defer cancel()

	if err := store.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Schema initialization failed")
	}
	fmt.Println("Data file initialized.")
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path of the SQLite data file")
	file := fs.String("file", "", "CSV statement file to ingest")
	ref := fs.String("ref", "", "Batch reference (defaults to a generated one)")
	mapSpec := fs.String("map", "", "Column map, e.g. date=0,desc=1,amount=2,account=3")
	currency := fs.String("currency", "EUR", "Default currency name")
	header := fs.Bool("header", true, "First row is a header")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: -file is required")
	}

	cmap := ingest.DefaultColumnMap()
	if *mapSpec != "" {
		var err error
		cmap, err = ingest.ParseColumnMap(*mapSpec)
		if err != nil {
			log.Fatal().Err(err).Msg("Bad column map")
		}
	}

	store := openStore(log, *dbPath)
	defer store.Close()

	ctx, cancel := newContext(log)
	defer cancel()

	importer, err := ingest.NewImporter(store, infra.NewNameCache(store), ingest.Config{
		Columns:         cmap,
		HasHeader:       *header,
		DefaultCurrency: *currency,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Creating importer failed")
	}

	batchID, invalid, err := importer.ImportFile(ctx, *file, *ref)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
	fmt.Printf("Imported batch %d (%d invalid lines).\n", batchID, invalid)
}

func runOrphans(log zerolog.Logger) {
	fs := flag.NewFlagSet("orphans", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path of the SQLite data file")
	batch := fs.Int64("batch", 0, "Only lines of this batch")
	status := fs.String("status", "", "Only lines with this status (new, consumed, ignored)")
	profile := fs.String("profile", "", "Apply a saved filter profile")
	save := fs.String("save", "", "Save the given -batch/-status filter under this profile name")
	fs.Parse(os.Args[2:])

	store := openStore(log, *dbPath)
	defer store.Close()

	ctx, cancel := newContext(log)
	defer cancel()

	var filter infra.LineFilter
	if *batch != 0 {
		filter.BatchID = batch
	}
	if *status != "" {
		s := domain.OrphanLineStatus(*status)
		if !domain.ValidOrphanLineStatus(s) {
			log.Fatal().Str("status", *status).Msg("Unknown status")
		}
		filter.Status = &s
	}

	if *profile != "" {
		p, err := store.FilterProfileByName(ctx, *profile)
		if err != nil {
			log.Fatal().Err(err).Msg("Loading filter profile failed")
		}
		filter, err = infra.LineFilterFromCriteria(p.Criteria)
		if err != nil {
			log.Fatal().Err(err).Msg("Bad filter profile")
		}
	}

	if *save != "" {
		if _, err := store.SaveFilterProfile(ctx, *save, infra.CriteriaFromLineFilter(filter)); err != nil {
			log.Fatal().Err(err).Msg("Saving filter profile failed")
		}
		fmt.Printf("Saved filter profile %q.\n", *save)
	}

	lines, err := store.ListLines(ctx, filter)
	if err != nil {
		log.Fatal().Err(err).Msg("Listing orphan lines failed")
	}
	for _, l := range lines {
		account := "-"
		if l.AccountID != nil {
			account = strconv.FormatInt(*l.AccountID, 10)
		}
		marker := ""
		if !l.Valid {
			marker = "  [invalid: " + l.Note + "]"
		}
		fmt.Printf("%6d  %s  %-10s  acct=%-4s  %-24s  %s%s\n",
			l.ID, l.Date.Format("2006-01-02"), l.Status, account, l.Description, l.Amount, marker)
	}
	fmt.Printf("%d line(s).\n", len(lines))
}

func runSuggest(log zerolog.Logger) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path of the SQLite data file")
	desc := fs.String("desc", "", "Line description")
	amount := fs.Float64("amount", 0, "Line amount")
	credit := fs.Bool("credit", false, "The line is a credit")
	fs.Parse(os.Args[2:])

	if *desc == "" {
		log.Fatal().Msg("Error: -desc is required")
	}

	store := openStore(log, *dbPath)
	defer store.Close()

	ctx, cancel := newContext(log)
	defer cancel()

	suggestions, err := suggest.NewEngine(store).Suggest(ctx, *desc, *amount, *credit)
	if err != nil {
		log.Fatal().Err(err).Msg("Suggestion failed")
	}
	for _, s := range suggestions {
		fmt.Printf("%3d  %-24s  (account %d, %s)\n", s.Confidence, s.AccountName, s.AccountID, s.Reason)
	}
}

func runReconcile(log zerolog.Logger) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path of the SQLite data file")
	lines := fs.String("lines", "", "Comma-separated orphan line ids")
	desc := fs.String("desc", "", "Description of the resulting transaction")
	currencyID := fs.Int64("currency", 0, "Currency id of the resulting transaction")
	accountID := fs.Int64("account", 0, "Balancing account id")
	dateStr := fs.String("date", "", "Balancing date (YYYY-MM-DD)")
	fs.Parse(os.Args[2:])

	ids, err := parseIDList(*lines)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad -lines value")
	}
	if *desc == "" || *currencyID == 0 || *accountID == 0 {
		log.Fatal().Msg("Error: -desc, -currency and -account are required")
	}
	date, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad -date value, want YYYY-MM-DD")
	}

	store := openStore(log, *dbPath)
	defer store.Close()

	ctx, cancel := newContext(log)
	defer cancel()

	txID, err := reconcile.NewEngine(store).CreateFromOrphans(ctx, *desc, *currencyID, ids, *accountID, date)
	if err != nil {
		log.Fatal().Err(err).Msg("Reconciliation failed")
	}
	fmt.Printf("Created transaction %d.\n", txID)
}

func runReconcileLine(log zerolog.Logger) {
	fs := flag.NewFlagSet("reconcile-line", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path of the SQLite data file")
	lineID := fs.Int64("line", 0, "Orphan line id")
	accountID := fs.Int64("account", 0, "Counterpart account id")
	fs.Parse(os.Args[2:])

	if *lineID == 0 || *accountID == 0 {
		log.Fatal().Msg("Error: -line and -account are required")
	}

	store := openStore(log, *dbPath)
	defer store.Close()

	ctx, cancel := newContext(log)
	defer cancel()

	txID, err := reconcile.NewEngine(store).ReconcileLine(ctx, *lineID, *accountID)
	if err != nil {
		log.Fatal().Err(err).Msg("Reconciliation failed")
	}
	fmt.Printf("Created transaction %d.\n", txID)
}

func parseIDList(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("no line ids given")
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
