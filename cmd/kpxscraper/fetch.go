package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/kpxscraper/internal/database"
	"github.com/jgoulah/kpxscraper/internal/scraper"
)

var (
	fetchDate   string
	fetchDryRun bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [production|consumption|price]",
	Short: "Fetch records from the Korea Power Exchange",
	Long: `Scrapes the requested record kind and stores it in the local SQLite database.
Records already stored for the same zone and datetime are skipped.

With --date, production is read from the historical source (available from
2021-12-22) and prices are checked against the published seven day window.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDate, "date", "", "Target date (YYYY-MM-DD) in the operator timezone")
	fetchCmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "Print records as JSON instead of storing them")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Fetch started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	kind := args[0]
	if err := validateKind(kind); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	kpx, err := scraper.NewKPXScraper(cfg)
	if err != nil {
		return fmt.Errorf("creating scraper: %w", err)
	}

	req := scraper.Request{Logger: slog.Default()}
	if fetchDate != "" {
		target, err := parseDate(fetchDate, kpx.Location())
		if err != nil {
			return err
		}
		req.Target = &target
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Fetching %s for %s...\n", kind, cfg.GetZoneKey())

	var records any
	var count int
	switch kind {
	case database.KindProduction:
		r, err := kpx.FetchProduction(ctx, req)
		if err != nil {
			return fetchFailed(err)
		}
		records, count = r, len(r)
	case database.KindConsumption:
		r, err := kpx.FetchConsumption(ctx, req)
		if err != nil {
			return fetchFailed(err)
		}
		records, count = r, len(r)
	case database.KindPrice:
		r, err := kpx.FetchPrice(ctx, req)
		if err != nil {
			return fetchFailed(err)
		}
		records, count = r, len(r)
	}

	if count == 0 {
		fmt.Println("No data found")
		return nil
	}

	if fetchDryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	db, err := openDB(kpx.Location())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	inserted, err := storeRecords(db, database.NewRunID(), records)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Fetched %d records, stored %d new (%d duplicates skipped)\n", count, inserted, count-inserted)
	return nil
}

// fetchFailed adds a hint for transient upstream failures
func fetchFailed(err error) error {
	var transportErr *scraper.TransportError
	if errors.As(err, &transportErr) && transportErr.Temporary() {
		fmt.Printf("⚠ Upstream returned %d, try again later\n", transportErr.StatusCode)
	}
	return fmt.Errorf("scraping: %w", err)
}
