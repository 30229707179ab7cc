package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jgoulah/kpxscraper/internal/config"
	"github.com/jgoulah/kpxscraper/internal/database"
	"github.com/jgoulah/kpxscraper/internal/logger"
)

const (
	envConfigPath = "KPXSCRAPER_CONFIG"
	envDBPath     = "KPXSCRAPER_DB"
)

// Record kinds accepted on the command line
var recordKinds = []string{database.KindProduction, database.KindConsumption, database.KindPrice}

var (
	cfgFile string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kpxscraper",
	Short: "Scrape electricity data from the Korea Power Exchange",
	Long: `kpxscraper collects production mix, total load and system marginal
prices published by the Korea Power Exchange and stores them in a local
SQLite database. Stored records can be listed, exported or published to MQTT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		slog.SetDefault(logger.New(verbose))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $"+envConfigPath+" or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is $"+envDBPath+" or ./data.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if p := os.Getenv(envDBPath); p != "" {
		return p
	}
	return "data.db"
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openDB opens the database connection; stored datetimes come back in loc
func openDB(loc *time.Location) (*database.DB, error) {
	path := getDBPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path, loc)
}

// validateKind checks a record kind argument
func validateKind(kind string) error {
	for _, k := range recordKinds {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("unknown record kind: %s (available: %s)", kind, strings.Join(recordKinds, ", "))
}

// parseDate parses YYYY-MM-DD as midnight in loc
func parseDate(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", dateStr)
	}
	return t, nil
}
