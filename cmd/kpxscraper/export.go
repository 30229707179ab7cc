package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/kpxscraper/internal/database"
	"github.com/jgoulah/kpxscraper/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [production|consumption|price]",
	Short: "Export stored records to a spreadsheet",
	Long:  `Writes all stored records of one kind to an .xlsx file, newest first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output .xlsx file")
	exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	kind := args[0]
	if err := validateKind(kind); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.GetLocation()
	if err != nil {
		return err
	}

	db, err := openDB(loc)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	zone := cfg.GetZoneKey()
	var count int
	switch kind {
	case database.KindProduction:
		data, err := db.ListProduction(zone, false)
		if err != nil {
			return fmt.Errorf("listing production: %w", err)
		}
		count = len(data)
		if err := export.Production(exportOutput, data); err != nil {
			return err
		}
	case database.KindConsumption:
		data, err := db.ListConsumption(zone, false)
		if err != nil {
			return fmt.Errorf("listing consumption: %w", err)
		}
		count = len(data)
		if err := export.Consumption(exportOutput, data); err != nil {
			return err
		}
	case database.KindPrice:
		data, err := db.ListPrices(zone, false)
		if err != nil {
			return fmt.Errorf("listing prices: %w", err)
		}
		count = len(data)
		if err := export.Prices(exportOutput, data); err != nil {
			return err
		}
	}

	fmt.Printf("✓ Exported %d %s records to %s\n", count, kind, exportOutput)
	return nil
}
