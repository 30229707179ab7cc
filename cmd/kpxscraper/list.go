package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/kpxscraper/internal/database"
	"github.com/jgoulah/kpxscraper/pkg/models"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list [production|consumption|price]",
	Short: "List stored records",
	Long:  `Displays stored records of one kind from the database, newest first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 24, "Limit number of records shown (0 = no limit)")
	rootCmd.AddCommand(listCmd)
}

const divider = "----------------------------------------------------------------"

func runList(cmd *cobra.Command, args []string) error {
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
	switch kind {
	case database.KindProduction:
		data, err := db.ListProduction(zone, false)
		if err != nil {
			return fmt.Errorf("listing production for %s: %w", zone, err)
		}
		printProduction(zone, limit(data, listLimit))
	case database.KindConsumption:
		data, err := db.ListConsumption(zone, false)
		if err != nil {
			return fmt.Errorf("listing consumption for %s: %w", zone, err)
		}
		printConsumption(zone, limit(data, listLimit))
	case database.KindPrice:
		data, err := db.ListPrices(zone, false)
		if err != nil {
			return fmt.Errorf("listing prices for %s: %w", zone, err)
		}
		printPrices(zone, limit(data, listLimit))
	}

	return nil
}

func limit[T any](data []T, n int) []T {
	if n > 0 && len(data) > n {
		return data[:n]
	}
	return data
}

func megawatts(v float64) string {
	return humanize.CommafWithDigits(v, 1)
}

func printProduction(zone string, data []models.ProductionBreakdown) {
	if len(data) == 0 {
		fmt.Printf("No production data found for %s\n", zone)
		return
	}

	fmt.Printf("\n%s Production (MW):\n", zone)
	fmt.Println(divider)
	for _, r := range data {
		parts := make([]string, 0, len(models.Categories)+1)
		for _, c := range models.Categories {
			if v, ok := r.Production[c]; ok {
				parts = append(parts, fmt.Sprintf("%s=%s", c, megawatts(v)))
			}
		}
		if v, ok := r.Storage[models.Hydro]; ok {
			parts = append(parts, fmt.Sprintf("storage=%s", megawatts(v)))
		}
		fmt.Printf("%-16s  %-14s  %s\n", r.Datetime.Format("2006-01-02 15:04"), humanize.Time(r.Datetime), strings.Join(parts, " "))
	}
	fmt.Println(divider)
	fmt.Printf("%s records\n", humanize.Comma(int64(len(data))))
}

func printConsumption(zone string, data []models.TotalConsumption) {
	if len(data) == 0 {
		fmt.Printf("No consumption data found for %s\n", zone)
		return
	}

	fmt.Printf("\n%s Consumption:\n", zone)
	fmt.Println(divider)
	fmt.Printf("%-16s  %-14s  %12s\n", "Datetime", "Age", "MW")
	fmt.Println(divider)
	for _, r := range data {
		fmt.Printf("%-16s  %-14s  %12s\n", r.Datetime.Format("2006-01-02 15:04"), humanize.Time(r.Datetime), megawatts(r.Consumption))
	}
	fmt.Println(divider)
	fmt.Printf("%s records\n", humanize.Comma(int64(len(data))))
}

func printPrices(zone string, data []models.Price) {
	if len(data) == 0 {
		fmt.Printf("No price data found for %s\n", zone)
		return
	}

	fmt.Printf("\n%s Prices (%s/MWh):\n", zone, data[0].Currency)
	fmt.Println(divider)
	fmt.Printf("%-16s  %-14s  %12s\n", "Datetime", "Age", "Price")
	fmt.Println(divider)

	var total float64
	for _, r := range data {
		fmt.Printf("%-16s  %-14s  %12s\n", r.Datetime.Format("2006-01-02 15:04"), humanize.Time(r.Datetime), humanize.CommafWithDigits(r.Price, 2))
		total += r.Price
	}
	fmt.Println(divider)
	fmt.Printf("Average: %s (%d records)\n", humanize.CommafWithDigits(total/float64(len(data)), 2), len(data))
}
