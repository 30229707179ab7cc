package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/kpxscraper/internal/database"
	"github.com/jgoulah/kpxscraper/internal/publisher"
)

var (
	publishKinds []string
	publishAll   bool
	publishLimit int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish stored records to MQTT",
	Long: `Reads stored records from the database and publishes each one as JSON to
<topic_prefix>/<zone>/<kind> on the configured MQTT broker.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringSliceVar(&publishKinds, "kind", nil, "Record kinds to publish (default: all kinds)")
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Force republish all records (ignore published flag)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of records to publish per kind (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

// pending is one stored record waiting to be published
type pending struct {
	id     int
	label  string
	record any
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	kinds := publishKinds
	if len(kinds) == 0 {
		kinds = recordKinds
	}
	for _, k := range kinds {
		if err := validateKind(k); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.GetLocation()
	if err != nil {
		return err
	}

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	db, err := openDB(loc)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	zone := cfg.GetZoneKey()
	totalPublished := 0
	for _, kind := range kinds {
		data, err := loadPending(db, kind, zone, !publishAll)
		if err != nil {
			return fmt.Errorf("listing %s for %s: %w", kind, zone, err)
		}

		if len(data) == 0 {
			if publishAll {
				fmt.Printf("No %s data found for %s\n", kind, zone)
			} else {
				fmt.Printf("No unpublished %s data found for %s\n", kind, zone)
			}
			continue
		}

		if publishLimit > 0 && len(data) > publishLimit {
			data = data[:publishLimit]
			fmt.Printf("Limiting to %d records (--limit flag)\n", publishLimit)
		}

		fmt.Printf("Publishing %d %s records to %s...\n", len(data), kind, pub.Topic(zone, kind))
		published := 0
		for i, p := range data {
			fmt.Printf("[%d/%d] Publishing %s... ", i+1, len(data), p.label)
			if err := pub.Publish(zone, kind, p.record); err != nil {
				fmt.Printf("FAILED: %v\n", err)
				continue
			}

			if err := db.MarkPublished(kind, p.id); err != nil {
				fmt.Printf("✓ (warning: failed to mark as published: %v)\n", err)
			} else {
				fmt.Printf("✓\n")
			}
			published++
		}

		fmt.Printf("Successfully published %d/%d %s records\n", published, len(data), kind)
		totalPublished += published
	}

	fmt.Printf("\nTotal records published: %d\n", totalPublished)
	return nil
}

// loadPending reads stored records of one kind in publish order (newest first)
func loadPending(db *database.DB, kind, zone string, onlyUnpublished bool) ([]pending, error) {
	const labelLayout = "2006-01-02 15:04"

	var out []pending
	switch kind {
	case database.KindProduction:
		rows, err := db.ListProduction(zone, onlyUnpublished)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, pending{id: r.ID, label: r.Datetime.Format(labelLayout), record: r})
		}
	case database.KindConsumption:
		rows, err := db.ListConsumption(zone, onlyUnpublished)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, pending{id: r.ID, label: fmt.Sprintf("%s (%.0f MW)", r.Datetime.Format(labelLayout), r.Consumption), record: r})
		}
	case database.KindPrice:
		rows, err := db.ListPrices(zone, onlyUnpublished)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, pending{id: r.ID, label: fmt.Sprintf("%s (%.2f %s)", r.Datetime.Format(labelLayout), r.Price, r.Currency), record: r})
		}
	default:
		return nil, fmt.Errorf("unknown record kind: %s", kind)
	}
	return out, nil
}
