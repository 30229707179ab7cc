package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgoulah/kpxscraper/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with every default filled in",
	Long: `Writes config.yaml (or the --config / $KPXSCRAPER_CONFIG path) with the
default zone, timezone, operator URLs and a disabled MQTT section to edit.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	if err := writeDefaultConfig(path, configForce); err != nil {
		return err
	}
	fmt.Printf("✓ Config written to %s\n", path)
	return nil
}

// writeDefaultConfig saves the defaults to path, refusing to overwrite unless force is set
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	if err := config.Save(path, config.Defaults()); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
