package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgoulah/kpxscraper/internal/config"
	"github.com/jgoulah/kpxscraper/internal/scraper"
)

var (
	debugVisible bool
	debugOutput  string
)

var debugCmd = &cobra.Command{
	Use:   "debug [realtime|price|long-term]",
	Short: "Render an operator page in a browser and save its HTML",
	Long: `Opens the operator page in a headless (or visible) browser and saves the
rendered HTML, for capturing test fixtures or inspecting layout changes.

Flags:
  --visible    Open visible browser and pause for inspection
  --output     Save HTML to file instead of printing it`,
	Args: cobra.ExactArgs(1),
	RunE: runDebug,
}

func init() {
	debugCmd.Flags().BoolVar(&debugVisible, "visible", false, "Open visible browser and pause")
	debugCmd.Flags().StringVar(&debugOutput, "output", "", "Save HTML to this file")
	rootCmd.AddCommand(debugCmd)
}

// debugPageURL maps a page name to its configured URL
func debugPageURL(cfg *config.Config, page string) (string, error) {
	switch page {
	case "realtime":
		return cfg.GetRealtimeURL(), nil
	case "price":
		return cfg.GetPriceURL(), nil
	case "long-term":
		return cfg.GetLongTermURL(), nil
	default:
		return "", fmt.Errorf("unknown page: %s (available: realtime, price, long-term)", page)
	}
}

func runDebug(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pageURL, err := debugPageURL(cfg, args[0])
	if err != nil {
		return err
	}

	browserCtx, cancel := scraper.NewBrowser(scraper.BrowserOptions{
		Visible:            debugVisible,
		InsecureSkipVerify: cfg.GetInsecureSkipVerify(),
	})
	defer cancel()

	fmt.Printf("Navigating to %s...\n", pageURL)

	html, err := scraper.RenderPage(browserCtx, pageURL)
	if err != nil {
		return err
	}

	cookies, err := scraper.PageCookies(browserCtx)
	if err != nil {
		fmt.Printf("⚠ Could not read cookies: %v\n", err)
	} else {
		fmt.Printf("Page set %d cookie(s):\n", len(cookies))
		for _, c := range cookies {
			fmt.Printf("  %s (domain %s, path %s)\n", c.Name, c.Domain, c.Path)
		}
	}

	if debugOutput != "" {
		if err := os.WriteFile(debugOutput, []byte(html), 0644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		fmt.Printf("✓ HTML saved to %s\n", debugOutput)
	} else if !debugVisible {
		fmt.Println(html)
	}

	if debugVisible {
		fmt.Println("\nBrowser is open. Inspect the page, then press Enter to close...")
		fmt.Scanln()
	}

	return nil
}
