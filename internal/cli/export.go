package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/output"
)

var (
	exportFormat string
	exportBike   string
	exportSource string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored listings to CSV or JSON",
	Long: `Export writes the stored listings to stdout for use in spreadsheets
or other tools.

Examples:
  mototrack export > listings.csv
  mototrack export --format json > listings.json
  mototrack export --bike "Honda CB500X" --source gumtree`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Export format (csv, json)")
	exportCmd.Flags().StringVar(&exportBike, "bike", "", "Filter by tracked model (search term)")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "Filter by source (autotrader, gumtree, webuycars)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	source := exportSource
	if source != "" {
		source = config.SourceDisplayName(source)
	}

	listings, err := db.ListListings(ctx, database.ListOptions{
		SearchTerm: exportBike,
		Source:     source,
	})
	if err != nil {
		return fmt.Errorf("failed to list listings: %w", err)
	}

	switch exportFormat {
	case "csv":
		return exportCSV(listings)
	case "json":
		return output.JSONTo(os.Stdout, listings)
	default:
		return fmt.Errorf("unknown export format %q (want csv or json)", exportFormat)
	}
}

func exportCSV(listings []database.Listing) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{
		"id", "search_term", "source", "title", "price", "kilometers",
		"location", "condition", "url", "price_dropped", "old_price",
		"found_at", "last_seen_at",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, l := range listings {
		row := []string{
			l.ID,
			l.SearchTerm,
			l.Source,
			l.Title,
			l.Price,
			csvString(l.Kilometers),
			csvString(l.Location),
			csvString(l.Condition),
			l.URL,
			fmt.Sprintf("%t", l.PriceDrop),
			csvString(l.OldPrice),
			l.FoundAt.Format(time.RFC3339),
			l.LastSeenAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func csvString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
