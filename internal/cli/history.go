package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history <listing-id>",
	Short: "Show the price history of a listing",
	Long: `History shows every price observed for a listing, oldest first.

Listing ids are source-prefixed, e.g. autotrader_8139343 or gt_1302023841.
Find them with 'mototrack list -o json'.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	listingID := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	listing, err := db.GetListing(ctx, listingID)
	if err != nil {
		return fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return fmt.Errorf("no listing with id %s", listingID)
	}

	points, err := db.ListPricePoints(ctx, listingID)
	if err != nil {
		return fmt.Errorf("failed to load price history: %w", err)
	}

	if outputFmt == "table" {
		fmt.Printf("%s - %s (%s)\n\n", listing.Title, listing.Price, listing.Source)
	}

	return output.Output(outputFmt, points)
}
