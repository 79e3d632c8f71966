package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/output"
)

var (
	listBike   string
	listSource string
	listDrops  bool
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored listings",
	Long: `List shows the listings currently in the store.

Examples:
  mototrack list                        # Everything
  mototrack list --bike "Honda CB500X"  # One tracked model
  mototrack list --source autotrader    # One source
  mototrack list --drops                # Price drops only
  mototrack list -o json                # JSON output`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listBike, "bike", "", "Filter by tracked model (search term)")
	listCmd.Flags().StringVar(&listSource, "source", "", "Filter by source (autotrader, gumtree, webuycars)")
	listCmd.Flags().BoolVar(&listDrops, "drops", false, "Show only listings with a price drop")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of listings (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
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

	// The flag takes lowercase source names; stored listings carry the
	// display name.
	source := listSource
	if source != "" {
		source = config.SourceDisplayName(source)
	}

	listings, err := db.ListListings(ctx, database.ListOptions{
		SearchTerm: listBike,
		Source:     source,
		DropsOnly:  listDrops,
		Limit:      listLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list listings: %w", err)
	}

	return output.Output(outputFmt, listings)
}
