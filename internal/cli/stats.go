package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/output"
)

var statsRuns int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics and recent runs",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsRuns, "runs", 5, "Number of recent runs to show (0 = none)")
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats, err := db.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	if err := output.Output(outputFmt, stats); err != nil {
		return err
	}

	if statsRuns > 0 && outputFmt == "table" {
		runs, err := db.ListRuns(ctx, statsRuns)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) > 0 {
			fmt.Println()
			fmt.Println("Recent runs:")
			if err := output.Table(runs); err != nil {
				return err
			}
		}
	}
	return nil
}
