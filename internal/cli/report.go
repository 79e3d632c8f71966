package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/database"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate the HTML and Excel reports from the store",
	Long: `Report rebuilds the static reports from the listings already in the
store, without scraping. Useful after editing report paths or when
publishing the HTML page.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := cfg.Logging.BuildLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return writeReports(cmd, cfg, db, logger)
}
