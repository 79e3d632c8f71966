package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/match"
	"github.com/dwcoetzee/mototrack/internal/output"
	"github.com/dwcoetzee/mototrack/internal/report"
	"github.com/dwcoetzee/mototrack/internal/scrape"
	"github.com/dwcoetzee/mototrack/internal/tracker"
)

var (
	runBikes    []string
	runNoSleep  bool
	runNoReport bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape all sources and update the listing store",
	Long: `Run scrapes every enabled source for each tracked bike, records new
listings and price changes, removes stale listings and regenerates the
HTML and Excel reports.

Examples:
  mototrack run                        # Track every bike in the bikes file
  mototrack run --bike "Honda CB500X"  # Track a single model
  mototrack run --no-sleep             # Skip the polite delay between bikes
  mototrack run --no-report            # Update the store without reports`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayVar(&runBikes, "bike", nil, "Track only this model (repeatable, overrides the bikes file)")
	runCmd.Flags().BoolVar(&runNoSleep, "no-sleep", false, "Skip the randomized delay between bikes")
	runCmd.Flags().BoolVar(&runNoReport, "no-report", false, "Skip HTML/Excel report generation")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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

	scrapers, err := buildScrapers(cfg, logger)
	if err != nil {
		return err
	}

	warnStaleCache(cfg)

	t := tracker.New(db, scrapers, cfg, logger)

	opts := tracker.Options{
		Bikes:     runBikes,
		SkipSleep: runNoSleep,
	}

	// Set up progress display with terminal utilities
	var lastPhase tracker.ProgressPhase
	var phaseStartTime time.Time
	terminal := NewTerminal()

	opts.Progress = func(p tracker.Progress) {
		if p.Phase != lastPhase {
			phaseStartTime = time.Now()
		}
		p.StartedAt = phaseStartTime

		terminal.ClearLine()

		var msg string
		switch p.Phase {
		case tracker.PhaseScraping:
			var eta string
			if etaDur := p.ETA(); etaDur > 0 {
				eta = fmt.Sprintf(" (ETA: %s)", FormatETA(etaDur))
			}
			msg = fmt.Sprintf("Scraping %d/%d: %s%s", p.Current, p.Total, p.Description, eta)
		case tracker.PhasePersisting:
			msg = fmt.Sprintf("%s Saving listings...", terminal.Spinner())
		case tracker.PhaseCleanup:
			msg = fmt.Sprintf("%s Removing stale listings...", terminal.Spinner())
		}

		if terminal.UseColor {
			msg = terminal.Color(PhaseColor(string(p.Phase)), msg)
		}

		if terminal.IsTerminal {
			fmt.Print(msg)
			terminal.Flush()
		} else if p.Phase != lastPhase || p.Phase == tracker.PhaseScraping {
			fmt.Println(msg)
		}
		lastPhase = p.Phase
	}

	result, err := t.RunWithOptions(ctx, opts)

	terminal.ClearLine()

	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if !runNoReport {
		if err := writeReports(cmd, cfg, db, logger); err != nil {
			return err
		}
	}

	return output.Output(outputFmt, result)
}

// buildScrapers constructs one scraper per enabled source, each with its
// configured matching strategy.
func buildScrapers(cfg *config.Config, logger *zap.Logger) ([]scrape.Scraper, error) {
	fetcher := scrape.NewFetcher(cfg.HTTP)

	var scrapers []scrape.Scraper
	for _, source := range cfg.Sources.Enabled {
		strategy, err := match.ForSource(source, cfg.Thresholds)
		if err != nil {
			return nil, err
		}

		switch source {
		case config.SourceAutoTrader:
			scrapers = append(scrapers, scrape.NewAutoTrader(fetcher, cfg, strategy, logger))
		case config.SourceGumtree:
			scrapers = append(scrapers, scrape.NewGumtree(fetcher, cfg, strategy, logger))
		case config.SourceWeBuyCars:
			cache := scrape.NewCache(cfg.Cache.Path, logger)
			scrapers = append(scrapers, scrape.NewWeBuyCars(cache, strategy, logger))
		}
	}
	return scrapers, nil
}

// warnStaleCache prints a reminder when the WeBuyCars snapshot is missing
// or older than the configured maximum.
func warnStaleCache(cfg *config.Config) {
	if !cfg.Sources.IsEnabled(config.SourceWeBuyCars) {
		return
	}

	cache := scrape.NewCache(cfg.Cache.Path, nil)
	snapshot, err := cache.Load()
	if err != nil {
		fmt.Println("Warning: no WeBuyCars snapshot found. Run 'mototrack cache refresh' first.")
		return
	}

	maxAge := time.Duration(cfg.Cache.MaxAgeHours) * time.Hour
	if snapshot.Age() > maxAge {
		fmt.Printf("Warning: WeBuyCars snapshot is %s old (max %dh). Run 'mototrack cache refresh'.\n",
			snapshot.Age().Round(time.Hour), cfg.Cache.MaxAgeHours)
	}
}

func writeReports(cmd *cobra.Command, cfg *config.Config, db *database.DB, logger *zap.Logger) error {
	ctx := cmd.Context()

	listings, err := db.ListListings(ctx, database.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to load listings for report: %w", err)
	}

	bikes, err := cfg.LoadBikes()
	if err != nil {
		bikes = nil
	}

	gen := report.NewGenerator(cfg.Report.HTMLPath, cfg.Report.ExcelPath, logger)
	data := &report.Data{
		Listings:     listings,
		BikesTracked: bikes,
		GeneratedAt:  time.Now(),
	}
	if err := gen.WriteAll(data); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	fmt.Printf("Reports written: %s, %s\n", cfg.Report.HTMLPath, cfg.Report.ExcelPath)
	return nil
}
