package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/scrape"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the WeBuyCars listing snapshot",
	Long: `WeBuyCars stock is fetched in bulk from their search API and kept in
a local snapshot file. The run command searches that snapshot instead of
hitting the site for every bike.

Refresh the snapshot periodically:
  mototrack cache refresh
  mototrack cache status`,
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the full WeBuyCars motorcycle stock into the snapshot",
	RunE:  runCacheRefresh,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show snapshot age and listing count",
	RunE:  runCacheStatus,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheRefreshCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
}

func runCacheRefresh(cmd *cobra.Command, args []string) error {
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

	fetcher := scrape.NewFetcher(cfg.HTTP)
	cache := scrape.NewCache(cfg.Cache.Path, logger)
	refresher := scrape.NewRefresher(fetcher, cfg.Sources.WeBuyCarsAPIURL, cache, logger)

	fmt.Println("Refreshing WeBuyCars snapshot...")
	start := time.Now()

	count, err := refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	fmt.Printf("Snapshot updated: %d listings in %s (%s)\n",
		count, time.Since(start).Round(time.Second), cfg.Cache.Path)
	return nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cache := scrape.NewCache(cfg.Cache.Path, nil)
	snapshot, err := cache.Load()
	if err != nil {
		fmt.Printf("No snapshot at %s. Run 'mototrack cache refresh' to create one.\n", cfg.Cache.Path)
		return nil
	}

	age := snapshot.Age().Round(time.Minute)
	fmt.Printf("Snapshot:  %s\n", cfg.Cache.Path)
	fmt.Printf("Fetched:   %s (%s ago)\n", snapshot.DateFormatted, age)
	fmt.Printf("Listings:  %d\n", snapshot.TotalListings)

	maxAge := time.Duration(cfg.Cache.MaxAgeHours) * time.Hour
	if snapshot.Age() > maxAge {
		fmt.Printf("\nSnapshot is older than %dh. Run 'mototrack cache refresh'.\n", cfg.Cache.MaxAgeHours)
	}
	return nil
}
