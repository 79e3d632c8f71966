package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/scrape"
	"go.uber.org/zap"
)

// stubScraper returns canned listings per search term
type stubScraper struct {
	source   string
	live     bool
	listings map[string]map[string]scrape.Listing
	err      error
}

func (s *stubScraper) Source() string { return s.source }
func (s *stubScraper) Live() bool     { return s.live }

func (s *stubScraper) Scrape(_ context.Context, searchTerm string) (map[string]scrape.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]scrape.Listing{}
	for id, l := range s.listings[searchTerm] {
		out[id] = l
	}
	return out, nil
}

func stubListing(id, term, source, title, price string) scrape.Listing {
	return scrape.Listing{
		ID:         id,
		SearchTerm: term,
		Source:     source,
		Title:      title,
		Price:      price,
		URL:        "https://example.com/" + id,
		Kilometers: "N/A",
		Location:   "Cape Town",
		Condition:  "Used",
	}
}

func setupTracker(t *testing.T, scrapers []scrape.Scraper) (*Tracker, *database.DB) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mototrack-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	db, err := database.Open(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.HTTP.SleepMinSeconds = 0
	cfg.HTTP.SleepMaxSeconds = 0

	return New(db, scrapers, cfg, zap.NewNop()), db
}

func TestRunNewListings(t *testing.T) {
	term := "Suzuki V-Strom 250"
	autotrader := &stubScraper{
		source: "AutoTrader",
		live:   true,
		listings: map[string]map[string]scrape.Listing{
			term: {
				"autotrader_1": stubListing("autotrader_1", term, "AutoTrader", "2022 Suzuki V-Strom 250 SX", "R 65,000"),
				"autotrader_2": stubListing("autotrader_2", term, "AutoTrader", "2021 Suzuki V-Strom 250", "R 58,500"),
			},
		},
	}
	gumtree := &stubScraper{
		source: "Gumtree",
		live:   true,
		listings: map[string]map[string]scrape.Listing{
			term: {
				"gt_9": stubListing("gt_9", term, "Gumtree", "Suzuki V-Strom 250 for sale", "R 60,000"),
			},
		},
	}

	tracker, db := setupTracker(t, []scrape.Scraper{autotrader, gumtree})
	result, err := tracker.RunWithOptions(context.Background(), Options{
		Bikes:     []string{term},
		SkipSleep: true,
	})
	if err != nil {
		t.Fatalf("RunWithOptions failed: %v", err)
	}

	if result.BikesTracked != 1 {
		t.Errorf("expected BikesTracked=1, got %d", result.BikesTracked)
	}
	if result.ListingsFound != 3 {
		t.Errorf("expected ListingsFound=3, got %d", result.ListingsFound)
	}
	if len(result.NewListings) != 3 {
		t.Errorf("expected 3 new listings, got %d", len(result.NewListings))
	}
	if len(result.PriceDrops) != 0 {
		t.Errorf("expected no price drops on first run, got %d", len(result.PriceDrops))
	}
	if result.BySource["AutoTrader"] != 2 || result.BySource["Gumtree"] != 1 {
		t.Errorf("unexpected source breakdown: %v", result.BySource)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	// Second identical run finds nothing new
	result, err = tracker.RunWithOptions(context.Background(), Options{
		Bikes:     []string{term},
		SkipSleep: true,
	})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(result.NewListings) != 0 {
		t.Errorf("expected no new listings on repeat run, got %d", len(result.NewListings))
	}

	// Run history was recorded
	runs, err := db.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs recorded, got %d", len(runs))
	}
	if runs[0].FinishedAt == nil {
		t.Error("expected run to be finished")
	}
}

func TestRunPriceDrop(t *testing.T) {
	term := "Suzuki V-Strom 250"
	scraper := &stubScraper{
		source: "AutoTrader",
		live:   true,
		listings: map[string]map[string]scrape.Listing{
			term: {
				"autotrader_1": stubListing("autotrader_1", term, "AutoTrader", "2022 Suzuki V-Strom 250 SX", "R 65,000"),
			},
		},
	}

	tracker, db := setupTracker(t, []scrape.Scraper{scraper})
	opts := Options{Bikes: []string{term}, SkipSleep: true}

	if _, err := tracker.RunWithOptions(context.Background(), opts); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	scraper.listings[term]["autotrader_1"] = stubListing(
		"autotrader_1", term, "AutoTrader", "2022 Suzuki V-Strom 250 SX", "R 59,999")

	result, err := tracker.RunWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(result.PriceDrops) != 1 {
		t.Fatalf("expected 1 price drop, got %d", len(result.PriceDrops))
	}
	drop := result.PriceDrops[0]
	if drop.OldPrice == nil || *drop.OldPrice != "R 65,000" {
		t.Errorf("expected old price R 65,000, got %v", drop.OldPrice)
	}
	if drop.Price != "R 59,999" {
		t.Errorf("unexpected new price: %s", drop.Price)
	}

	// Price history has both observations
	points, err := db.ListPricePoints(context.Background(), "autotrader_1")
	if err != nil {
		t.Fatalf("ListPricePoints failed: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 price points, got %d", len(points))
	}
}

func TestRunStaleCleanup(t *testing.T) {
	term := "Suzuki V-Strom 250"
	live := &stubScraper{
		source: "AutoTrader",
		live:   true,
		listings: map[string]map[string]scrape.Listing{
			term: {
				"autotrader_1": stubListing("autotrader_1", term, "AutoTrader", "2022 Suzuki V-Strom 250 SX", "R 65,000"),
				"autotrader_2": stubListing("autotrader_2", term, "AutoTrader", "2021 Suzuki V-Strom 250", "R 58,500"),
			},
		},
	}
	cached := &stubScraper{
		source: "WeBuyCars",
		live:   false,
		listings: map[string]map[string]scrape.Listing{
			term: {
				"webuycars_S1": stubListing("webuycars_S1", term, "WeBuyCars", "2021 Suzuki V-Strom 250 ABS", "R 61,800"),
			},
		},
	}

	tracker, db := setupTracker(t, []scrape.Scraper{live, cached})
	opts := Options{Bikes: []string{term}, SkipSleep: true}

	if _, err := tracker.RunWithOptions(context.Background(), opts); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// autotrader_2 sells, and the cache-backed source goes quiet entirely
	delete(live.listings[term], "autotrader_2")
	cached.listings[term] = map[string]scrape.Listing{}

	result, err := tracker.RunWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if result.StaleRemoved != 1 {
		t.Errorf("expected 1 stale listing removed, got %d", result.StaleRemoved)
	}

	ctx := context.Background()
	if l, _ := db.GetListing(ctx, "autotrader_2"); l != nil {
		t.Error("expected sold listing to be removed")
	}
	if l, _ := db.GetListing(ctx, "webuycars_S1"); l == nil {
		t.Error("cache-backed listing must survive absence from a run")
	}
}

func TestRunCollectsScraperErrors(t *testing.T) {
	term := "Suzuki V-Strom 250"
	working := &stubScraper{
		source: "AutoTrader",
		live:   true,
		listings: map[string]map[string]scrape.Listing{
			term: {
				"autotrader_1": stubListing("autotrader_1", term, "AutoTrader", "2022 Suzuki V-Strom 250 SX", "R 65,000"),
			},
		},
	}
	broken := &stubScraper{
		source: "Gumtree",
		live:   true,
		err:    errors.New("connection refused"),
	}

	tracker, _ := setupTracker(t, []scrape.Scraper{working, broken})
	result, err := tracker.RunWithOptions(context.Background(), Options{
		Bikes:     []string{term},
		SkipSleep: true,
	})
	if err != nil {
		t.Fatalf("run should survive a failing source: %v", err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 collected error, got %d: %v", len(result.Errors), result.Errors)
	}
	if len(result.NewListings) != 1 {
		t.Errorf("expected the working source to still persist, got %d new", len(result.NewListings))
	}
}

func TestRunNoBikes(t *testing.T) {
	tracker, _ := setupTracker(t, nil)
	tracker.config.BikesFile = filepath.Join(t.TempDir(), "missing-bikes.txt")

	if _, err := tracker.Run(context.Background()); err == nil {
		t.Error("expected error when bikes file is missing")
	}
}

func TestProgressCallback(t *testing.T) {
	term := "Suzuki V-Strom 250"
	scraper := &stubScraper{
		source: "AutoTrader",
		live:   true,
		listings: map[string]map[string]scrape.Listing{
			term: {
				"autotrader_1": stubListing("autotrader_1", term, "AutoTrader", "2022 Suzuki V-Strom 250 SX", "R 65,000"),
			},
		},
	}

	tracker, _ := setupTracker(t, []scrape.Scraper{scraper})

	phases := map[ProgressPhase]bool{}
	_, err := tracker.RunWithOptions(context.Background(), Options{
		Bikes:     []string{term},
		SkipSleep: true,
		Progress: func(p Progress) {
			phases[p.Phase] = true
		},
	})
	if err != nil {
		t.Fatalf("RunWithOptions failed: %v", err)
	}

	for _, phase := range []ProgressPhase{PhaseScraping, PhasePersisting, PhaseCleanup} {
		if !phases[phase] {
			t.Errorf("expected progress callback for phase %s", phase)
		}
	}
}
