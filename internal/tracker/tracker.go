package tracker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/scrape"
	"go.uber.org/zap"
)

// Tracker orchestrates a full run: scrape every tracked bike across the
// enabled sources, diff against the store, and expire stale listings.
type Tracker struct {
	db       *database.DB
	scrapers []scrape.Scraper
	config   *config.Config
	logger   *zap.Logger
}

// New creates a new Tracker
func New(db *database.DB, scrapers []scrape.Scraper, cfg *config.Config, logger *zap.Logger) *Tracker {
	return &Tracker{
		db:       db,
		scrapers: scrapers,
		config:   cfg,
		logger:   logger.Named("tracker"),
	}
}

// Options configures the run behavior
type Options struct {
	Bikes     []string         // Override the configured bikes file
	SkipSleep bool             // Disable the polite sleep between bikes
	Progress  ProgressCallback // Optional progress callback
}

// Result contains the results of a tracking run
type Result struct {
	RunID         string
	BikesTracked  int
	ListingsFound int
	NewListings   []database.Listing
	PriceDrops    []database.Listing
	StaleRemoved  int
	BySource      map[string]int
	Errors        []error
}

// Run executes a tracking run with default options
func (t *Tracker) Run(ctx context.Context) (*Result, error) {
	return t.RunWithOptions(ctx, Options{})
}

// RunWithOptions executes a tracking run. Per-source scrape failures are
// collected into Result.Errors and the run continues; only store failures
// and context cancellation abort it.
func (t *Tracker) RunWithOptions(ctx context.Context, opts Options) (*Result, error) {
	report := func(phase ProgressPhase, current, total int, desc string) {
		if opts.Progress != nil {
			opts.Progress(Progress{
				Phase:       phase,
				Current:     current,
				Total:       total,
				Description: desc,
			})
		}
	}

	bikes := opts.Bikes
	if len(bikes) == 0 {
		loaded, err := t.config.LoadBikes()
		if err != nil {
			return nil, fmt.Errorf("failed to load bikes file: %w", err)
		}
		bikes = loaded
	}
	if len(bikes) == 0 {
		return nil, fmt.Errorf("no bikes to track (is %s empty?)", t.config.BikesFile)
	}

	run := &database.Run{}
	if err := t.db.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	result := &Result{
		RunID:        run.ID,
		BikesTracked: len(bikes),
		BySource:     map[string]int{},
	}
	seenIDs := map[string]bool{}

	for i, bike := range bikes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		report(PhaseScraping, i+1, len(bikes), bike)
		t.logger.Info("tracking bike", zap.String("bike", bike))

		merged := t.scrapeBike(ctx, bike, result)
		result.ListingsFound += len(merged)

		report(PhasePersisting, i+1, len(bikes), bike)
		for id, l := range merged {
			seenIDs[id] = true
			if err := t.persistListing(ctx, l, result); err != nil {
				return result, fmt.Errorf("failed to store listing %s: %w", id, err)
			}
		}

		// One polite sleep per bike, not per source
		if !opts.SkipSleep && i < len(bikes)-1 {
			if err := t.sleep(ctx); err != nil {
				return result, err
			}
		}
	}

	// Expire listings that vanished from live sources. Cache-backed sources
	// are skipped: absence there only means the snapshot aged.
	report(PhaseCleanup, 0, 0, "Removing stale listings")
	liveSources := []string{}
	for _, s := range t.scrapers {
		if s.Live() {
			liveSources = append(liveSources, s.Source())
		}
	}
	removed, err := t.db.DeleteStaleListings(ctx, liveSources, seenIDs)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("stale cleanup failed: %w", err))
	} else {
		result.StaleRemoved = removed
		if removed > 0 {
			t.logger.Info("removed stale listings", zap.Int("count", removed))
		}
	}

	run.BikesTracked = result.BikesTracked
	run.ListingsFound = result.ListingsFound
	run.NewListings = len(result.NewListings)
	run.PriceDrops = len(result.PriceDrops)
	run.StaleRemoved = result.StaleRemoved
	if err := t.db.FinishRun(ctx, run); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("failed to finish run record: %w", err))
	}

	return result, nil
}

// scrapeBike fans one search term out to every scraper concurrently and
// merges the results. Individual scraper failures become Result.Errors.
func (t *Tracker) scrapeBike(ctx context.Context, bike string, result *Result) map[string]scrape.Listing {
	merged := map[string]scrape.Listing{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, scraper := range t.scrapers {
		wg.Add(1)
		go func(s scrape.Scraper) {
			defer wg.Done()

			listings, err := s.Scrape(ctx, bike)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors,
					fmt.Errorf("[%s] %s: %w", s.Source(), bike, err))
				return
			}
			for id, l := range listings {
				if _, dup := merged[id]; !dup {
					merged[id] = l
				}
			}
		}(scraper)
	}
	wg.Wait()

	return merged
}

func (t *Tracker) persistListing(ctx context.Context, l scrape.Listing, result *Result) error {
	dbListing := &database.Listing{
		ID:         l.ID,
		SearchTerm: l.SearchTerm,
		Source:     l.Source,
		Title:      l.Title,
		Price:      l.Price,
		URL:        l.URL,
		Kilometers: optional(l.Kilometers),
		Location:   optional(l.Location),
		Condition:  optional(l.Condition),
	}

	upsert, err := t.db.UpsertListing(ctx, dbListing)
	if err != nil {
		return err
	}

	result.BySource[l.Source]++

	if upsert.IsNew {
		result.NewListings = append(result.NewListings, *dbListing)
		t.logger.Info("new listing",
			zap.String("source", l.Source),
			zap.String("title", l.Title),
			zap.String("price", l.Price))
	}
	if upsert.PriceDrop {
		dropped := *dbListing
		dropped.PriceDrop = true
		dropped.OldPrice = &upsert.OldPrice
		result.PriceDrops = append(result.PriceDrops, dropped)
		t.logger.Info("price drop",
			zap.String("title", l.Title),
			zap.String("old_price", upsert.OldPrice),
			zap.String("new_price", l.Price))
	}
	return nil
}

// sleep waits a random interval between the configured bounds
func (t *Tracker) sleep(ctx context.Context) error {
	min := t.config.HTTP.SleepMinSeconds
	max := t.config.HTTP.SleepMaxSeconds
	if max <= min {
		max = min
	}
	d := time.Duration((min + rand.Float64()*(max-min)) * float64(time.Second))
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// optional maps absent source fields ("" or the sources' "N/A" filler) to
// NULL so reports can apply their own placeholder.
func optional(s string) *string {
	if s == "" || s == "N/A" {
		return nil
	}
	return &s
}
