package scrape

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/match"
	"go.uber.org/zap"
)

// WeBuyCars searches the local snapshot instead of hitting the site. Every
// cached vehicle is compared against every search variation, which is why
// its strategy carries the cheap make+model prefilter.
type WeBuyCars struct {
	cache    *Cache
	strategy match.Strategy
	logger   *zap.Logger
}

// NewWeBuyCars builds the cache-backed WeBuyCars scraper
func NewWeBuyCars(cache *Cache, strategy match.Strategy, logger *zap.Logger) *WeBuyCars {
	return &WeBuyCars{
		cache:    cache,
		strategy: strategy,
		logger:   logger.Named("webuycars"),
	}
}

// Source implements Scraper
func (w *WeBuyCars) Source() string { return config.SourceDisplayName(config.SourceWeBuyCars) }

// Scrape implements Scraper. No HTTP happens here; a missing or empty
// snapshot yields an error telling the operator to run a cache refresh.
func (w *WeBuyCars) Scrape(ctx context.Context, searchTerm string) (map[string]Listing, error) {
	if err := config.ValidateSearchTerm(searchTerm); err != nil {
		return nil, err
	}

	snapshot, err := w.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("webuycars cache unavailable, run 'mototrack cache refresh': %w", err)
	}
	if len(snapshot.Listings) == 0 {
		return nil, fmt.Errorf("webuycars cache is empty, run 'mototrack cache refresh'")
	}

	variations := match.Variations(searchTerm)
	if len(variations) > 1 {
		w.logger.Debug("trying search variations",
			zap.String("search_term", searchTerm),
			zap.Int("count", len(variations)))
	}

	listings := map[string]Listing{}

	for _, variation := range variations {
		if err := ctx.Err(); err != nil {
			return listings, err
		}
		for id, cached := range snapshot.Listings {
			if _, dup := listings[id]; dup {
				continue
			}

			candidate := match.Candidate{
				Title: cached.Title,
				Make:  cached.Make,
				Model: cached.Model,
			}
			// Unlike the live sources, the matcher here is judged against
			// each variation, not the original term. There is no site search
			// to hand the variation to: the only way "BMW G310" can find
			// stock that "BMW G 310" misses is through the matcher itself.
			if !w.strategy.Relevant(variation, candidate) {
				continue
			}

			location := cached.Location
			if location == "" {
				location = "N/A"
			}

			// Grouped under the ORIGINAL search term, not the variation
			listings[id] = Listing{
				ID:         id,
				SearchTerm: searchTerm,
				Source:     w.Source(),
				Title:      cached.Title,
				Price:      formatPrice(cached.Price),
				URL:        cached.URL,
				Kilometers: formatKilometers(cached.Kilometers),
				Location:   location,
				Condition:  "N/A",
			}
		}
	}

	w.logger.Info("cache search complete",
		zap.String("search_term", searchTerm),
		zap.Int("listings", len(listings)))
	return listings, nil
}

// formatPrice renders a numeric price as "R 61,800"
func formatPrice(price float64) string {
	if price <= 0 {
		return "N/A"
	}
	return "R " + groupThousands(int64(price))
}

// formatKilometers renders numeric mileage as "12,345 km"
func formatKilometers(km float64) string {
	if km <= 0 {
		return "N/A"
	}
	return groupThousands(int64(km)) + " km"
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

// Live implements Scraper
func (w *WeBuyCars) Live() bool { return false }
