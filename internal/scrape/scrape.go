// Package scrape collects motorcycle listings from the supported sources.
// AutoTrader and Gumtree are scraped live over HTTP; WeBuyCars is searched
// from a local API snapshot maintained by the cache refresher.
package scrape

import "context"

// Listing is a scraped advert before persistence. Kilometers, Location and
// Condition default to "N/A" when the source does not expose them.
type Listing struct {
	ID         string
	SearchTerm string
	Source     string
	Title      string
	Price      string
	URL        string
	Kilometers string
	Location   string
	Condition  string
}

// Scraper finds listings relevant to a "Brand Model" search term. Results
// are keyed by source-prefixed listing ID so merging across sources never
// collides.
type Scraper interface {
	Source() string
	Scrape(ctx context.Context, searchTerm string) (map[string]Listing, error)
	// Live reports whether results come from the site itself. Stale cleanup
	// only trusts live sources: absence from a cache-backed source means the
	// snapshot is old, not that the bike sold.
	Live() bool
}
