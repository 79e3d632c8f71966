package scrape

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/match"
	"go.uber.org/zap"
)

// AutoTrader result page selectors. The class suffixes are build hashes and
// change when the site redeploys its frontend.
const (
	autotraderTileSelector     = "a.b-result-tile__nUiUiFtR93FVbMOF"
	autotraderTitleSelector    = "span.e-make-model-title__yWb_LfShP7iz22PX"
	autotraderPriceSelector    = "h2.e-price__IA1Hxg4LkKwwRqMB"
	autotraderSpecsSelector    = ".b-vehicle-specifications__G33kWAOWZs0tmFIT"
	autotraderSpecTextSelector = ".e-text__XJ7raWOpNHUkT6ZU"
	autotraderSuburbSelector   = "span.e-suburb__eiCxIOrnXW9SrLIq"
)

// AutoTrader scrapes autotrader.co.za bike search results. Search terms are
// queried by brand URL path, so results already carry the right brand and
// relevance only needs to validate the model portion.
type AutoTrader struct {
	fetcher  *Fetcher
	baseURL  string
	siteURL  string
	strategy match.Strategy
	delay    time.Duration
	logger   *zap.Logger
}

// NewAutoTrader builds the AutoTrader scraper
func NewAutoTrader(fetcher *Fetcher, cfg *config.Config, strategy match.Strategy, logger *zap.Logger) *AutoTrader {
	base := strings.TrimSuffix(cfg.Sources.AutoTraderURL, "/")
	site := base
	if u, err := url.Parse(base); err == nil {
		site = u.Scheme + "://" + u.Host
	}
	return &AutoTrader{
		fetcher:  fetcher,
		baseURL:  base,
		siteURL:  site,
		strategy: strategy,
		delay:    time.Duration(cfg.HTTP.SleepMinSeconds * float64(time.Second)),
		logger:   logger.Named("autotrader"),
	}
}

// Source implements Scraper
func (a *AutoTrader) Source() string { return config.SourceDisplayName(config.SourceAutoTrader) }

// Scrape tries every search variation of the term and merges the relevant
// results. Relevance is always judged against the ORIGINAL search term, not
// the variation that found the page.
func (a *AutoTrader) Scrape(ctx context.Context, searchTerm string) (map[string]Listing, error) {
	if err := config.ValidateSearchTerm(searchTerm); err != nil {
		return nil, err
	}

	parts := strings.SplitN(strings.TrimSpace(searchTerm), " ", 2)
	brand := strings.ToLower(parts[0])

	variations := match.Variations(searchTerm)
	if len(variations) > 1 {
		a.logger.Debug("trying search variations",
			zap.String("search_term", searchTerm),
			zap.Int("count", len(variations)))
	}

	listings := map[string]Listing{}

	for i, variation := range variations {
		if i > 0 && a.delay > 0 {
			select {
			case <-ctx.Done():
				return listings, ctx.Err()
			case <-time.After(a.delay):
			}
		}

		varParts := strings.SplitN(variation, " ", 2)
		if len(varParts) < 2 {
			continue
		}
		model := varParts[1]
		pageURL := a.baseURL + "/" + brand + "/" + url.PathEscape(model)

		doc, err := a.fetcher.Document(ctx, pageURL)
		if err != nil {
			a.logger.Debug("variation fetch failed",
				zap.String("variation", variation), zap.Error(err))
			continue
		}

		tiles := doc.Find(autotraderTileSelector)
		if tiles.Length() == 0 {
			a.logger.Debug("no listings for variation", zap.String("variation", variation))
			continue
		}

		skipped := 0
		tiles.Each(func(_ int, tile *goquery.Selection) {
			listing, ok := a.extractListing(tile, searchTerm)
			if !ok {
				skipped++
				return
			}
			if _, dup := listings[listing.ID]; dup {
				skipped++
				return
			}
			listings[listing.ID] = listing
		})

		a.logger.Debug("variation scraped",
			zap.String("variation", variation),
			zap.Int("found", tiles.Length()),
			zap.Int("skipped", skipped))
	}

	a.logger.Info("scrape complete",
		zap.String("search_term", searchTerm),
		zap.Int("listings", len(listings)))
	return listings, nil
}

func (a *AutoTrader) extractListing(tile *goquery.Selection, searchTerm string) (Listing, bool) {
	title := strings.TrimSpace(tile.Find(autotraderTitleSelector).First().Text())
	if title == "" || title == "undefined" {
		return Listing{}, false
	}

	if !a.strategy.Relevant(searchTerm, match.Candidate{Title: title}) {
		a.logger.Debug("skipping irrelevant listing", zap.String("title", title))
		return Listing{}, false
	}

	price := strings.TrimSpace(tile.Find(autotraderPriceSelector).First().Text())
	if price == "" {
		return Listing{}, false
	}

	condition := "N/A"
	kilometers := "N/A"
	tile.Find(autotraderSpecsSelector).First().Find(autotraderSpecTextSelector).
		Each(func(_ int, spec *goquery.Selection) {
			text := strings.TrimSpace(spec.Text())
			lower := strings.ToLower(text)
			switch {
			case strings.Contains(lower, "km"):
				kilometers = strings.ReplaceAll(text, "\u00a0", " ")
			case lower == "used" || lower == "new" || lower == "demo":
				condition = text
			}
		})

	location := strings.TrimSpace(tile.Find(autotraderSuburbSelector).First().Text())
	if location == "" {
		location = "N/A"
	}

	href, ok := tile.Attr("href")
	if !ok || href == "" {
		return Listing{}, false
	}

	// Listing ID is the final path segment, query string stripped
	segments := strings.Split(href, "/")
	rawID := strings.SplitN(segments[len(segments)-1], "?", 2)[0]
	if rawID == "" {
		return Listing{}, false
	}

	return Listing{
		ID:         "autotrader_" + rawID,
		SearchTerm: searchTerm,
		Source:     a.Source(),
		Title:      title,
		Price:      price,
		URL:        a.siteURL + href,
		Kilometers: kilometers,
		Location:   location,
		Condition:  condition,
	}, true
}

// Live implements Scraper
func (a *AutoTrader) Live() bool { return true }
