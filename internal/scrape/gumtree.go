package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/match"
	"go.uber.org/zap"
)

const (
	gumtreeItemSelector  = "span.related-item"
	gumtreeTitleSelector = "a.related-ad-title span"
	gumtreePriceSelector = "span.ad-price"
	gumtreeLinkSelector  = "a.related-ad-title"
)

// Gumtree scrapes the gumtree.co.za motorcycles category. Search goes
// through a free-text query parameter, so results mix brands and the full
// fuzzy matcher filters them.
type Gumtree struct {
	fetcher  *Fetcher
	baseURL  string
	siteURL  string
	strategy match.Strategy
	logger   *zap.Logger
}

// NewGumtree builds the Gumtree scraper
func NewGumtree(fetcher *Fetcher, cfg *config.Config, strategy match.Strategy, logger *zap.Logger) *Gumtree {
	base := strings.TrimSuffix(cfg.Sources.GumtreeURL, "/")
	site := base
	if u, err := url.Parse(base); err == nil {
		site = u.Scheme + "://" + u.Host
	}
	return &Gumtree{
		fetcher:  fetcher,
		baseURL:  base,
		siteURL:  site,
		strategy: strategy,
		logger:   logger.Named("gumtree"),
	}
}

// Source implements Scraper
func (g *Gumtree) Source() string { return config.SourceDisplayName(config.SourceGumtree) }

// Scrape implements Scraper
func (g *Gumtree) Scrape(ctx context.Context, searchTerm string) (map[string]Listing, error) {
	if err := config.ValidateSearchTerm(searchTerm); err != nil {
		return nil, err
	}

	pageURL := g.baseURL + "?q=" + url.QueryEscape(searchTerm)
	doc, err := g.fetcher.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	listings := map[string]Listing{}
	skipped := 0

	doc.Find(gumtreeItemSelector).Each(func(_ int, item *goquery.Selection) {
		adID, ok := item.Attr("data-adid")
		if !ok || adID == "" {
			return
		}
		id := "gt_" + adID
		if _, dup := listings[id]; dup {
			return
		}

		title := strings.TrimSpace(item.Find(gumtreeTitleSelector).First().Text())
		price := strings.TrimSpace(item.Find(gumtreePriceSelector).First().Text())
		href, _ := item.Find(gumtreeLinkSelector).First().Attr("href")
		if title == "" || price == "" || href == "" {
			return
		}

		if !g.strategy.Relevant(searchTerm, match.Candidate{Title: title}) {
			g.logger.Debug("skipping irrelevant listing", zap.String("title", title))
			skipped++
			return
		}

		listings[id] = Listing{
			ID:         id,
			SearchTerm: searchTerm,
			Source:     g.Source(),
			Title:      title,
			Price:      price,
			URL:        g.siteURL + href,
			Kilometers: "N/A",
			Location:   "N/A",
			Condition:  "N/A",
		}
	})

	g.logger.Info("scrape complete",
		zap.String("search_term", searchTerm),
		zap.Int("listings", len(listings)),
		zap.Int("skipped", skipped))
	return listings, nil
}

// Live implements Scraper
func (g *Gumtree) Live() bool { return true }
