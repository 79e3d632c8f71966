package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// CacheListing is one WeBuyCars vehicle as stored in the local snapshot
type CacheListing struct {
	VehicleID  string  `json:"vehicle_id"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	URL        string  `json:"url"`
	Make       string  `json:"make"`
	Model      string  `json:"model"`
	Kilometers float64 `json:"kilometers"`
	Location   string  `json:"location"`
}

// CacheSnapshot is the on-disk snapshot format
type CacheSnapshot struct {
	Timestamp     time.Time               `json:"timestamp"`
	DateFormatted string                  `json:"date_formatted"`
	TotalListings int                     `json:"total_listings"`
	Listings      map[string]CacheListing `json:"listings"`
}

// Age returns how long ago the snapshot was fetched
func (s *CacheSnapshot) Age() time.Duration {
	return time.Since(s.Timestamp)
}

// Cache manages the WeBuyCars snapshot file
type Cache struct {
	Path   string
	logger *zap.Logger
}

// NewCache builds a Cache for the given snapshot path. A nil logger
// disables logging.
func NewCache(path string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{Path: path, logger: logger.Named("webuycars-cache")}
}

// Load reads the snapshot from disk. A missing file is an error: the caller
// decides whether to treat an absent cache as fatal or just warn.
func (c *Cache) Load() (*CacheSnapshot, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("load cache %s: %w", c.Path, err)
	}

	snapshot := &CacheSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("parse cache %s: %w", c.Path, err)
	}

	c.logger.Info("cache loaded",
		zap.Int("listings", len(snapshot.Listings)),
		zap.String("fetched", snapshot.DateFormatted))
	return snapshot, nil
}

// Save writes a fresh snapshot with the current timestamp
func (c *Cache) Save(listings map[string]CacheListing) error {
	now := time.Now()
	snapshot := CacheSnapshot{
		Timestamp:     now,
		DateFormatted: now.Format("02/01/2006 15:04:05"),
		TotalListings: len(listings),
		Listings:      listings,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(c.Path, data, 0o644); err != nil {
		return fmt.Errorf("save cache %s: %w", c.Path, err)
	}

	c.logger.Info("cache saved",
		zap.String("path", c.Path),
		zap.Int("listings", len(listings)))
	return nil
}

// cacheRefreshMaxPages caps pagination in case the empty-page stop never
// triggers.
const cacheRefreshMaxPages = 100

// cacheRefreshStopAfterEmpty stops pagination after this many consecutive
// pages with no results.
const cacheRefreshStopAfterEmpty = 2

type wbcAPIResponse struct {
	Data []wbcAPIVehicle `json:"data"`
}

type wbcAPIVehicle struct {
	Make              string  `json:"Make"`
	Model             string  `json:"Model"`
	StockNumber       string  `json:"StockNumber"`
	Price             float64 `json:"Price"`
	BuyNowPrice       float64 `json:"BuyNowPrice"`
	Mileage           float64 `json:"Mileage"`
	DealerKey         string  `json:"DealerKey"`
	OnlineDescription string  `json:"OnlineDescription"`
}

// Refresher pages the WeBuyCars search API and rebuilds the snapshot
type Refresher struct {
	fetcher *Fetcher
	apiURL  string
	cache   *Cache
	delay   time.Duration
	logger  *zap.Logger
}

// NewRefresher builds a cache Refresher against the given search API URL
func NewRefresher(fetcher *Fetcher, apiURL string, cache *Cache, logger *zap.Logger) *Refresher {
	return &Refresher{
		fetcher: fetcher,
		apiURL:  apiURL,
		cache:   cache,
		delay:   time.Second,
		logger:  logger.Named("webuycars-refresh"),
	}
}

// Refresh fetches every motorcycle listing page by page and replaces the
// snapshot. Pagination stops after two consecutive empty pages.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	all := map[string]CacheListing{}
	consecutiveEmpty := 0

	for page := 1; page <= cacheRefreshMaxPages; page++ {
		if page > 1 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(r.delay):
			}
		}

		resp := wbcAPIResponse{}
		err := r.fetcher.GetJSON(ctx, r.apiURL, map[string]string{
			"vehicleType": "Motorbike",
			"page":        strconv.Itoa(page),
		}, &resp)
		if err != nil {
			r.logger.Warn("page fetch failed", zap.Int("page", page), zap.Error(err))
			consecutiveEmpty++
			if consecutiveEmpty >= cacheRefreshStopAfterEmpty {
				break
			}
			continue
		}

		if len(resp.Data) == 0 {
			consecutiveEmpty++
			r.logger.Debug("empty page",
				zap.Int("page", page),
				zap.Int("consecutive_empty", consecutiveEmpty))
			if consecutiveEmpty >= cacheRefreshStopAfterEmpty {
				break
			}
			continue
		}
		consecutiveEmpty = 0

		added := 0
		for _, v := range resp.Data {
			if v.StockNumber == "" {
				continue
			}
			price := v.Price
			if price == 0 {
				price = v.BuyNowPrice
			}
			id := "webuycars_" + v.StockNumber
			all[id] = CacheListing{
				VehicleID:  v.StockNumber,
				Title:      v.OnlineDescription,
				Price:      price,
				URL:        fmt.Sprintf("https://www.webuycars.co.za/buy-a-car/%s/%s/%s", v.Make, v.Model, v.StockNumber),
				Make:       v.Make,
				Model:      v.Model,
				Kilometers: v.Mileage,
				Location:   v.DealerKey,
			}
			added++
		}

		r.logger.Info("page fetched",
			zap.Int("page", page),
			zap.Int("added", added),
			zap.Int("total", len(all)))
	}

	if len(all) == 0 {
		return 0, fmt.Errorf("cache refresh fetched no listings, snapshot not updated")
	}

	if err := r.cache.Save(all); err != nil {
		return 0, err
	}
	return len(all), nil
}
