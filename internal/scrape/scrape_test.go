package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/match"
	"go.uber.org/zap"
)

const autotraderFixture = `
<html><body>
<a class="b-result-tile__nUiUiFtR93FVbMOF" href="/bikes-for-sale/suzuki/v-strom/used-2022-suzuki-v-strom-250/12345?source=search">
  <span class="e-make-model-title__yWb_LfShP7iz22PX">2022 Suzuki V-Strom 250 SX</span>
  <h2 class="e-price__IA1Hxg4LkKwwRqMB">R 65,000</h2>
  <div class="b-vehicle-specifications__G33kWAOWZs0tmFIT">
    <span class="e-text__XJ7raWOpNHUkT6ZU">Used</span>
    <span class="e-text__XJ7raWOpNHUkT6ZU">12&#160;000 km</span>
  </div>
  <span class="e-suburb__eiCxIOrnXW9SrLIq">Cape Town</span>
</a>
<a class="b-result-tile__nUiUiFtR93FVbMOF" href="/bikes-for-sale/suzuki/gsxr/used-suzuki-gsx-r1000/99999">
  <span class="e-make-model-title__yWb_LfShP7iz22PX">2019 Suzuki GSX-R1000</span>
  <h2 class="e-price__IA1Hxg4LkKwwRqMB">R 189,000</h2>
</a>
<a class="b-result-tile__nUiUiFtR93FVbMOF" href="/bikes-for-sale/suzuki/unknown/77777">
  <span class="e-make-model-title__yWb_LfShP7iz22PX">undefined</span>
  <h2 class="e-price__IA1Hxg4LkKwwRqMB">R 1</h2>
</a>
</body></html>`

func testConfig(serverURL string) *config.Config {
	cfg := config.Default()
	cfg.Sources.AutoTraderURL = serverURL
	cfg.Sources.GumtreeURL = serverURL
	cfg.HTTP.SleepMinSeconds = 0
	cfg.HTTP.SleepMaxSeconds = 0
	return cfg
}

func TestAutoTraderScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(autotraderFixture))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	strategy, err := match.ForSource(config.SourceAutoTrader, cfg.Thresholds)
	if err != nil {
		t.Fatalf("ForSource failed: %v", err)
	}

	scraper := NewAutoTrader(NewFetcher(cfg.HTTP), cfg, strategy, zap.NewNop())
	listings, err := scraper.Scrape(context.Background(), "Suzuki V-Strom 250")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	// The GSX-R and the "undefined" tile must be filtered out
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d: %v", len(listings), listings)
	}

	l, ok := listings["autotrader_12345"]
	if !ok {
		t.Fatalf("expected id autotrader_12345, got %v", listings)
	}
	if l.Title != "2022 Suzuki V-Strom 250 SX" {
		t.Errorf("unexpected title: %s", l.Title)
	}
	if l.Price != "R 65,000" {
		t.Errorf("unexpected price: %s", l.Price)
	}
	if l.Condition != "Used" {
		t.Errorf("unexpected condition: %s", l.Condition)
	}
	if l.Kilometers != "12 000 km" {
		t.Errorf("expected NBSP replaced in kilometers, got %q", l.Kilometers)
	}
	if l.Location != "Cape Town" {
		t.Errorf("unexpected location: %s", l.Location)
	}
	if l.SearchTerm != "Suzuki V-Strom 250" {
		t.Errorf("listings must be grouped under the original term, got %s", l.SearchTerm)
	}
	if !strings.Contains(l.URL, "/12345") {
		t.Errorf("unexpected URL: %s", l.URL)
	}
}

func TestAutoTraderScrapeInvalidTerm(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	strategy, _ := match.ForSource(config.SourceAutoTrader, cfg.Thresholds)
	scraper := NewAutoTrader(NewFetcher(cfg.HTTP), cfg, strategy, zap.NewNop())

	if _, err := scraper.Scrape(context.Background(), "Ducati"); err == nil {
		t.Error("expected error for single-word search term")
	}
	if _, err := scraper.Scrape(context.Background(), "  "); err == nil {
		t.Error("expected error for blank search term")
	}
}

const gumtreeFixture = `
<html><body>
<span class="related-item" data-adid="111">
  <a class="related-ad-title" href="/a-motorcycles/cape-town/suzuki-v-strom-250/111"><span>2022 Suzuki V-Strom 250 for sale</span></a>
  <span class="ad-price">R 62,500</span>
</span>
<span class="related-item" data-adid="222">
  <a class="related-ad-title" href="/a-motorcycles/durban/honda-nc750x/222"><span>Honda NC750X DCT</span></a>
  <span class="ad-price">R 95,000</span>
</span>
<span class="related-item">
  <a class="related-ad-title" href="/a-motorcycles/pe/mystery/0"><span>No ad id listing</span></a>
  <span class="ad-price">R 1</span>
</span>
</body></html>`

func TestGumtreeScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Errorf("expected q query parameter, got %s", r.URL.String())
		}
		w.Write([]byte(gumtreeFixture))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	strategy, err := match.ForSource(config.SourceGumtree, cfg.Thresholds)
	if err != nil {
		t.Fatalf("ForSource failed: %v", err)
	}

	scraper := NewGumtree(NewFetcher(cfg.HTTP), cfg, strategy, zap.NewNop())
	listings, err := scraper.Scrape(context.Background(), "Suzuki V-Strom 250")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d: %v", len(listings), listings)
	}
	l, ok := listings["gt_111"]
	if !ok {
		t.Fatalf("expected id gt_111, got %v", listings)
	}
	if l.Price != "R 62,500" {
		t.Errorf("unexpected price: %s", l.Price)
	}
	if l.Source != "Gumtree" {
		t.Errorf("unexpected source: %s", l.Source)
	}
}

func TestGumtreeScrapeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	strategy, _ := match.ForSource(config.SourceGumtree, cfg.Thresholds)
	scraper := NewGumtree(NewFetcher(cfg.HTTP), cfg, strategy, zap.NewNop())

	if _, err := scraper.Scrape(context.Background(), "Suzuki V-Strom 250"); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func testSnapshot(t *testing.T, dir string) *Cache {
	t.Helper()
	cache := NewCache(filepath.Join(dir, "webuycars_cache.json"), zap.NewNop())
	err := cache.Save(map[string]CacheListing{
		"webuycars_S123": {
			VehicleID:  "S123",
			Title:      "2021 Suzuki V-Strom 250 ABS",
			Price:      61800,
			URL:        "https://www.webuycars.co.za/buy-a-car/Suzuki/V-Strom/S123",
			Make:       "Suzuki",
			Model:      "V-Strom 250",
			Kilometers: 12345,
			Location:   "JHB Ticketpro Dome",
		},
		"webuycars_S456": {
			VehicleID:  "S456",
			Title:      "2020 BMW C 400 GT",
			Price:      82000,
			URL:        "https://www.webuycars.co.za/buy-a-car/BMW/C400/S456",
			Make:       "BMW",
			Model:      "C 400 GT",
			Kilometers: 9000,
			Location:   "Cape Town",
		},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return cache
}

func TestWeBuyCarsScrape(t *testing.T) {
	cache := testSnapshot(t, t.TempDir())
	cfg := config.Default()
	strategy, err := match.ForSource(config.SourceWeBuyCars, cfg.Thresholds)
	if err != nil {
		t.Fatalf("ForSource failed: %v", err)
	}

	scraper := NewWeBuyCars(cache, strategy, zap.NewNop())
	listings, err := scraper.Scrape(context.Background(), "Suzuki V-Strom 250")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d: %v", len(listings), listings)
	}
	l, ok := listings["webuycars_S123"]
	if !ok {
		t.Fatalf("expected id webuycars_S123, got %v", listings)
	}
	if l.Price != "R 61,800" {
		t.Errorf("unexpected price formatting: %s", l.Price)
	}
	if l.Kilometers != "12,345 km" {
		t.Errorf("unexpected kilometers formatting: %s", l.Kilometers)
	}
}

func TestWeBuyCarsScrapeMatchesViaVariation(t *testing.T) {
	// "2022 BMW G310" carries its displacement fused into the model code, so
	// the original "BMW G 310" term fails the number gate against it. Only
	// the collapsed variation "BMW G310" reaches this stock, which is why
	// the cache search scores variations instead of the original term.
	cache := NewCache(filepath.Join(t.TempDir(), "webuycars_cache.json"), zap.NewNop())
	err := cache.Save(map[string]CacheListing{
		"webuycars_S789": {
			VehicleID:  "S789",
			Title:      "2022 BMW G310",
			Price:      74500,
			URL:        "https://www.webuycars.co.za/buy-a-car/BMW/G310/S789",
			Make:       "BMW",
			Model:      "G310",
			Kilometers: 4000,
			Location:   "Pretoria",
		},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cfg := config.Default()
	strategy, err := match.ForSource(config.SourceWeBuyCars, cfg.Thresholds)
	if err != nil {
		t.Fatalf("ForSource failed: %v", err)
	}
	if strategy.Relevant("BMW G 310", match.Candidate{Title: "2022 BMW G310", Make: "BMW", Model: "G310"}) {
		t.Fatal("expected the original term to miss the fused-code title")
	}

	scraper := NewWeBuyCars(cache, strategy, zap.NewNop())
	listings, err := scraper.Scrape(context.Background(), "BMW G 310")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	l, ok := listings["webuycars_S789"]
	if !ok {
		t.Fatalf("expected variation to find the listing, got %v", listings)
	}
	if l.SearchTerm != "BMW G 310" {
		t.Errorf("expected listing grouped under the original term, got %q", l.SearchTerm)
	}
}

func TestWeBuyCarsScrapeMissingCache(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	cfg := config.Default()
	strategy, _ := match.ForSource(config.SourceWeBuyCars, cfg.Thresholds)
	scraper := NewWeBuyCars(cache, strategy, zap.NewNop())

	if _, err := scraper.Scrape(context.Background(), "Suzuki V-Strom 250"); err == nil {
		t.Error("expected error when cache file is missing")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := testSnapshot(t, t.TempDir())

	snapshot, err := cache.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snapshot.TotalListings != 2 {
		t.Errorf("expected TotalListings=2, got %d", snapshot.TotalListings)
	}
	if len(snapshot.Listings) != 2 {
		t.Errorf("expected 2 listings, got %d", len(snapshot.Listings))
	}
	if snapshot.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if snapshot.Listings["webuycars_S123"].Make != "Suzuki" {
		t.Errorf("unexpected listing data: %+v", snapshot.Listings["webuycars_S123"])
	}
}

func TestRefresher(t *testing.T) {
	pages := map[string]string{
		"1": `{"data":[
			{"Make":"Suzuki","Model":"V-Strom 250","StockNumber":"S1","Price":61800,"Mileage":12000,"DealerKey":"JHB","OnlineDescription":"2021 Suzuki V-Strom 250"},
			{"Make":"Honda","Model":"NC750X","StockNumber":"","Price":95000}
		]}`,
		"2": `{"data":[
			{"Make":"BMW","Model":"G 310 GS","StockNumber":"S2","BuyNowPrice":72000,"Mileage":8000,"DealerKey":"CPT","OnlineDescription":"2022 BMW G 310 GS"}
		]}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Query().Get("page")]
		if !ok {
			body = `{"data":[]}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cache := NewCache(filepath.Join(t.TempDir(), "cache.json"), zap.NewNop())
	refresher := NewRefresher(NewFetcher(cfg.HTTP), server.URL, cache, zap.NewNop())
	refresher.delay = 0

	count, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	// The vehicle without a stock number is dropped
	if count != 2 {
		t.Errorf("expected 2 listings cached, got %d", count)
	}

	snapshot, err := cache.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snapshot.Listings["webuycars_S2"].Price != 72000 {
		t.Errorf("expected BuyNowPrice fallback, got %+v", snapshot.Listings["webuycars_S2"])
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{61800, "R 61,800"},
		{1250000, "R 1,250,000"},
		{999, "R 999"},
		{0, "N/A"},
	}
	for _, tt := range tests {
		if got := formatPrice(tt.in); got != tt.want {
			t.Errorf("formatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatKilometers(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12345, "12,345 km"},
		{900, "900 km"},
		{0, "N/A"},
	}
	for _, tt := range tests {
		if got := formatKilometers(tt.in); got != tt.want {
			t.Errorf("formatKilometers(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
