package config

import (
	"fmt"
	"time"
)

// Config represents the application configuration
type Config struct {
	// BikesFile is a plain text file listing tracked models, one
	// "Brand Model" term per line. Lines starting with # are ignored.
	BikesFile  string             `toml:"bikes_file"`
	Database   DatabaseConfig     `toml:"database"`
	Cache      CacheConfig        `toml:"cache"`
	Thresholds map[string]float64 `toml:"thresholds"`
	HTTP       HTTPConfig         `toml:"http"`
	Sources    SourcesConfig      `toml:"sources"`
	Report     ReportConfig       `toml:"report"`
	Logging    LoggingConfig      `toml:"logging"`
}

// DatabaseConfig contains listing store settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// CacheConfig contains WeBuyCars snapshot settings
type CacheConfig struct {
	Path string `toml:"path"`
	// MaxAgeHours is how old the snapshot may be before `run` warns
	// that a refresh is due.
	MaxAgeHours int `toml:"max_age_hours"`
}

// HTTPConfig contains settings for outgoing scraper requests
type HTTPConfig struct {
	UserAgent       string  `toml:"user_agent"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	SleepMinSeconds float64 `toml:"sleep_min_seconds"`
	SleepMaxSeconds float64 `toml:"sleep_max_seconds"`
}

// Timeout returns the request timeout as a duration
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// SourcesConfig selects the listing sources to scrape and their entry URLs
type SourcesConfig struct {
	Enabled          []string `toml:"enabled"`
	AutoTraderURL    string   `toml:"autotrader_url"`
	GumtreeURL       string   `toml:"gumtree_url"`
	WeBuyCarsAPIURL  string   `toml:"webuycars_api_url"`
	WeBuyCarsPageURL string   `toml:"webuycars_page_url"`
}

// IsEnabled reports whether the named source is enabled
func (s SourcesConfig) IsEnabled(name string) bool {
	for _, e := range s.Enabled {
		if e == name {
			return true
		}
	}
	return false
}

// ReportConfig contains static report output paths
type ReportConfig struct {
	HTMLPath  string `toml:"html_path"`
	ExcelPath string `toml:"excel_path"`
}

// LoggingConfig contains zap logger settings
type LoggingConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Known source names. Threshold keys and sources.enabled entries must come
// from this set.
const (
	SourceAutoTrader = "autotrader"
	SourceGumtree    = "gumtree"
	SourceWeBuyCars  = "webuycars"
)

// KnownSources lists every source the tracker can scrape
var KnownSources = []string{SourceAutoTrader, SourceGumtree, SourceWeBuyCars}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		BikesFile: "bikes.txt",
		Database: DatabaseConfig{
			Path: "data/mototrack.db",
		},
		Cache: CacheConfig{
			Path:        "data/webuycars_cache.json",
			MaxAgeHours: 24,
		},
		Thresholds: map[string]float64{
			SourceGumtree:    0.40,
			SourceAutoTrader: 0.50,
			SourceWeBuyCars:  0.4575,
		},
		HTTP: HTTPConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36",
			TimeoutSeconds:  10,
			SleepMinSeconds: 2,
			SleepMaxSeconds: 4,
		},
		Sources: SourcesConfig{
			Enabled:          []string{SourceAutoTrader, SourceGumtree, SourceWeBuyCars},
			AutoTraderURL:    "https://www.autotrader.co.za/bikes-for-sale",
			GumtreeURL:       "https://www.gumtree.co.za/s-motorcycles-scooters/v1c9027p1",
			WeBuyCarsAPIURL:  "https://website-elastic-api.webuycars.co.za/api/search",
			WeBuyCarsPageURL: `https://www.webuycars.co.za/buy-a-car?activeTypeSearch=["Motorbike"]`,
		},
		Report: ReportConfig{
			HTMLPath:  "docs/index.html",
			ExcelPath: "docs/listings.xlsx",
		},
		Logging: LoggingConfig{
			File:  "mototrack.log",
			Level: "info",
		},
	}
}

// SourceDisplayName returns the capitalized name listings carry in the
// store and reports ("AutoTrader", not "autotrader").
func SourceDisplayName(source string) string {
	switch source {
	case SourceAutoTrader:
		return "AutoTrader"
	case SourceGumtree:
		return "Gumtree"
	case SourceWeBuyCars:
		return "WeBuyCars"
	default:
		return source
	}
}

// String implements fmt.Stringer for debugging
func (c *Config) String() string {
	return fmt.Sprintf("Config{bikes=%s db=%s sources=%v}", c.BikesFile, c.Database.Path, c.Sources.Enabled)
}
