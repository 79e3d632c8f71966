package database

import (
	"database/sql"
	"strings"
	"time"
	"unicode"
)

// Listing is a single tracked advert from one of the listing sources.
// IDs are source-prefixed ("autotrader_12345", "gt_98765") so the same
// stock number on two sites never collides.
type Listing struct {
	ID          string    `json:"id"`
	SearchTerm  string    `json:"search_term"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	PriceRand   *int64    `json:"price_rand,omitempty"`
	URL         string    `json:"url"`
	Kilometers  *string   `json:"kilometers,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Condition   *string   `json:"condition,omitempty"`
	PriceDrop   bool      `json:"price_dropped"`
	OldPrice    *string   `json:"old_price,omitempty"`
	FoundAt     time.Time `json:"found_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// PricePoint is one observation in a listing's price history
type PricePoint struct {
	ID         int64     `json:"id"`
	ListingID  string    `json:"listing_id"`
	Price      string    `json:"price"`
	PriceRand  *int64    `json:"price_rand,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// Run records one tracker invocation for history and diagnostics
type Run struct {
	ID            string     `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	BikesTracked  int        `json:"bikes_tracked"`
	ListingsFound int        `json:"listings_found"`
	NewListings   int        `json:"new_listings"`
	PriceDrops    int        `json:"price_drops"`
	StaleRemoved  int        `json:"stale_removed"`
}

// Stats represents aggregate statistics over the listing store
type Stats struct {
	TotalListings int            `json:"total_listings"`
	BySource      map[string]int `json:"by_source"`
	TrackedBikes  int            `json:"tracked_bikes"`
	PriceDrops    int            `json:"price_drops"`
	LastRunAt     *time.Time     `json:"last_run_at,omitempty"`
}

// ListOptions contains filters for listing queries
type ListOptions struct {
	SearchTerm string
	Source     string
	DropsOnly  bool
	Limit      int
	Offset     int
}

// ParsePriceRand converts a display price like "R 65,000" to its numeric
// value. Returns nil for unparseable prices ("P.O.A.", "N/A", empty).
func ParsePriceRand(price string) *int64 {
	cleaned := strings.TrimSpace(price)
	cleaned = strings.ReplaceAll(cleaned, "R", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimSuffix(cleaned, ".00")
	if cleaned == "" {
		return nil
	}
	var value int64
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return nil
		}
		value = value*10 + int64(r-'0')
	}
	return &value
}

// NullString is a helper to convert *string to sql.NullString
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// NullInt64 is a helper to convert *int64 to sql.NullInt64
func NullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// NullTime is a helper to convert *time.Time to sql.NullTime
func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// StringPtr converts sql.NullString to *string
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// Int64Ptr converts sql.NullInt64 to *int64
func Int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}

// TimePtr converts sql.NullTime to *time.Time
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}
