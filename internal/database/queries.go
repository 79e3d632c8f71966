package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpsertResult reports what an UpsertListing call did to the store.
type UpsertResult struct {
	IsNew     bool
	PriceDrop bool
	OldPrice  string
}

// UpsertListing inserts a new listing or refreshes an existing one. When the
// listing already exists and its price changed downward, the price drop flag
// is set and the previous price preserved, and the new price is appended to
// the price history. A later upward change clears the flag and old price.
func (db *DB) UpsertListing(ctx context.Context, l *Listing) (*UpsertResult, error) {
	now := time.Now()
	existing, err := db.GetListing(ctx, l.ID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		l.FoundAt = now
		l.LastSeenAt = now
		if l.PriceRand == nil {
			l.PriceRand = ParsePriceRand(l.Price)
		}

		_, err := db.ExecContext(ctx, `
			INSERT INTO listings (
				id, search_term, source, title, price, price_rand, url,
				kilometers, location, condition, price_dropped, old_price,
				found_at, last_seen_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?, ?)
		`,
			l.ID, l.SearchTerm, l.Source, l.Title, l.Price, NullInt64(l.PriceRand),
			l.URL, NullString(l.Kilometers), NullString(l.Location),
			NullString(l.Condition), l.FoundAt, l.LastSeenAt,
		)
		if err != nil {
			return nil, err
		}
		if err := db.RecordPricePoint(ctx, l.ID, l.Price, l.PriceRand, now); err != nil {
			return nil, err
		}
		return &UpsertResult{IsNew: true}, nil
	}

	if l.PriceRand == nil {
		l.PriceRand = ParsePriceRand(l.Price)
	}

	result := &UpsertResult{}
	priceDropped := existing.PriceDrop
	oldPrice := existing.OldPrice

	priceChanged := existing.Price != l.Price
	if priceChanged && existing.PriceRand != nil && l.PriceRand != nil {
		switch {
		case *l.PriceRand < *existing.PriceRand:
			priceDropped = true
			oldPrice = &existing.Price
			result.PriceDrop = true
			result.OldPrice = existing.Price
		case *l.PriceRand > *existing.PriceRand:
			// A rise retires any earlier drop: the badge and old price
			// describe the current asking price, not the listing's history
			priceDropped = false
			oldPrice = nil
		}
	}

	_, err = db.ExecContext(ctx, `
		UPDATE listings SET
			search_term = ?, title = ?, price = ?, price_rand = ?, url = ?,
			kilometers = ?, location = ?, condition = ?,
			price_dropped = ?, old_price = ?, last_seen_at = ?
		WHERE id = ?
	`,
		l.SearchTerm, l.Title, l.Price, NullInt64(l.PriceRand), l.URL,
		NullString(l.Kilometers), NullString(l.Location), NullString(l.Condition),
		priceDropped, NullString(oldPrice), now, l.ID,
	)
	if err != nil {
		return nil, err
	}

	if priceChanged {
		if err := db.RecordPricePoint(ctx, l.ID, l.Price, l.PriceRand, now); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GetListing retrieves a listing by ID, or nil if it does not exist
func (db *DB) GetListing(ctx context.Context, id string) (*Listing, error) {
	l := &Listing{}
	var priceRand sql.NullInt64
	var kilometers, location, condition, oldPrice sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT id, search_term, source, title, price, price_rand, url,
		       kilometers, location, condition, price_dropped, old_price,
		       found_at, last_seen_at
		FROM listings WHERE id = ?
	`, id).Scan(
		&l.ID, &l.SearchTerm, &l.Source, &l.Title, &l.Price, &priceRand, &l.URL,
		&kilometers, &location, &condition, &l.PriceDrop, &oldPrice,
		&l.FoundAt, &l.LastSeenAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	l.PriceRand = Int64Ptr(priceRand)
	l.Kilometers = StringPtr(kilometers)
	l.Location = StringPtr(location)
	l.Condition = StringPtr(condition)
	l.OldPrice = StringPtr(oldPrice)
	return l, nil
}

// ListListings retrieves listings with optional filters
func (db *DB) ListListings(ctx context.Context, opts ListOptions) ([]Listing, error) {
	query := `
		SELECT id, search_term, source, title, price, price_rand, url,
		       kilometers, location, condition, price_dropped, old_price,
		       found_at, last_seen_at
		FROM listings WHERE 1=1
	`
	args := []interface{}{}

	if opts.SearchTerm != "" {
		query += " AND LOWER(search_term) LIKE LOWER(?)"
		args = append(args, "%"+opts.SearchTerm+"%")
	}
	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if opts.DropsOnly {
		query += " AND price_dropped = 1"
	}

	query += " ORDER BY search_term, source, price_rand IS NULL, price_rand"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l := Listing{}
		var priceRand sql.NullInt64
		var kilometers, location, condition, oldPrice sql.NullString

		if err := rows.Scan(
			&l.ID, &l.SearchTerm, &l.Source, &l.Title, &l.Price, &priceRand, &l.URL,
			&kilometers, &location, &condition, &l.PriceDrop, &oldPrice,
			&l.FoundAt, &l.LastSeenAt,
		); err != nil {
			return nil, err
		}

		l.PriceRand = Int64Ptr(priceRand)
		l.Kilometers = StringPtr(kilometers)
		l.Location = StringPtr(location)
		l.Condition = StringPtr(condition)
		l.OldPrice = StringPtr(oldPrice)
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// RecordPricePoint appends an observation to a listing's price history
func (db *DB) RecordPricePoint(ctx context.Context, listingID, price string, priceRand *int64, observedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO price_points (listing_id, price, price_rand, observed_at)
		VALUES (?, ?, ?, ?)
	`, listingID, price, NullInt64(priceRand), observedAt)
	return err
}

// ListPricePoints retrieves the price history for a listing, oldest first
func (db *DB) ListPricePoints(ctx context.Context, listingID string) ([]PricePoint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, listing_id, price, price_rand, observed_at
		FROM price_points WHERE listing_id = ?
		ORDER BY observed_at ASC, id ASC
	`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		p := PricePoint{}
		var priceRand sql.NullInt64

		if err := rows.Scan(&p.ID, &p.ListingID, &p.Price, &priceRand, &p.ObservedAt); err != nil {
			return nil, err
		}

		p.PriceRand = Int64Ptr(priceRand)
		points = append(points, p)
	}

	return points, rows.Err()
}

// DeleteStaleListings removes listings from the given sources that are not in
// the seen set. Sources outside the slice are left untouched, so listings from
// a disabled source survive runs that never scraped it.
func (db *DB) DeleteStaleListings(ctx context.Context, sources []string, seenIDs map[string]bool) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(sources))
	placeholders = placeholders[:len(placeholders)-1]
	args := []interface{}{}
	for _, s := range sources {
		args = append(args, s)
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT id FROM listings WHERE source IN (%s)", placeholders), args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		if !seenIDs[id] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range stale {
		if _, err := db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// GetStats retrieves aggregate statistics over the listing store
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{BySource: map[string]int{}}

	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT search_term),
		       COALESCE(SUM(CASE WHEN price_dropped = 1 THEN 1 ELSE 0 END), 0)
		FROM listings
	`).Scan(&stats.TotalListings, &stats.TrackedBikes, &stats.PriceDrops); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM listings GROUP BY source
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		stats.BySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var lastRun sql.NullTime
	if err := db.QueryRowContext(ctx, `
		SELECT MAX(started_at) FROM runs
	`).Scan(&lastRun); err != nil {
		return nil, err
	}
	stats.LastRunAt = TimePtr(lastRun)

	return stats, nil
}

// CreateRun records the start of a tracker run
func (db *DB) CreateRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, bikes_tracked, listings_found, new_listings, price_drops, stale_removed)
		VALUES (?, ?, 0, 0, 0, 0, 0)
	`, r.ID, r.StartedAt)
	return err
}

// FinishRun records the outcome of a completed tracker run
func (db *DB) FinishRun(ctx context.Context, r *Run) error {
	now := time.Now()
	r.FinishedAt = &now

	result, err := db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?, bikes_tracked = ?, listings_found = ?,
			new_listings = ?, price_drops = ?, stale_removed = ?
		WHERE id = ?
	`, r.FinishedAt, r.BikesTracked, r.ListingsFound, r.NewListings, r.PriceDrops, r.StaleRemoved, r.ID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("run not found: %s", r.ID)
	}
	return nil
}

// ListRuns retrieves the most recent tracker runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, finished_at, bikes_tracked, listings_found,
		       new_listings, price_drops, stale_removed
		FROM runs ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r := Run{}
		var finishedAt sql.NullTime

		if err := rows.Scan(
			&r.ID, &r.StartedAt, &finishedAt, &r.BikesTracked, &r.ListingsFound,
			&r.NewListings, &r.PriceDrops, &r.StaleRemoved,
		); err != nil {
			return nil, err
		}

		r.FinishedAt = TimePtr(finishedAt)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
