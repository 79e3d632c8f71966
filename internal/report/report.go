// Package report renders the static listing reports: an HTML page meant
// for GitHub Pages and an Excel workbook for offline filtering.
package report

import (
	"sort"
	"time"

	"github.com/dwcoetzee/mototrack/internal/database"
	"go.uber.org/zap"
)

// Data is everything a report needs
type Data struct {
	Listings     []database.Listing
	BikesTracked []string
	GeneratedAt  time.Time
}

// Group is a set of listings sharing one key (bike model or source)
type Group struct {
	Name     string
	Listings []database.Listing
}

// ByBike groups listings by search term, in tracked-bike order. Bikes with
// no listings are omitted; listings whose term is no longer tracked sort
// after the tracked ones.
func (d *Data) ByBike() []Group {
	return d.groupBy(func(l database.Listing) string { return l.SearchTerm }, d.BikesTracked)
}

// BySource groups listings by source in alphabetical order
func (d *Data) BySource() []Group {
	return d.groupBy(func(l database.Listing) string { return l.Source }, nil)
}

func (d *Data) groupBy(key func(database.Listing) string, order []string) []Group {
	buckets := map[string][]database.Listing{}
	for _, l := range d.Listings {
		k := key(l)
		buckets[k] = append(buckets[k], l)
	}

	var groups []Group
	seen := map[string]bool{}
	for _, name := range order {
		if listings, ok := buckets[name]; ok {
			groups = append(groups, Group{Name: name, Listings: listings})
			seen[name] = true
		}
	}

	var rest []string
	for name := range buckets {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		groups = append(groups, Group{Name: name, Listings: buckets[name]})
	}
	return groups
}

// PriceDrops counts listings flagged with a price drop
func (d *Data) PriceDrops() int {
	n := 0
	for _, l := range d.Listings {
		if l.PriceDrop {
			n++
		}
	}
	return n
}

// Sources returns the distinct sources present, alphabetically
func (d *Data) Sources() []string {
	set := map[string]bool{}
	for _, l := range d.Listings {
		set[l.Source] = true
	}
	var sources []string
	for s := range set {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}

// Timestamp renders GeneratedAt in the report's display format
func (d *Data) Timestamp() string {
	return d.GeneratedAt.Format("02/01/2006 15:04:05")
}

// Generator writes the configured report outputs
type Generator struct {
	HTMLPath  string
	ExcelPath string
	logger    *zap.Logger
}

// NewGenerator builds a Generator for the given output paths
func NewGenerator(htmlPath, excelPath string, logger *zap.Logger) *Generator {
	return &Generator{
		HTMLPath:  htmlPath,
		ExcelPath: excelPath,
		logger:    logger.Named("report"),
	}
}

// WriteAll renders every configured report format
func (g *Generator) WriteAll(data *Data) error {
	if g.HTMLPath != "" {
		if err := g.WriteHTML(data); err != nil {
			return err
		}
	}
	if g.ExcelPath != "" {
		if err := g.WriteExcel(data); err != nil {
			return err
		}
	}
	return nil
}

// displayKilometers falls back to the condition when a source exposes no
// mileage, matching how the listing pages themselves present it.
func displayKilometers(l database.Listing) string {
	if l.Kilometers != nil {
		return *l.Kilometers
	}
	if l.Condition != nil {
		return *l.Condition
	}
	return "N/A"
}

func displayLocation(l database.Listing) string {
	if l.Location != nil {
		return *l.Location
	}
	return "N/A"
}

func displayOldPrice(l database.Listing) string {
	if l.OldPrice != nil {
		return *l.OldPrice
	}
	return ""
}
