package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/tracker"
)

// Table writes data as a formatted table to stdout
func Table(data interface{}) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case []database.Listing:
		return listingsTable(w, v)
	case []database.PricePoint:
		return pricePointsTable(w, v)
	case []database.Run:
		return runsTable(w, v)
	case *database.Stats:
		return statsTable(w, v)
	case *tracker.Result:
		return runResult(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func listingsTable(w io.Writer, listings []database.Listing) error {
	if len(listings) == 0 {
		fmt.Fprintln(w, "No listings found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BIKE\tSOURCE\tTITLE\tPRICE\tKM\tLOCATION")
	fmt.Fprintln(tw, "----\t------\t-----\t-----\t--\t--------")

	for _, l := range listings {
		price := l.Price
		if l.PriceDrop {
			price += " ↓"
			if l.OldPrice != nil {
				price += " (was " + *l.OldPrice + ")"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(l.SearchTerm, 22),
			l.Source,
			truncate(l.Title, 38),
			price,
			orNA(l.Kilometers),
			truncate(orNA(l.Location), 18),
		)
	}

	return tw.Flush()
}

func pricePointsTable(w io.Writer, points []database.PricePoint) error {
	if len(points) == 0 {
		fmt.Fprintln(w, "No price history.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OBSERVED\tPRICE")
	fmt.Fprintln(tw, "--------\t-----")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\n", p.ObservedAt.Format("02 Jan 2006 15:04"), p.Price)
	}
	return tw.Flush()
}

func runsTable(w io.Writer, runs []database.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tBIKES\tFOUND\tNEW\tDROPS\tSTALE")
	fmt.Fprintln(tw, "-------\t-----\t-----\t---\t-----\t-----")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			r.StartedAt.Format("02 Jan 2006 15:04"),
			r.BikesTracked, r.ListingsFound, r.NewListings, r.PriceDrops, r.StaleRemoved)
	}
	return tw.Flush()
}

func statsTable(w io.Writer, s *database.Stats) error {
	fmt.Fprintln(w, "Listing Store Statistics")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintf(w, "Total listings:         %d\n", s.TotalListings)
	fmt.Fprintf(w, "Tracked bikes seen:     %d\n", s.TrackedBikes)
	fmt.Fprintf(w, "Price drops flagged:    %d\n", s.PriceDrops)

	sources := make([]string, 0, len(s.BySource))
	for source := range s.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		fmt.Fprintf(w, "  %-21s %d\n", source+":", s.BySource[source])
	}

	if s.LastRunAt != nil {
		fmt.Fprintf(w, "Last run:               %s\n", s.LastRunAt.Format("02 Jan 2006 15:04"))
	}
	return nil
}

func runResult(w io.Writer, r *tracker.Result) error {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "Run complete")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Bikes tracked:    %d\n", r.BikesTracked)
	fmt.Fprintf(w, "Listings found:   %d\n", r.ListingsFound)
	fmt.Fprintf(w, "New listings:     %d\n", len(r.NewListings))
	fmt.Fprintf(w, "Price drops:      %d\n", len(r.PriceDrops))
	fmt.Fprintf(w, "Stale removed:    %d\n", r.StaleRemoved)

	if len(r.NewListings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "New listings:")
		for _, l := range r.NewListings {
			fmt.Fprintf(w, "  [%s] %s - %s\n", l.Source, truncate(l.Title, 50), l.Price)
		}
	}

	if len(r.PriceDrops) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Price drops:")
		for _, l := range r.PriceDrops {
			old := ""
			if l.OldPrice != nil {
				old = *l.OldPrice + " -> "
			}
			fmt.Fprintf(w, "  [%s] %s: %s%s\n", l.Source, truncate(l.Title, 50), old, l.Price)
		}
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors (%d):\n", len(r.Errors))
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  %v\n", err)
		}
	}

	return nil
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
