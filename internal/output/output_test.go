package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dwcoetzee/mototrack/internal/database"
	"github.com/dwcoetzee/mototrack/internal/tracker"
)

func strPtr(s string) *string { return &s }

func sampleListings() []database.Listing {
	old := "R 65,000"
	return []database.Listing{
		{
			ID:         "autotrader_1",
			SearchTerm: "Suzuki V-Strom 250",
			Source:     "AutoTrader",
			Title:      "2022 Suzuki V-Strom 250 SX",
			Price:      "R 59,999",
			Kilometers: strPtr("12 000 km"),
			Location:   strPtr("Cape Town"),
			PriceDrop:  true,
			OldPrice:   &old,
		},
		{
			ID:         "gt_2",
			SearchTerm: "Suzuki V-Strom 250",
			Source:     "Gumtree",
			Title:      "Suzuki V-Strom 250 for sale",
			Price:      "R 62,500",
		},
	}
}

func TestListingsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := TableTo(&buf, sampleListings()); err != nil {
		t.Fatalf("TableTo failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"BIKE", "AutoTrader", "R 59,999", "was R 65,000", "N/A"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestListingsTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := TableTo(&buf, []database.Listing{}); err != nil {
		t.Fatalf("TableTo failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No listings found") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestStatsTable(t *testing.T) {
	now := time.Now()
	stats := &database.Stats{
		TotalListings: 12,
		TrackedBikes:  3,
		PriceDrops:    2,
		BySource:      map[string]int{"AutoTrader": 7, "Gumtree": 5},
		LastRunAt:     &now,
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, stats); err != nil {
		t.Fatalf("TableTo failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Total listings:         12", "AutoTrader:", "Last run:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunResultTable(t *testing.T) {
	listings := sampleListings()
	result := &tracker.Result{
		BikesTracked:  2,
		ListingsFound: 2,
		NewListings:   listings[1:],
		PriceDrops:    listings[:1],
		StaleRemoved:  1,
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, result); err != nil {
		t.Fatalf("TableTo failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Run complete", "New listings:", "Price drops:", "R 65,000 -> R 59,999"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONTo(&buf, sampleListings()); err != nil {
		t.Fatalf("JSONTo failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"id": "autotrader_1"`) {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
}

func TestOutputUnknownFormat(t *testing.T) {
	if err := Output("yaml", sampleListings()); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestTableUnsupportedType(t *testing.T) {
	var buf bytes.Buffer
	if err := TableTo(&buf, 42); err == nil {
		t.Error("expected error for unsupported type")
	}
}
