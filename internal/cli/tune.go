package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/dwcoetzee/mototrack/internal/match"
)

var (
	tuneSource  string
	tuneVerbose bool
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Sweep match thresholds over the labeled corpus",
	Long: `Tune scores a labeled corpus of (search term, listing title) pairs at
a range of thresholds and reports accuracy, precision, recall and F1 for
each, recommending the threshold with the best F1.

Use the recommendation to set [thresholds] in the config file.

Examples:
  mototrack tune                       # Sweep with the plain fuzzy gate
  mototrack tune --source autotrader   # Sweep with the brand-scoped gate
  mototrack tune --verbose             # Show per-case results at the best threshold`,
	RunE: runTune,
}

func init() {
	rootCmd.AddCommand(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneSource, "source", config.SourceGumtree, "Gate to sweep (gumtree, autotrader)")
	tuneCmd.Flags().BoolVar(&tuneVerbose, "verbose", false, "Show per-case results at the recommended threshold")
}

// tuneCase is one labeled pair: does this listing title belong to the
// search term's results?
type tuneCase struct {
	searchTerm string
	title      string
	want       bool
}

// tuneCorpus collects real hits and misses observed in scrape logs,
// including the false positives that motivated the sentinel gates.
var tuneCorpus = []tuneCase{
	{"Suzuki DS 250 SX V-STROM", "Suzuki 250 V-Strom", true},
	{"Suzuki DS 250 SX V-STROM", "2025 Suzuki V-STROM DS 250 SX", true},
	{"Suzuki DS 250 SX V-STROM", "Suzuki Vstrom 250", true},
	{"Suzuki DS 250 SX V-STROM", "Suzuki Dl1000 Vstrom", false},

	{"Honda CB500X", "2022 Honda CB500X", true},
	{"Honda CB500X", "Honda CB 500X", true},
	{"Honda CB500X", "2014 Honda CRF", false},

	{"Kawasaki Ninja 400", "2023 Kawasaki Ninja 400 SE ABS Demo", true},
	{"Kawasaki Ninja 400", "2024 Kawasaki Ninja", true},
	{"Kawasaki Ninja 400", "Kawasaki KFX 400", false},
	{"Kawasaki Ninja 400", "1988 Kawasaki Eliminator SE 400", false},
	{"Kawasaki Ninja 400", "2024 Kawasaki Ninja 250", false},

	{"BMW G 310", "2022 BMW G 310 RS Sport", true},
	{"BMW G 310", "BMW G310", true},
	{"BMW G 310", "2021 bmw GS 310", false},
	{"BMW G 310", "2009 BMW 310 / 45 / G450", false},
	{"BMW G 310", "BMW 310", false},
	{"BMW G 310", "BMW GS 310", false},

	{"BMW GS 310", "2022 Bmw Gs 310 Rallye Limited Edition", true},
	{"BMW GS 310", "BMW 310", false},

	{"Triumph Scrambler 400", "2025 Triumph Scrambler 400", true},
	{"Triumph Scrambler 400", "Triumph Scrambler", true},
	{"Triumph Scrambler 400", "Triumph Speed 400", false},

	{"Ducati Scrambler", "2015 Ducati Scrambler Urban Enduro", true},
	{"Ducati Scrambler", "2015 Ducati X Scrambler", true},

	{"Yamaha MT-07", "2025 Yamaha MT-07", true},
	{"Yamaha MT-07", "Yamaha MT07", true},
	{"Yamaha MT-07", "Yamaha MT-09", false},
}

// tuneResult holds the sweep metrics for one threshold
type tuneResult struct {
	threshold float64
	accuracy  float64
	precision float64
	recall    float64
	f1        float64
	falsePos  int
	falseNeg  int
}

func runTune(cmd *cobra.Command, args []string) error {
	gate, err := tuneGate(tuneSource)
	if err != nil {
		return err
	}

	var results []tuneResult
	for threshold := 0.35; threshold < 0.60; threshold += 0.005 {
		results = append(results, sweepThreshold(gate, threshold))
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.f1 > best.f1 {
			best = r
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Threshold", "Acc%", "Prec", "Rec", "F1", "FP", "FN", "")
	for _, r := range results {
		marker := ""
		if r.threshold == best.threshold {
			marker = "<- best"
		}
		table.Append([]string{
			fmt.Sprintf("%.3f", r.threshold),
			fmt.Sprintf("%.1f", r.accuracy),
			fmt.Sprintf("%.2f", r.precision),
			fmt.Sprintf("%.2f", r.recall),
			fmt.Sprintf("%.2f", r.f1),
			fmt.Sprintf("%d", r.falsePos),
			fmt.Sprintf("%d", r.falseNeg),
			marker,
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Printf("\nRecommendation: thresholds.%s = %.3f\n", tuneSource, best.threshold)
	fmt.Printf("  Accuracy:  %.1f%%\n", best.accuracy)
	fmt.Printf("  Precision: %.3f\n", best.precision)
	fmt.Printf("  Recall:    %.3f\n", best.recall)
	fmt.Printf("  F1:        %.3f\n", best.f1)

	if tuneVerbose {
		fmt.Println()
		if err := printCases(gate, best.threshold); err != nil {
			return err
		}
	}
	return nil
}

// tuneGate returns the relevance predicate a source uses, parameterized
// by threshold.
func tuneGate(source string) (func(term, title string, threshold float64) bool, error) {
	switch source {
	case config.SourceGumtree, config.SourceWeBuyCars:
		return func(term, title string, threshold float64) bool {
			return match.IsRelevant(term, title, threshold)
		}, nil
	case config.SourceAutoTrader:
		return func(term, title string, threshold float64) bool {
			return match.IsRelevantBrandScoped(title, term, threshold)
		}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}

func sweepThreshold(gate func(term, title string, threshold float64) bool, threshold float64) tuneResult {
	var tp, fp, fn, correct int
	for _, c := range tuneCorpus {
		got := gate(c.searchTerm, c.title, threshold)
		if got == c.want {
			correct++
		}
		switch {
		case got && c.want:
			tp++
		case got && !c.want:
			fp++
		case !got && c.want:
			fn++
		}
	}

	r := tuneResult{
		threshold: threshold,
		accuracy:  float64(correct) / float64(len(tuneCorpus)) * 100,
		falsePos:  fp,
		falseNeg:  fn,
	}
	if tp+fp > 0 {
		r.precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		r.recall = float64(tp) / float64(tp+fn)
	}
	if r.precision+r.recall > 0 {
		r.f1 = 2 * r.precision * r.recall / (r.precision + r.recall)
	}
	return r
}

func printCases(gate func(term, title string, threshold float64) bool, threshold float64) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("", "Score", "Search term", "Listing title", "Want")
	for _, c := range tuneCorpus {
		got := gate(c.searchTerm, c.title, threshold)
		status := "ok"
		if got != c.want {
			status = "MISS"
		}
		want := "skip"
		if c.want {
			want = "match"
		}
		table.Append([]string{
			status,
			fmt.Sprintf("%.3f", match.Score(c.searchTerm, c.title)),
			c.searchTerm,
			c.title,
			want,
		})
	}
	return table.Render()
}
