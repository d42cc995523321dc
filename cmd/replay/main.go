package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to replay fixture JSON")
	verbose := flag.Bool("v", false, "print reasons for each tick")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if fixture.Description != "" {
		fmt.Printf("Fixture: %s\n\n", fixture.Description)
	}

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	cfg := fixture.Config.ToConfig()
	results, finalMult := replay.Replay(start, fixture.ToSteps(), cfg)

	fmt.Printf("%-12s  %-7s  %-17s  %-6s  %-6s  %s\n",
		"Tick", "Zone", "Category", "Score", "Streak", "Mult")
	for _, r := range results {
		fmt.Printf("%-12s  %-7s  %-17s  %-6d  %-6d  %.2f\n",
			r.TickID, r.Zone, r.Category, r.ResistanceScore, r.IgnoredStreak, r.Multiplier)
		if *verbose {
			for _, reason := range r.Reasons {
				fmt.Printf("              %s\n", reason)
			}
		}
	}

	summary := replay.Summarize(results, finalMult)
	fmt.Printf("\nticks: %d | silent: %d | shown: %d | final multiplier: %.2f\n",
		summary.TotalTicks, summary.Silent, summary.Shown, summary.FinalMultiplier)
	for cat, n := range summary.ByCategory {
		fmt.Printf("  %-17s %d\n", cat, n)
	}

	if len(fixture.ExpectedResults) > 0 {
		mismatches := checkExpected(fixture, results)
		if mismatches == 0 {
			fmt.Printf("\nexpectations: all %d matched\n", len(fixture.ExpectedResults))
		} else {
			fmt.Printf("\nexpectations: %d mismatched\n", mismatches)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region expectations

func checkExpected(fixture *replay.Fixture, results []replay.Result) int {
	byTick := make(map[string]replay.Result, len(results))
	for _, r := range results {
		byTick[r.TickID] = r
	}

	mismatches := 0
	for _, exp := range fixture.ExpectedResults {
		got, ok := byTick[exp.TickID]
		if !ok {
			fmt.Printf("  MISSING %s: expected %s, tick not replayed\n", exp.TickID, exp.Category)
			mismatches++
			continue
		}
		if got.Category.String() != exp.Category {
			fmt.Printf("  MISMATCH %s: expected %s, got %s\n", exp.TickID, exp.Category, got.Category)
			mismatches++
		}
	}
	return mismatches
}

// #endregion expectations
