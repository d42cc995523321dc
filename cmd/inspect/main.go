package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to sentinel.db")
	last := flag.Int("last", 20, "show N most recent audit rows")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/sentinel.db [--last N] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := run(st, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

type report struct {
	Multiplier          float64    `json:"multiplier"`
	MultiplierUpdatedAt string     `json:"multiplier_updated_at,omitempty"`
	ReactionCount       int        `json:"reaction_count"`
	EventCount          int        `json:"event_count"`
	BudgetUsedToday     int        `json:"budget_used_today"`
	Audits              []auditRow `json:"audits"`
}

type auditRow struct {
	LogID        string `json:"log_id"`
	Category     string `json:"category"`
	Source       string `json:"source"`
	RuleCategory string `json:"rule_category"`
	AICategory   string `json:"ai_category,omitempty"`
	Disagreement string `json:"disagreement,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func run(st *store.Store, last int, jsonOut bool) error {
	ctx := context.Background()

	mult, err := st.Multiplier(ctx)
	if err != nil {
		return err
	}
	history, err := st.ReactionHistory(ctx)
	if err != nil {
		return err
	}
	events, err := st.EventCount(ctx)
	if err != nil {
		return err
	}
	budget, err := st.BudgetUsed(ctx, store.BudgetDay(time.Now()))
	if err != nil {
		return err
	}
	audits, err := st.RecentAudits(ctx, last)
	if err != nil {
		return err
	}

	rep := report{
		Multiplier:      mult.Value,
		ReactionCount:   len(history),
		EventCount:      events,
		BudgetUsedToday: budget,
	}
	if !mult.UpdatedAt.IsZero() {
		rep.MultiplierUpdatedAt = mult.UpdatedAt.Format(time.RFC3339)
	}
	for _, a := range audits {
		rep.Audits = append(rep.Audits, auditRow{
			LogID:        a.LogID,
			Category:     a.Category.String(),
			Source:       string(a.Source),
			RuleCategory: a.RuleCategory.String(),
			AICategory:   a.AICategory,
			Disagreement: a.Disagreement,
			CreatedAt:    a.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Printf("multiplier: %.2f (updated %s)\n", rep.Multiplier, rep.MultiplierUpdatedAt)
	fmt.Printf("reactions retained: %d | events retained: %d | AI budget used today: %d\n\n",
		rep.ReactionCount, rep.EventCount, rep.BudgetUsedToday)

	fmt.Printf("%-36s  %-17s  %-6s  %-17s  %-10s  %-30s  %s\n",
		"Log ID", "Category", "Source", "Rule", "AI", "Disagreement", "Time")
	for _, a := range rep.Audits {
		fmt.Printf("%-36s  %-17s  %-6s  %-17s  %-10s  %-30s  %s\n",
			a.LogID, a.Category, a.Source, a.RuleCategory, a.AICategory, a.Disagreement, a.CreatedAt)
	}
	return nil
}

// #endregion run
