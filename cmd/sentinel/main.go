package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/arbiter"
	"github.com/danielpatrickdp/scroll-sentinel/internal/classify"
	"github.com/danielpatrickdp/scroll-sentinel/internal/config"
	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/pipeline"
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
	"github.com/danielpatrickdp/scroll-sentinel/internal/store"
)

// #region commands

// command is one stdin line: exactly one field set.
type command struct {
	Tick     *signals.Sample  `json:"tick,omitempty"`
	Reaction *reactionCommand `json:"reaction,omitempty"`
	Snooze   *snoozeCommand   `json:"snooze,omitempty"`
}

type reactionCommand struct {
	Event          string `json:"event"`
	InterventionID string `json:"intervention_id"`
	DurationMs     int64  `json:"duration_ms"`
}

type snoozeCommand struct {
	Minutes int `json:"minutes"`
}

// #endregion commands

// #region main

func main() {
	dbPath := envOr("SENTINEL_DB", "sentinel.db")
	configPath := envOr("SENTINEL_CONFIG", "sentinel.yaml")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	st, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	var classifier arbiter.Classifier
	if cfg.AI.Endpoint != "" {
		classifier = classify.NewClient(cfg.AI.Endpoint)
	}
	arb := arbiter.New(cfg.AI, classifier, st)
	pipe := pipeline.New(cfg, st, arb)
	defer pipe.Wait()

	fmt.Println("Scroll Sentinel ready.")
	fmt.Printf("  DB: %s | sensitivity: %s | ai: %v\n", dbPath, cfg.Sensitivity, cfg.AI.Enabled)
	fmt.Println(`Send JSON lines: {"tick": {...}} {"reaction": {...}} {"snooze": {...}}`)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var cmd command
		if err := json.Unmarshal(line, &cmd); err != nil {
			log.Printf("bad command: %v", err)
			continue
		}

		switch {
		case cmd.Tick != nil:
			dec := pipe.HandleTick(context.Background(), *cmd.Tick)
			out, _ := json.Marshal(dec)
			fmt.Println(string(out))
		case cmd.Reaction != nil:
			err := pipe.ReportReaction(
				context.Background(),
				intervention.ReactionType(cmd.Reaction.Event),
				cmd.Reaction.InterventionID,
				cmd.Reaction.DurationMs,
			)
			if err != nil {
				log.Printf("reaction error: %v", err)
				continue
			}
			fmt.Println(`{"ack":true}`)
		case cmd.Snooze != nil:
			until := time.Now().Add(time.Duration(cmd.Snooze.Minutes) * time.Minute)
			if err := pipe.Snooze(context.Background(), until); err != nil {
				log.Printf("snooze error: %v", err)
				continue
			}
			fmt.Printf("{\"snoozed_until\":%q}\n", until.Format(time.RFC3339))
		default:
			log.Printf("empty command")
		}
	}
}

// #endregion main

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
