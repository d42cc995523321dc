package store

// #region imports
import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/escalation"
	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
)

// #endregion

// #region reactions

// AppendReaction appends a reaction event and evicts rows beyond the cap,
// oldest first.
func (s *Store) AppendReaction(ctx context.Context, ev escalation.ReactionEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reaction_events (event, mode, intervention_id, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(ev.Event),
		ev.Mode.String(),
		nullIfEmpty(ev.InterventionID),
		ev.DurationMs,
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert reaction: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM reaction_events WHERE id NOT IN
		 (SELECT id FROM reaction_events ORDER BY id DESC LIMIT ?)`, ReactionCap,
	)
	if err != nil {
		return fmt.Errorf("cap reactions: %w", err)
	}
	return tx.Commit()
}

// ReactionHistory returns all retained reaction events in append order.
func (s *Store) ReactionHistory(ctx context.Context) ([]escalation.ReactionEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event, mode, intervention_id, duration_ms, created_at
		 FROM reaction_events ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	var history []escalation.ReactionEvent
	for rows.Next() {
		var ev escalation.ReactionEvent
		var event, mode, createdStr string
		var interventionID sql.NullString
		if err := rows.Scan(&event, &mode, &interventionID, &ev.DurationMs, &createdStr); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		ev.Event = intervention.ReactionType(event)
		ev.Mode = intervention.ParseCategory(mode)
		if interventionID.Valid {
			ev.InterventionID = interventionID.String
		}
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, createdStr)
		history = append(history, ev)
	}
	return history, rows.Err()
}

// #endregion reactions

// #region event-log

// AppendEvent appends one row to the raw tick log, capped at EventLogCap.
func (s *Store) AppendEvent(ctx context.Context, kind, payloadJSON string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO event_log (kind, payload, created_at) VALUES (?, ?, ?)`,
		kind, nullIfEmpty(payloadJSON), at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM event_log WHERE id NOT IN
		 (SELECT id FROM event_log ORDER BY id DESC LIMIT ?)`, EventLogCap,
	)
	if err != nil {
		return fmt.Errorf("cap events: %w", err)
	}
	return tx.Commit()
}

// EventCount returns the number of retained raw log rows.
func (s *Store) EventCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_log`).Scan(&n)
	return n, err
}

// #endregion event-log

// #region audit

// AuditEntry is one decision row: the final category plus the rule-vs-AI
// comparison that produced it. An empty Disagreement (null column) means the
// classifier was never consulted on that tick.
type AuditEntry struct {
	LogID        string
	Category     intervention.Category
	Source       intervention.Source
	RuleCategory intervention.Category
	AICategory   string // empty when the classifier had no opinion
	Disagreement string
	ReasonsJSON  string
	CreatedAt    time.Time
}

// AppendAudit writes one audit row, capped at AuditCap.
func (s *Store) AppendAudit(ctx context.Context, entry AuditEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_log (log_id, category, source, rule_category, ai_category, disagreement, reasons, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.LogID,
		entry.Category.String(),
		string(entry.Source),
		entry.RuleCategory.String(),
		nullIfEmpty(entry.AICategory),
		nullIfEmpty(entry.Disagreement),
		nullIfEmpty(entry.ReasonsJSON),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM audit_log WHERE log_id NOT IN
		 (SELECT log_id FROM audit_log ORDER BY created_at DESC LIMIT ?)`, AuditCap,
	)
	if err != nil {
		return fmt.Errorf("cap audit: %w", err)
	}
	return tx.Commit()
}

// RecentAudits returns the newest audit rows, newest first.
func (s *Store) RecentAudits(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT log_id, category, source, rule_category, ai_category, disagreement, reasons, created_at
		 FROM audit_log ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var category, source, ruleCategory, createdStr string
		var aiCategory, disagreement, reasons sql.NullString
		if err := rows.Scan(&e.LogID, &category, &source, &ruleCategory, &aiCategory, &disagreement, &reasons, &createdStr); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		e.Category = intervention.ParseCategory(category)
		e.Source = intervention.Source(source)
		e.RuleCategory = intervention.ParseCategory(ruleCategory)
		if aiCategory.Valid {
			e.AICategory = aiCategory.String
		}
		if disagreement.Valid {
			e.Disagreement = disagreement.String
		}
		if reasons.Valid {
			e.ReasonsJSON = reasons.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion audit

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
