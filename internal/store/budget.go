package store

// #region imports
import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// #endregion

// #region budget

// BudgetDay formats a timestamp as the local calendar day the budget counter
// is keyed by.
func BudgetDay(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// BudgetUsed returns the number of classifier calls consumed on the given day.
func (s *Store) BudgetUsed(ctx context.Context, day string) (int, error) {
	var used int
	err := s.db.QueryRowContext(ctx,
		`SELECT used FROM ai_budget WHERE day = ?`, day,
	).Scan(&used)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read budget: %w", err)
	}
	return used, nil
}

// ConsumeBudget increments the day's usage counter by one.
func (s *Store) ConsumeBudget(ctx context.Context, day string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_budget (day, used) VALUES (?, 1)
		 ON CONFLICT(day) DO UPDATE SET used = used + 1`, day,
	)
	if err != nil {
		return fmt.Errorf("consume budget: %w", err)
	}
	return nil
}

// #endregion budget

// #region control

// ControlTime reads a named control timestamp. Missing keys read as the zero
// time.
func (s *Store) ControlTime(ctx context.Context, key string) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM control WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read control %s: %w", key, err)
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse control %s: %w", key, err)
	}
	return t, nil
}

// SetControlTime upserts a named control timestamp.
func (s *Store) SetControlTime(ctx context.Context, key string, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO control (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, t.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set control %s: %w", key, err)
	}
	return nil
}

// #endregion control
