package store

// #region imports
import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/elastic"
	_ "modernc.org/sqlite"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS adaptive_multiplier (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	value       REAL NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reaction_events (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	event            TEXT NOT NULL,
	mode             TEXT NOT NULL,
	intervention_id  TEXT,
	duration_ms      INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL,
	payload     TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
	log_id        TEXT PRIMARY KEY,
	category      TEXT NOT NULL,
	source        TEXT NOT NULL,
	rule_category TEXT NOT NULL,
	ai_category   TEXT,
	disagreement  TEXT,
	reasons       TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ai_budget (
	day   TEXT PRIMARY KEY,
	used  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS control (
	key    TEXT PRIMARY KEY,
	value  TEXT NOT NULL
);
`

// #endregion schema

// #region caps

// Rolling caps. Appends always evict the oldest rows first.
const (
	ReactionCap = 50
	EventLogCap = 2000
	AuditCap    = 500
)

// Control keys.
const (
	KeyAICooldownUntil = "ai_cooldown_until"
	KeySnoozeUntil     = "snooze_until"
)

// #endregion caps

// #region store-struct

// Store is the SQLite-backed persistent state for one user session: the
// adaptive multiplier, capped rolling logs, AI budget and control timestamps.
type Store struct {
	db *sql.DB
}

// NewStore opens the database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for inspection tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region multiplier

// Multiplier reads the adaptive multiplier record. A missing row reads as
// the neutral multiplier with a zero timestamp.
func (s *Store) Multiplier(ctx context.Context) (elastic.Record, error) {
	var value float64
	var updatedStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM adaptive_multiplier WHERE id = 1`,
	).Scan(&value, &updatedStr)
	if err == sql.ErrNoRows {
		return elastic.Record{Value: 1.0}, nil
	}
	if err != nil {
		return elastic.Record{}, fmt.Errorf("read multiplier: %w", err)
	}
	updatedAt, _ := time.Parse(time.RFC3339Nano, updatedStr)
	return elastic.Record{Value: value, UpdatedAt: updatedAt}, nil
}

// SetMultiplier upserts the single multiplier row.
func (s *Store) SetMultiplier(ctx context.Context, rec elastic.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO adaptive_multiplier (id, value, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		rec.Value, rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set multiplier: %w", err)
	}
	return nil
}

// #endregion multiplier
