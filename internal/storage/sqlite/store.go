package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hetulpatel/arbhunter/internal/storage"
)

const (
	defaultPath = "data/arbhunter.db"
)

// Store wraps a SQLite DB connection.
type Store struct {
	path string
	db   *sql.DB
}

// Open creates (if needed) and opens the SQLite database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := ensureWAL(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stores exposes each collection behind the storage interfaces.
func (s *Store) Stores() storage.Stores {
	return storage.Stores{
		Opportunities: &OpportunityStore{db: s.db},
		Positions:     &PositionStore{db: s.db},
		Performance:   &PerformanceStore{db: s.db},
		Tasks:         &TaskLogStore{db: s.db},
		Prices:        &PriceStore{db: s.db},
	}
}

var tables = []string{"opportunities", "positions", "market_type_performance", "task_log", "market_prices"}

// CreateTables ensures every table and index exists.
func (s *Store) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropTables removes every table.
func (s *Store) DropTables(ctx context.Context) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+t+`;`); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return nil
}

// ClearTables deletes every row but keeps the schema.
func (s *Store) ClearTables(ctx context.Context) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+t+`;`); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}

// Timestamps are stored as INTEGER unix nanoseconds so range filters and
// ORDER BY compare numerically.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS opportunities (
	opportunity_id TEXT PRIMARY KEY,
	event_name TEXT NOT NULL,
	platform_a TEXT NOT NULL,
	platform_b TEXT NOT NULL,
	market_id_a TEXT,
	market_id_b TEXT,
	platform_a_outcome TEXT NOT NULL,
	platform_b_outcome TEXT NOT NULL,
	platform_a_price REAL NOT NULL,
	platform_b_price REAL NOT NULL,
	bet_amount_a REAL NOT NULL,
	bet_amount_b REAL NOT NULL,
	total_investment REAL NOT NULL,
	guaranteed_payout REAL NOT NULL,
	profit REAL NOT NULL,
	profit_percentage REAL NOT NULL,
	combined_probability REAL NOT NULL,
	expires_at INTEGER,
	detected_at INTEGER NOT NULL,
	status TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS opportunities_status_idx ON opportunities(status, detected_at);

CREATE TABLE IF NOT EXISTS positions (
	position_id TEXT PRIMARY KEY,
	opportunity_id TEXT,
	event_name TEXT NOT NULL,
	platform_a TEXT NOT NULL,
	platform_b TEXT NOT NULL,
	amount_bet_a REAL NOT NULL,
	amount_bet_b REAL NOT NULL,
	entry_price_a REAL NOT NULL,
	entry_price_b REAL NOT NULL,
	target_profit REAL NOT NULL,
	target_profit_pct REAL NOT NULL,
	expiration_date INTEGER NOT NULL,
	market_type TEXT NOT NULL,
	state TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	last_checked INTEGER NOT NULL,
	actual_profit REAL,
	resolved_at INTEGER
);
CREATE INDEX IF NOT EXISTS positions_state_idx ON positions(state);
CREATE INDEX IF NOT EXISTS positions_market_type_idx ON positions(market_type);

CREATE TABLE IF NOT EXISTS market_type_performance (
	market_type TEXT PRIMARY KEY,
	opportunities_found INTEGER NOT NULL,
	profitable_arbs INTEGER NOT NULL,
	avg_profit_pct REAL NOT NULL,
	success_rate REAL NOT NULL,
	last_updated INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS task_log (
	task_id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	status TEXT NOT NULL,
	details TEXT,
	error TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS task_log_ts_idx ON task_log(timestamp);
CREATE INDEX IF NOT EXISTS task_log_action_idx ON task_log(action, status);

CREATE TABLE IF NOT EXISTS market_prices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	venue TEXT NOT NULL,
	market_id TEXT NOT NULL,
	event_name TEXT,
	outcome TEXT NOT NULL,
	price REAL NOT NULL,
	observed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS market_prices_venue_idx ON market_prices(venue, observed_at);
`

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(t), Valid: true}
}

func fromNullableUnix(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return fromUnix(n.Int64)
}

func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// mapErr translates driver errors into storage sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return storage.ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", storage.ErrDuplicateKey, err)
	default:
		return err
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}
