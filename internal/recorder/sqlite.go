package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so external readers don't block the bot's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS checkin_events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			user_id        TEXT,
			scope          TEXT,
			trading_day    TEXT,
			total_count    INTEGER,
			strike_count   INTEGER,
			has_conclusion INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkin_ts ON checkin_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS revoke_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			user_id      TEXT,
			scope        TEXT,
			date         TEXT,
			total_count  INTEGER,
			strike_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_revoke_ts ON revoke_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS reset_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			scope     TEXT,
			removed   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reset_ts ON reset_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS broadcast_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			group_id     TEXT,
			review_date  TEXT,
			participants INTEGER,
			used_llm     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_broadcast_ts ON broadcast_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCheckin(evt *CheckinEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO checkin_events
		(timestamp, user_id, scope, trading_day, total_count, strike_count, has_conclusion)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.UserID, evt.Scope, evt.TradingDay,
		evt.Total, evt.Strike, boolToInt(evt.HasConclusion),
	)
	return err
}

func (r *SQLiteRecorder) RecordRevoke(evt *RevokeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO revoke_events
		(timestamp, user_id, scope, date, total_count, strike_count)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.UserID, evt.Scope, evt.Date, evt.Total, evt.Strike,
	)
	return err
}

func (r *SQLiteRecorder) RecordReset(evt *ResetEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO reset_events
		(timestamp, scope, removed)
		VALUES (?,?,?)`,
		time.Now().Unix(), evt.Scope, evt.Removed,
	)
	return err
}

func (r *SQLiteRecorder) RecordBroadcast(evt *BroadcastEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO broadcast_events
		(timestamp, group_id, review_date, participants, used_llm)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.GroupID, evt.ReviewDate, evt.Participants, boolToInt(evt.UsedLLM),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
