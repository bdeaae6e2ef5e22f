// Package ledger is the SQLite audit trail for the review loop. It records
// every notification sent to the admin, keeps the hash-to-repo mapping for
// callback payloads that did not fit Telegram's 64-byte limit, and records
// the decisions that came back.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"curator/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ErrUnknownHash is returned when a callback hash has no recorded mapping.
var ErrUnknownHash = errors.New("unknown callback hash")

// Notification is one message sent to the admin chat.
type Notification struct {
	ID        int64
	FullName  string
	Hash      string
	Kind      string
	ChatID    int64
	MessageID int
	SentAt    time.Time
}

// Decision is one resolved admin action.
type Decision struct {
	ID        int64
	Action    string
	FullName  string
	SectionID string
	DecidedAt time.Time
}

// Ledger wraps the SQLite database.
type Ledger struct {
	db *sql.DB
}

// Open opens a SQLite database at dsn and runs pending migrations.
func Open(dsn string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordNotification inserts a sent message and populates its ID and SentAt.
func (l *Ledger) RecordNotification(ctx context.Context, n *Notification) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO notifications (full_name, hash, kind, chat_id, message_id, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.FullName, n.Hash, n.Kind, n.ChatID, n.MessageID, now,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	n.ID = id
	n.SentAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ResolveHash returns the repository full name a callback hash was recorded
// for. The most recent mapping wins.
func (l *Ledger) ResolveHash(ctx context.Context, hash string) (string, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT full_name FROM notifications
		 WHERE hash = ? ORDER BY id DESC LIMIT 1`, hash,
	)
	var fullName string
	if err := row.Scan(&fullName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUnknownHash
		}
		return "", fmt.Errorf("resolve hash: %w", err)
	}
	return fullName, nil
}

// RecordDecision inserts an admin decision and populates its ID and DecidedAt.
func (l *Ledger) RecordDecision(ctx context.Context, d *Decision) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO decisions (action, full_name, section_id, decided_at)
		 VALUES (?, ?, ?, ?)`,
		d.Action, d.FullName, d.SectionID, now,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	d.DecidedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// RecentDecisions returns the newest decisions, most recent first.
func (l *Ledger) RecentDecisions(ctx context.Context, limit int) ([]*Decision, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, action, full_name, section_id, decided_at
		 FROM decisions ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*Decision
	for rows.Next() {
		var (
			d  Decision
			at string
		)
		if err := rows.Scan(&d.ID, &d.Action, &d.FullName, &d.SectionID, &at); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.DecidedAt, _ = time.Parse(timeLayout, at)
		decisions = append(decisions, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return decisions, nil
}
