// File: internal/journal/journal.go
// Package journal
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Journal persists inbound messages to a sqlite database so a device can
// report what its clients sent after a restart.

package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	slot    INTEGER NOT NULL,
	text    INTEGER NOT NULL,
	payload BLOB    NOT NULL,
	at      INTEGER NOT NULL
)`

// Entry is one journaled message.
type Entry struct {
	ID      int64
	Slot    int
	Text    bool
	Payload []byte
	At      time.Time
}

// Journal is an append-mostly message log.
type Journal struct {
	db     *sql.DB
	insert *sql.Stmt
}

// Open creates or opens the journal at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	insert, err := db.PrepareContext(ctx,
		`INSERT INTO messages (slot, text, payload, at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare journal insert: %w", err)
	}
	return &Journal{db: db, insert: insert}, nil
}

// Record appends one message. payload is copied by the driver.
func (j *Journal) Record(ctx context.Context, slot int, text bool, payload []byte) error {
	if payload == nil {
		payload = []byte{}
	}
	_, err := j.insert.ExecContext(ctx, slot, text, payload, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("journal record: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, slot, text, payload, at FROM messages ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			at int64
		)
		if err := rows.Scan(&e.ID, &e.Slot, &e.Text, &e.Payload, &at); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of journaled messages.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal count: %w", err)
	}
	return n, nil
}

// Close releases the statement and the database.
func (j *Journal) Close() error {
	j.insert.Close()
	return j.db.Close()
}
