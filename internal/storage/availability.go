package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/availability"
)

// Record is one stored availability record.
type Record struct {
	Key       string
	Lines     []string
	UpdatedAt int64 // Unix seconds
}

// Save replaces the availability record for key.
func (db *DB) Save(ctx context.Context, key string, lines []string) error {
	if err := availability.ValidateKey(key); err != nil {
		return err
	}

	query := `
	INSERT INTO availability (key, content, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`
	if _, err := db.conn.ExecContext(ctx, query, key, availability.Encode(lines), time.Now().Unix()); err != nil {
		return fmt.Errorf("storage: save availability %s: %w", key, err)
	}
	return nil
}

// Load returns the availability record for key, or an empty slice when none exists.
func (db *DB) Load(ctx context.Context, key string) ([]string, error) {
	rec, err := db.GetRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return []string{}, nil
	}
	return rec.Lines, nil
}

// GetRecord returns the stored record with its metadata, or nil when key has none.
func (db *DB) GetRecord(ctx context.Context, key string) (*Record, error) {
	if err := availability.ValidateKey(key); err != nil {
		return nil, err
	}

	var content string
	var updatedAt int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT content, updated_at FROM availability WHERE key = ?`, key,
	).Scan(&content, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load availability %s: %w", key, err)
	}

	return &Record{
		Key:       key,
		Lines:     availability.Decode(content),
		UpdatedAt: updatedAt,
	}, nil
}

// CountRecords returns the number of stored availability records.
func (db *DB) CountRecords(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM availability`).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count availability: %w", err)
	}
	return count, nil
}
