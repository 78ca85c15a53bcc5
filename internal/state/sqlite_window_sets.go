package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// SaveWindows stores a named window set and returns its id. Window
// boundaries are kept at second precision.
func (s *SQLiteStore) SaveWindows(ctx context.Context, name string, windows []core.TimeWindow) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	id := generateID()
	s.logger.Debug("saving windows", slog.String("id", id), slog.String("name", name), slog.Int("count", len(windows)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO window_sets (id, name, created_at, num_windows) VALUES (?, ?, ?, ?)`,
		id, name, time.Now().UTC(), len(windows),
	); err != nil {
		return "", fmt.Errorf("failed to create window set: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO windows (window_set_id, position, offset_unix, cutoff_unix) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare window insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, w := range windows {
		if _, err := stmt.ExecContext(ctx, id, i, w.Offset.Unix(), w.Cutoff.Unix()); err != nil {
			return "", fmt.Errorf("failed to save window %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit windows: %w", err)
	}
	return id, nil
}

// GetWindows returns the windows of a saved set in their original order.
func (s *SQLiteStore) GetWindows(ctx context.Context, id string) ([]core.TimeWindow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT num_windows FROM window_sets WHERE id = ?`, id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("window set %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get window set: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT offset_unix, cutoff_unix FROM windows WHERE window_set_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get windows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	windows := make([]core.TimeWindow, 0, count)
	for rows.Next() {
		var offset, cutoff int64
		if err := rows.Scan(&offset, &cutoff); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		windows = append(windows, core.TimeWindow{
			Offset: time.Unix(offset, 0).UTC(),
			Cutoff: time.Unix(cutoff, 0).UTC(),
		})
	}
	return windows, rows.Err()
}
