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

// CreateBuild records the start of a graph build.
func (s *SQLiteStore) CreateBuild(ctx context.Context, dataset string, edgeIndex string) (*core.Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	build := &core.Build{
		ID:        generateID(),
		Dataset:   dataset,
		EdgeIndex: edgeIndex,
		Status:    core.BuildStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating build", slog.String("id", build.ID), slog.String("dataset", dataset))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, dataset, edge_index, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		build.ID, build.Dataset, build.EdgeIndex, string(build.Status), build.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}
	return build, nil
}

// CompleteBuild stores the final status and graph size of a build.
func (s *SQLiteStore) CompleteBuild(ctx context.Context, id string, status core.BuildStatus, summary core.BuildSummary, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE builds
		SET status = ?, completed_at = ?, node_groups = ?, edge_groups = ?,
			num_nodes = ?, num_edges = ?, error = ?
		WHERE id = ?`,
		string(status), time.Now().UTC(), summary.NodeGroups, summary.EdgeGroups,
		summary.NumNodes, summary.NumEdges, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete build: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete build: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("build %s: %w", id, ErrNotFound)
	}
	return nil
}

const buildColumns = `id, dataset, edge_index, status, started_at, completed_at,
	node_groups, edge_groups, num_nodes, num_edges, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (*core.Build, error) {
	b := &core.Build{}
	var (
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	err := row.Scan(&b.ID, &b.Dataset, &b.EdgeIndex, &status, &b.StartedAt, &completedAt,
		&b.Summary.NodeGroups, &b.Summary.EdgeGroups, &b.Summary.NumNodes, &b.Summary.NumEdges, &errMsg)
	if err != nil {
		return nil, err
	}

	b.Status = core.BuildStatus(status)
	b.StartedAt = b.StartedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		b.CompletedAt = &t
	}
	b.Error = errMsg.String
	return b, nil
}

// GetBuild retrieves a build by ID.
func (s *SQLiteStore) GetBuild(ctx context.Context, id string) (*core.Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+buildColumns+` FROM builds WHERE id = ?`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return b, nil
}

// ListBuilds returns the most recent builds first. A non-positive limit
// returns all builds.
func (s *SQLiteStore) ListBuilds(ctx context.Context, limit int) ([]*core.Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildColumns+` FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []*core.Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// RecordEdgeGroups replaces the edge group sizes stored for a build.
func (s *SQLiteStore) RecordEdgeGroups(ctx context.Context, buildID string, groups []core.EdgeGroupStat) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM build_edge_groups WHERE build_id = ?`, buildID); err != nil {
		return fmt.Errorf("failed to clear edge groups: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO build_edge_groups (build_id, position, src_table, relation, dst_table, num_edges)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge group insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, g := range groups {
		if _, err := stmt.ExecContext(ctx, buildID, i, g.Type.Src, g.Type.Rel, g.Type.Dst, g.NumEdges); err != nil {
			return fmt.Errorf("failed to record edge group %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit edge groups: %w", err)
	}
	return nil
}

// GetEdgeGroups returns the edge group sizes of a build in recorded order.
func (s *SQLiteStore) GetEdgeGroups(ctx context.Context, buildID string) ([]core.EdgeGroupStat, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT src_table, relation, dst_table, num_edges
		FROM build_edge_groups
		WHERE build_id = ?
		ORDER BY position`, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get edge groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []core.EdgeGroupStat
	for rows.Next() {
		var g core.EdgeGroupStat
		if err := rows.Scan(&g.Type.Src, &g.Type.Rel, &g.Type.Dst, &g.NumEdges); err != nil {
			return nil, fmt.Errorf("failed to scan edge group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
