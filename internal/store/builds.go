package store

import (
	"context"
	"fmt"
	"time"
)

// Build is one recorded build run.
type Build struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Assets     int
	Skipped    int
	Errors     int
	Warnings   int
	Outcomes   []AssetOutcome
}

// AssetOutcome is the result of one build file within a run.
type AssetOutcome struct {
	BuildFile string
	Status    string
	Message   string
}

// RecordBuild stores a build run and its per-file outcomes.
func (s *Store) RecordBuild(ctx context.Context, b Build) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO builds (id, started_at, finished_at, assets, skipped, errors, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.StartedAt.UTC().Format(time.RFC3339Nano), b.FinishedAt.UTC().Format(time.RFC3339Nano),
		b.Assets, b.Skipped, b.Errors, b.Warnings); err != nil {
		return fmt.Errorf("insert build %s: %w", b.ID, err)
	}

	for _, o := range b.Outcomes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO build_assets (build_id, build_file, status, message)
			VALUES (?, ?, ?, ?)
		`, b.ID, o.BuildFile, o.Status, o.Message); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.BuildFile, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Builds returns the most recent builds, newest first. limit <= 0 returns
// all of them.
func (s *Store) Builds(ctx context.Context, limit int) ([]Build, error) {
	query := `
		SELECT id, started_at, finished_at, assets, skipped, errors, warnings
		FROM builds
		ORDER BY seq DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		var started, finished string
		if err := rows.Scan(&b.ID, &started, &finished, &b.Assets, &b.Skipped, &b.Errors, &b.Warnings); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		if b.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("build %s started_at: %w", b.ID, err)
		}
		if b.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("build %s finished_at: %w", b.ID, err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}

	for i := range builds {
		outcomes, err := s.outcomes(ctx, builds[i].ID)
		if err != nil {
			return nil, err
		}
		builds[i].Outcomes = outcomes
	}
	return builds, nil
}

func (s *Store) outcomes(ctx context.Context, buildID string) ([]AssetOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT build_file, status, message
		FROM build_assets
		WHERE build_id = ?
		ORDER BY build_file COLLATE BINARY ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes for %s: %w", buildID, err)
	}
	defer rows.Close()

	var out []AssetOutcome
	for rows.Next() {
		var o AssetOutcome
		if err := rows.Scan(&o.BuildFile, &o.Status, &o.Message); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
