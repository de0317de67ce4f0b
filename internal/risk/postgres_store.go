package risk

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mbd888/scamcheck/internal/pagination"
)

// PostgresStore persists outcomes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed outcome store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the assessment_outcomes table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assessment_outcomes (
			id                     VARCHAR(40) PRIMARY KEY,
			category               VARCHAR(64) NOT NULL,
			risk_level             VARCHAR(10) NOT NULL CHECK (risk_level IN ('high', 'neutral', 'low')),
			red_flags              INTEGER NOT NULL DEFAULT 0,
			missed_best_practices  INTEGER NOT NULL DEFAULT 0,
			best_practices         INTEGER NOT NULL DEFAULT 0,
			unknown_responses      INTEGER NOT NULL DEFAULT 0,
			redirected_from        VARCHAR(64) NOT NULL DEFAULT '',
			channel                VARCHAR(16) NOT NULL,
			completed_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_assessment_outcomes_recent
			ON assessment_outcomes (completed_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS idx_assessment_outcomes_category
			ON assessment_outcomes (category, completed_at DESC);
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, outcome *Outcome) error {
	if outcome == nil || outcome.ID == "" || !outcome.RiskLevel.Valid() {
		return ErrInvalidOutcome
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessment_outcomes (
			id, category, risk_level, red_flags, missed_best_practices,
			best_practices, unknown_responses, redirected_from, channel, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		outcome.ID,
		outcome.Category,
		string(outcome.RiskLevel),
		outcome.RedFlags,
		outcome.MissedBestPractices,
		outcome.BestPractices,
		outcome.UnknownResponses,
		outcome.RedirectedFrom,
		outcome.Channel,
		outcome.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, category string, limit int, after *pagination.Cursor) ([]*Outcome, error) {
	var afterAt *time.Time
	var afterID string
	if after != nil {
		afterAt = &after.At
		afterID = after.ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, risk_level, red_flags, missed_best_practices,
		       best_practices, unknown_responses, redirected_from, channel, completed_at
		FROM assessment_outcomes
		WHERE ($1 = '' OR category = $1)
		  AND ($2::timestamptz IS NULL OR (completed_at, id) < ($2, $3))
		ORDER BY completed_at DESC, id DESC
		LIMIT $4
	`, category, afterAt, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(
			&o.ID, &o.Category, &o.RiskLevel, &o.RedFlags, &o.MissedBestPractices,
			&o.BestPractices, &o.UnknownResponses, &o.RedirectedFrom, &o.Channel, &o.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		result = append(result, &o)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, risk_level, COUNT(*)
		FROM assessment_outcomes
		WHERE completed_at >= $1
		GROUP BY category, risk_level
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := newStats()
	for rows.Next() {
		var category string
		var level Level
		var n int
		if err := rows.Scan(&category, &level, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome stats: %w", err)
		}
		stats.add(category, level, n)
	}
	return stats, rows.Err()
}
