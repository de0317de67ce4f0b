package flows

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore persists flow definitions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed flow store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the flow_definitions table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS flow_definitions (
			category      VARCHAR(64) PRIMARY KEY,
			title         TEXT NOT NULL DEFAULT '',
			questions     JSONB NOT NULL,
			reassurances  JSONB NOT NULL DEFAULT '[]',
			version       INTEGER NOT NULL DEFAULT 1,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// Seed inserts any built-in flows that are not stored yet. Existing rows are left alone.
func (s *PostgresStore) Seed(ctx context.Context, defaults map[string]*Flow) error {
	for _, f := range defaults {
		questions, reassurances, err := marshalFlow(f)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO flow_definitions (category, title, questions, reassurances, version)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (category) DO NOTHING
		`, f.Category, f.Title, questions, reassurances, f.Version)
		if err != nil {
			return fmt.Errorf("failed to seed flow %s: %w", f.Category, err)
		}
	}
	return nil
}

// SeedIfEmpty seeds the built-in flows only into an empty table, so flows an
// editor deleted stay deleted across restarts. It reports whether it seeded.
func (s *PostgresStore) SeedIfEmpty(ctx context.Context, defaults map[string]*Flow) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM flow_definitions)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to count flows: %w", err)
	}
	if exists {
		return false, nil
	}
	return true, s.Seed(ctx, defaults)
}

func (s *PostgresStore) GetFlow(ctx context.Context, category string) (*Flow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT category, title, questions, reassurances, version, updated_at
		FROM flow_definitions
		WHERE category = $1
	`, category)

	f, err := scanFlow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListFlows(ctx context.Context) ([]*Flow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, title, questions, reassurances, version, updated_at
		FROM flow_definitions
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Flow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (s *PostgresStore) SaveFlow(ctx context.Context, flow *Flow) error {
	questions, reassurances, err := marshalFlow(flow)
	if err != nil {
		return err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO flow_definitions (category, title, questions, reassurances, version, updated_at)
		VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (category) DO UPDATE SET
			title = EXCLUDED.title,
			questions = EXCLUDED.questions,
			reassurances = EXCLUDED.reassurances,
			version = flow_definitions.version + 1,
			updated_at = NOW()
		RETURNING version, updated_at
	`, flow.Category, flow.Title, questions, reassurances).Scan(&flow.Version, &flow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteFlow(ctx context.Context, category string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flow_definitions WHERE category = $1`, category)
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	if n == 0 {
		return ErrFlowNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlow(sc scanner) (*Flow, error) {
	var f Flow
	var questionsJSON, reassurancesJSON []byte
	if err := sc.Scan(&f.Category, &f.Title, &questionsJSON, &reassurancesJSON, &f.Version, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questionsJSON, &f.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for %s: %w", f.Category, err)
	}
	if len(reassurancesJSON) > 0 {
		if err := json.Unmarshal(reassurancesJSON, &f.Reassurances); err != nil {
			return nil, fmt.Errorf("failed to decode reassurances for %s: %w", f.Category, err)
		}
	}
	return &f, nil
}

func marshalFlow(f *Flow) (questions, reassurances []byte, err error) {
	questions, err = json.Marshal(f.Questions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal questions: %w", err)
	}
	rs := f.Reassurances
	if rs == nil {
		rs = []Reassurance{}
	}
	reassurances, err = json.Marshal(rs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal reassurances: %w", err)
	}
	return questions, reassurances, nil
}
