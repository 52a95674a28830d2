package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/owner-resolver/internal/db"
	"github.com/sells-group/owner-resolver/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Open(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id         TEXT PRIMARY KEY,
	bbl        TEXT NOT NULL,
	best_guess TEXT NOT NULL DEFAULT '',
	confidence INTEGER NOT NULL DEFAULT 0,
	distress   INTEGER NOT NULL DEFAULT 0,
	report     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lookups_bbl_created ON lookups(bbl, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_lookups_created ON lookups(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveLookup(ctx context.Context, report *model.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	rec := recordOf(report)
	_, err = s.pool.Exec(ctx,
		`INSERT INTO lookups (id, bbl, best_guess, confidence, distress, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			best_guess = EXCLUDED.best_guess,
			confidence = EXCLUDED.confidence,
			distress = EXCLUDED.distress,
			report = EXCLUDED.report`,
		rec.ID, rec.BBL, rec.BestGuessName, rec.Confidence, rec.Distress, reportJSON, rec.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save lookup %s", rec.ID)
}

func (s *PostgresStore) GetLookup(ctx context.Context, id string) (*model.Report, error) {
	var reportJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM lookups WHERE id = $1`, id).Scan(&reportJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get lookup %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lookup %s", id)
	}

	var report model.Report
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	return &report, nil
}

func (s *PostgresStore) ListLookups(ctx context.Context, filter LookupFilter) ([]LookupRecord, error) {
	query := `SELECT id, bbl, best_guess, confidence, distress, created_at FROM lookups WHERE true`
	args := []any{}
	argIdx := 1

	if filter.BBL != "" {
		query += fmt.Sprintf(` AND bbl = $%d`, argIdx)
		args = append(args, filter.BBL)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limitOf(filter))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lookups")
	}
	defer rows.Close()

	var out []LookupRecord
	for rows.Next() {
		var r LookupRecord
		if err := rows.Scan(&r.ID, &r.BBL, &r.BestGuessName, &r.Confidence, &r.Distress, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lookup")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list lookups iterate")
}
