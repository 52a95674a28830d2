package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/owner-resolver/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id         TEXT PRIMARY KEY,
	bbl        TEXT NOT NULL,
	best_guess TEXT NOT NULL DEFAULT '',
	confidence INTEGER NOT NULL DEFAULT 0,
	distress   INTEGER NOT NULL DEFAULT 0,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lookups_bbl_created ON lookups(bbl, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_lookups_created ON lookups(created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLookup(ctx context.Context, report *model.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	rec := recordOf(report)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookups (id, bbl, best_guess, confidence, distress, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			best_guess = excluded.best_guess,
			confidence = excluded.confidence,
			distress = excluded.distress,
			report = excluded.report`,
		rec.ID, rec.BBL, rec.BestGuessName, rec.Confidence, rec.Distress, string(reportJSON), rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save lookup %s", rec.ID)
}

func (s *SQLiteStore) GetLookup(ctx context.Context, id string) (*model.Report, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM lookups WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get lookup %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lookup %s", id)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	return &report, nil
}

func (s *SQLiteStore) ListLookups(ctx context.Context, filter LookupFilter) ([]LookupRecord, error) {
	query := `SELECT id, bbl, best_guess, confidence, distress, created_at FROM lookups WHERE 1=1`
	var args []any

	if filter.BBL != "" {
		query += ` AND bbl = ?`
		args = append(args, filter.BBL)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOf(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lookups")
	}
	defer rows.Close()

	var out []LookupRecord
	for rows.Next() {
		var r LookupRecord
		if err := rows.Scan(&r.ID, &r.BBL, &r.BestGuessName, &r.Confidence, &r.Distress, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lookup")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list lookups iterate")
}
