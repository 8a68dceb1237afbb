package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tdnet_xbrl/pkg/core/extract"
)

// PostgresRepo stores records in Postgres. The record itself is a JSONB
// blob; diagnostics are also written as rows so they can be queried across
// documents.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresRepo creates a repository on an existing pool.
func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tdnet_records (
	document_id     TEXT PRIMARY KEY,
	id              TEXT NOT NULL,
	company_code    TEXT NOT NULL,
	company_name    TEXT NOT NULL,
	statement       TEXT NOT NULL,
	standard        TEXT NOT NULL,
	quarter         TEXT NOT NULL,
	fiscal_year     INTEGER,
	period_end_date TEXT,
	record_json     JSONB NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tdnet_records_company ON tdnet_records (company_code, fiscal_year);
CREATE TABLE IF NOT EXISTS tdnet_diagnostics (
	document_id TEXT NOT NULL REFERENCES tdnet_records (document_id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	fact        TEXT,
	message     TEXT NOT NULL,
	PRIMARY KEY (document_id, seq)
);
`

// EnsureSchema creates the tables if they do not exist.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save upserts the record and replaces its diagnostics in one transaction.
func (r *PostgresRepo) Save(ctx context.Context, rec *extract.Record) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO tdnet_records (
			document_id, id, company_code, company_name, statement, standard,
			quarter, fiscal_year, period_end_date, record_json, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (document_id)
		DO UPDATE SET
			id = EXCLUDED.id,
			company_code = EXCLUDED.company_code,
			company_name = EXCLUDED.company_name,
			statement = EXCLUDED.statement,
			standard = EXCLUDED.standard,
			quarter = EXCLUDED.quarter,
			fiscal_year = EXCLUDED.fiscal_year,
			period_end_date = EXCLUDED.period_end_date,
			record_json = EXCLUDED.record_json,
			updated_at = EXCLUDED.updated_at;
	`
	_, err = tx.Exec(ctx, query,
		rec.DocumentID, rec.ID, rec.CompanyCode, rec.CompanyName,
		string(rec.Statement), rec.Standard.String(), string(rec.Quarter),
		rec.FiscalYear, rec.PeriodEndDate, jsonData, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tdnet_diagnostics WHERE document_id = $1`, rec.DocumentID); err != nil {
		return fmt.Errorf("failed to clear diagnostics: %w", err)
	}
	if len(rec.Diagnostics) > 0 {
		batch := &pgx.Batch{}
		for i, d := range rec.Diagnostics {
			batch.Queue(
				`INSERT INTO tdnet_diagnostics (document_id, seq, kind, severity, fact, message)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				rec.DocumentID, i, string(d.Kind), string(d.Severity), d.Fact, d.Message,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save diagnostics: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}
	return nil
}

// Load retrieves one record by document id.
func (r *PostgresRepo) Load(ctx context.Context, documentID string) (*extract.Record, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var jsonData []byte
	err := r.pool.QueryRow(ctx,
		`SELECT record_json FROM tdnet_records WHERE document_id = $1`, documentID,
	).Scan(&jsonData)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return decodeRecord(jsonData)
}

// ListByCompany returns a company's records ordered by period end date.
func (r *PostgresRepo) ListByCompany(ctx context.Context, companyCode string) ([]*extract.Record, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT record_json FROM tdnet_records
		WHERE company_code = $1
		ORDER BY period_end_date, statement, document_id
	`, companyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*extract.Record, error) {
		var jsonData []byte
		if err := row.Scan(&jsonData); err != nil {
			return nil, err
		}
		return decodeRecord(jsonData)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return recs, nil
}

// Close closes the pool.
func (r *PostgresRepo) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}
