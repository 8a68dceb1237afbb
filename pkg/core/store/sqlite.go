package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tdnet_xbrl/pkg/core/extract"
)

// SQLiteStore keeps records in a single SQLite table. Headline columns are
// denormalized for querying; the full record is kept as JSON.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the record keyed by document id.
func (s *SQLiteStore) Save(ctx context.Context, rec *extract.Record) error {
	factsJSON, err := json.Marshal(rec.Facts)
	if err != nil {
		return fmt.Errorf("failed to marshal facts: %w", err)
	}
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	var fiscalYear any
	if rec.FiscalYear != nil {
		fiscalYear = *rec.FiscalYear
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (
			document_id, id, company_code, company_name, statement, standard,
			cadence, consolidated, period_end_date, public_date, quarter,
			fiscal_year, facts_json, record_json, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id)
		DO UPDATE SET
			id = excluded.id,
			company_code = excluded.company_code,
			company_name = excluded.company_name,
			statement = excluded.statement,
			standard = excluded.standard,
			cadence = excluded.cadence,
			consolidated = excluded.consolidated,
			period_end_date = excluded.period_end_date,
			public_date = excluded.public_date,
			quarter = excluded.quarter,
			fiscal_year = excluded.fiscal_year,
			facts_json = excluded.facts_json,
			record_json = excluded.record_json,
			extracted_at = excluded.extracted_at
	`,
		rec.DocumentID, rec.ID, rec.CompanyCode, rec.CompanyName,
		string(rec.Statement), rec.Standard.String(), string(rec.Cadence),
		boolToInt(rec.Consolidated), rec.PeriodEndDate, rec.PublicDate,
		string(rec.Quarter), fiscalYear, string(factsJSON), string(recordJSON),
		rec.ExtractedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.DocumentID, err)
	}
	return nil
}

// Load reads one record by document id.
func (s *SQLiteStore) Load(ctx context.Context, documentID string) (*extract.Record, error) {
	var recordJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT record_json FROM records WHERE document_id = ?`, documentID,
	).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", documentID, err)
	}
	return decodeRecord([]byte(recordJSON))
}

// ListByCompany returns a company's records ordered by period end date.
func (s *SQLiteStore) ListByCompany(ctx context.Context, companyCode string) ([]*extract.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_json FROM records
		WHERE company_code = ?
		ORDER BY period_end_date, statement, document_id
	`, companyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for %s: %w", companyCode, err)
	}
	defer rows.Close()

	var out []*extract.Record
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, err
		}
		rec, err := decodeRecord([]byte(recordJSON))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			document_id TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			company_code TEXT NOT NULL,
			company_name TEXT NOT NULL,
			statement TEXT NOT NULL,
			standard TEXT NOT NULL,
			cadence TEXT,
			consolidated INTEGER NOT NULL,
			period_end_date TEXT,
			public_date TEXT,
			quarter TEXT NOT NULL,
			fiscal_year INTEGER,
			facts_json TEXT NOT NULL,
			record_json TEXT NOT NULL,
			extracted_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_company
			ON records (company_code, fiscal_year, quarter);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}
	return nil
}

func decodeRecord(data []byte) (*extract.Record, error) {
	var rec extract.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
