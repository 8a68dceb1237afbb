// Package store persists extraction records.
//
// Backends:
//   - FileCache: one JSON file per document (local runs)
//   - SQLiteStore: modernc.org/sqlite, single records table
//   - PostgresRepo: pgx pool, JSONB upsert keyed by document id
//   - RedisCache: go-redis, record JSON plus a per-company index set
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"tdnet_xbrl/pkg/core/config"
	"tdnet_xbrl/pkg/core/extract"
)

// ErrNotFound is returned by Load when no record exists for the id.
var ErrNotFound = errors.New("record not found")

// RecordSink receives extraction records.
type RecordSink interface {
	Save(ctx context.Context, rec *extract.Record) error
	Close() error
}

// RecordStore is a sink that can also read records back.
type RecordStore interface {
	RecordSink
	Load(ctx context.Context, documentID string) (*extract.Record, error)
	ListByCompany(ctx context.Context, companyCode string) ([]*extract.Record, error)
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Save(context.Context, *extract.Record) error { return nil }

func (NopStore) Load(_ context.Context, documentID string) (*extract.Record, error) {
	return nil, fmt.Errorf("%s: %w", documentID, ErrNotFound)
}

func (NopStore) ListByCompany(context.Context, string) ([]*extract.Record, error) { return nil, nil }

func (NopStore) Close() error { return nil }

// Open builds the store selected by cfg.Kind.
func Open(ctx context.Context, cfg config.StorageConfig) (RecordStore, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", config.StorageNone:
		return NopStore{}, nil
	case config.StorageFile:
		return NewFileCache(cfg.Dir)
	case config.StorageSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.StoragePostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := NewPostgresRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	case config.StorageRedis:
		return NewRedisCache(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.RedisTTL,
		})
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.Kind)
}

// SaveAll saves every record, stopping at the first error.
func SaveAll(ctx context.Context, sink RecordSink, recs []*extract.Record) error {
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if err := sink.Save(ctx, rec); err != nil {
			return fmt.Errorf("failed to save %s: %w", rec.DocumentID, err)
		}
	}
	return nil
}

// sortRecords orders records by period end date, then statement, so
// company listings read chronologically.
func sortRecords(recs []*extract.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].PeriodEndDate != recs[j].PeriodEndDate {
			return recs[i].PeriodEndDate < recs[j].PeriodEndDate
		}
		if recs[i].Statement != recs[j].Statement {
			return recs[i].Statement < recs[j].Statement
		}
		return recs[i].DocumentID < recs[j].DocumentID
	})
}
