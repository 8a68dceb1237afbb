package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tdnet_xbrl/pkg/core/extract"
)

// FileCache stores one JSON file per document under a directory.
type FileCache struct {
	fileDir string
}

// CacheEntry is the on-disk envelope for a record.
type CacheEntry struct {
	DocumentID  string          `json:"document_id"`
	CompanyCode string          `json:"company_code"`
	Record      *extract.Record `json:"record"`
	SavedAt     time.Time       `json:"saved_at"`
}

// NewFileCache creates the directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		dir = filepath.Join(".cache", "tdnet", "records")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create record cache dir: %w", err)
	}
	return &FileCache{fileDir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.fileDir
}

// Save writes the record, replacing any previous file for the document.
func (c *FileCache) Save(ctx context.Context, rec *extract.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := CacheEntry{
		DocumentID:  rec.DocumentID,
		CompanyCode: rec.CompanyCode,
		Record:      rec,
		SavedAt:     time.Now().UTC(),
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// Readers never see a partial file.
	path := c.documentPath(rec.DocumentID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to save to file cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to save to file cache: %w", err)
	}
	return nil
}

// Load reads one record.
func (c *FileCache) Load(_ context.Context, documentID string) (*extract.Record, error) {
	entry, err := c.loadEntry(c.documentPath(documentID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return entry.Record, nil
}

// Exists reports whether a record file is present.
func (c *FileCache) Exists(documentID string) bool {
	_, err := os.Stat(c.documentPath(documentID))
	return err == nil
}

// ListByCompany scans the directory for the company's records.
func (c *FileCache) ListByCompany(ctx context.Context, companyCode string) ([]*extract.Record, error) {
	files, err := os.ReadDir(c.fileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read record cache: %w", err)
	}

	var out []*extract.Record
	for _, f := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		entry, err := c.loadEntry(filepath.Join(c.fileDir, f.Name()))
		if err != nil || entry.Record == nil {
			continue
		}
		if entry.CompanyCode == companyCode {
			out = append(out, entry.Record)
		}
	}
	sortRecords(out)
	return out, nil
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) documentPath(documentID string) string {
	name := filepath.Base(documentID)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." {
		name = "_"
	}
	return filepath.Join(c.fileDir, name+".json")
}

func (c *FileCache) loadEntry(path string) (*CacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return &entry, nil
}
