package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"airline_financials/pkg/models"
)

// FileRepository keeps one JSON file per record under
// <dir>/<TICKER>/<year>.json.
type FileRepository struct {
	dir string
}

// NewFileRepository creates the base directory if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	if dir == "" {
		dir = filepath.Join(".cache", "airline_statements")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) path(ticker string, fiscalYear int) string {
	return filepath.Join(r.dir, normalizeTicker(ticker), strconv.Itoa(fiscalYear)+".json")
}

// Save writes the record atomically through a temp file.
func (r *FileRepository) Save(ctx context.Context, run Run, record *models.StatementRecord) error {
	if record == nil {
		return errors.New("nil record")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := StoredRecord{RunID: run.ID, SavedAt: time.Now().UTC(), Record: record}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	path := r.path(record.Ticker, record.FiscalYear)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create ticker dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}
	return nil
}

// Load reads one record.
func (r *FileRepository) Load(ctx context.Context, ticker string, fiscalYear int) (*models.StatementRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path(ticker, fiscalYear))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s %d: %w", normalizeTicker(ticker), fiscalYear, ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var entry StoredRecord
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	if entry.Record == nil {
		return nil, fmt.Errorf("%s %d: empty envelope: %w", normalizeTicker(ticker), fiscalYear, ErrRecordNotFound)
	}
	return entry.Record, nil
}

// List scans the ticker directory.
func (r *FileRepository) List(ctx context.Context, ticker string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(r.dir, normalizeTicker(ticker)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	var years []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		y, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}
