package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"airline_financials/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository stores records as JSONB in airline_statements.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository uses the given pool, or the shared one from InitDB.
func NewPGRepository(p *pgxpool.Pool) *PGRepository {
	if p == nil {
		p = GetPool()
	}
	return &PGRepository{pool: p}
}

// Save upserts on (ticker, fiscal_year).
func (r *PGRepository) Save(ctx context.Context, run Run, record *models.StatementRecord) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT INTO airline_statements (ticker, fiscal_year, run_id, record_json, findings, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker, fiscal_year)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			record_json = EXCLUDED.record_json,
			findings = EXCLUDED.findings,
			updated_at = EXCLUDED.updated_at;
	`
	_, err = r.pool.Exec(ctx, query,
		normalizeTicker(record.Ticker), record.FiscalYear, run.ID, jsonData,
		len(record.Findings), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Load fetches one record.
func (r *PGRepository) Load(ctx context.Context, ticker string, fiscalYear int) (*models.StatementRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	query := `SELECT record_json FROM airline_statements WHERE ticker = $1 AND fiscal_year = $2`

	var jsonData []byte
	err := r.pool.QueryRow(ctx, query, normalizeTicker(ticker), fiscalYear).Scan(&jsonData)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", normalizeTicker(ticker), fiscalYear, ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	var record models.StatementRecord
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

// List returns stored years, newest first.
func (r *PGRepository) List(ctx context.Context, ticker string) ([]int, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	rows, err := r.pool.Query(ctx,
		`SELECT fiscal_year FROM airline_statements WHERE ticker = $1 ORDER BY fiscal_year DESC`,
		normalizeTicker(ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	years, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("failed to scan years: %w", err)
	}
	return years, nil
}
