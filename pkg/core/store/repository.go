// Package store persists finalized statement records. Records are saved
// whole, one per (ticker, fiscal year), and re-saving replaces the row.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"airline_financials/pkg/models"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned by Load when nothing is stored for the key.
var ErrRecordNotFound = errors.New("record not found")

// Run identifies one pipeline execution. Every record saved by the run
// carries its ID.
type Run struct {
	ID        uuid.UUID `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

// NewRun stamps a fresh run.
func NewRun() Run {
	return Run{ID: uuid.New(), StartedAt: time.Now().UTC()}
}

// RecordRepository stores finalized records.
type RecordRepository interface {
	Save(ctx context.Context, run Run, record *models.StatementRecord) error
	Load(ctx context.Context, ticker string, fiscalYear int) (*models.StatementRecord, error)
	// List returns the stored fiscal years for a ticker, newest first.
	List(ctx context.Context, ticker string) ([]int, error)
}

// StoredRecord is the persisted envelope.
type StoredRecord struct {
	RunID   uuid.UUID               `json:"run_id"`
	SavedAt time.Time               `json:"saved_at"`
	Record  *models.StatementRecord `json:"record"`
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
