package store

import (
	"context"
	"fmt"
	"time"

	"airline_financials/pkg/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// RecordCache is a read-through, write-through cache in front of a
// repository. Entries are keyed TICKER:year, bounded in count and expire
// after ttl. It satisfies RecordRepository.
type RecordCache struct {
	repo   RecordRepository
	lru    *expirable.LRU[string, *models.StatementRecord]
	logger *zap.Logger
}

// NewRecordCache wraps repo. size <= 0 falls back to 256 entries; ttl <= 0
// disables expiry.
func NewRecordCache(repo RecordRepository, size int, ttl time.Duration, logger *zap.Logger) *RecordCache {
	if size <= 0 {
		size = 256
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordCache{
		repo:   repo,
		lru:    expirable.NewLRU[string, *models.StatementRecord](size, nil, ttl),
		logger: logger.Named("cache"),
	}
}

func cacheKey(ticker string, fiscalYear int) string {
	return fmt.Sprintf("%s:%d", normalizeTicker(ticker), fiscalYear)
}

// Save writes through to the repository and then caches the record.
func (c *RecordCache) Save(ctx context.Context, run Run, record *models.StatementRecord) error {
	if err := c.repo.Save(ctx, run, record); err != nil {
		return err
	}
	c.lru.Add(cacheKey(record.Ticker, record.FiscalYear), record.Clone())
	return nil
}

// Load serves from memory and falls back to the repository. Callers get
// their own copy.
func (c *RecordCache) Load(ctx context.Context, ticker string, fiscalYear int) (*models.StatementRecord, error) {
	key := cacheKey(ticker, fiscalYear)
	if rec, ok := c.lru.Get(key); ok {
		c.logger.Debug("cache hit", zap.String("key", key))
		return rec.Clone(), nil
	}
	rec, err := c.repo.Load(ctx, ticker, fiscalYear)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, rec.Clone())
	return rec, nil
}

// List is not cached.
func (c *RecordCache) List(ctx context.Context, ticker string) ([]int, error) {
	return c.repo.List(ctx, ticker)
}

// Invalidate drops one entry.
func (c *RecordCache) Invalidate(ticker string, fiscalYear int) {
	c.lru.Remove(cacheKey(ticker, fiscalYear))
}

// Len reports the number of live entries.
func (c *RecordCache) Len() int {
	return c.lru.Len()
}
