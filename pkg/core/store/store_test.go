package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"airline_financials/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(ticker string, year int) *models.StatementRecord {
	r := models.NewStatementRecord(ticker, year)
	r.Income.PassengerRevenue.Set(52785e6, models.SourceXBRL, "PassengerRevenue@c1")
	r.Income.CargoRevenue.Set(0, models.SourceHTML, `table#2 "Cargo"`)
	r.Operating.AvailableSeatMiles.Set(281.6e9, models.SourceHTML, `table#3 "Available seat miles"`)
	r.Segments = []models.SegmentRevenue{{Name: "Domestic", Revenue: 38.3e9, OperatingIncome: models.Float(4.1e9)}}
	r.AddFinding(models.ValidationFinding{Kind: models.FindingDerivation, Field: models.TotalRevenue, After: models.Float(58e9), Action: models.ActionDerived})
	r.Finalize()
	return r
}

func TestFileRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	run := NewRun()
	rec := sampleRecord("dal", 2023)
	require.NoError(t, repo.Save(ctx, run, rec))

	got, err := repo.Load(ctx, "DAL", 2023)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	// a stored zero stays present
	assert.True(t, got.Income.CargoRevenue.Present)
	assert.Equal(t, 0.0, got.Income.CargoRevenue.Value)

	_, err = os.Stat(filepath.Join(repo.dir, "DAL", "2023.json"))
	assert.NoError(t, err)
}

func TestFileRepository_NotFound(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	_, err = repo.Load(context.Background(), "UAL", 2022)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	years, err := repo.List(context.Background(), "UAL")
	assert.NoError(t, err)
	assert.Empty(t, years)
}

func TestFileRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	run := NewRun()
	for _, y := range []int{2021, 2023, 2022} {
		require.NoError(t, repo.Save(ctx, run, sampleRecord("AAL", y)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(repo.dir, "AAL", "notes.txt"), []byte("x"), 0644))

	years, err := repo.List(ctx, "aal")
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2022, 2021}, years)
}

func TestFileRepository_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	first := sampleRecord("LUV", 2023)
	require.NoError(t, repo.Save(ctx, NewRun(), first))

	second := sampleRecord("LUV", 2023)
	second.Income.PassengerRevenue.Set(23.6e9, models.SourceXBRL, "PassengerRevenue@c9")
	require.NoError(t, repo.Save(ctx, NewRun(), second))

	got, err := repo.Load(ctx, "LUV", 2023)
	require.NoError(t, err)
	assert.Equal(t, 23.6e9, got.Income.PassengerRevenue.Value)
}

// countingRepo records how often the cache falls through.
type countingRepo struct {
	inner RecordRepository
	loads int
}

func (c *countingRepo) Save(ctx context.Context, run Run, r *models.StatementRecord) error {
	return c.inner.Save(ctx, run, r)
}

func (c *countingRepo) Load(ctx context.Context, ticker string, year int) (*models.StatementRecord, error) {
	c.loads++
	return c.inner.Load(ctx, ticker, year)
}

func (c *countingRepo) List(ctx context.Context, ticker string) ([]int, error) {
	return c.inner.List(ctx, ticker)
}

func newCountingRepo(t *testing.T) *countingRepo {
	t.Helper()
	fr, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	return &countingRepo{inner: fr}
}

func TestRecordCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := newCountingRepo(t)
	require.NoError(t, backing.Save(ctx, NewRun(), sampleRecord("DAL", 2023)))

	cache := NewRecordCache(backing, 8, time.Hour, nil)

	first, err := cache.Load(ctx, "DAL", 2023)
	require.NoError(t, err)
	second, err := cache.Load(ctx, "dal", 2023)
	require.NoError(t, err)

	assert.Equal(t, 1, backing.loads)
	assert.Equal(t, first, second)

	// callers cannot mutate the cached copy
	second.Income.PassengerRevenue.Value = 1
	third, err := cache.Load(ctx, "DAL", 2023)
	require.NoError(t, err)
	assert.Equal(t, 52785e6, third.Income.PassengerRevenue.Value)
}

func TestRecordCache_WriteThrough(t *testing.T) {
	ctx := context.Background()
	backing := newCountingRepo(t)
	cache := NewRecordCache(backing, 8, time.Hour, nil)

	require.NoError(t, cache.Save(ctx, NewRun(), sampleRecord("JBLU", 2023)))
	_, err := cache.Load(ctx, "JBLU", 2023)
	require.NoError(t, err)
	assert.Equal(t, 0, backing.loads)

	stored, err := backing.inner.Load(ctx, "JBLU", 2023)
	require.NoError(t, err)
	assert.Equal(t, 2023, stored.FiscalYear)
}

func TestRecordCache_Bounded(t *testing.T) {
	ctx := context.Background()
	backing := newCountingRepo(t)
	for _, y := range []int{2022, 2023} {
		require.NoError(t, backing.Save(ctx, NewRun(), sampleRecord("UAL", y)))
	}
	cache := NewRecordCache(backing, 1, time.Hour, nil)

	_, err := cache.Load(ctx, "UAL", 2022)
	require.NoError(t, err)
	_, err = cache.Load(ctx, "UAL", 2023)
	require.NoError(t, err)
	_, err = cache.Load(ctx, "UAL", 2022)
	require.NoError(t, err)

	assert.Equal(t, 3, backing.loads)
	assert.Equal(t, 1, cache.Len())
}

func TestRecordCache_MissPropagates(t *testing.T) {
	cache := NewRecordCache(newCountingRepo(t), 4, time.Minute, nil)
	_, err := cache.Load(context.Background(), "HA", 2019)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, 0, cache.Len())

	require.NoError(t, cache.Save(context.Background(), NewRun(), sampleRecord("HA", 2019)))
	assert.Equal(t, 1, cache.Len())
	cache.Invalidate("ha", 2019)
	assert.Equal(t, 0, cache.Len())
}

func resetPool(t *testing.T) {
	t.Helper()
	once, pool, initErr = sync.Once{}, nil, nil
	t.Cleanup(func() { once, pool, initErr = sync.Once{}, nil, nil })
}

func TestInitDB_FirstErrorSticks(t *testing.T) {
	resetPool(t)
	ctx := context.Background()

	first := InitDB(ctx, "")
	require.Error(t, first)
	second := InitDB(ctx, "postgres://localhost:5432/airfin")
	assert.Equal(t, first, second)
	assert.Nil(t, GetPool())
}

func TestPGRepository_RoundTrip(t *testing.T) {
	url := os.Getenv("AIRFIN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("AIRFIN_TEST_DATABASE_URL not set")
	}
	resetPool(t)
	ctx := context.Background()
	require.NoError(t, InitDB(ctx, url))
	t.Cleanup(Close)
	require.NoError(t, EnsureSchema(ctx, GetPool()))

	repo := NewPGRepository(nil)
	rec := sampleRecord("TEST", 1999)
	require.NoError(t, repo.Save(ctx, NewRun(), rec))

	got, err := repo.Load(ctx, "test", 1999)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	years, err := repo.List(ctx, "TEST")
	require.NoError(t, err)
	assert.Contains(t, years, 1999)

	_, err = repo.Load(ctx, "TEST", 1066)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
