// Package pipeline turns a set of filing documents into finalized
// statement records: extract every document, group by (company, fiscal
// year), merge sources, reconcile and persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"airline_financials/pkg/core/htmltable"
	"airline_financials/pkg/core/merge"
	"airline_financials/pkg/core/store"
	"airline_financials/pkg/core/validate"
	"airline_financials/pkg/core/xbrl"
	"airline_financials/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Orchestrator manages the end-to-end flow. Units of work are independent
// and run in parallel up to the worker limit.
type Orchestrator struct {
	xbrl         *xbrl.Extractor
	html         *htmltable.Extractor
	engine       *validate.Engine
	repo         store.RecordRepository
	workers      int
	skipExisting bool
	logger       *zap.Logger
}

// NewOrchestrator wires the extractors to the engine. The HTML extractor
// uses the engine to vet candidate revenue tables against the XBRL total.
func NewOrchestrator(concepts []xbrl.ConceptTagSet, engine *validate.Engine, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = validate.NewEngine(validate.DefaultThresholds(), logger)
	}
	return &Orchestrator{
		xbrl:    xbrl.NewExtractor(concepts, logger),
		html:    htmltable.NewExtractor(engine, logger),
		engine:  engine,
		workers: 4,
		logger:  logger.Named("pipeline"),
	}
}

// SetRepository enables persistence of finalized records.
func (p *Orchestrator) SetRepository(repo store.RecordRepository) {
	p.repo = repo
}

// SetWorkers bounds parallelism. Values below one mean one.
func (p *Orchestrator) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	p.workers = n
}

// SetSkipExisting reuses finalized records already in the repository
// instead of reconciling their unit again.
func (p *Orchestrator) SetSkipExisting(skip bool) {
	p.skipExisting = skip
}

// Result is the outcome of one run. Failures hold one entry per document
// that could not be parsed; every other document still contributes.
type Result struct {
	Run      store.Run
	Records  []*models.StatementRecord
	Failures []*models.DocumentParseError
	// Reused counts units served from the repository.
	Reused int
	// Unsaved lists TICKER:year keys whose records could not be persisted.
	Unsaved []string
}

type unitKey struct {
	ticker string
	year   int
}

func (k unitKey) String() string {
	return fmt.Sprintf("%s:%d", k.ticker, k.year)
}

// partial is what one document contributes to its unit. HTML tables are
// parsed in the first stage and read in the second, once the unit's XBRL
// total is known.
type partial struct {
	key    unitKey
	xbrl   *models.StatementRecord
	html   bool
	tables []htmltable.Table
}

// Run processes docs. It only returns an error when ctx is cancelled.
func (p *Orchestrator) Run(ctx context.Context, docs []models.FilingDocument) (*Result, error) {
	run := store.NewRun()
	log := p.logger.With(zap.String("run_id", run.ID.String()))
	start := time.Now()
	log.Info("pipeline started", zap.Int("documents", len(docs)), zap.Int("workers", p.workers))

	// Stage 1: per-document extraction
	parts := make([]*partial, len(docs))
	failures := make([]*models.DocumentParseError, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			part, err := p.extractDocument(doc)
			if err != nil {
				var perr *models.DocumentParseError
				if !errors.As(err, &perr) {
					perr = &models.DocumentParseError{Path: doc.Path, Format: doc.Format, Err: err}
				}
				log.Warn("document skipped", zap.String("path", doc.Path), zap.Error(err))
				failures[i] = perr
				return nil
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stage 2: per-unit merge and reconciliation, documents kept in input order
	units := make(map[unitKey][]*partial)
	var keys []unitKey
	for _, part := range parts {
		if part == nil {
			continue
		}
		if _, ok := units[part.key]; !ok {
			keys = append(keys, part.key)
		}
		units[part.key] = append(units[part.key], part)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ticker != keys[j].ticker {
			return keys[i].ticker < keys[j].ticker
		}
		return keys[i].year < keys[j].year
	})

	records := make([]*models.StatementRecord, len(keys))
	reused := make([]bool, len(keys))
	unsaved := make([]bool, len(keys))

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, fromStore, saveErr := p.reconcile(gctx, run, key, units[key])
			records[i], reused[i] = rec, fromStore
			if saveErr != nil {
				log.Error("record not persisted", zap.Stringer("unit", key), zap.Error(saveErr))
				unsaved[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Run: run, Records: records}
	for _, f := range failures {
		if f != nil {
			res.Failures = append(res.Failures, f)
		}
	}
	for i, key := range keys {
		if reused[i] {
			res.Reused++
		}
		if unsaved[i] {
			res.Unsaved = append(res.Unsaved, key.String())
		}
	}

	log.Info("pipeline completed",
		zap.Int("records", len(res.Records)),
		zap.Int("failures", len(res.Failures)),
		zap.Int("reused", res.Reused),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// extractDocument reads one document. XBRL instances feed only the XBRL
// side; inline XBRL feeds both since its tables are ordinary HTML.
func (p *Orchestrator) extractDocument(doc models.FilingDocument) (*partial, error) {
	doc.Ticker = strings.ToUpper(strings.TrimSpace(doc.Ticker))
	if doc.Ticker == "" {
		return nil, &models.DocumentParseError{Path: doc.Path, Format: doc.Format, Err: errors.New("ticker is required")}
	}
	if doc.Format == "" {
		doc.Format = models.DetectFormat(doc.Path, doc.Content)
	}

	switch doc.Format {
	case models.FormatXBRL, models.FormatInlineXBRL:
		xr, err := p.xbrl.Extract(doc)
		if err != nil {
			return nil, err
		}
		part := &partial{key: unitKey{doc.Ticker, xr.FiscalYear}, xbrl: xr}
		if doc.Format == models.FormatInlineXBRL {
			tables, err := p.html.Tables(doc, xr.FiscalYear)
			if err != nil {
				return nil, err
			}
			part.html, part.tables = true, tables
		}
		return part, nil

	case models.FormatHTML:
		fy := doc.FiscalYearHint
		if fy == 0 {
			fy = xbrl.FiscalYearFromFilename(doc.Path)
		}
		tables, err := p.html.Tables(doc, fy)
		if err != nil {
			return nil, err
		}
		return &partial{key: unitKey{doc.Ticker, fy}, html: true, tables: tables}, nil
	}
	return nil, &models.DocumentParseError{Path: doc.Path, Format: doc.Format, Err: fmt.Errorf("unsupported format %q", doc.Format)}
}

// reconcile builds and finalizes the record of one unit. The returned error
// is a persistence failure only; the record is valid regardless.
func (p *Orchestrator) reconcile(ctx context.Context, run store.Run, key unitKey, parts []*partial) (*models.StatementRecord, bool, error) {
	log := p.logger.With(zap.Stringer("unit", key))

	if p.skipExisting && p.repo != nil {
		stored, err := p.repo.Load(ctx, key.ticker, key.year)
		if err == nil && stored.Finalized {
			log.Info("record up to date, reusing stored copy")
			return stored, true, nil
		}
		if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
			log.Warn("stored record unavailable", zap.Error(err))
		}
	}

	var xr, hr *models.StatementRecord
	for _, part := range parts {
		xr = fillMissing(xr, part.xbrl)
	}
	var reported models.Field
	if xr != nil {
		reported = xr.Income.TotalRevenue
	}
	for _, part := range parts {
		if part.html {
			hr = fillMissing(hr, p.html.ExtractTables(part.tables, key.ticker, key.year, reported))
		}
	}

	merged, conflicts := merge.Merge(xr, hr)
	if len(conflicts) > 0 {
		log.Info("sources disagree", zap.Int("conflicts", len(conflicts)))
	}
	findings := p.engine.Finalize(merged)
	log.Debug("record reconciled", zap.Int("findings", len(findings)))

	if p.repo == nil {
		return merged, false, nil
	}
	if err := p.repo.Save(ctx, run, merged); err != nil {
		return merged, false, err
	}
	return merged, false, nil
}

// fillMissing folds next into acc without overwriting anything acc already
// has. Both records come from the same source kind.
func fillMissing(acc, next *models.StatementRecord) *models.StatementRecord {
	if next == nil {
		return acc
	}
	if acc == nil {
		return next.Clone()
	}
	for _, id := range models.FieldIDs() {
		f := next.Get(id)
		if !f.Present {
			continue
		}
		acc.Apply(models.ExtractedValue{Concept: id, Value: f.Value, Source: f.Source, Ref: f.Ref})
	}
	if len(acc.Segments) == 0 && len(next.Segments) > 0 {
		acc.Segments = next.Clone().Segments
	}
	return acc
}
