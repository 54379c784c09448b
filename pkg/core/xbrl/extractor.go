package xbrl

import (
	"errors"
	"fmt"

	"airline_financials/pkg/models"

	"go.uber.org/zap"
)

// Extractor turns one XBRL or inline XBRL document into a partial record.
type Extractor struct {
	concepts []ConceptTagSet
	logger   *zap.Logger
}

// NewExtractor uses DefaultConcepts when concepts is nil.
func NewExtractor(concepts []ConceptTagSet, logger *zap.Logger) *Extractor {
	if concepts == nil {
		concepts = DefaultConcepts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{concepts: concepts, logger: logger.Named("xbrl")}
}

// Extract parses doc and resolves every concept for its fiscal year. A
// malformed document yields a *models.DocumentParseError; missing concepts
// are not errors and simply leave fields absent.
func (e *Extractor) Extract(doc models.FilingDocument) (*models.StatementRecord, error) {
	parsed, err := ParseBytes(doc.Content)
	if err != nil {
		return nil, &models.DocumentParseError{Path: doc.Path, Format: doc.Format, Err: err}
	}

	fy := doc.FiscalYearHint
	if fy == 0 {
		fy = parsed.FiscalYear(doc.Path)
	}
	if fy == 0 {
		return nil, &models.DocumentParseError{Path: doc.Path, Format: doc.Format, Err: fmt.Errorf("fiscal year could not be determined")}
	}

	return e.ExtractDocument(parsed, doc.Ticker, fy), nil
}

// ExtractDocument resolves concepts against an already parsed document.
func (e *Extractor) ExtractDocument(parsed *Document, ticker string, fy int) *models.StatementRecord {
	log := e.logger.With(zap.String("ticker", ticker), zap.Int("fiscal_year", fy))

	index := BuildContextIndex(parsed, parsed.PeriodEndDate())
	resolver := NewResolver(parsed)
	record := models.NewStatementRecord(ticker, fy)

	if !index.HasContexts() {
		log.Warn("document declares no contexts, resolving without period filter")
	}

	found := 0
	for _, set := range e.concepts {
		if f := record.Get(set.Concept); f == nil || f.Present {
			continue
		}

		var contexts ContextSet
		if index.HasContexts() {
			if set.Segment != "" {
				contexts = index.ForYearSegment(fy, set.Segment)
			} else {
				contexts = index.ForYear(fy)
			}
		} else if set.Segment != "" {
			// segment facts cannot be told apart without contexts
			continue
		}

		v, err := resolver.Resolve(set, contexts)
		if errors.Is(err, models.ErrConceptNotFound) {
			log.Debug("concept not found", zap.String("concept", string(set.Concept)), zap.String("segment", set.Segment))
			continue
		}
		if record.Apply(v) {
			found++
		}
	}

	log.Info("xbrl extraction complete",
		zap.Int("fields", found),
		zap.Bool("inline", parsed.IsInline()),
		zap.String("company_prefix", resolver.companyPrefix))
	return record
}
