package htmltable

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"airline_financials/pkg/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RevenueValidator vets a candidate revenue table. reported is the XBRL
// total for the same year, absent when none was tagged. A non-nil error
// makes the extractor move on to the next matching table.
type RevenueValidator interface {
	CheckRevenueCandidate(rb models.RevenueBreakdown, reported models.Field) error
}

// Extractor reads the HTML-only parts of a record from a filing.
type Extractor struct {
	validator RevenueValidator
	logger    *zap.Logger
}

// NewExtractor accepts a nil validator, in which case the first readable
// revenue table wins.
func NewExtractor(validator RevenueValidator, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{validator: validator, logger: logger.Named("htmltable")}
}

// Extract parses doc and reads revenue, operating statistics and segments for
// fiscal year fy, with no XBRL total to check revenue against.
func (e *Extractor) Extract(doc models.FilingDocument, fy int) (*models.StatementRecord, error) {
	tables, err := e.Tables(doc, fy)
	if err != nil {
		return nil, err
	}
	return e.ExtractTables(tables, doc.Ticker, fy, models.Field{}), nil
}

// Tables parses the tables of doc. Reading them is deferred so the caller
// can supply the XBRL total once every document of the year is known.
func (e *Extractor) Tables(doc models.FilingDocument, fy int) ([]Table, error) {
	if fy == 0 {
		return nil, &models.DocumentParseError{Path: doc.Path, Format: doc.Format, Err: errors.New("fiscal year is required for table extraction")}
	}
	tables, err := ParseTables(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, &models.DocumentParseError{Path: doc.Path, Format: doc.Format, Err: err}
	}
	return tables, nil
}

// ExtractTables runs each category over the candidate tables in document
// order. Interim tables are never read. reported is the XBRL total revenue
// candidate tables are measured against.
func (e *Extractor) ExtractTables(tables []Table, ticker string, fy int, reported models.Field) *models.StatementRecord {
	log := e.logger.With(zap.String("ticker", ticker), zap.Int("fiscal_year", fy))
	record := models.NewStatementRecord(ticker, fy)

	var revenueDone, statsDone, segmentsDone bool
	for _, t := range tables {
		c := Classify(t.Text)
		if c.Interim || c.Category == CategoryUnclassified {
			continue
		}

		if !revenueDone && c.Matches(CategoryRevenue) {
			if rb, ok := ExtractRevenue(t, fy); ok {
				if err := e.check(rb, reported); err != nil {
					log.Debug("revenue table rejected", zap.Int("table", t.Index), zap.Error(err))
				} else {
					record.Income.TotalRevenue = rb.Total
					record.Income.PassengerRevenue = rb.Passenger
					record.Income.CargoRevenue = rb.Cargo
					record.Income.OtherRevenue = rb.Other
					revenueDone = true
					log.Info("revenue table accepted", zap.Int("table", t.Index), zap.Int("score", c.Scores[CategoryRevenue]))
				}
			}
		}

		if !statsDone && c.Matches(CategoryOperatingStatistics) {
			if stats, ok := ExtractOperatingStats(t, fy); ok {
				record.Operating = stats
				statsDone = true
				log.Info("operating statistics table accepted", zap.Int("table", t.Index))
			}
		}

		if !segmentsDone && c.Matches(CategorySegment) {
			if segs := ExtractSegments(t, fy); len(segs) > 0 {
				record.Segments = segs
				segmentsDone = true
				log.Info("segment table accepted", zap.Int("table", t.Index), zap.Int("segments", len(segs)))
			}
		}

		if revenueDone && statsDone && segmentsDone {
			break
		}
	}

	if !revenueDone {
		log.Debug("no usable revenue table")
	}
	return record
}

func (e *Extractor) check(rb models.RevenueBreakdown, reported models.Field) error {
	if e.validator == nil {
		return nil
	}
	return e.validator.CheckRevenueCandidate(rb, reported)
}

// Column is a span of logical grid columns, End exclusive.
type Column struct {
	Start int
	End   int
	Found bool
}

// FindYearColumn locates the column headed by fy. Header rows are thead rows
// and rows with th cells, or the first three rows when neither exists. An
// exact year cell beats one that merely contains the year. When nothing
// matches, the first data column after the label is used.
func FindYearColumn(t Table, fy int) Column {
	year := strconv.Itoa(fy)

	var headers []Row
	for _, r := range t.Rows {
		if r.Header {
			headers = append(headers, r)
		}
	}
	if len(headers) == 0 {
		headers = t.Rows[:min(3, len(t.Rows))]
	}

	for _, exact := range []bool{true, false} {
		for _, r := range headers {
			for _, c := range r.Cells {
				if c.Start == 0 {
					continue
				}
				if (exact && hasYearToken(c.Text, year)) || (!exact && strings.Contains(c.Text, year)) {
					return Column{Start: c.Start, End: c.Start + c.Span, Found: true}
				}
			}
		}
	}
	return Column{Start: 1, End: math.MaxInt}
}

func hasYearToken(text, year string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool { return r < '0' || r > '9' }) {
		if f == year {
			return true
		}
	}
	return false
}

// ValueAt returns the first numeric cell of row inside col, skipping the label.
func ValueAt(r Row, col Column) (decimal.Decimal, bool) {
	for _, c := range r.Cells {
		if c.Start == 0 || c.Start+c.Span <= col.Start || c.Start >= col.End {
			continue
		}
		if d, ok := ParseNumber(c.Text); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

// ExtractRevenue reads the passenger/cargo/other/total rows of a revenue
// table. Missing components are derived one way only: Other from Total when
// Total was read, otherwise Total from the components.
func ExtractRevenue(t Table, fy int) (models.RevenueBreakdown, bool) {
	col := FindYearColumn(t, fy)
	var rb models.RevenueBreakdown

	for _, r := range t.Rows {
		label := r.Label()
		if label == "" {
			continue
		}
		if containsAny(label, "subtotal", "sub-total") && !strings.Contains(label, "total operating") {
			continue
		}
		d, ok := ValueAt(r, col)
		if !ok {
			continue
		}
		v := ToBaseUnits(d, t.Scale)

		switch {
		case isPassengerRevenueRow(label):
			setOnce(&rb.Passenger, v, t.Ref(label))
		case isCargoRevenueRow(label):
			setOnce(&rb.Cargo, v, t.Ref(label))
		case isTotalRevenueRow(label):
			setOnce(&rb.Total, v, t.Ref(label))
		case isOtherRevenueRow(label):
			setOnce(&rb.Other, v, t.Ref(label))
		}
	}

	if !rb.Passenger.Present && !rb.Total.Present {
		return rb, false
	}
	deriveRevenue(&rb, t)
	return rb, true
}

func isPassengerRevenueRow(l string) bool {
	return containsAny(l, "passenger", "transportation") &&
		(containsAny(l, "revenue", "operating") || isBareLabel(l)) &&
		!hasPer(l) && !containsAny(l, "cargo", "freight", "yield", "total")
}

func isCargoRevenueRow(l string) bool {
	return containsAny(l, "cargo", "freight") &&
		(containsAny(l, "revenue", "operating") || isBareLabel(l)) &&
		!hasPer(l) && !strings.Contains(l, "total")
}

func isTotalRevenueRow(l string) bool {
	return (strings.Contains(l, "total operating revenue") ||
		(strings.HasPrefix(l, "total") && strings.Contains(l, "revenue") && !containsAny(l, "passenger", "cargo"))) &&
		!hasPer(l) && !strings.Contains(l, "excluding")
}

func isOtherRevenueRow(l string) bool {
	return containsAny(l, "other", "ancillary", "loyalty", "mileageplus") &&
		(containsAny(l, "revenue", "operating") || isBareLabel(l)) &&
		!hasPer(l) && !strings.Contains(l, "total")
}

// isBareLabel accepts rows such as "Passenger" or "Cargo" that sit under an
// "Operating revenues:" heading.
func isBareLabel(l string) bool {
	return len(strings.Fields(l)) <= 2
}

// hasPer matches "per" as a word so "operating" does not count.
func hasPer(l string) bool {
	return strings.Contains(" "+l+" ", " per ")
}

func deriveRevenue(rb *models.RevenueBreakdown, t Table) {
	ref := fmt.Sprintf("table#%d derived", t.Index)
	switch {
	case rb.Total.Present && !rb.Other.Present && rb.Passenger.Present:
		other := rb.Total.Value - rb.Passenger.Value - rb.Cargo.Value
		if other >= 0 {
			rb.Other.Set(other, models.SourceHTML, ref+": total - passenger - cargo")
		}
	case !rb.Total.Present:
		rb.Total.Set(rb.Passenger.Value+rb.Cargo.Value+rb.Other.Value, models.SourceHTML, ref+": sum of components")
	}
}

func setOnce(f *models.Field, v float64, ref string) {
	if !f.Present {
		f.Set(v, models.SourceHTML, ref)
	}
}

// ExtractOperatingStats reads traffic and unit metric rows. Traffic counts
// default to millions; percentages and cents are taken as printed.
func ExtractOperatingStats(t Table, fy int) (models.OperatingStatistics, bool) {
	col := FindYearColumn(t, fy)
	var s models.OperatingStatistics

	for _, r := range t.Rows {
		label := r.Label()
		if label == "" {
			continue
		}
		d, ok := ValueAt(r, col)
		if !ok {
			continue
		}
		ref := t.Ref(label)
		raw := d.InexactFloat64()

		switch {
		case isASMRow(label):
			setOnce(&s.AvailableSeatMiles, ToBaseUnits(d, rowScale(label, Millions)), ref)
		case isRPMRow(label):
			setOnce(&s.RevenuePassengerMiles, ToBaseUnits(d, rowScale(label, Millions)), ref)
		case containsAny(label, "load factor", "passenger load"):
			setOnce(&s.LoadFactor, raw, ref)
		case containsAny(label, "prasm", "passenger revenue per asm", "passenger revenue per available seat mile") ||
			(strings.Contains(label, "passenger") && strings.Contains(label, "yield") && strings.Contains(label, "asm")):
			setOnce(&s.PRASM, raw, ref)
		case (strings.Contains(label, "rasm") && !strings.Contains(label, "prasm")) ||
			containsAny(label, "total revenue per asm", "revenue per available seat mile", "unit revenue"):
			setOnce(&s.RASM, raw, ref)
		case (strings.Contains(label, "casm") && containsAny(label, "casm-ex", "casm ex", "excluding", "ex-fuel", "ex fuel")) ||
			containsAny(label, "cost per asm excluding", "cost per available seat mile excluding"):
			setOnce(&s.CASMEx, raw, ref)
		case strings.Contains(label, "casm") ||
			containsAny(label, "total cost per asm", "cost per available seat mile", "expenses per available seat mile", "unit cost"):
			setOnce(&s.CASM, raw, ref)
		case strings.Contains(label, "yield") && !strings.Contains(label, "asm"):
			setOnce(&s.Yield, raw, ref)
		case containsAny(label, "passengers", "passenger enplanements") && !strings.Contains(label, "revenue passenger miles"):
			setOnce(&s.PassengersCarried, ToBaseUnits(d, rowScale(label, Millions)), ref)
		case containsAny(label, "departures", "flights operated"):
			setOnce(&s.Departures, ToBaseUnits(d, rowScale(label, Units)), ref)
		case strings.Contains(label, "aircraft") && containsAny(label, "end", "period", "fleet"):
			setOnce(&s.AircraftAtPeriodEnd, raw, ref)
		}
	}
	return s, s.AvailableSeatMiles.Present
}

func isASMRow(l string) bool {
	if hasPer(l) || containsAny(l, "rasm", "prasm", "casm", "yield", "revenue", "cost") {
		return false
	}
	return containsAny(l, "available seat", "capacity (asm", "capacity(asm", "asm")
}

func isRPMRow(l string) bool {
	if hasPer(l) || strings.Contains(l, "yield") {
		return false
	}
	return containsAny(l, "revenue passenger mile", "revenue passenger-mile", "traffic (rpm", "traffic(rpm", "rpm")
}

var regions = []string{"domestic", "atlantic", "pacific", "latin"}

// ExtractSegments reads geographic segment rows. A row labelled "operating
// income" with no figures switches later region rows to operating income.
func ExtractSegments(t Table, fy int) []models.SegmentRevenue {
	col := FindYearColumn(t, fy)
	title := cases.Title(language.English)

	var segs []models.SegmentRevenue
	byName := map[string]int{}
	inOperatingIncome := false

	for _, r := range t.Rows {
		label := r.Label()
		if label == "" {
			continue
		}
		d, ok := ValueAt(r, col)
		if !ok {
			if containsAny(label, "operating income", "operating profit", "operating loss") {
				inOperatingIncome = true
			} else if strings.Contains(label, "revenue") {
				inOperatingIncome = false
			}
			continue
		}
		if !containsAny(label, regions...) || strings.Contains(label, "total") {
			continue
		}

		name := title.String(strings.TrimSuffix(label, ":"))
		v := ToBaseUnits(d, t.Scale)
		if inOperatingIncome {
			if i, seen := byName[name]; seen {
				oi := v
				segs[i].OperatingIncome = &oi
			}
			continue
		}
		if _, seen := byName[name]; seen {
			continue
		}
		byName[name] = len(segs)
		segs = append(segs, models.SegmentRevenue{Name: name, Revenue: v, Ref: t.Ref(label)})
	}
	return segs
}
