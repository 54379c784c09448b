package htmltable

import (
	"errors"
	"strings"
	"testing"

	"airline_financials/pkg/core/validate"
	"airline_financials/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const filingHTML = `<html><body>
<p>Selected quarterly results</p>
<table>
  <tr><th></th><th>Fourth Quarter 2024</th></tr>
  <tr><td>Passenger revenue</td><td>12,400</td></tr>
  <tr><td>Total operating revenues</td><td>13,660</td></tr>
</table>

<p>(in millions)</p>
<table>
  <thead>
    <tr><th></th><th colspan="4">Year Ended December 31,</th></tr>
    <tr><th></th><th colspan="2">2024</th><th colspan="2">2023</th></tr>
  </thead>
  <tr><td>Operating revenues:</td><td></td><td></td><td></td><td></td></tr>
  <tr><td>Passenger</td><td>$</td><td>49,294</td><td>$</td><td>48,512</td></tr>
  <tr><td>Cargo</td><td></td><td>804</td><td></td><td>814</td></tr>
  <tr><td>Other</td><td></td><td>4,113</td><td></td><td>3,462</td></tr>
  <tr><td>Total operating revenues</td><td>$</td><td>54,211</td><td>$</td><td>52,788</td></tr>
</table>

<table>
  <tr><td colspan="3">Operating Statistics</td></tr>
  <tr><td></td><td>2024</td><td>2023</td></tr>
  <tr><td>Revenue passenger miles (millions)</td><td>241,588</td><td>230,617</td></tr>
  <tr><td>Available seat miles (millions)</td><td>289,416</td><td>276,149</td></tr>
  <tr><td>Passenger load factor (percent)</td><td>83.5</td><td>83.5</td></tr>
  <tr><td>Yield (cents)</td><td>20.40</td><td>21.04</td></tr>
  <tr><td>Passenger revenue per available seat mile (cents)</td><td>17.03</td><td>17.57</td></tr>
  <tr><td>Total revenue per available seat mile (cents)</td><td>18.73</td><td>19.12</td></tr>
  <tr><td>CASM (cents)</td><td>17.89</td><td>17.63</td></tr>
  <tr><td>CASM excluding fuel (cents)</td><td>13.90</td><td>12.98</td></tr>
  <tr><td>Passengers enplaned (thousands)</td><td>226,369</td><td>210,174</td></tr>
  <tr><td>Departures</td><td>—</td><td>1,012</td></tr>
  <tr><td>Aircraft at end of period</td><td>971</td><td>965</td></tr>
</table>

<table>
  <tr><th>(in millions)</th><th>2024</th><th>2023</th></tr>
  <tr><td>Operating revenues:</td><td></td><td></td></tr>
  <tr><td>Domestic</td><td>38,123</td><td>37,500</td></tr>
  <tr><td>Latin America</td><td>8,002</td><td>7,900</td></tr>
  <tr><td>Atlantic</td><td>6,540</td><td>6,100</td></tr>
  <tr><td>Pacific</td><td>1,546</td><td>1,288</td></tr>
  <tr><td>Total</td><td>54,211</td><td>52,788</td></tr>
  <tr><td>Operating income:</td><td></td><td></td></tr>
  <tr><td>Domestic</td><td>2,001</td><td>2,450</td></tr>
  <tr><td>Pacific</td><td>(87)</td><td>(120)</td></tr>
</table>
</body></html>`

func parseFixture(t *testing.T) []Table {
	t.Helper()
	tables, err := ParseTables(strings.NewReader(filingHTML))
	require.NoError(t, err)
	require.Len(t, tables, 4)
	return tables
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		cell string
		want string
		ok   bool
	}{
		{"49,294", "49294", true},
		{"$ 1,234.5", "1234.5", true},
		{"(1,234)", "-1234", true},
		{"(42", "-42", true},
		{"-7", "-7", true},
		{"83.5%", "83.5", true},
		{"-", "0", true},
		{"—", "0", true},
		{"–", "0", true},
		{"", "0", false},
		{"n/a", "0", false},
		{"$", "0", false},
		{"December 31, 2024", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			d, ok := ParseNumber(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, d.Equal(decimal.RequireFromString(tt.want)), "got %s", d)
		})
	}
}

func TestToBaseUnits_Exact(t *testing.T) {
	d, ok := ParseNumber("258.503")
	require.True(t, ok)
	assert.Equal(t, 258503000.0, ToBaseUnits(d, Millions))
	assert.Equal(t, 258503.0, ToBaseUnits(d, Thousands))
}

func TestDetectScale(t *testing.T) {
	assert.Equal(t, Millions, DetectScale("year ended december 31"))
	assert.Equal(t, Thousands, DetectScale("(in thousands, except per share)"))
	assert.Equal(t, Billions, DetectScale("(in billions)"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Category
		interim bool
	}{
		{"interim excluded first", "three months ended passenger revenue total operating revenues", CategoryUnclassified, true},
		{"quarter marker", "fourth quarter 2024 passenger revenue total revenue", CategoryUnclassified, true},
		{"period ended without year", "period ended june 30 passenger revenue", CategoryUnclassified, true},
		{"revenue", "year ended december 31 operating revenues: passenger cargo other total operating revenues", CategoryRevenue, false},
		{"operating statistics", "revenue passenger miles available seat miles passenger load factor", CategoryOperatingStatistics, false},
		{"labelled statistics with one keyword", "operating statistics departures", CategoryOperatingStatistics, false},
		{"segment", "operating revenues domestic atlantic pacific latin america", CategorySegment, false},
		{"unclassified", "property and equipment, at cost flight equipment", CategoryUnclassified, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.text)
			assert.Equal(t, tt.want, c.Category)
			assert.Equal(t, tt.interim, c.Interim)
			if tt.want != CategoryUnclassified {
				assert.True(t, c.Matches(tt.want))
				assert.Positive(t, c.Score)
			}
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	text := "operating revenues: passenger cargo other total operating revenues"
	assert.Equal(t, Classify(text), Classify(text))
}

func TestFindYearColumn(t *testing.T) {
	tables := parseFixture(t)

	col := FindYearColumn(tables[1], 2024)
	assert.Equal(t, Column{Start: 1, End: 3, Found: true}, col)
	col = FindYearColumn(tables[1], 2023)
	assert.Equal(t, Column{Start: 3, End: 5, Found: true}, col)

	// no th rows: the first three rows are searched
	col = FindYearColumn(tables[2], 2023)
	assert.Equal(t, Column{Start: 2, End: 3, Found: true}, col)

	col = FindYearColumn(tables[1], 2019)
	assert.False(t, col.Found)
	assert.Equal(t, 1, col.Start)
}

func TestExtractRevenue(t *testing.T) {
	tables := parseFixture(t)

	rb, ok := ExtractRevenue(tables[1], 2024)
	require.True(t, ok)
	assert.Equal(t, 49294e6, rb.Passenger.Value)
	assert.Equal(t, 804e6, rb.Cargo.Value)
	assert.Equal(t, 4113e6, rb.Other.Value)
	assert.Equal(t, 54211e6, rb.Total.Value)
	assert.Equal(t, models.SourceHTML, rb.Passenger.Source)

	rb, ok = ExtractRevenue(tables[1], 2023)
	require.True(t, ok)
	assert.Equal(t, 48512e6, rb.Passenger.Value)
}

func revenueTable(rows string) Table {
	tables, _ := ParseTables(strings.NewReader(`<table><tr><th></th><th>2024</th></tr>` + rows + `</table>`))
	return tables[0]
}

func TestExtractRevenue_OneDirectionalDerivation(t *testing.T) {
	t.Run("other from total", func(t *testing.T) {
		rb, ok := ExtractRevenue(revenueTable(`
			<tr><td>Passenger revenue</td><td>51,829</td></tr>
			<tr><td>Cargo revenue</td><td>1,743</td></tr>
			<tr><td>Total operating revenue</td><td>57,063</td></tr>`), 2024)
		require.True(t, ok)
		assert.Equal(t, 3491e6, rb.Other.Value)
		assert.Contains(t, rb.Other.Ref, "derived")
		assert.NotContains(t, rb.Total.Ref, "derived")
	})

	t.Run("total from components", func(t *testing.T) {
		rb, ok := ExtractRevenue(revenueTable(`
			<tr><td>Passenger revenue</td><td>51,829</td></tr>
			<tr><td>Cargo revenue</td><td>1,743</td></tr>
			<tr><td>Other revenue</td><td>3,491</td></tr>`), 2024)
		require.True(t, ok)
		assert.Equal(t, 57063e6, rb.Total.Value)
		assert.Contains(t, rb.Total.Ref, "derived")
	})

	t.Run("total checked before other", func(t *testing.T) {
		rb, ok := ExtractRevenue(revenueTable(`
			<tr><td>Passenger revenue</td><td>100</td></tr>
			<tr><td>Total other and operating revenue</td><td>130</td></tr>`), 2024)
		require.True(t, ok)
		assert.Equal(t, 130e6, rb.Total.Value)
		assert.Equal(t, 30e6, rb.Other.Value)
	})

	t.Run("passenger per-unit rows ignored", func(t *testing.T) {
		rb, ok := ExtractRevenue(revenueTable(`
			<tr><td>Passenger revenue per ASM</td><td>17.03</td></tr>
			<tr><td>Passenger yield</td><td>20.40</td></tr>`), 2024)
		assert.False(t, ok)
		assert.False(t, rb.Passenger.Present)
	})

	t.Run("dash is zero not missing", func(t *testing.T) {
		rb, ok := ExtractRevenue(revenueTable(`
			<tr><td>Passenger revenue</td><td>900</td></tr>
			<tr><td>Cargo revenue</td><td>—</td></tr>
			<tr><td>Total operating revenue</td><td>1,000</td></tr>`), 2024)
		require.True(t, ok)
		assert.True(t, rb.Cargo.Present)
		assert.Equal(t, 0.0, rb.Cargo.Value)
		assert.Equal(t, 100e6, rb.Other.Value)
	})
}

func TestExtractOperatingStats(t *testing.T) {
	tables := parseFixture(t)

	s, ok := ExtractOperatingStats(tables[2], 2024)
	require.True(t, ok)
	assert.Equal(t, 289416e6, s.AvailableSeatMiles.Value)
	assert.Equal(t, 241588e6, s.RevenuePassengerMiles.Value)
	assert.Equal(t, 83.5, s.LoadFactor.Value)
	assert.Equal(t, 20.40, s.Yield.Value)
	assert.Equal(t, 17.03, s.PRASM.Value)
	assert.Equal(t, 18.73, s.RASM.Value)
	assert.Equal(t, 17.89, s.CASM.Value)
	assert.Equal(t, 13.90, s.CASMEx.Value)
	assert.Equal(t, 226369e3, s.PassengersCarried.Value)
	assert.True(t, s.Departures.Present)
	assert.Equal(t, 0.0, s.Departures.Value)
	assert.Equal(t, 971.0, s.AircraftAtPeriodEnd.Value)
}

func TestExtractSegments(t *testing.T) {
	tables := parseFixture(t)

	segs := ExtractSegments(tables[3], 2024)
	require.Len(t, segs, 4)
	assert.Equal(t, "Domestic", segs[0].Name)
	assert.Equal(t, 38123e6, segs[0].Revenue)
	require.NotNil(t, segs[0].OperatingIncome)
	assert.Equal(t, 2001e6, *segs[0].OperatingIncome)
	assert.Equal(t, "Latin America", segs[1].Name)
	assert.Nil(t, segs[1].OperatingIncome)
	require.NotNil(t, segs[3].OperatingIncome)
	assert.Equal(t, -87e6, *segs[3].OperatingIncome)
}

type minShareValidator struct{ min float64 }

func (v minShareValidator) CheckRevenueCandidate(rb models.RevenueBreakdown, reported models.Field) error {
	total := rb.Total
	if reported.Present {
		total = reported
	}
	if total.Value == 0 || rb.Passenger.Value/total.Value < v.min {
		return errors.New("passenger share too low")
	}
	return nil
}

func TestExtractor_SkipsInterimAndRetriesOnRejection(t *testing.T) {
	html := `<html><body>
<table><tr><th></th><th>2024</th></tr>
  <tr><td>Operating revenues by type</td><td></td></tr>
  <tr><td>Passenger revenue</td><td>1,000</td></tr>
  <tr><td>Total operating revenues</td><td>54,211</td></tr>
</table>` + strings.TrimPrefix(filingHTML, "<html><body>")

	e := NewExtractor(minShareValidator{min: 0.7}, nil)
	rec, err := e.Extract(models.FilingDocument{Path: "aal-20241231.htm", Content: []byte(html), Format: models.FormatHTML, Ticker: "AAL"}, 2024)
	require.NoError(t, err)

	assert.Equal(t, 49294e6, rec.Income.PassengerRevenue.Value)
	assert.Contains(t, rec.Income.PassengerRevenue.Ref, "table#2")
	assert.Equal(t, 289416e6, rec.Operating.AvailableSeatMiles.Value)
	assert.Len(t, rec.Segments, 4)
}

func TestExtractTables_RejectsTotalThatDisagreesWithComponents(t *testing.T) {
	html := `<html><body>
<table><tr><th></th><th>2024</th></tr>
  <tr><td>Passenger revenue</td><td>51,829</td></tr>
  <tr><td>Cargo revenue</td><td>1,743</td></tr>
  <tr><td>Other revenue</td><td>3,491</td></tr>
  <tr><td>Total operating revenues</td><td>51,829</td></tr>
</table>` + strings.TrimPrefix(filingHTML, "<html><body>")

	tables, err := ParseTables(strings.NewReader(html))
	require.NoError(t, err)

	e := NewExtractor(validate.NewEngine(validate.DefaultThresholds(), nil), nil)
	rec := e.ExtractTables(tables, "AAL", 2024, models.Field{})

	assert.Equal(t, 54211e6, rec.Income.TotalRevenue.Value)
	assert.Equal(t, 49294e6, rec.Income.PassengerRevenue.Value)
	assert.Contains(t, rec.Income.TotalRevenue.Ref, "table#2")
	assert.Contains(t, rec.Income.OtherRevenue.Ref, "table#2")
}

func TestExtractTables_ShareMeasuredAgainstReportedTotal(t *testing.T) {
	// the first table is a single-segment view whose own total makes it look
	// passenger dominant
	html := `<html><body>
<table><tr><th></th><th>2024</th></tr>
  <tr><td>Mainline operating revenues</td><td></td></tr>
  <tr><td>Passenger revenue</td><td>30,000</td></tr>
  <tr><td>Total operating revenues</td><td>31,000</td></tr>
</table>` + strings.TrimPrefix(filingHTML, "<html><body>")

	tables, err := ParseTables(strings.NewReader(html))
	require.NoError(t, err)
	e := NewExtractor(validate.NewEngine(validate.DefaultThresholds(), nil), nil)

	without := e.ExtractTables(tables, "AAL", 2024, models.Field{})
	assert.Equal(t, 30000e6, without.Income.PassengerRevenue.Value)

	reported := models.Field{Value: 54211e6, Present: true, Source: models.SourceXBRL, Ref: "Revenues@FY2024"}
	with := e.ExtractTables(tables, "AAL", 2024, reported)
	assert.Equal(t, 49294e6, with.Income.PassengerRevenue.Value)
	assert.Contains(t, with.Income.PassengerRevenue.Ref, "table#2")
}

func TestExtractor_RequiresFiscalYear(t *testing.T) {
	_, err := NewExtractor(nil, nil).Extract(models.FilingDocument{Path: "x.htm", Format: models.FormatHTML}, 0)
	assert.ErrorIs(t, err, models.ErrDocumentParse)
}
