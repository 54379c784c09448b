package xbrl

import (
	"os"
	"path/filepath"
	"testing"

	"airline_financials/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Trimmed shape of an airline 10-K instance: FY2024 and FY2023 durations,
// year-end instants, and product/service segment contexts for FY2024.
const instanceXBRL = `<?xml version="1.0" encoding="UTF-8"?>
<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance"
  xmlns:us-gaap="http://fasb.org/us-gaap/2024"
  xmlns:dei="http://xbrl.sec.gov/dei/2024"
  xmlns:xbrldi="http://xbrl.org/2006/xbrldi"
  xmlns:srt="http://fasb.org/srt/2024"
  xmlns:aal="http://www.aa.com/20241231">
  <xbrli:context id="FY2024">
    <xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000006201</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:startDate>2024-01-01</xbrli:startDate><xbrli:endDate>2024-12-31</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <xbrli:context id="FY2023">
    <xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000006201</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:startDate>2023-01-01</xbrli:startDate><xbrli:endDate>2023-12-31</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <xbrli:context id="I2024">
    <xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000006201</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:instant>2024-12-31</xbrli:instant></xbrli:period>
  </xbrli:context>
  <xbrli:context id="Q42024">
    <xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000006201</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:startDate>2024-10-01</xbrli:startDate><xbrli:endDate>2024-12-31</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <xbrli:context id="FY2024_Pax">
    <xbrli:entity>
      <xbrli:identifier scheme="http://www.sec.gov/CIK">0000006201</xbrli:identifier>
      <xbrli:segment><xbrldi:explicitMember dimension="srt:ProductOrServiceAxis">us-gaap:PassengerMember</xbrldi:explicitMember></xbrli:segment>
    </xbrli:entity>
    <xbrli:period><xbrli:startDate>2024-01-01</xbrli:startDate><xbrli:endDate>2024-12-31</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <xbrli:context id="FY2024_Cargo">
    <xbrli:entity>
      <xbrli:identifier scheme="http://www.sec.gov/CIK">0000006201</xbrli:identifier>
      <xbrli:segment><xbrldi:explicitMember dimension="srt:ProductOrServiceAxis">us-gaap:CargoAndFreightMember</xbrldi:explicitMember></xbrli:segment>
    </xbrli:entity>
    <xbrli:period><xbrli:startDate>2024-01-01</xbrli:startDate><xbrli:endDate>2024-12-31</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <xbrli:context id="FY2024_Other">
    <xbrli:entity>
      <xbrli:identifier scheme="http://www.sec.gov/CIK">0000006201</xbrli:identifier>
      <xbrli:segment><xbrldi:explicitMember dimension="srt:ProductOrServiceAxis">us-gaap:ProductAndServiceOtherMember</xbrldi:explicitMember></xbrli:segment>
    </xbrli:entity>
    <xbrli:period><xbrli:startDate>2024-01-01</xbrli:startDate><xbrli:endDate>2024-12-31</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <dei:DocumentPeriodEndDate contextRef="FY2024">2024-12-31</dei:DocumentPeriodEndDate>
  <us-gaap:Revenues contextRef="FY2023" unitRef="usd" decimals="-6">52788000000</us-gaap:Revenues>
  <us-gaap:Revenues contextRef="Q42024" unitRef="usd" decimals="-6">13660000000</us-gaap:Revenues>
  <us-gaap:Revenues contextRef="FY2024" unitRef="usd" decimals="-6">54211000000</us-gaap:Revenues>
  <us-gaap:OperatingRevenue contextRef="FY2024" unitRef="usd" decimals="-6">1</us-gaap:OperatingRevenue>
  <us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax contextRef="FY2024_Pax" unitRef="usd" decimals="-6">49294000000</us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax>
  <us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax contextRef="FY2024_Cargo" unitRef="usd" decimals="-6">804000000</us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax>
  <us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax contextRef="FY2024_Other" unitRef="usd" decimals="-6">4113000000</us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax>
  <us-gaap:SpecialCharges contextRef="FY2024" unitRef="usd" decimals="-6">0</us-gaap:SpecialCharges>
  <aal:AircraftRental contextRef="FY2024" unitRef="usd" decimals="-6">1426000000</aal:AircraftRental>
  <us-gaap:Assets contextRef="I2024" unitRef="usd" decimals="-6">61783000000</us-gaap:Assets>
</xbrli:xbrl>`

func parseFixture(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseBytes([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestResolve_EarliestCandidateWins(t *testing.T) {
	doc := parseFixture(t, instanceXBRL)
	idx := BuildContextIndex(doc, doc.PeriodEndDate())
	r := NewResolver(doc)

	v, err := r.Resolve(ConceptTagSet{Concept: models.TotalRevenue, Tags: []string{"Revenues", "OperatingRevenue"}}, idx.ForYear(2024))
	require.NoError(t, err)
	assert.Equal(t, 54211000000.0, v.Value)
	assert.Equal(t, "Revenues@FY2024", v.Ref)

	v, err = r.Resolve(ConceptTagSet{Concept: models.TotalRevenue, Tags: []string{"OperatingRevenue", "Revenues"}}, idx.ForYear(2024))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Value)
}

func TestResolve_ContextFilter(t *testing.T) {
	doc := parseFixture(t, instanceXBRL)
	idx := BuildContextIndex(doc, doc.PeriodEndDate())
	r := NewResolver(doc)
	set := ConceptTagSet{Concept: models.TotalRevenue, Tags: []string{"Revenues"}}

	tests := []struct {
		name     string
		contexts ContextSet
		want     float64
	}{
		{"fiscal 2024", idx.ForYear(2024), 54211000000},
		{"fiscal 2023", idx.ForYear(2023), 52788000000},
		{"no filter takes first in document", nil, 52788000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := r.Resolve(set, tt.contexts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Value)
		})
	}
}

func TestResolve_NotFoundIsDistinctFromZero(t *testing.T) {
	doc := parseFixture(t, instanceXBRL)
	idx := BuildContextIndex(doc, doc.PeriodEndDate())
	r := NewResolver(doc)

	v, err := r.Resolve(ConceptTagSet{Concept: models.SpecialCharges, Tags: []string{"SpecialCharges"}}, idx.ForYear(2024))
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.Value)

	_, err = r.Resolve(ConceptTagSet{Concept: models.Goodwill, Tags: []string{"Goodwill"}}, idx.ForYear(2024))
	assert.ErrorIs(t, err, models.ErrConceptNotFound)

	// an empty required set matches nothing
	_, err = r.Resolve(ConceptTagSet{Concept: models.TotalRevenue, Tags: []string{"Revenues"}}, idx.ForYear(2019))
	assert.ErrorIs(t, err, models.ErrConceptNotFound)
}

func TestResolve_CompanyNamespace(t *testing.T) {
	doc := parseFixture(t, instanceXBRL)
	assert.Equal(t, "aal", doc.CompanyPrefix())

	idx := BuildContextIndex(doc, doc.PeriodEndDate())
	v, err := NewResolver(doc).Resolve(ConceptTagSet{Concept: models.AircraftRent, Tags: []string{"AircraftRental"}}, idx.ForYear(2024))
	require.NoError(t, err)
	assert.Equal(t, 1426000000.0, v.Value)
}

func TestContextIndex_SegmentsNeverConflated(t *testing.T) {
	doc := parseFixture(t, instanceXBRL)
	idx := BuildContextIndex(doc, doc.PeriodEndDate())

	assert.Equal(t, []string{"FY2024", "I2024"}, idx.ForYear(2024).IDs())
	assert.Equal(t, []string{"FY2024_Pax"}, idx.ForYearSegment(2024, "PassengerMember").IDs())
	assert.Equal(t, []string{"FY2024_Cargo"}, idx.ForYearSegment(2024, "us-gaap:CargoAndFreightMember").IDs())
	assert.Empty(t, idx.ForYearSegment(2023, "PassengerMember"))
	assert.False(t, idx.ForYear(2024).Contains("Q42024"), "quarterly durations are not annual")
	assert.Equal(t, []int{2024, 2023}, idx.Years())

	r := NewResolver(doc)
	set := ConceptTagSet{Concept: models.PassengerRevenue, Tags: []string{revenueFromContracts}}
	pax, err := r.Resolve(set, idx.ForYearSegment(2024, "PassengerMember"))
	require.NoError(t, err)
	cargo, err := r.Resolve(set, idx.ForYearSegment(2024, "CargoAndFreightMember"))
	require.NoError(t, err)
	assert.Equal(t, 49294000000.0, pax.Value)
	assert.Equal(t, 804000000.0, cargo.Value)

	_, err = r.Resolve(set, idx.ForYear(2024))
	assert.ErrorIs(t, err, models.ErrConceptNotFound, "segment facts must not leak into consolidated lookups")
}

const inlineXBRL = `<html xmlns="http://www.w3.org/1999/xhtml"
  xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"
  xmlns:xbrli="http://www.xbrl.org/2003/instance"
  xmlns:us-gaap="http://fasb.org/us-gaap/2023"
  xmlns:dei="http://xbrl.sec.gov/dei/2023"
  xmlns:ixt="http://www.xbrl.org/inlineXBRL/transformation/2020-02-12"
  xmlns:luv="http://www.southwest.com/20231231">
<body>
<div style="display:none"><ix:header><ix:resources>
  <xbrli:context id="c-1"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000092380</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:startDate>2023-01-01</xbrli:startDate><xbrli:endDate>2023-12-31</xbrli:endDate></xbrli:period></xbrli:context>
  <xbrli:context id="c-2"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000092380</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:instant>2023-12-31</xbrli:instant></xbrli:period></xbrli:context>
</ix:resources></ix:header></div>
<p>Period ended <ix:nonNumeric name="dei:DocumentPeriodEndDate" contextRef="c-1">December 31, 2023</ix:nonNumeric></p>
<table>
<tr><td>Passenger</td><td>$</td><td><ix:nonFraction name="us-gaap:PassengerRevenue" contextRef="c-1" unitRef="usd" decimals="-6" scale="6" format="ixt:num-dot-decimal">23,637</ix:nonFraction></td></tr>
<tr><td>Fuel hedge loss</td><td>(<ix:nonFraction name="luv:FuelHedgeGainLoss" contextRef="c-1" unitRef="usd" decimals="-6" scale="6" sign="-" format="ixt:num-dot-decimal">42</ix:nonFraction>)</td></tr>
<tr><td>Special items</td><td><ix:nonFraction name="us-gaap:SpecialCharges" contextRef="c-1" unitRef="usd" scale="6" format="ixt:fixed-zero">—</ix:nonFraction></td></tr>
<tr><td>Total assets</td><td><ix:nonFraction name="us-gaap:Assets" contextRef="c-2" unitRef="usd" decimals="-6" scale="6">36,487</ix:nonFraction></td></tr>
</table>
</body></html>`

func TestResolve_InlineFacts(t *testing.T) {
	doc := parseFixture(t, inlineXBRL)
	require.True(t, doc.IsInline())
	assert.Equal(t, "luv", doc.CompanyPrefix())
	assert.Equal(t, 2023, doc.FiscalYear("luv-10k.htm"))

	idx := BuildContextIndex(doc, doc.PeriodEndDate())
	r := NewResolver(doc)

	tests := []struct {
		name string
		tag  string
		want float64
	}{
		{"scale applied", "PassengerRevenue", 23637000000},
		{"sign attribute", "FuelHedgeGainLoss", -42000000},
		{"fixed zero", "SpecialCharges", 0},
		{"instant context", "Assets", 36487000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := r.Resolve(ConceptTagSet{Tags: []string{tt.tag}}, idx.ForYear(2023))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, v.Value, 0.5)
		})
	}
}

func TestFiscalYearFromFilename(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"data/AAL/aal-20241231.htm", 2024},
		{"ual-20231231_htm.xml", 2023},
		{"dal-10k.htm", 0},
		{"report-20231399.htm", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FiscalYearFromFilename(tt.path), tt.path)
	}
}

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor(nil, nil)
	rec, err := e.Extract(models.FilingDocument{
		Path:    "aal-20241231_htm.xml",
		Content: []byte(instanceXBRL),
		Format:  models.FormatXBRL,
		Ticker:  "AAL",
	})
	require.NoError(t, err)

	assert.Equal(t, 2024, rec.FiscalYear)
	assert.Equal(t, 54211000000.0, rec.Income.TotalRevenue.Value)
	assert.Equal(t, 49294000000.0, rec.Income.PassengerRevenue.Value)
	assert.Equal(t, 804000000.0, rec.Income.CargoRevenue.Value)
	assert.Equal(t, 4113000000.0, rec.Income.OtherRevenue.Value)
	assert.Equal(t, models.SourceXBRL, rec.Income.PassengerRevenue.Source)
	assert.True(t, rec.Income.SpecialCharges.Present)
	assert.Equal(t, 0.0, rec.Income.SpecialCharges.Value)
	assert.False(t, rec.Balance.Goodwill.Present)
	assert.Equal(t, 61783000000.0, rec.Balance.TotalAssets.Value)
}

func TestExtractor_MalformedDocument(t *testing.T) {
	e := NewExtractor(nil, nil)
	_, err := e.Extract(models.FilingDocument{Path: "bad.xml", Content: []byte("not a filing"), Format: models.FormatXBRL})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDocumentParse)

	var perr *models.DocumentParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad.xml", perr.Path)
}

func TestConceptOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concepts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
overrides:
  - concept: income.passenger_revenue
    tags: [PassengerRevenueNet]
  - concept: income.aircraft_rent
    tags: [AircraftRental]
    mode: replace
`), 0o644))

	overrides, err := LoadConceptOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 2)

	table := ApplyOverrides(DefaultConcepts, overrides)
	for _, set := range table {
		switch {
		case set.Concept == models.PassengerRevenue && set.Segment == "":
			assert.Equal(t, "PassengerRevenueNet", set.Tags[0])
			assert.Equal(t, "PassengerRevenue", set.Tags[1])
		case set.Concept == models.AircraftRent:
			assert.Equal(t, []string{"AircraftRental"}, set.Tags)
		}
	}
	// base table untouched
	assert.Equal(t, "PassengerRevenue", DefaultConcepts[1].Tags[0])

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("overrides:\n  - concept: income.nope\n    tags: [X]\n"), 0o644))
	_, err = LoadConceptOverrides(bad)
	assert.Error(t, err)
}
