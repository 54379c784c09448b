// Package report renders the audit trail of finalized records as Markdown
// and, through goldmark, as HTML.
package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"airline_financials/pkg/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format selects the output encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// summaryFields are shown in the headline table of each record.
var summaryFields = []models.FieldID{
	models.TotalRevenue,
	models.PassengerRevenue,
	models.CargoRevenue,
	models.OtherRevenue,
	models.OperatingIncome,
	models.NetIncome,
	models.TotalAssets,
	models.TotalLiabilities,
	models.ShareholderEquity,
	models.OperatingCashFlow,
	models.CapitalExpenditures,
	models.FreeCashFlow,
	models.AvailableSeatMiles,
	models.RevenuePassengerMiles,
	models.LoadFactor,
	models.RASM,
	models.CASM,
}

// Markdown builds the audit document. Records are ordered by ticker, then
// newest year first.
func Markdown(records []*models.StatementRecord) string {
	sorted := append([]*models.StatementRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Ticker != sorted[j].Ticker {
			return sorted[i].Ticker < sorted[j].Ticker
		}
		return sorted[i].FiscalYear > sorted[j].FiscalYear
	})

	var b strings.Builder
	b.WriteString("# Extraction audit\n\n")
	for _, r := range sorted {
		writeRecord(&b, r)
	}
	return b.String()
}

func writeRecord(b *strings.Builder, r *models.StatementRecord) {
	fmt.Fprintf(b, "## %s FY%d\n\n", r.Ticker, r.FiscalYear)
	if !r.Finalized {
		b.WriteString("_not finalized_\n\n")
	}

	b.WriteString("| Field | Value | Source | Reference |\n|---|---:|---|---|\n")
	for _, id := range summaryFields {
		f := r.Get(id)
		if !f.Present {
			fmt.Fprintf(b, "| %s | n/a | | |\n", id)
			continue
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", id, formatValue(id, f.Value), f.Source, escape(f.Ref))
	}
	b.WriteString("\n")

	if len(r.Segments) > 0 {
		b.WriteString("### Segments\n\n| Segment | Revenue | Operating income |\n|---|---:|---:|\n")
		for _, s := range r.Segments {
			oi := "n/a"
			if s.OperatingIncome != nil {
				oi = formatAmount(*s.OperatingIncome)
			}
			fmt.Fprintf(b, "| %s | %s | %s |\n", escape(s.Name), formatAmount(s.Revenue), oi)
		}
		b.WriteString("\n")
	}

	if len(r.Findings) == 0 {
		b.WriteString("No findings.\n\n")
		return
	}
	b.WriteString("### Findings\n\n| Kind | Field | Action | Before | After | Note |\n|---|---|---|---:|---:|---|\n")
	for _, f := range r.Findings {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			f.Kind, f.Field, f.Action, optional(f.Field, f.Before), optional(f.Field, f.After), escape(f.Message))
	}
	b.WriteString("\n")
}

// HTML converts Markdown to HTML with GitHub tables enabled.
func HTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders records to w in the requested format.
func Write(w io.Writer, records []*models.StatementRecord, format Format) error {
	doc := Markdown(records)
	switch format {
	case FormatMarkdown, "":
		_, err := io.WriteString(w, doc)
		return err
	case FormatHTML:
		html, err := HTML(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(html)
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func optional(id models.FieldID, v *float64) string {
	if v == nil {
		return ""
	}
	return formatValue(id, *v)
}

// formatValue prints currency in millions and leaves ratios and counts as is.
func formatValue(id models.FieldID, v float64) string {
	switch models.GroupOf(id) {
	case models.GroupOperating:
		if id == models.AvailableSeatMiles || id == models.RevenuePassengerMiles {
			return fmt.Sprintf("%.0fM mi", v/1e6)
		}
		return fmt.Sprintf("%.2f", v)
	default:
		return formatAmount(v)
	}
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.1fM", v/1e6)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
