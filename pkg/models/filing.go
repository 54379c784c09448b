package models

import "strings"

// DocumentFormat is the container format of a filing document.
type DocumentFormat string

const (
	FormatXBRL       DocumentFormat = "xbrl"
	FormatInlineXBRL DocumentFormat = "ixbrl"
	FormatHTML       DocumentFormat = "html"
)

// FilingDocument is one input file for a company.
type FilingDocument struct {
	Path           string         `json:"path"`
	Content        []byte         `json:"-"`
	Format         DocumentFormat `json:"format"`
	Ticker         string         `json:"ticker"`
	FiscalYearHint int            `json:"fiscal_year_hint"`
}

// DetectFormat guesses the format from the file name and leading bytes.
// Inline XBRL is HTML carrying ix: facts, so it is checked first.
func DetectFormat(path string, content []byte) DocumentFormat {
	head := content
	if len(head) > 4096 {
		head = head[:4096]
	}
	lower := strings.ToLower(string(head))
	name := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "xmlns:ix=") || strings.Contains(lower, "<ix:header"):
		return FormatInlineXBRL
	case strings.HasSuffix(name, ".xml") || strings.Contains(lower, "<xbrl") || strings.Contains(lower, ":xbrl"):
		return FormatXBRL
	}
	return FormatHTML
}
