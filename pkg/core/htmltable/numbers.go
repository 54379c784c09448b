package htmltable

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the unit multiplier a table's figures are quoted in.
type Scale int64

const (
	Units     Scale = 1
	Thousands Scale = 1_000
	Millions  Scale = 1_000_000
	Billions  Scale = 1_000_000_000
)

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

var cellCleaner = strings.NewReplacer(
	",", "", "$", "", "%", "", "*", "", " ", "",
	"\u00a0", "", "\u2009", "", "\u202f", "",
	"\u2212", "-",
)

// ParseNumber normalizes a table cell. Parentheses mean negative and a bare
// dash means zero. ok is false for empty or non-numeric cells, which are
// missing rather than zero.
func ParseNumber(cell string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(cell)
	switch s {
	case "":
		return decimal.Zero, false
	case "-", "—", "–", "--", "——":
		return decimal.Zero, true
	}

	s = cellCleaner.Replace(s)
	negative := false
	if strings.HasPrefix(s, "(") {
		// the closing paren often sits in its own cell
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}
	if !numericPattern.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ToBaseUnits converts a quoted figure to base units exactly before the
// final float conversion, so 258.503 million stays 258503000.
func ToBaseUnits(d decimal.Decimal, scale Scale) float64 {
	return d.Mul(decimal.NewFromInt(int64(scale))).InexactFloat64()
}

// DetectScale reads the unit caption of a table. Monetary tables in 10-K
// filings default to millions.
func DetectScale(text string) Scale {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "in thousands"), strings.Contains(t, "(thousands"), strings.Contains(t, "000s omitted"):
		return Thousands
	case strings.Contains(t, "in billions"), strings.Contains(t, "(billions"):
		return Billions
	}
	return Millions
}

// rowScale reads a unit hint from a row label such as
// "Available seat miles (millions)". def applies when the label has none.
func rowScale(label string, def Scale) Scale {
	switch {
	case strings.Contains(label, "thousand"):
		return Thousands
	case strings.Contains(label, "billion"):
		return Billions
	case strings.Contains(label, "million"):
		return Millions
	}
	return def
}
