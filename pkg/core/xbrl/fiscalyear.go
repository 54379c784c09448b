package xbrl

import (
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

var filenameDate = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)

// FiscalYearFromFilename reads the fiscal year from an EDGAR style name such
// as aal-20241231.htm. It returns 0 when no 8-digit date is present.
func FiscalYearFromFilename(path string) int {
	m := filenameDate.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0
	}
	year, _ := strconv.Atoi(m[1])
	return year
}

// PeriodEndDate returns dei:DocumentPeriodEndDate, or the zero time.
func (d *Document) PeriodEndDate() time.Time {
	return parseDate(d.deiValue("DocumentPeriodEndDate"))
}

// FiscalYear determines the fiscal year of a filing: filename date first,
// then the period end date, then the fiscal year focus.
func (d *Document) FiscalYear(path string) int {
	if fy := FiscalYearFromFilename(path); fy != 0 {
		return fy
	}
	if end := d.PeriodEndDate(); !end.IsZero() {
		return end.Year()
	}
	if fy, err := strconv.Atoi(d.deiValue("DocumentFiscalYearFocus")); err == nil {
		return fy
	}
	return 0
}
