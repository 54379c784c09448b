package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"airline_financials/pkg/core/xbrl"
	"airline_financials/pkg/models"
)

var filingExtensions = map[string]bool{
	".xml":   true,
	".htm":   true,
	".html":  true,
	".xhtml": true,
}

// LoadFilings reads every filing document under dir for one ticker, in
// lexical path order. Formats are sniffed and the fiscal year hint comes
// from the file name.
func LoadFilings(dir, ticker string) ([]models.FilingDocument, error) {
	var docs []models.FilingDocument
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !filingExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs = append(docs, models.FilingDocument{
			Path:           path,
			Content:        content,
			Format:         models.DetectFormat(path, content),
			Ticker:         strings.ToUpper(ticker),
			FiscalYearHint: xbrl.FiscalYearFromFilename(filepath.Base(path)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load filings from %s: %w", dir, err)
	}
	return docs, nil
}
