// Package htmltable finds and reads airline tables (revenue breakdown,
// operating statistics, geographic segments) in 10-K HTML.
package htmltable

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxColspan = 24

// Cell is one td/th placed on the logical column grid.
type Cell struct {
	Text  string
	Start int
	Span  int
}

// Row is a table row with colspans expanded into column positions.
type Row struct {
	Cells  []Cell
	Header bool
}

// Label is the lowercased text of the first cell.
func (r Row) Label() string {
	if len(r.Cells) == 0 {
		return ""
	}
	return strings.ToLower(r.Cells[0].Text)
}

// Table is a parsed HTML table with its normalized text.
type Table struct {
	Index int
	Rows  []Row
	Text  string
	Scale Scale
}

// Ref identifies a row for provenance.
func (t Table) Ref(label string) string {
	return fmt.Sprintf("table#%d %q", t.Index, label)
}

// ParseTables reads every table in an HTML document in document order.
func ParseTables(r io.Reader) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tables []Table
	doc.Find("table").Each(func(i int, s *goquery.Selection) {
		t := Table{Index: i}
		s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			// rows of nested tables belong to the inner table
			if tr.Closest("table").Get(0) != s.Get(0) {
				return
			}
			t.Rows = append(t.Rows, parseRow(tr))
		})
		t.Text = Normalize(s.Text())
		t.Scale = DetectScale(t.Text + " " + Normalize(precedingCaption(s)))
		tables = append(tables, t)
	})
	return tables, nil
}

func parseRow(tr *goquery.Selection) Row {
	row := Row{Header: tr.ParentsFiltered("thead").Length() > 0 || tr.Children().Filter("th").Length() > 0}
	col := 0
	tr.Children().Filter("td, th").Each(func(_ int, c *goquery.Selection) {
		span := 1
		if v, ok := c.Attr("colspan"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
				span = min(n, maxColspan)
			}
		}
		row.Cells = append(row.Cells, Cell{Text: cleanText(c.Text()), Start: col, Span: span})
		col += span
	})
	return row
}

// precedingCaption returns the text just before a table, where filings put
// "(in millions)" captions.
func precedingCaption(s *goquery.Selection) string {
	prev := s.PrevAll().First()
	if prev.Length() == 0 {
		prev = s.Parent().PrevAll().First()
	}
	text := prev.Text()
	if len(text) > 300 {
		text = text[len(text)-300:]
	}
	return text
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize lowercases and collapses whitespace.
func Normalize(s string) string {
	return strings.ToLower(cleanText(s))
}
