// Package merge combines the XBRL and HTML partial records of one fiscal year
// into a single record.
//
// Precedence rules:
//  1. XBRL beats HTML. A present XBRL field is never overwritten.
//  2. The revenue breakdown (passenger, cargo, other) moves from HTML as a
//     group, and only when the XBRL record has none of its members. An XBRL
//     total alone does not block it; filings often tag only Revenues. When
//     the XBRL record has components, the HTML total is not taken either and
//     the total is later derived from the XBRL components.
//  3. Operating statistics and segments have no XBRL equivalent and always
//     come from HTML.
//
// Presence is decided by the explicit flag on each field, so a reported zero
// still counts as reported.
package merge

import (
	"fmt"
	"math"
	"reflect"

	"airline_financials/pkg/models"
)

// Merge returns a new record built from xbrl and html, plus the conflicts it
// found. Either input may be nil. Inputs are not modified. Running Merge again
// on its own output with the same html record changes nothing.
func Merge(xbrl, html *models.StatementRecord) (*models.StatementRecord, []models.ValidationFinding) {
	switch {
	case xbrl == nil && html == nil:
		return nil, nil
	case xbrl == nil:
		return html.Clone(), nil
	case html == nil:
		return xbrl.Clone(), nil
	}

	out := xbrl.Clone()
	skipRevenue := anyPresent(xbrl, models.GroupRevenueBreakdown)

	var conflicts []models.ValidationFinding
	for _, id := range models.FieldIDs() {
		hf := html.Get(id)
		if !hf.Present {
			continue
		}
		of := out.Get(id)
		group := models.GroupOf(id)

		if group == models.GroupOperating {
			*of = *hf
			continue
		}
		if of.Present {
			if !sameValue(of.Value, hf.Value) {
				conflicts = append(conflicts, conflict(id, *of, *hf))
			}
			continue
		}
		if skipRevenue && (group == models.GroupRevenueBreakdown || id == models.TotalRevenue) {
			continue
		}
		*of = *hf
	}

	if len(html.Segments) > 0 {
		out.Segments = html.Clone().Segments
	}

	for _, f := range html.Findings {
		out.Findings = appendUnique(out.Findings, f)
	}
	for _, f := range conflicts {
		out.Findings = appendUnique(out.Findings, f)
	}
	return out, conflicts
}

func anyPresent(r *models.StatementRecord, g models.FieldGroup) bool {
	for _, id := range models.GroupMembers(g) {
		if r.Get(id).Present {
			return true
		}
	}
	return false
}

func conflict(id models.FieldID, kept, dropped models.Field) models.ValidationFinding {
	return models.ValidationFinding{
		Kind:     models.FindingMergeConflict,
		Field:    id,
		Expected: models.Float(kept.Value),
		Actual:   models.Float(dropped.Value),
		Action:   models.ActionKeptHigherPriority,
		Message: fmt.Sprintf("%v: %s %s (%s) kept over %s %s (%s)", models.ErrMergeConflict,
			kept.Source, formatValue(kept.Value), kept.Ref, dropped.Source, formatValue(dropped.Value), dropped.Ref),
	}
}

func sameValue(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

func appendUnique(list []models.ValidationFinding, f models.ValidationFinding) []models.ValidationFinding {
	for _, existing := range list {
		if reflect.DeepEqual(existing, f) {
			return list
		}
	}
	return append(list, f)
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
