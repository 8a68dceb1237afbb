package ixbrl

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/width"

	"tdnet_xbrl/pkg/core/diag"
)

// =============================================================================
// TABLE FALLBACK - best-effort scan of HTML tables when no tag resolves
// =============================================================================

// Tables without a unit caption are assumed to be in millions of yen.
const defaultTableScale = -6

// TableFallback scans table rows for a label synonym and takes the
// right-most numeric cell as the current-period value. Financial tables put
// the most recent period right-most; this is a layout convention, not a
// structural guarantee, so every hit is flagged low confidence.
type TableFallback struct {
	target int
}

// NewTableFallback creates a fallback extractor for the given target exponent.
func NewTableFallback(targetExponent int) *TableFallback {
	return &TableFallback{target: targetExponent}
}

// Find scans every table row of doc for a row whose first cell names q.
// Labels are tried in priority order, first for a first cell equal to the
// label, then for a first cell containing it and none of q.ExcludeLabels.
// The matched row's right-most numeric cell (never the label cell or
// anything left of it) becomes the value, or nil if the row has no numeric
// cell. The scan stops early when ctx is done.
func (t *TableFallback) Find(ctx context.Context, doc *Document, q FactQuery, diags *diag.List) ExtractedFact {
	fact := ExtractedFact{
		Fact:   q.Fact,
		Unit:   UnitFor(q),
		Source: SourceNone,
	}
	if doc == nil || len(q.Labels) == 0 {
		return fact
	}

	labels := normalizeLabels(q.Labels)
	excludes := normalizeLabels(q.ExcludeLabels)

	var rows []labelledRow
	doc.Query().Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() == 0 {
			return true
		}
		rows = append(rows, labelledRow{sel: row, label: normalizeLabel(cells.First().Text())})
		return true
	})

	if ctx.Err() != nil {
		diags.Add(diag.MissingFact, diag.Warn, q.Fact, "table scan interrupted: %v", ctx.Err())
		return fact
	}

	matchedRow, matched := matchRow(rows, labels, excludes)
	if matchedRow == nil {
		return fact
	}

	cells := matchedRow.ChildrenFiltered("td, th")
	var (
		rawText string
		value   float64
		found   bool
	)
	// Start after the label cell.
	cells.Slice(1, goquery.ToEnd).Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		if q.PerShare {
			if v, ok := parsePerShare(text); ok {
				value, rawText, found = round(v, 2), text, true
			}
			return
		}
		if v, ok := ParseSignedInt(text); ok {
			value, rawText, found = float64(v), text, true
		}
	})
	if !found {
		diags.Add(diag.MissingFact, diag.Info, q.Fact, "table row %q has no numeric cell", matched)
		return fact
	}

	fact.RawText = rawText
	fact.Source = SourceTable
	fact.LowConfidence = true

	if !q.PerShare {
		scale := tableScale(matchedRow)
		fact.Scale = &scale
		value = ConvertAmount(int64(value), scale, t.target)
	}
	fact.Value = &value

	diags.Add(diag.TableFallback, diag.Warn, q.Fact, "value %q taken from table row %q (right-most cell)", rawText, matched)
	return fact
}

type labelledRow struct {
	sel   *goquery.Selection
	label string // normalized first cell
}

// matchRow picks the row for labels, which are in priority order: exact
// matches first, then substring matches. Subtotals such as 流動資産合計
// contain the total's label, so the exact pass must run over every row
// before any substring match is accepted.
func matchRow(rows []labelledRow, labels, excludes []string) (*goquery.Selection, string) {
	for _, l := range labels {
		for _, r := range rows {
			if r.label == l {
				return r.sel, l
			}
		}
	}
	for _, l := range labels {
		for _, r := range rows {
			if strings.Contains(r.label, l) && !containsAny(r.label, excludes) {
				return r.sel, l
			}
		}
	}
	return nil, ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func normalizeLabels(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		if l = normalizeLabel(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func normalizeLabel(s string) string {
	s = width.Narrow.String(s)
	return strings.Join(strings.Fields(s), "")
}

// tableScale looks for a unit caption such as （単位：百万円） in the table or
// the element just before it.
func tableScale(row *goquery.Selection) int {
	table := row.Closest("table")
	if table.Length() == 0 {
		return defaultTableScale
	}
	if scale, ok := scaleFromCaption(table.Text()); ok {
		return scale
	}
	prev := table.Prev()
	for i := 0; i < 2 && prev.Length() > 0; i++ {
		if scale, ok := scaleFromCaption(prev.Text()); ok {
			return scale
		}
		prev = prev.Prev()
	}
	return defaultTableScale
}

func scaleFromCaption(text string) (int, bool) {
	text = width.Narrow.String(text)
	if !strings.Contains(text, "単位") {
		return 0, false
	}
	switch {
	case strings.Contains(text, "百万円"):
		return -6, true
	case strings.Contains(text, "千円"):
		return -3, true
	}
	return 0, false
}
