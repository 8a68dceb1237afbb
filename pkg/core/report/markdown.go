package report

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/filename"
)

const missingCell = "-"

var statementTitles = map[filename.StatementKind]string{
	filename.BalanceSheet:    "Balance sheet",
	filename.IncomeStatement: "Income statement",
}

// Markdown renders one table per statement kind. Values are in hundred
// million yen (yen for per-share facts); low-confidence values carry a
// trailing "*".
func Markdown(title string, recs []*extract.Record) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}

	for _, kind := range []filename.StatementKind{filename.BalanceSheet, filename.IncomeStatement} {
		var rows []*extract.Record
		for _, r := range recs {
			if r != nil && r.Statement == kind {
				rows = append(rows, r)
			}
		}
		if len(rows) == 0 {
			continue
		}

		facts := factColumns(kind)
		table := [][]string{append([]string{"code", "company", "period_end", "quarter", "fy", "standard"}, facts...)}
		for _, r := range rows {
			table = append(table, recordRow(r, facts))
		}

		fmt.Fprintf(&sb, "## %s\n\n", statementTitles[kind])
		for _, line := range formatTable(table) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if notes := diagnosticNotes(recs); len(notes) > 0 {
		sb.WriteString("## Diagnostics\n\n")
		for _, n := range notes {
			sb.WriteString("- ")
			sb.WriteString(n)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// factColumns is the union of both standards' facts in extraction order.
func factColumns(kind filename.StatementKind) []string {
	seen := make(map[string]bool)
	var out []string
	for _, std := range []extract.Standard{extract.LocalGAAP, extract.IFRS} {
		for _, f := range extract.FactNames(kind, std) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func recordRow(r *extract.Record, facts []string) []string {
	fy := missingCell
	if r.FiscalYear != nil {
		fy = fmt.Sprintf("%d", *r.FiscalYear)
	}
	row := []string{
		r.CompanyCode,
		escapeCell(r.CompanyName),
		orMissing(r.PeriodEndDate),
		string(r.Quarter),
		fy,
		r.Standard.String(),
	}

	low := make(map[string]bool)
	for _, f := range r.LowConfidence() {
		low[f] = true
	}
	for _, f := range facts {
		v, ok := r.Fact(f)
		if !ok {
			row = append(row, missingCell)
			continue
		}
		cell := fmt.Sprintf("%.1f", v)
		if f == extract.FactDilutedEPS {
			cell = fmt.Sprintf("%.2f", v)
		}
		if low[f] {
			cell += "*"
		}
		row = append(row, cell)
	}
	return row
}

func diagnosticNotes(recs []*extract.Record) []string {
	var out []string
	for _, r := range recs {
		if r == nil {
			continue
		}
		for _, d := range r.Diagnostics {
			if d.Severity == diag.Info {
				continue
			}
			out = append(out, fmt.Sprintf("%s: %s", r.DocumentID, escapeCell(d.String())))
		}
	}
	return out
}

// formatTable pads every cell to its column's display width so tables with
// full-width company names stay aligned in plain text.
func formatTable(table [][]string) []string {
	if len(table) == 0 {
		return nil
	}
	colCount := len(table[0])
	widths := make([]int, colCount)
	for _, row := range table {
		for i := 0; i < len(row) && i < colCount; i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	lines := make([]string, 0, len(table)+1)
	for i, row := range table {
		lines = append(lines, formatRow(row, widths))
		if i == 0 {
			sep := make([]string, colCount)
			for j, w := range widths {
				sep[j] = strings.Repeat("-", w)
			}
			lines = append(lines, formatRow(sep, widths))
		}
	}
	return lines
}

func formatRow(row []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for j, w := range widths {
		content := ""
		if j < len(row) {
			content = row[j]
		}
		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(content, w))
		sb.WriteString(" |")
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orMissing(s string) string {
	if s == "" {
		return missingCell
	}
	return s
}
