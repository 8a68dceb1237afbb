package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/ixbrl"
	"tdnet_xbrl/pkg/core/period"
)

func f(v float64) *float64 { return &v }

func plRecord(id string, q period.Quarter, fy int, pub string, sales, op *float64) *extract.Record {
	return &extract.Record{
		DocumentID:    id,
		CompanyCode:   "1301",
		CompanyName:   "極洋",
		Statement:     filename.IncomeStatement,
		Consolidated:  true,
		Standard:      extract.LocalGAAP,
		PeriodEndDate: pub,
		PublicDate:    pub,
		Quarter:       q,
		FiscalYear:    &fy,
		Facts: map[string]*float64{
			extract.FactNetSales:        sales,
			extract.FactOperatingIncome: op,
		},
	}
}

func TestToQuarterly(t *testing.T) {
	recs := []*extract.Record{
		plRecord("q1", period.Q1, 2016, "2016-08-05", f(600.0), f(10.0)),
		plRecord("q2", period.Q2, 2016, "2016-11-04", f(1250.5), f(25.0)),
		plRecord("q3", period.Q3, 2016, "2017-02-03", f(1900.0), nil),
		plRecord("q4", period.Q4, 2016, "2017-05-10", f(2500.0), f(40.0)),
	}

	out := ToQuarterly(recs)
	require.Len(t, out, 4)

	sales := func(r *extract.Record) float64 {
		v, ok := r.Fact(extract.FactNetSales)
		require.True(t, ok)
		return v
	}
	assert.Same(t, recs[0], out[0])
	assert.InDelta(t, 600.0, sales(out[0]), 1e-9)
	assert.InDelta(t, 650.5, sales(out[1]), 1e-9)
	assert.InDelta(t, 649.5, sales(out[2]), 1e-9)
	assert.InDelta(t, 600.0, sales(out[3]), 1e-9)

	op, ok := out[1].Fact(extract.FactOperatingIncome)
	require.True(t, ok)
	assert.InDelta(t, 15.0, op, 1e-9)
	_, ok = out[2].Fact(extract.FactOperatingIncome)
	assert.False(t, ok)
	// Q3 operating income is missing, so Q4 stays cumulative for it.
	op, ok = out[3].Fact(extract.FactOperatingIncome)
	require.True(t, ok)
	assert.InDelta(t, 40.0, op, 1e-9)

	// Inputs untouched.
	assert.InDelta(t, 1250.5, *recs[1].Facts[extract.FactNetSales], 1e-9)
}

func TestToQuarterlyMissingPredecessor(t *testing.T) {
	recs := []*extract.Record{
		plRecord("q1", period.Q1, 2016, "2016-08-05", f(600.0), nil),
		plRecord("q3", period.Q3, 2016, "2017-02-03", f(1900.0), nil),
	}
	out := ToQuarterly(recs)
	v, ok := out[1].Fact(extract.FactNetSales)
	require.True(t, ok)
	assert.InDelta(t, 1900.0, v, 1e-9)
	require.NotEmpty(t, out[1].Diagnostics)
	assert.Equal(t, diag.Info, out[1].Diagnostics[len(out[1].Diagnostics)-1].Severity)
	assert.Empty(t, recs[1].Diagnostics)
}

func TestToQuarterlyPassThrough(t *testing.T) {
	bs := plRecord("bs", period.Q2, 2016, "2016-09-30", f(1.0), nil)
	bs.Statement = filename.BalanceSheet
	unknown := plRecord("u", period.Unknown, 2016, "2016-09-30", f(1.0), nil)
	noFY := plRecord("n", period.Q2, 2016, "2016-09-30", f(1.0), nil)
	noFY.FiscalYear = nil

	in := []*extract.Record{bs, unknown, noFY, nil}
	out := ToQuarterly(in)
	require.Len(t, out, 4)
	for i := range in {
		assert.Same(t, in[i], out[i])
	}
}

func TestToQuarterlySeparatesGroups(t *testing.T) {
	a := plRecord("a1", period.Q1, 2016, "2016-08-05", f(100), nil)
	b := plRecord("b2", period.Q2, 2016, "2016-11-04", f(300), nil)
	b.Consolidated = false
	out := ToQuarterly([]*extract.Record{a, b})
	v, _ := out[1].Fact(extract.FactNetSales)
	assert.InDelta(t, 300.0, v, 1e-9)
}

func TestMarkdown(t *testing.T) {
	rec := plRecord("doc-1", period.Q2, 2017, "2016-09-30", f(1826.9), nil)
	rec.Details = map[string]ixbrl.ExtractedFact{
		extract.FactNetSales: {Fact: extract.FactNetSales, Value: f(1826.9), Source: ixbrl.SourceTable, LowConfidence: true},
	}
	rec.Diagnostics = []diag.Diagnostic{
		{Kind: diag.MissingFact, Severity: diag.Warn, Fact: extract.FactOperatingIncome, Message: "not found"},
		{Kind: diag.UnparseableValue, Severity: diag.Info, Message: "dash"},
	}

	md := Markdown("1301 report", []*extract.Record{rec})
	assert.True(t, strings.HasPrefix(md, "# 1301 report\n"))
	assert.Contains(t, md, "## Income statement")
	assert.NotContains(t, md, "## Balance sheet")
	assert.Contains(t, md, "1826.9*")
	assert.Contains(t, md, "doc-1: [warn] missing_fact (operating_income): not found")
	assert.NotContains(t, md, "dash")

	// Every table line has the same display width.
	var widths []int
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "|") {
			widths = append(widths, runewidth.StringWidth(line))
		}
	}
	require.Len(t, widths, 3)
	assert.Equal(t, widths[0], widths[1])
	assert.Equal(t, widths[0], widths[2])
}

func TestRenderHTML(t *testing.T) {
	md := Markdown("<script>alert(1)</script>", []*extract.Record{
		plRecord("doc-1", period.Q1, 2017, "2016-06-30", f(10), nil),
	})
	page, err := RenderHTML("1301 <report>", md)
	require.NoError(t, err)
	assert.Contains(t, page, "<title>1301 &lt;report&gt;</title>")
	assert.Contains(t, page, "<table>")
	assert.NotContains(t, page, "<script>")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	recs := []*extract.Record{plRecord("doc-1", period.Q1, 2017, "2016-06-30", f(10), nil)}

	mdPath := filepath.Join(dir, "out", "report.md")
	require.NoError(t, WriteFile(mdPath, "r", recs))
	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Income statement")

	htmlPath := filepath.Join(dir, "report.html")
	require.NoError(t, WriteFile(htmlPath, "r", recs))
	data, err = os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}

func TestSortChronologically(t *testing.T) {
	recs := []*extract.Record{
		{CompanyCode: "4612", PeriodEndDate: "2024-03-31"},
		{CompanyCode: "1301", PeriodEndDate: "2016-06-30"},
		{CompanyCode: "1301", PeriodEndDate: "2016-03-31"},
	}
	SortChronologically(recs)
	assert.Equal(t, "2016-03-31", recs[0].PeriodEndDate)
	assert.Equal(t, "2016-06-30", recs[1].PeriodEndDate)
	assert.Equal(t, "4612", recs[2].CompanyCode)
}
