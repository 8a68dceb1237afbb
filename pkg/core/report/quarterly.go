// Package report turns extraction records into per-quarter series and
// human-readable summaries.
package report

import (
	"math"
	"sort"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/filename"
)

// FlowFacts are the income-statement facts reported as year-to-date totals.
// Per-share figures are left cumulative.
var FlowFacts = []string{
	extract.FactNetSales,
	extract.FactSGA,
	extract.FactOperatingIncome,
	extract.FactOrdinaryIncome,
	extract.FactNetIncome,
}

type groupKey struct {
	company      string
	fiscalYear   int
	consolidated bool
	standard     extract.Standard
}

// ToQuarterly converts cumulative income-statement records into
// single-quarter values. Within a (company, fiscal year, scope, standard)
// group Q1 is kept as is and Qn becomes YTD(n) - YTD(n-1) for every flow
// fact present in both. When the preceding quarter is missing, the
// cumulative value is kept and an info diagnostic is attached.
//
// Balance sheets, records without a fiscal year and records with an unknown
// quarter pass through unchanged. Inputs are never modified; the result is
// in input order.
func ToQuarterly(recs []*extract.Record) []*extract.Record {
	groups := make(map[groupKey]map[int]*extract.Record)
	for _, r := range recs {
		if !convertible(r) {
			continue
		}
		k := keyOf(r)
		if groups[k] == nil {
			groups[k] = make(map[int]*extract.Record)
		}
		n := r.Quarter.Number()
		// Keep the latest publication when a quarter was restated.
		if prev, ok := groups[k][n]; !ok || prev.PublicDate < r.PublicDate {
			groups[k][n] = r
		}
	}

	out := make([]*extract.Record, 0, len(recs))
	for _, r := range recs {
		if !convertible(r) {
			out = append(out, r)
			continue
		}
		n := r.Quarter.Number()
		if n == 1 {
			out = append(out, r)
			continue
		}

		prev := groups[keyOf(r)][n-1]
		c := cloneRecord(r)
		if prev == nil {
			c.Diagnostics = append(c.Diagnostics, diag.Diagnostic{
				Kind:     diag.UnknownPeriod,
				Severity: diag.Info,
				Message:  "preceding quarter missing, values kept cumulative",
			})
			out = append(out, c)
			continue
		}
		for _, fact := range FlowFacts {
			cur, ok := c.Facts[fact]
			if !ok || cur == nil {
				continue
			}
			before := prev.Facts[fact]
			if before == nil {
				continue
			}
			v := round1(*cur - *before)
			c.Facts[fact] = &v
		}
		out = append(out, c)
	}
	return out
}

func convertible(r *extract.Record) bool {
	return r != nil &&
		r.Statement == filename.IncomeStatement &&
		r.FiscalYear != nil &&
		r.Quarter.Number() > 0
}

func keyOf(r *extract.Record) groupKey {
	return groupKey{
		company:      r.CompanyCode,
		fiscalYear:   *r.FiscalYear,
		consolidated: r.Consolidated,
		standard:     r.Standard,
	}
}

func cloneRecord(r *extract.Record) *extract.Record {
	c := *r
	c.Facts = make(map[string]*float64, len(r.Facts))
	for k, v := range r.Facts {
		if v != nil {
			x := *v
			v = &x
		}
		c.Facts[k] = v
	}
	c.Diagnostics = append([]diag.Diagnostic(nil), r.Diagnostics...)
	return &c
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SortChronologically orders records by company, period end and statement.
func SortChronologically(recs []*extract.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.CompanyCode != b.CompanyCode {
			return a.CompanyCode < b.CompanyCode
		}
		if a.PeriodEndDate != b.PeriodEndDate {
			return a.PeriodEndDate < b.PeriodEndDate
		}
		return a.Statement < b.Statement
	})
}
