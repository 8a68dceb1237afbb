// Package validate runs accounting sanity checks over extracted records.
// Checks never fail a record; findings come back as diagnostics so that a
// misread scale or a wrong table row can be reviewed.
package validate

import (
	"fmt"
	"math"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/filename"
)

// Config holds the check thresholds.
type Config struct {
	// TolerancePct is the allowed gap, in percent of the larger side, for
	// subtotal checks.
	TolerancePct float64
	// OutlierPct flags period-over-period changes above this percentage.
	OutlierPct float64
}

// DefaultConfig returns the thresholds used by the pipeline.
func DefaultConfig() Config {
	return Config{TolerancePct: 1.0, OutlierPct: 500.0}
}

// =============================================================================
// YEAR-OVER-YEAR
// =============================================================================

// CalculateYoY returns (current - prior) / |prior| * 100.
func CalculateYoY(current, prior float64) float64 {
	if prior == 0 {
		if current == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (current - prior) / math.Abs(prior) * 100
}

// =============================================================================
// SUBTOTAL CHECKS
// =============================================================================

// TotalCheck compares a reported total with the sum of its parts.
type TotalCheck struct {
	Label      string
	Reported   float64
	Computed   float64
	Difference float64
	Within     bool
	Tolerance  float64 // percent
}

// CheckTotal validates reported ≈ sum(parts) within tolerancePct.
func CheckTotal(label string, reported float64, tolerancePct float64, parts ...float64) *TotalCheck {
	var computed float64
	for _, p := range parts {
		computed += p
	}
	diff := reported - computed
	scale := math.Max(math.Abs(reported), math.Abs(computed))

	within := diff == 0
	if scale > 0 {
		within = math.Abs(diff)/scale*100 <= tolerancePct
	}
	return &TotalCheck{
		Label:      label,
		Reported:   reported,
		Computed:   computed,
		Difference: diff,
		Within:     within,
		Tolerance:  tolerancePct,
	}
}

// CheckRecord runs the single-record checks for the record's statement kind.
func CheckRecord(rec *extract.Record, cfg Config) []diag.Diagnostic {
	if rec == nil {
		return nil
	}
	switch rec.Statement {
	case filename.BalanceSheet:
		return checkBalanceSheet(rec, cfg)
	case filename.IncomeStatement:
		return checkIncomeStatement(rec)
	}
	return nil
}

func checkBalanceSheet(rec *extract.Record, cfg Config) []diag.Diagnostic {
	var out []diag.Diagnostic
	total, hasTotal := rec.Fact(extract.FactTotalAssets)

	// 1. Current + non-current = total (IFRS reports both subtotals)
	cur, hasCur := rec.Fact(extract.FactCurrentAssets)
	nonCur, hasNonCur := rec.Fact(extract.FactNonCurrentAssets)
	if hasTotal && hasCur && hasNonCur {
		if c := CheckTotal("total assets", total, cfg.TolerancePct, cur, nonCur); !c.Within {
			out = append(out, inconsistent(extract.FactTotalAssets,
				"total assets %.1f differ from current + non-current %.1f", c.Reported, c.Computed))
		}
	}

	// 2. Parts never exceed the total
	if hasTotal {
		for _, part := range []string{extract.FactCurrentAssets, extract.FactNonCurrentAssets, extract.FactPPE, extract.FactNetAssets} {
			if v, ok := rec.Fact(part); ok && v > total*(1+cfg.TolerancePct/100) && total > 0 {
				out = append(out, inconsistent(part, "%s %.1f exceeds total assets %.1f", part, v, total))
			}
		}
	}

	// 3. Cash is part of current assets
	if cash, ok := rec.Fact(extract.FactCash); ok && hasCur && cash > cur*(1+cfg.TolerancePct/100) {
		out = append(out, inconsistent(extract.FactCash, "cash %.1f exceeds current assets %.1f", cash, cur))
	}
	return out
}

func checkIncomeStatement(rec *extract.Record) []diag.Diagnostic {
	var out []diag.Diagnostic
	sales, hasSales := rec.Fact(extract.FactNetSales)
	if sga, ok := rec.Fact(extract.FactSGA); ok && hasSales && sales > 0 && sga > sales {
		out = append(out, inconsistent(extract.FactSGA, "SG&A %.1f exceeds net sales %.1f", sga, sales))
	}
	if hasSales && sales < 0 {
		out = append(out, inconsistent(extract.FactNetSales, "negative net sales %.1f", sales))
	}
	return out
}

func inconsistent(fact, format string, args ...any) diag.Diagnostic {
	return diag.Diagnostic{
		Kind:     diag.InconsistentTotals,
		Severity: diag.Warn,
		Fact:     fact,
		Message:  fmt.Sprintf(format, args...),
	}
}

// =============================================================================
// OUTLIER DETECTION
// =============================================================================

// OutlierCheck describes a suspicious period-over-period change.
type OutlierCheck struct {
	Item       string
	Value      float64
	PriorValue float64
	ChangePct  float64
	IsOutlier  bool
	Reason     string
	Threshold  float64
}

// CheckForOutlier flags a change larger than thresholdPct or a drop to zero,
// the usual symptom of a misread scale or a wrong table row.
func CheckForOutlier(item string, current, prior, thresholdPct float64) *OutlierCheck {
	changePct := CalculateYoY(current, prior)

	check := &OutlierCheck{
		Item:       item,
		Value:      current,
		PriorValue: prior,
		ChangePct:  changePct,
		Threshold:  thresholdPct,
	}

	if current == 0 && prior != 0 {
		check.IsOutlier = true
		check.Reason = "value dropped to zero"
		return check
	}
	if math.Abs(changePct) > thresholdPct {
		check.IsOutlier = true
		check.Reason = fmt.Sprintf("change of %.1f%% exceeds threshold of %.1f%%", changePct, thresholdPct)
	}
	return check
}

// balanceSheetStockFacts are compared between consecutive balance sheets.
var balanceSheetStockFacts = []string{
	extract.FactTotalAssets,
	extract.FactNetAssets,
	extract.FactCurrentAssets,
}

// CheckSeries compares consecutive balance sheets of one company and scope
// and returns outlier diagnostics keyed by document id. recs must be in
// chronological order.
func CheckSeries(recs []*extract.Record, cfg Config) map[string][]diag.Diagnostic {
	out := make(map[string][]diag.Diagnostic)
	type key struct {
		company      string
		consolidated bool
	}
	last := make(map[key]*extract.Record)

	for _, r := range recs {
		if r == nil || r.Statement != filename.BalanceSheet {
			continue
		}
		k := key{r.CompanyCode, r.Consolidated}
		prev := last[k]
		last[k] = r
		if prev == nil {
			continue
		}
		for _, fact := range balanceSheetStockFacts {
			cur, ok1 := r.Fact(fact)
			before, ok2 := prev.Fact(fact)
			if !ok1 || !ok2 {
				continue
			}
			if c := CheckForOutlier(fact, cur, before, cfg.OutlierPct); c.IsOutlier {
				out[r.DocumentID] = append(out[r.DocumentID], diag.Diagnostic{
					Kind:     diag.SuspiciousChange,
					Severity: diag.Warn,
					Fact:     fact,
					Message:  fmt.Sprintf("%s since %s (%.1f -> %.1f)", c.Reason, prev.PeriodEndDate, before, cur),
				})
			}
		}
	}
	return out
}
