package validate

import (
	"math"

	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/filename"
)

// =============================================================================
// CROSS-STATEMENT LINKAGE
// =============================================================================

// LinkageReport holds the cross-statement checks for one fiscal year.
type LinkageReport struct {
	CompanyCode  string                `json:"company_code"`
	FiscalYear   int                   `json:"fiscal_year"`
	RetainedLink *RetainedEarningsLink `json:"retained_earnings,omitempty"`
	AllPassed    bool                  `json:"all_passed"`
	FailedChecks []string              `json:"failed_checks,omitempty"`
}

// RetainedEarningsLink checks ΔRE ≤ net income. Dividends are not in the
// vocabulary, so only the upper bound is verifiable.
type RetainedEarningsLink struct {
	NetIncome      float64 `json:"net_income"`
	ActualREChange float64 `json:"actual_re_change"`
	Excess         float64 `json:"excess"` // ΔRE - NI, positive when RE grew more than profit
	IsLinked       bool    `json:"is_linked"`
	Tolerance      float64 `json:"tolerance"`
}

// ValidateLinkages checks an annual income statement against the balance
// sheets closing the same and the prior fiscal year. Any nil input skips the
// check and yields a report with AllPassed set.
func ValidateLinkages(pl, bsCurrent, bsPrior *extract.Record, tolerancePct float64) *LinkageReport {
	report := &LinkageReport{AllPassed: true}
	if pl != nil {
		report.CompanyCode = pl.CompanyCode
		if pl.FiscalYear != nil {
			report.FiscalYear = *pl.FiscalYear
		}
	}

	report.RetainedLink = validateRetainedEarningsLinkage(pl, bsCurrent, bsPrior, tolerancePct)
	if report.RetainedLink != nil && !report.RetainedLink.IsLinked {
		report.AllPassed = false
		report.FailedChecks = append(report.FailedChecks, "ΔRetained Earnings ≤ Net Income")
	}
	return report
}

func validateRetainedEarningsLinkage(pl, bsCurrent, bsPrior *extract.Record, tolerancePct float64) *RetainedEarningsLink {
	if pl == nil || bsCurrent == nil || bsPrior == nil {
		return nil
	}
	ni, ok := pl.Fact(extract.FactNetIncome)
	if !ok {
		return nil
	}
	reCur, ok1 := bsCurrent.Fact(extract.FactRetainedEarnings)
	rePrior, ok2 := bsPrior.Fact(extract.FactRetainedEarnings)
	if !ok1 || !ok2 {
		return nil
	}

	change := reCur - rePrior
	excess := change - ni
	// Rounding to 0.1 on each side can add up to 0.2.
	allowed := math.Max(0.2, math.Abs(ni)*tolerancePct/100)
	return &RetainedEarningsLink{
		NetIncome:      ni,
		ActualREChange: change,
		Excess:         excess,
		IsLinked:       excess <= allowed,
		Tolerance:      allowed,
	}
}

// AnnualLinkages pairs annual income statements with the balance sheets of
// the same and the prior fiscal year for each company and scope, and returns
// the reports in input order of the income statements.
func AnnualLinkages(recs []*extract.Record, tolerancePct float64) []*LinkageReport {
	type key struct {
		company      string
		consolidated bool
		fiscalYear   int
	}
	bs := make(map[key]*extract.Record)
	for _, r := range recs {
		if r == nil || r.FiscalYear == nil || r.Quarter.Number() != 4 || r.Statement != filename.BalanceSheet {
			continue
		}
		bs[key{r.CompanyCode, r.Consolidated, *r.FiscalYear}] = r
	}

	var out []*LinkageReport
	for _, r := range recs {
		if r == nil || r.FiscalYear == nil || r.Quarter.Number() != 4 || r.Statement != filename.IncomeStatement {
			continue
		}
		fy := *r.FiscalYear
		cur := bs[key{r.CompanyCode, r.Consolidated, fy}]
		prior := bs[key{r.CompanyCode, r.Consolidated, fy - 1}]
		if cur == nil || prior == nil {
			continue
		}
		out = append(out, ValidateLinkages(r, cur, prior, tolerancePct))
	}
	return out
}
