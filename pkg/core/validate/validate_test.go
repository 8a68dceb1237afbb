package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/period"
)

func v(x float64) *float64 { return &x }

func bsRecord(id, end string, facts map[string]*float64) *extract.Record {
	return &extract.Record{
		DocumentID:    id,
		CompanyCode:   "4612",
		Statement:     filename.BalanceSheet,
		Consolidated:  true,
		Standard:      extract.IFRS,
		PeriodEndDate: end,
		Facts:         facts,
	}
}

func TestCalculateYoY(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		prior    float64
		expected float64
	}{
		{"growth", 110, 100, 10},
		{"decline", 90, 100, -10},
		{"from negative", -50, -100, 50},
		{"both zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateYoY(tt.current, tt.prior), 1e-9)
		})
	}
	assert.True(t, math.IsInf(CalculateYoY(5, 0), 1))
}

func TestCheckTotal(t *testing.T) {
	c := CheckTotal("assets", 100.0, 1.0, 60.0, 39.5)
	assert.True(t, c.Within)
	assert.InDelta(t, 0.5, c.Difference, 1e-9)

	c = CheckTotal("assets", 100.0, 1.0, 60.0, 30.0)
	assert.False(t, c.Within)

	assert.True(t, CheckTotal("zero", 0, 1.0).Within)
}

func TestCheckRecord_BalanceSheet(t *testing.T) {
	cfg := DefaultConfig()

	ok := bsRecord("ok", "2024-12-31", map[string]*float64{
		extract.FactTotalAssets:      v(100.0),
		extract.FactCurrentAssets:    v(40.0),
		extract.FactNonCurrentAssets: v(60.0),
		extract.FactCash:             v(10.0),
		extract.FactNetAssets:        v(50.0),
	})
	assert.Empty(t, CheckRecord(ok, cfg))

	bad := bsRecord("bad", "2024-12-31", map[string]*float64{
		extract.FactTotalAssets:      v(100.0),
		extract.FactCurrentAssets:    v(40.0),
		extract.FactNonCurrentAssets: v(6000.0),
		extract.FactCash:             v(45.0),
	})
	ds := CheckRecord(bad, cfg)
	facts := make(map[string]bool)
	for _, d := range ds {
		assert.Equal(t, diag.InconsistentTotals, d.Kind)
		assert.Equal(t, diag.Warn, d.Severity)
		facts[d.Fact] = true
	}
	assert.True(t, facts[extract.FactTotalAssets])
	assert.True(t, facts[extract.FactNonCurrentAssets])
	assert.True(t, facts[extract.FactCash])

	// Missing facts skip the checks.
	assert.Empty(t, CheckRecord(bsRecord("sparse", "2024-12-31", map[string]*float64{extract.FactTotalAssets: nil}), cfg))
	assert.Nil(t, CheckRecord(nil, cfg))
}

func TestCheckRecord_IncomeStatement(t *testing.T) {
	rec := &extract.Record{
		Statement: filename.IncomeStatement,
		Standard:  extract.LocalGAAP,
		Facts: map[string]*float64{
			extract.FactNetSales: v(100.0),
			extract.FactSGA:      v(150.0),
		},
	}
	ds := CheckRecord(rec, DefaultConfig())
	require.Len(t, ds, 1)
	assert.Equal(t, extract.FactSGA, ds[0].Fact)

	rec.Facts[extract.FactSGA] = v(20.0)
	assert.Empty(t, CheckRecord(rec, DefaultConfig()))
}

func TestCheckForOutlier(t *testing.T) {
	c := CheckForOutlier("total_assets", 123456.0, 123.4, 500)
	assert.True(t, c.IsOutlier)
	assert.Contains(t, c.Reason, "exceeds threshold")

	c = CheckForOutlier("total_assets", 0, 123.4, 500)
	assert.True(t, c.IsOutlier)
	assert.Equal(t, "value dropped to zero", c.Reason)

	assert.False(t, CheckForOutlier("total_assets", 130, 123.4, 500).IsOutlier)
}

func TestCheckSeries(t *testing.T) {
	recs := []*extract.Record{
		bsRecord("q1", "2024-03-31", map[string]*float64{extract.FactTotalAssets: v(120.0)}),
		bsRecord("q2", "2024-06-30", map[string]*float64{extract.FactTotalAssets: v(121.0)}),
		// Scale misread by 10^3.
		bsRecord("q3", "2024-09-30", map[string]*float64{extract.FactTotalAssets: v(121000.0)}),
	}
	out := CheckSeries(recs, DefaultConfig())
	assert.Empty(t, out["q1"])
	assert.Empty(t, out["q2"])
	require.Len(t, out["q3"], 1)
	assert.Equal(t, diag.SuspiciousChange, out["q3"][0].Kind)
	assert.Contains(t, out["q3"][0].Message, "2024-06-30")
}

func annual(stmt filename.StatementKind, fy int, facts map[string]*float64) *extract.Record {
	return &extract.Record{
		DocumentID:   string(stmt) + "-" + string(rune('0'+fy%10)),
		CompanyCode:  "1301",
		Statement:    stmt,
		Consolidated: true,
		Standard:     extract.LocalGAAP,
		Quarter:      period.Q4,
		FiscalYear:   &fy,
		Facts:        facts,
	}
}

func TestAnnualLinkages(t *testing.T) {
	recs := []*extract.Record{
		annual(filename.BalanceSheet, 2015, map[string]*float64{extract.FactRetainedEarnings: v(200.0)}),
		annual(filename.BalanceSheet, 2016, map[string]*float64{extract.FactRetainedEarnings: v(230.0)}),
		annual(filename.IncomeStatement, 2016, map[string]*float64{extract.FactNetIncome: v(40.0)}),
		// No prior balance sheet: skipped.
		annual(filename.IncomeStatement, 2015, map[string]*float64{extract.FactNetIncome: v(40.0)}),
	}
	reports := AnnualLinkages(recs, 1.0)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, 2016, r.FiscalYear)
	assert.True(t, r.AllPassed)
	require.NotNil(t, r.RetainedLink)
	assert.InDelta(t, 30.0, r.RetainedLink.ActualREChange, 1e-9)

	// Retained earnings growing faster than profit fails.
	recs[1].Facts[extract.FactRetainedEarnings] = v(300.0)
	reports = AnnualLinkages(recs, 1.0)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].AllPassed)
	assert.Len(t, reports[0].FailedChecks, 1)
}

func TestValidateLinkages_NilInputs(t *testing.T) {
	r := ValidateLinkages(nil, nil, nil, 1.0)
	assert.True(t, r.AllPassed)
	assert.Nil(t, r.RetainedLink)
}

func TestAnalyzeBenfordsLaw(t *testing.T) {
	// Uniform in log space conforms closely.
	var conforming []float64
	for i := 0; i < 1000; i++ {
		conforming = append(conforming, math.Pow(10, float64(i)/100))
	}
	res := AnalyzeBenfordsLaw(conforming)
	assert.Equal(t, 1000, res.TotalCount)
	assert.Equal(t, BenfordLow, res.Level)
	assert.False(t, res.Flagged)

	var nines []float64
	for i := 0; i < 40; i++ {
		nines = append(nines, []float64{9.1, 0.95, 987.6, -92}[i%4])
	}
	res = AnalyzeBenfordsLaw(nines)
	assert.Equal(t, BenfordHigh, res.Level)
	assert.True(t, res.Flagged)
	assert.Equal(t, res.TotalCount, res.DigitCounts[9])

	res = AnalyzeBenfordsLaw([]float64{1, 2, 0, 3})
	assert.Equal(t, BenfordInsufficient, res.Level)
	assert.Equal(t, 3, res.TotalCount)
}

func TestExtractValues(t *testing.T) {
	recs := []*extract.Record{
		bsRecord("a", "2024-12-31", map[string]*float64{extract.FactTotalAssets: v(12.5), extract.FactCash: nil}),
		nil,
		bsRecord("b", "2024-09-30", map[string]*float64{extract.FactNetAssets: v(0)}),
	}
	assert.Equal(t, []float64{12.5}, ExtractValues(recs))
}
