package validate

import (
	"math"
	"strconv"

	"tdnet_xbrl/pkg/core/extract"
)

// =============================================================================
// FIRST-DIGIT SCREENING
// =============================================================================

// MinBenfordSample is the smallest number of values worth screening.
const MinBenfordSample = 30

// BenfordDistribution is the expected frequency for leading digits 1-9.
var BenfordDistribution = map[int]float64{
	1: 0.30103,
	2: 0.17609,
	3: 0.12494,
	4: 0.09691,
	5: 0.07918,
	6: 0.06695,
	7: 0.05799,
	8: 0.05115,
	9: 0.04576,
}

// Benford risk levels.
const (
	BenfordInsufficient = "Insufficient Data"
	BenfordLow          = "Low Risk"
	BenfordMedium       = "Medium Risk"
	BenfordHigh         = "High Risk"
)

// BenfordResult holds the leading digit distribution of a set of values.
type BenfordResult struct {
	DigitCounts      map[int]int     `json:"digit_counts"`
	DigitFrequencies map[int]float64 `json:"digit_frequencies"`
	TotalCount       int             `json:"total_count"`
	MAD              float64         `json:"mad"` // Mean Absolute Deviation
	Flagged          bool            `json:"flagged"`
	Level            string          `json:"level"`
}

// AnalyzeBenfordsLaw performs first-digit analysis on values. Zeros are
// skipped. Fewer than MinBenfordSample usable values yield
// BenfordInsufficient.
// MAD thresholds:
//   - <= 0.010: Low Risk
//   - 0.010 - 0.015: Medium Risk
//   - > 0.015: High Risk (flagged)
func AnalyzeBenfordsLaw(values []float64) BenfordResult {
	counts := make(map[int]int)
	processed := 0

	for _, v := range values {
		if d, ok := leadingDigit(v); ok {
			counts[d]++
			processed++
		}
	}

	if processed < MinBenfordSample {
		return BenfordResult{DigitCounts: counts, TotalCount: processed, Level: BenfordInsufficient}
	}

	freqs := make(map[int]float64)
	sumDiff := 0.0
	for d := 1; d <= 9; d++ {
		actual := float64(counts[d]) / float64(processed)
		freqs[d] = actual
		sumDiff += math.Abs(actual - BenfordDistribution[d])
	}
	mad := sumDiff / 9.0

	level := BenfordLow
	flagged := false
	if mad > 0.015 {
		level = BenfordHigh
		flagged = true
	} else if mad > 0.010 {
		level = BenfordMedium
	}

	return BenfordResult{
		DigitCounts:      counts,
		DigitFrequencies: freqs,
		TotalCount:       processed,
		MAD:              mad,
		Flagged:          flagged,
		Level:            level,
	}
}

// leadingDigit returns the first significant digit of v.
func leadingDigit(v float64) (int, bool) {
	a := math.Abs(v)
	if a == 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, false
	}
	for _, c := range strconv.FormatFloat(a, 'f', -1, 64) {
		if c >= '1' && c <= '9' {
			return int(c - '0'), true
		}
	}
	return 0, false
}

// ExtractValues collects every non-nil fact value of recs.
func ExtractValues(recs []*extract.Record) []float64 {
	var values []float64
	for _, r := range recs {
		if r == nil {
			continue
		}
		for _, v := range r.Facts {
			if v != nil && *v != 0 {
				values = append(values, *v)
			}
		}
	}
	return values
}
