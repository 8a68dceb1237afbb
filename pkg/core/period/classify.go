package period

import "tdnet_xbrl/pkg/core/diag"

// Classification is the period assigned to one document.
// FiscalYear is nil only when Quarter is Unknown or the date is unparseable.
type Classification struct {
	Quarter    Quarter `json:"quarter"`
	FiscalYear *int    `json:"fiscal_year"`
}

// Classifier combines the quarter classifier and the fiscal year calculator.
type Classifier struct {
	fiscal *FiscalYearCalculator
}

// NewClassifier creates a classifier backed by cal.
func NewClassifier(cal *Calendar) *Classifier {
	return &Classifier{fiscal: NewFiscalYearCalculator(cal)}
}

// Classify classifies text and derives the fiscal year from endDate.
func (c *Classifier) Classify(companyCode, text, endDate string, diags *diag.List) Classification {
	q := ClassifyQuarter(text)
	if q == Unknown {
		diags.Add(diag.UnknownPeriod, diag.Warn, "", "no quarter phrase found in document text")
		return Classification{Quarter: Unknown}
	}
	return Classification{
		Quarter:    q,
		FiscalYear: c.fiscal.Calculate(companyCode, endDate, q, diags),
	}
}
