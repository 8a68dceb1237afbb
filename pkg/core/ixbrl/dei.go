package ixbrl

import "strings"

// Document and entity information (DEI) element names.
const (
	DEIFilerName            = "jpdei_cor:FilerNameInJapaneseDEI"
	DEIAccountingStandards  = "jpdei_cor:AccountingStandardsDEI"
	DEIAccountingStandard   = "jpdei_cor:AccountingStandardDEI"
	DEICurrentPeriodEndDate = "jpdei_cor:CurrentPeriodEndDateDEI"
	DEIFiscalYearStartDate  = "jpdei_cor:CurrentFiscalYearStartDateDEI"
	DEITypeOfCurrentPeriod  = "jpdei_cor:TypeOfCurrentPeriodDEI"
)

// UnknownCompanyName is returned when the filer name is absent.
const UnknownCompanyName = "不明"

// CompanyName returns the filer's Japanese name.
func CompanyName(doc *Document) string {
	if name, ok := doc.NonNumeric(DEIFilerName); ok {
		return name
	}
	return UnknownCompanyName
}

// AccountingStandardText returns the raw accounting standard field.
func AccountingStandardText(doc *Document) (string, bool) {
	return doc.NonNumeric(DEIAccountingStandards, DEIAccountingStandard)
}

// PeriodEndDate returns the CurrentPeriodEndDateDEI value, if present.
func PeriodEndDate(doc *Document) (string, bool) {
	v, ok := doc.NonNumeric(DEICurrentPeriodEndDate)
	return strings.TrimSpace(v), ok
}

// TypeOfCurrentPeriod returns the TypeOfCurrentPeriodDEI value (FY, Q1, HY...).
func TypeOfCurrentPeriod(doc *Document) (string, bool) {
	v, ok := doc.NonNumeric(DEITypeOfCurrentPeriod)
	return strings.TrimSpace(v), ok
}
