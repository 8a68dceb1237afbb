package period

import (
	"strings"
	"time"

	"tdnet_xbrl/pkg/core/diag"
)

const dateLayout = "2006-01-02"

// FiscalYearCalculator derives the fiscal year from a period-end date and a
// quarter. The period end is projected forward to the fiscal-year end by
// 12 - 3*N months (Q1 +9, Q2 +6, Q3 +3, Q4 +0) and the calendar year of the
// projected date is the fiscal year. Projecting instead of looking the year
// up directly copes with periods that straddle calendar years differently for
// each closing month.
type FiscalYearCalculator struct {
	calendar *Calendar
}

// NewFiscalYearCalculator creates a calculator backed by cal. A nil calendar
// means every company closes in March.
func NewFiscalYearCalculator(cal *Calendar) *FiscalYearCalculator {
	if cal == nil {
		cal = DefaultCalendar()
	}
	return &FiscalYearCalculator{calendar: cal}
}

// MonthsToFiscalYearEnd returns the projection offset for a quarter.
func MonthsToFiscalYearEnd(q Quarter) (int, bool) {
	n := q.Number()
	if n == 0 {
		return 0, false
	}
	return 12 - n*3, true
}

// Calculate returns the fiscal year, or nil when the quarter is Unknown or the
// date does not parse. When the projected month disagrees with the company's
// configured fiscal-year-end month by more than one month a
// FiscalMonthMismatch diagnostic is recorded; the year is still returned.
func (c *FiscalYearCalculator) Calculate(companyCode, endDate string, q Quarter, diags *diag.List) *int {
	months, ok := MonthsToFiscalYearEnd(q)
	if !ok {
		return nil
	}

	end, err := time.Parse(dateLayout, strings.TrimSpace(endDate))
	if err != nil {
		diags.Add(diag.InvalidDate, diag.Warn, "", "period end date %q does not parse", endDate)
		return nil
	}

	projected := AddMonths(end, months)

	want := c.calendar.FiscalYearEndMonth(companyCode)
	if monthDistance(projected.Month(), want) > 1 {
		diags.Add(diag.FiscalMonthMismatch, diag.Warn, "",
			"%s %s projects to %s but company %s closes in %s",
			endDate, q, projected.Format(dateLayout), companyCode, want)
	}

	year := projected.Year()
	return &year
}

// AddMonths adds n months, clamping to the last day of the target month
// (2016-11-30 + 3 months = 2017-02-28).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func monthDistance(a, b time.Month) int {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	if d > 6 {
		d = 12 - d
	}
	return d
}
