package period

import "time"

// DefaultFiscalYearEndMonth is used for companies without an entry.
const DefaultFiscalYearEndMonth = time.March

// Calendar maps company codes to fiscal-year-end months. It is built from
// configuration and never modified afterwards.
type Calendar struct {
	defaultMonth time.Month
	months       map[string]time.Month
}

// NewCalendar creates a calendar. An invalid default falls back to March.
func NewCalendar(defaultMonth time.Month, months map[string]time.Month) *Calendar {
	if defaultMonth < time.January || defaultMonth > time.December {
		defaultMonth = DefaultFiscalYearEndMonth
	}
	c := &Calendar{
		defaultMonth: defaultMonth,
		months:       make(map[string]time.Month, len(months)),
	}
	for code, m := range months {
		if m >= time.January && m <= time.December {
			c.months[code] = m
		}
	}
	return c
}

// DefaultCalendar returns a calendar where every company closes in March.
func DefaultCalendar() *Calendar {
	return NewCalendar(DefaultFiscalYearEndMonth, nil)
}

// FiscalYearEndMonth returns the company's fiscal-year-end month.
func (c *Calendar) FiscalYearEndMonth(companyCode string) time.Month {
	if c == nil {
		return DefaultFiscalYearEndMonth
	}
	if m, ok := c.months[companyCode]; ok {
		return m
	}
	return c.defaultMonth
}

// Len returns the number of companies with an explicit entry.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.months)
}
