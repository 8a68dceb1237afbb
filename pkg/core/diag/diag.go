// Package diag collects the non-fatal findings produced while extracting a
// single document. Extraction layers never fail; they record what went wrong
// here and return nil or Unknown instead.
package diag

import "fmt"

// Kind classifies a diagnostic.
type Kind string

const (
	MissingFact          Kind = "missing_fact"
	UnparseableValue     Kind = "unparseable_value"
	MissingScale         Kind = "missing_scale"
	UnknownPeriod        Kind = "unknown_period"
	UnrecognizedDocument Kind = "unrecognized_document"
	LowConfidenceContext Kind = "low_confidence_context"
	TableFallback        Kind = "table_fallback"
	StandardDefaulted    Kind = "standard_defaulted"
	FiscalMonthMismatch  Kind = "fiscal_month_mismatch"
	InvalidDate          Kind = "invalid_date"
	MissingMetadata      Kind = "missing_metadata"
	InconsistentTotals   Kind = "inconsistent_totals"
	SuspiciousChange     Kind = "suspicious_change"
)

// Severity of a diagnostic. Warn entries deserve review; Info entries are
// expected irregularities (e.g. a dash placeholder).
type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warn"
)

// Diagnostic is a single finding.
type Diagnostic struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Fact     string   `json:"fact,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Fact == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Kind, d.Message)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", d.Severity, d.Kind, d.Fact, d.Message)
}

// List accumulates diagnostics. A nil *List discards everything, so callers
// that do not care can pass nil.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(kind Kind, sev Severity, fact, format string, args ...any) {
	if l == nil {
		return
	}
	l.items = append(l.items, Diagnostic{
		Kind:     kind,
		Severity: sev,
		Fact:     fact,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Items returns a copy of the collected diagnostics.
func (l *List) Items() []Diagnostic {
	if l == nil || len(l.items) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Has reports whether a diagnostic of the given kind was recorded, optionally
// restricted to one fact (empty fact matches any).
func (l *List) Has(kind Kind, fact string) bool {
	if l == nil {
		return false
	}
	for _, d := range l.items {
		if d.Kind == kind && (fact == "" || d.Fact == fact) {
			return true
		}
	}
	return false
}

// Len returns the number of collected diagnostics.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}
