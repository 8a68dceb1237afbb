package extract

import (
	"time"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/ixbrl"
	"tdnet_xbrl/pkg/core/period"
)

// Input is one disclosure document handed to the orchestrator.
type Input struct {
	ID       string // Caller's document id; the file name is used when empty
	Filename string
	Content  []byte

	// Statement forces the statement kind when the caller already knows it.
	Statement filename.StatementKind
}

// DocumentID returns the id used to key the document downstream.
func (in Input) DocumentID() string {
	if in.ID != "" {
		return in.ID
	}
	return in.Filename
}

// Record is the extraction result for one document.
type Record struct {
	ID            string                 `json:"id"`
	DocumentID    string                 `json:"document_id"`
	Filename      string                 `json:"filename"`
	CompanyCode   string                 `json:"company_code"`
	CompanyName   string                 `json:"company_name"`
	Statement     filename.StatementKind `json:"statement"`
	Cadence       filename.Cadence       `json:"cadence,omitempty"`
	Consolidated  bool                   `json:"consolidated"`
	Standard      Standard               `json:"standard"`
	PeriodEndDate string                 `json:"period_end_date,omitempty"`
	PublicDate    string                 `json:"public_date,omitempty"`
	PeriodType    string                 `json:"period_type,omitempty"`
	Quarter       period.Quarter         `json:"quarter"`
	FiscalYear    *int                   `json:"fiscal_year"`

	// Facts holds the normalized value per canonical fact name, nil when the
	// fact could not be extracted. Details keeps the provenance.
	Facts   map[string]*float64            `json:"facts"`
	Details map[string]ixbrl.ExtractedFact `json:"details"`

	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	ExtractedAt time.Time         `json:"extracted_at"`
}

// Fact returns a fact value and whether it was extracted.
func (r *Record) Fact(name string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	v := r.Facts[name]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Missing returns the canonical names whose value is nil, in vocabulary
// order.
func (r *Record) Missing() []string {
	var out []string
	for _, q := range vocabulary[vocabKey{r.Statement, r.Standard}] {
		if r.Facts[q.Fact] == nil {
			out = append(out, q.Fact)
		}
	}
	return out
}

// LowConfidence returns the facts whose value came from the table fallback
// or an unconstrained tag match.
func (r *Record) LowConfidence() []string {
	var out []string
	for _, q := range vocabulary[vocabKey{r.Statement, r.Standard}] {
		if d, ok := r.Details[q.Fact]; ok && d.LowConfidence && d.Value != nil {
			out = append(out, q.Fact)
		}
	}
	return out
}

// FactNames returns the canonical fact names for a statement kind and
// standard, in extraction order.
func FactNames(statement filename.StatementKind, standard Standard) []string {
	qs := vocabulary[vocabKey{statement, standard}]
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Fact
	}
	return out
}
