// Package ixbrl locates and normalizes inline-XBRL facts in TDnet disclosure
// documents.
//
// This package uses the following external libraries:
//   - github.com/PuerkitoBio/goquery: HTML traversal for tagged facts and tables
//   - golang.org/x/text/width: folding full-width digits and separators
package ixbrl

// =============================================================================
// QUERY TYPES
// =============================================================================

// ContextKind is the temporal scope of a fact.
type ContextKind int

const (
	// Instant facts are point-in-time values (balance sheet).
	Instant ContextKind = iota
	// Duration facts cover a period (income statement).
	Duration
)

func (k ContextKind) String() string {
	if k == Duration {
		return "duration"
	}
	return "instant"
}

// FactQuery describes one canonical fact to extract.
type FactQuery struct {
	Fact       string      // Canonical name, e.g. "net_sales"
	Element    string      // Primary element name, e.g. "jppfs_cor:NetSales"
	Alternates []string    // Tried in order when Element is absent
	Kind       ContextKind // instant or duration
	PerShare   bool        // Per-share facts skip unit conversion
	Labels     []string    // Row label synonyms for the table fallback

	// ExcludeLabels rules out rows whose label contains one of these
	// qualifiers when matching by substring (流動 for 資産合計).
	ExcludeLabels []string
}

// Elements returns the primary element followed by its alternates.
func (q FactQuery) Elements() []string {
	out := make([]string, 0, 1+len(q.Alternates))
	out = append(out, q.Element)
	return append(out, q.Alternates...)
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// Unit of a normalized value.
type Unit string

const (
	UnitHundredMillionYen Unit = "hundred_million_yen"
	UnitYenPerShare       Unit = "yen_per_share"
)

// UnitFor returns the unit a query's value is reported in.
func UnitFor(q FactQuery) Unit {
	if q.PerShare {
		return UnitYenPerShare
	}
	return UnitHundredMillionYen
}

// Source records which path produced a value.
type Source string

const (
	SourceTag              Source = "tag"
	SourceTagUnconstrained Source = "tag_unconstrained"
	SourceTable            Source = "table"
	SourceNone             Source = "none"
)

// ExtractedFact is the outcome of extracting one FactQuery.
// Value is nil whenever RawText is empty or a placeholder dash.
type ExtractedFact struct {
	Fact          string   `json:"fact"`
	Element       string   `json:"element,omitempty"`
	ContextRef    string   `json:"context_ref,omitempty"`
	RawText       string   `json:"raw_text"`
	Scale         *int     `json:"scale,omitempty"`
	Value         *float64 `json:"value"`
	Unit          Unit     `json:"unit"`
	Source        Source   `json:"source"`
	LowConfidence bool     `json:"low_confidence,omitempty"`
}
