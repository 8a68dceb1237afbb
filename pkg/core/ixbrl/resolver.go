package ixbrl

// =============================================================================
// CONTEXT CANDIDATE RESOLVER
// =============================================================================

// Documents name the current-period context inconsistently depending on
// cadence and consolidation scope, so each fact is looked up against an
// ordered list of candidates.
var (
	instantContexts = []string{
		"CurrentYearInstant",
		"CurrentQuarterInstant",
		"CurrentYTDInstant",
		"CurrentPeriodInstant",
		"CurrentYearInstant_NonConsolidatedMember",
		"CurrentQuarterInstant_NonConsolidatedMember",
		"InterimInstant",
	}

	durationContexts = []string{
		"CurrentYearDuration",
		"CurrentQuarterDuration",
		"CurrentYTDDuration",
		"InterimDuration",
		"CurrentYearDuration_NonConsolidatedMember",
		"CurrentQuarterDuration_NonConsolidatedMember",
		"CurrentYTDDuration_NonConsolidatedMember",
		"Prior1YTDDuration_NonConsolidatedMember",
	}

	// Numeric facts first, then text facts some filers use for numbers.
	elementTags = []string{tagNonFraction, tagNonNumeric}
)

// Confidence of a resolver match.
type Confidence int

const (
	// ConfidenceHigh means the element matched one of the context candidates.
	ConfidenceHigh Confidence = iota
	// ConfidenceLow means the element was found by name alone.
	ConfidenceLow
)

// Match is a resolved element.
type Match struct {
	Element    Element
	Confidence Confidence
}

// Resolver finds tagged facts by trying context candidates in order.
type Resolver struct {
	instant  []string
	duration []string
}

// NewResolver creates a resolver with the standard candidate lists.
func NewResolver() *Resolver {
	return &Resolver{
		instant:  instantContexts,
		duration: durationContexts,
	}
}

// Candidates returns the context identifiers tried for a kind, in order.
func (r *Resolver) Candidates(kind ContextKind) []string {
	if kind == Duration {
		return r.duration
	}
	return r.instant
}

// Resolve returns the first element named name whose context matches a
// candidate for kind. The outer loop runs over element tags, the inner over
// candidates. If no candidate matches, the first element with the name is
// returned with ConfidenceLow. Returns nil when the name is absent.
func (r *Resolver) Resolve(doc *Document, name string, kind ContextKind) *Match {
	if doc == nil || name == "" {
		return nil
	}
	elements := doc.Elements(name)
	if len(elements) == 0 {
		return nil
	}

	candidates := r.Candidates(kind)
	for _, tag := range elementTags {
		for _, ctx := range candidates {
			for _, el := range elements {
				if el.Tag == tag && el.ContextRef == ctx {
					return &Match{Element: el, Confidence: ConfidenceHigh}
				}
			}
		}
	}

	for _, tag := range elementTags {
		for _, el := range elements {
			if el.Tag == tag {
				return &Match{Element: el, Confidence: ConfidenceLow}
			}
		}
	}
	return nil
}
