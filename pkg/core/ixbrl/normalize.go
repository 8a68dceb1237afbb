package ixbrl

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"tdnet_xbrl/pkg/core/diag"
)

// DefaultTargetExponent expresses values in hundred-million yen (億円).
const DefaultTargetExponent = -8

// Negation glyphs used in Japanese financial statements. △ and ▲ are the
// conventional markers; U+2212 shows up in some generated documents.
var negativeGlyphs = []string{"△", "▲", "−", "-"}

// Normalizer converts a matched element into a unit-normalized value.
type Normalizer struct {
	target int
}

// NewNormalizer creates a normalizer for the given target exponent.
func NewNormalizer(targetExponent int) *Normalizer {
	return &Normalizer{target: targetExponent}
}

// TargetExponent returns the exponent values are expressed in.
func (n *Normalizer) TargetExponent() int {
	return n.target
}

// Normalize reads the element's text and scale and returns the extracted
// fact. Value stays nil for blank or placeholder text, a missing scale, or
// unparseable text; the reason is recorded in diags.
func (n *Normalizer) Normalize(el Element, q FactQuery, diags *diag.List) ExtractedFact {
	fact := ExtractedFact{
		Fact:       q.Fact,
		Element:    el.Name,
		ContextRef: el.ContextRef,
		RawText:    el.Text(),
		Unit:       UnitFor(q),
		Source:     SourceTag,
	}

	if IsPlaceholder(fact.RawText) {
		diags.Add(diag.MissingFact, diag.Info, q.Fact, "%s is blank or a placeholder (%q)", el.Name, fact.RawText)
		return fact
	}

	negative := false
	if sign, ok := el.Attr("sign"); ok && strings.TrimSpace(sign) == "-" {
		negative = true
	}

	if q.PerShare {
		v, ok := parsePerShare(fact.RawText)
		if !ok {
			diags.Add(diag.UnparseableValue, diag.Warn, q.Fact, "%s text %q is not a number", el.Name, fact.RawText)
			return fact
		}
		if negative {
			v = -v
		}
		v = round(v, 2)
		fact.Value = &v
		return fact
	}

	scale, ok := scaleExponent(el)
	if !ok {
		diags.Add(diag.MissingScale, diag.Warn, q.Fact, "%s has no usable decimals/scale attribute", el.Name)
		return fact
	}
	fact.Scale = &scale

	raw, ok := ParseSignedInt(fact.RawText)
	if !ok {
		diags.Add(diag.UnparseableValue, diag.Warn, q.Fact, "%s text %q is not an integer", el.Name, fact.RawText)
		return fact
	}
	if negative {
		raw = -raw
	}

	v := ConvertAmount(raw, scale, n.target)
	fact.Value = &v
	return fact
}

// ConvertAmount scales raw from scaleExponent to targetExponent and rounds to
// one decimal: round(raw * 10^(target - scale), 1).
func ConvertAmount(raw int64, scaleExponent, targetExponent int) float64 {
	ratio := math.Pow10(targetExponent - scaleExponent)
	return round(float64(raw)*ratio, 1)
}

// scaleExponent reads the decimals attribute, falling back to the inline
// XBRL scale attribute (scale=6 means millions, exponent -6).
func scaleExponent(el Element) (int, bool) {
	if dec, ok := el.Attr("decimals"); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(dec)); err == nil {
			return v, true
		}
	}
	if sc, ok := el.Attr("scale"); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(sc)); err == nil {
			return -v, true
		}
	}
	return 0, false
}

// IsPlaceholder reports whether text carries no value: empty or a lone dash.
func IsPlaceholder(text string) bool {
	t := strings.TrimSpace(width.Narrow.String(text))
	switch t {
	case "", "-", "―", "—", "－", "‐":
		return true
	}
	return false
}

// CleanNumber folds full-width characters, strips thousands separators and
// whitespace, and maps a leading negation glyph to '-'.
func CleanNumber(text string) string {
	s := width.Narrow.String(strings.TrimSpace(text))
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\u3000", "", "円", "").Replace(s)
	for _, glyph := range negativeGlyphs {
		if strings.HasPrefix(s, glyph) {
			return "-" + strings.TrimPrefix(s, glyph)
		}
	}
	return s
}

// ParseSignedInt parses cleaned text as a signed integer.
func ParseSignedInt(text string) (int64, bool) {
	s := CleanNumber(text)
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parsePerShare(text string) (float64, bool) {
	s := CleanNumber(text)
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
