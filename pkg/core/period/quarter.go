// Package period classifies the reporting quarter of a disclosure and derives
// the fiscal year it belongs to.
package period

import (
	"regexp"
	"strconv"

	"golang.org/x/text/width"
)

// Quarter label. Unknown is the sentinel for text that matches no pattern.
type Quarter string

const (
	Q1      Quarter = "Q1"
	Q2      Quarter = "Q2"
	Q3      Quarter = "Q3"
	Q4      Quarter = "Q4"
	Unknown Quarter = "Unknown"
)

// Number returns 1-4, or 0 for Unknown.
func (q Quarter) Number() int {
	switch q {
	case Q1:
		return 1
	case Q2:
		return 2
	case Q3:
		return 3
	case Q4:
		return 4
	}
	return 0
}

// ParseQuarter maps "Q1".."Q4" to a Quarter; anything else is Unknown.
func ParseQuarter(s string) Quarter {
	switch q := Quarter(s); q {
	case Q1, Q2, Q3, Q4:
		return q
	}
	return Unknown
}

// Whitespace between the characters may be ASCII or ideographic.
var (
	ordinalPattern = regexp.MustCompile(`当第[\s　]*([０-９0-9])[\s　]*四半期`)
	interimPattern = regexp.MustCompile(`当[\s　]*中間`)
	annualPattern  = regexp.MustCompile(`当[\s　]*(?:連結|単独|事業)`)
)

// ClassifyQuarter derives the quarter from raw document text. First match
// wins:
//  1. 当第N四半期 (full- or half-width N in 1..4) -> QN
//  2. 当中間 -> Q2
//  3. 当連結 / 当単独 / 当事業 -> Q4
//
// Anything else is Unknown. The function is total and deterministic.
func ClassifyQuarter(text string) Quarter {
	if m := ordinalPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(width.Narrow.String(m[1])); err == nil && n >= 1 && n <= 4 {
			return Quarter("Q" + strconv.Itoa(n))
		}
	}
	if interimPattern.MatchString(text) {
		return Q2
	}
	if annualPattern.MatchString(text) {
		return Q4
	}
	return Unknown
}
