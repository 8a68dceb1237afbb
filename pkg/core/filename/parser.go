// Package filename decodes the metadata TDnet encodes in inline-XBRL file
// names, e.g.
//
//	0102010-acbs03-tse-acediffr-46120-2024-12-31-01-2025-02-14-ixbrl.htm
//
// The second token is the statement code (cadence, consolidation, statement
// kind), the fourth the report type ending in the standard (jpfr / iffr), the
// fifth the 5-digit company code, followed by the period-end date and the
// publication date.
package filename

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoCompanyCode is returned when the name carries no 5-digit code token.
var ErrNoCompanyCode = errors.New("no company code in file name")

// Cadence of the report.
type Cadence string

const (
	Annual         Cadence = "annual"
	Quarterly      Cadence = "quarterly"
	Semiannual     Cadence = "semiannual"
	CadenceUnknown Cadence = ""
)

// StatementKind of the document.
type StatementKind string

const (
	BalanceSheet     StatementKind = "bs"
	IncomeStatement  StatementKind = "pl"
	StatementUnknown StatementKind = ""
)

// StandardHint is the accounting standard suggested by the file name.
type StandardHint string

const (
	HintJapanGAAP StandardHint = "jpfr"
	HintIFRS      StandardHint = "iffr"
	HintUSGAAP    StandardHint = "usfr"
	HintNone      StandardHint = ""
)

// Info is the metadata decoded from one file name.
type Info struct {
	Name          string        `json:"name"`
	CompanyCode   string        `json:"company_code"`
	Dates         []string      `json:"dates"`
	StatementCode string        `json:"statement_code,omitempty"` // e.g. "acbs"
	Cadence       Cadence       `json:"cadence,omitempty"`
	Consolidated  bool          `json:"consolidated"`
	Statement     StatementKind `json:"statement,omitempty"`
	Standard      StandardHint  `json:"standard_hint,omitempty"`
}

// PeriodEndDate is the first embedded date.
func (i Info) PeriodEndDate() string {
	if len(i.Dates) == 0 {
		return ""
	}
	return i.Dates[0]
}

// PublicDate is the last embedded date (announcement date).
func (i Info) PublicDate() string {
	if len(i.Dates) == 0 {
		return ""
	}
	return i.Dates[len(i.Dates)-1]
}

var (
	codePattern      = regexp.MustCompile(`-([0-9]{5})-`)
	datePattern      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	statementPattern = regexp.MustCompile(`^([aqs])([cn])([a-z]{2})\d*$`)
	standardPattern  = regexp.MustCompile(`(jp|if|us)fr$`)
)

// Parse decodes a file name or path. Statement and standard fields are left
// empty when the tokens do not follow the convention; only a missing company
// code is an error.
func Parse(path string) (Info, error) {
	name := filepath.Base(path)
	info := Info{Name: name}

	info.Dates = datePattern.FindAllString(name, -1)

	tokens := strings.Split(strings.ToLower(name), "-")
	if len(tokens) > 1 {
		decodeStatement(&info, tokens[1])
	}
	if info.Statement == StatementUnknown {
		info.Statement = guessStatement(strings.ToLower(name))
	}
	if len(tokens) > 3 {
		if m := standardPattern.FindStringSubmatch(tokens[3]); m != nil {
			info.Standard = StandardHint(m[1] + "fr")
		}
	}
	if info.Standard == HintNone {
		info.Standard = guessStandard(strings.ToLower(name))
	}

	m := codePattern.FindStringSubmatch(name)
	if m == nil {
		return info, ErrNoCompanyCode
	}
	info.CompanyCode = CompanyCode(m[1])
	return info, nil
}

// CompanyCode strips the check digit TDnet appends as a trailing zero
// (13010 -> 1301).
func CompanyCode(token string) string {
	if len(token) == 5 && strings.HasSuffix(token, "0") {
		return token[:4]
	}
	return token
}

func decodeStatement(info *Info, token string) {
	m := statementPattern.FindStringSubmatch(token)
	if m == nil {
		return
	}
	switch m[1] {
	case "a":
		info.Cadence = Annual
	case "q":
		info.Cadence = Quarterly
	case "s":
		info.Cadence = Semiannual
	}
	info.Consolidated = m[2] == "c"
	info.Statement = statementKind(m[3])
	if info.Statement != StatementUnknown {
		info.StatementCode = m[1] + m[2] + m[3]
	}
}

// statementKind maps the two-letter statement suffix. bs and fs are balance
// sheets; pl and pc (income statement combined with comprehensive income)
// are income statements.
func statementKind(code string) StatementKind {
	switch code {
	case "bs", "fs":
		return BalanceSheet
	case "pl", "pc":
		return IncomeStatement
	}
	return StatementUnknown
}

// guessStatement is the loose substring check used for names that do not
// follow the token layout.
func guessStatement(name string) StatementKind {
	switch {
	case strings.Contains(name, "bs") || strings.Contains(name, "fs"):
		return BalanceSheet
	case strings.Contains(name, "pl") || strings.Contains(name, "pc"):
		return IncomeStatement
	}
	return StatementUnknown
}

func guessStandard(name string) StandardHint {
	switch {
	case strings.Contains(name, "iffr"):
		return HintIFRS
	case strings.Contains(name, "jpfr"):
		return HintJapanGAAP
	case strings.Contains(name, "usfr"):
		return HintUSGAAP
	}
	return HintNone
}
