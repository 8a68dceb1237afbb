// Package fileio finds the statement files of a company folder and loads
// them as extraction inputs.
//
// Files are laid out one folder per company code, as the disclosure
// archives unpack:
//
//	<root>/4612/0102010-acbs03-tse-acediffr-46120-2024-12-31-01-2025-02-14-ixbrl.htm
package fileio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/filename"
)

// Cadences in processing order.
var Cadences = []filename.Cadence{filename.Annual, filename.Quarterly, filename.Semiannual}

// Statements in processing order.
var Statements = []filename.StatementKind{filename.BalanceSheet, filename.IncomeStatement}

// PlannedFile is one file scheduled for extraction.
type PlannedFile struct {
	Path         string                 `json:"path"`
	Statement    filename.StatementKind `json:"statement"`
	Cadence      filename.Cadence       `json:"cadence"`
	Consolidated bool                   `json:"consolidated"`
}

var companyDirPattern = regexp.MustCompile(`^[0-9A-Za-z]{4}$`)

// statementSuffixes lists the statement tokens per kind. Order matters:
// "fs" files are summary balance sheets and come after "bs".
var statementSuffixes = map[filename.StatementKind][]string{
	filename.BalanceSheet:    {"bs", "fs"},
	filename.IncomeStatement: {"pl", "pc"},
}

var cadenceCodes = map[filename.Cadence]string{
	filename.Annual:     "a",
	filename.Quarterly:  "q",
	filename.Semiannual: "s",
}

// StatementCode builds the file-name token for a statement, e.g. "qcbs".
func StatementCode(kind filename.StatementKind, cadence filename.Cadence, consolidated bool, suffix string) string {
	scope := "n"
	if consolidated {
		scope = "c"
	}
	return cadenceCodes[cadence] + scope + suffix
}

// ListStatementFiles returns the files in dir whose name carries one of the
// statement tokens for kind, cadence and scope. The result is sorted by name
// within each token.
func ListStatementFiles(dir string, kind filename.StatementKind, cadence filename.Cadence, consolidated bool) ([]string, error) {
	suffixes, ok := statementSuffixes[kind]
	if !ok {
		return nil, fmt.Errorf("unknown statement kind %q", kind)
	}
	if _, ok := cadenceCodes[cadence]; !ok {
		return nil, fmt.Errorf("unknown cadence %q", cadence)
	}

	var out []string
	seen := make(map[string]bool)
	for _, suffix := range suffixes {
		pattern := filepath.Join(dir, "*-"+StatementCode(kind, cadence, consolidated, suffix)+"*")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

// PlanCompany lists the files of one company folder in processing order:
// balance sheets before income statements, then annual, quarterly and
// semiannual. Within a cadence consolidated files come first; standalone
// files are only taken when no consolidated file exists, except for
// semiannual reports where both are taken.
func PlanCompany(dir string) ([]PlannedFile, error) {
	var plan []PlannedFile
	for _, kind := range Statements {
		for _, cadence := range Cadences {
			consolidated, err := ListStatementFiles(dir, kind, cadence, true)
			if err != nil {
				return nil, err
			}
			plan = appendPlanned(plan, consolidated, kind, cadence, true)

			if len(consolidated) > 0 && cadence != filename.Semiannual {
				continue
			}
			standalone, err := ListStatementFiles(dir, kind, cadence, false)
			if err != nil {
				return nil, err
			}
			plan = appendPlanned(plan, standalone, kind, cadence, false)
		}
	}
	return plan, nil
}

func appendPlanned(plan []PlannedFile, paths []string, kind filename.StatementKind, cadence filename.Cadence, consolidated bool) []PlannedFile {
	for _, p := range paths {
		plan = append(plan, PlannedFile{Path: p, Statement: kind, Cadence: cadence, Consolidated: consolidated})
	}
	return plan
}

// CompanyDirs returns the company sub-folders of root, sorted by code.
// A folder counts as a company folder when its name is a 4-character
// securities code.
func CompanyDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && companyDirPattern.MatchString(e.Name()) {
			out = append(out, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReadInput loads one file as an extraction input. Legacy Shift_JIS or
// EUC-JP documents are decoded to UTF-8 using their meta charset.
func ReadInput(path string) (extract.Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return extract.Input{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	content, err := DecodeHTML(raw)
	if err != nil {
		return extract.Input{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	name := filepath.Base(path)
	return extract.Input{ID: name, Filename: name, Content: content}, nil
}

// ReadPlanned loads a planned file, keeping the statement kind the plan
// already decided.
func ReadPlanned(pf PlannedFile) (extract.Input, error) {
	in, err := ReadInput(pf.Path)
	if err != nil {
		return in, err
	}
	in.Statement = pf.Statement
	return in, nil
}

// ReadFailure is a planned file that could not be loaded.
type ReadFailure struct {
	Path string
	Err  error
}

// ReadAll loads every planned file. A file that cannot be read or decoded is
// reported as a ReadFailure and the others are still loaded; only a done ctx
// stops the loop.
func ReadAll(ctx context.Context, plan []PlannedFile) ([]extract.Input, []ReadFailure, error) {
	out := make([]extract.Input, 0, len(plan))
	var failed []ReadFailure
	for _, pf := range plan {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		in, err := ReadPlanned(pf)
		if err != nil {
			failed = append(failed, ReadFailure{Path: pf.Path, Err: err})
			continue
		}
		out = append(out, in)
	}
	return out, failed, nil
}

// DecodeHTML converts an HTML document to UTF-8. Valid UTF-8 input is
// returned unchanged; anything else is decoded using the charset declared in
// its meta tag.
func DecodeHTML(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		return raw, nil
	}
	enc, name, _ := charset.DetermineEncoding(raw, "text/html")
	if strings.EqualFold(name, "utf-8") {
		return raw, nil
	}
	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

// Describe returns a short label such as "annual consolidated bs".
func (pf PlannedFile) Describe() string {
	scope := "standalone"
	if pf.Consolidated {
		scope = "consolidated"
	}
	return fmt.Sprintf("%s %s %s", pf.Cadence, scope, pf.Statement)
}
