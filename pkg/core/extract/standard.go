package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/ixbrl"
)

// Standard is the accounting standard a document is prepared under. The set
// is closed: every document is dispatched as one of these.
type Standard int

const (
	LocalGAAP Standard = iota + 1
	IFRS
)

func (s Standard) String() string {
	switch s {
	case LocalGAAP:
		return "Japan GAAP"
	case IFRS:
		return "IFRS"
	}
	return fmt.Sprintf("Standard(%d)", int(s))
}

// Valid reports whether s is one of the known standards.
func (s Standard) Valid() bool {
	return s == LocalGAAP || s == IFRS
}

// MarshalJSON encodes the standard by name.
func (s Standard) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a standard name.
func (s *Standard) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseStandard(name)
	if !ok {
		return fmt.Errorf("unknown accounting standard %q", name)
	}
	*s = parsed
	return nil
}

// ParseStandard maps the DEI text (or a config value) to a Standard.
func ParseStandard(text string) (Standard, bool) {
	t := strings.ToLower(strings.Join(strings.Fields(text), " "))
	switch t {
	case "japan gaap", "jp gaap", "jpgaap", "japanese gaap", "日本基準", "gaap", "local", "local gaap":
		return LocalGAAP, true
	case "ifrs", "国際会計基準", "ifrs (international financial reporting standards)":
		return IFRS, true
	}
	return 0, false
}

// StandardPolicy decides what happens when a document does not declare a
// recognizable standard.
type StandardPolicy struct {
	Default Standard
}

// DefaultStandardPolicy assumes an undeclared standard is Japan GAAP.
func DefaultStandardPolicy() StandardPolicy {
	return StandardPolicy{Default: LocalGAAP}
}

// DetectStandard reads the AccountingStandardsDEI field, then the file name's
// standard token. Anything else falls back to the policy default with a
// StandardDefaulted warning.
func DetectStandard(doc *ixbrl.Document, info filename.Info, policy StandardPolicy, diags *diag.List) Standard {
	text, declared := ixbrl.AccountingStandardText(doc)
	if declared {
		if s, ok := ParseStandard(text); ok {
			return s
		}
	}

	switch info.Standard {
	case filename.HintIFRS:
		return IFRS
	case filename.HintJapanGAAP:
		return LocalGAAP
	}

	def := policy.Default
	if !def.Valid() {
		def = LocalGAAP
	}
	if declared {
		diags.Add(diag.StandardDefaulted, diag.Warn, "", "unrecognized accounting standard %q, assuming %s", text, def)
	} else {
		diags.Add(diag.StandardDefaulted, diag.Warn, "", "no accounting standard declared, assuming %s", def)
	}
	return def
}
