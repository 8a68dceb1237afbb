package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"tdnet_xbrl/pkg/core/extract"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderHTML converts a Markdown report into a standalone, sanitized HTML
// page.
func RenderHTML(title, markdown string) (string, error) {
	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	policy := bluemonday.UGCPolicy()
	safe := policy.SanitizeBytes(body.Bytes())

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"ja\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("<style>table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:2px 6px;text-align:right}</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.Write(safe)
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}

// WriteFile writes the report for recs to path. A ".html" or ".htm"
// extension produces HTML, anything else Markdown.
func WriteFile(path, title string, recs []*extract.Record) error {
	md := Markdown(title, recs)
	out := []byte(md)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		page, err := RenderHTML(title, md)
		if err != nil {
			return err
		}
		out = []byte(page)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
