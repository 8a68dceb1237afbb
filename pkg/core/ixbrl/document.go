package ixbrl

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	tagNonFraction = "ix:nonfraction"
	tagNonNumeric  = "ix:nonnumeric"
)

// Element is one tagged fact in a document.
type Element struct {
	Tag        string // lowercased node name: ix:nonfraction or ix:nonnumeric
	Name       string // name attribute, e.g. "jppfs_cor:NetSales"
	ContextRef string // contextref attribute
	Sel        *goquery.Selection
}

// Attr returns an attribute of the underlying node.
func (e Element) Attr(name string) (string, bool) {
	if e.Sel == nil {
		return "", false
	}
	return e.Sel.Attr(name)
}

// Text returns the trimmed text content of the element.
func (e Element) Text() string {
	if e.Sel == nil {
		return ""
	}
	return strings.TrimSpace(e.Sel.Text())
}

// Document is a parsed disclosure document. It is built once per input file
// and never modified afterwards, so it is safe to read from several
// goroutines.
type Document struct {
	doc    *goquery.Document
	raw    string
	byName map[string][]Element // element name -> elements in document order
}

// Parse reads and parses an inline-XBRL HTML document.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	d := &Document{
		doc:    doc,
		raw:    string(data),
		byName: make(map[string][]Element),
	}
	d.index()
	return d, nil
}

// ParseString is a convenience wrapper used mostly by tests.
func ParseString(s string) (*Document, error) {
	return ParseBytes([]byte(s))
}

// index buckets every ix fact element by its name attribute.
// The HTML parser lowercases element and attribute names, so
// ix:nonFraction and ix:nonfraction end up under the same tag.
func (d *Document) index() {
	d.doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		tag := goquery.NodeName(sel)
		if tag != tagNonFraction && tag != tagNonNumeric {
			return
		}
		name, ok := sel.Attr("name")
		if !ok || name == "" {
			return
		}
		ctx, _ := sel.Attr("contextref")
		d.byName[name] = append(d.byName[name], Element{
			Tag:        tag,
			Name:       name,
			ContextRef: ctx,
			Sel:        sel,
		})
	})
}

// Elements returns all elements carrying the given name, in document order.
func (d *Document) Elements(name string) []Element {
	return d.byName[name]
}

// HasElement reports whether any element carries the given name.
func (d *Document) HasElement(name string) bool {
	return len(d.byName[name]) > 0
}

// FactCount returns the number of distinct fact names in the document.
func (d *Document) FactCount() int {
	return len(d.byName)
}

// NonNumeric returns the text of the first ix:nonNumeric element among the
// given names.
func (d *Document) NonNumeric(names ...string) (string, bool) {
	for _, name := range names {
		for _, el := range d.byName[name] {
			if el.Tag != tagNonNumeric {
				continue
			}
			if text := el.Text(); text != "" {
				return text, true
			}
		}
	}
	return "", false
}

// Raw returns the unparsed document source. Quarter classification runs on
// the raw text because the phrases sometimes straddle markup.
func (d *Document) Raw() string {
	return d.raw
}

// Query exposes the parsed tree for table scanning.
func (d *Document) Query() *goquery.Document {
	return d.doc
}
