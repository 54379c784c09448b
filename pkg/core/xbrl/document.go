// Package xbrl reads standalone and inline XBRL filings into an element tree
// and resolves financial concepts against it.
package xbrl

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Node is one element of a parsed document.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
	text     strings.Builder
}

// Attr returns the value of the attribute with the given local name.
func (n *Node) Attr(local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Text returns the element's own character data, trimmed.
func (n *Node) Text() string {
	return strings.TrimSpace(n.text.String())
}

// InnerText returns the character data of the element and all descendants.
func (n *Node) InnerText() string {
	var b strings.Builder
	n.collect(&b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func (n *Node) collect(b *strings.Builder) {
	b.WriteString(n.text.String())
	for _, c := range n.Children {
		b.WriteByte(' ')
		c.collect(b)
	}
}

// Document is a parsed filing with lookup indexes built once at load time.
type Document struct {
	Root *Node

	namespaces map[string]string // prefix -> URI
	nsOrder    []string
	byLocal    map[string][]*Node
	inline     map[string][]*Node // local concept name -> ix:nonFraction elements
	contexts   []*Node
}

var standardPrefixes = map[string]bool{
	"": true, "us-gaap": true, "dei": true, "xbrl": true, "xbrli": true, "xlink": true,
	"link": true, "xsi": true, "iso4217": true, "xbrldi": true, "srt": true, "ecd": true,
	"cyd": true, "xml": true, "ix": true, "ixt": true, "ixt-sec": true, "xhtml": true,
	"html": true, "country": true, "stpr": true, "naics": true, "sic": true, "utr": true,
	"ref": true, "num": true, "nonnum": true, "negated": true, "enum": true, "enum2": true,
}

// Parse reads an XBRL or inline XBRL document. Inline documents are XHTML, so
// the decoder runs in non-strict mode with HTML entity support.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	doc := &Document{
		namespaces: make(map[string]string),
		byLocal:    make(map[string][]*Node),
		inline:     make(map[string][]*Node),
	}

	var stack []*Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			doc.register(n)
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				doc.Root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if doc.Root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return doc, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

func (d *Document) register(n *Node) {
	for _, a := range n.Attrs {
		switch {
		case a.Name.Space == "xmlns":
			if _, seen := d.namespaces[a.Name.Local]; !seen {
				d.namespaces[a.Name.Local] = a.Value
				d.nsOrder = append(d.nsOrder, a.Name.Local)
			}
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			if _, seen := d.namespaces[""]; !seen {
				d.namespaces[""] = a.Value
			}
		}
	}

	local := n.Name.Local
	d.byLocal[local] = append(d.byLocal[local], n)

	switch local {
	case "nonFraction":
		if name := n.Attr("name"); name != "" {
			_, concept := splitQName(name)
			d.inline[concept] = append(d.inline[concept], n)
		}
	case "context":
		if n.Attr("id") != "" {
			d.contexts = append(d.contexts, n)
		}
	}
}

// Namespace returns the URI bound to prefix.
func (d *Document) Namespace(prefix string) string {
	return d.namespaces[prefix]
}

// IsInline reports whether the document carries inline XBRL facts.
func (d *Document) IsInline() bool {
	_, ok := d.namespaces["ix"]
	return ok || len(d.inline) > 0
}

// CompanyPrefix returns the first declared namespace prefix that is not a
// standard taxonomy or markup prefix, e.g. "aal" or "dal".
func (d *Document) CompanyPrefix() string {
	for _, p := range d.nsOrder {
		if standardPrefixes[p] {
			continue
		}
		uri := d.namespaces[p]
		if strings.Contains(uri, "xbrl.org") || strings.Contains(uri, "w3.org") ||
			strings.Contains(uri, "fasb.org") || strings.Contains(uri, "xbrl.sec.gov") {
			continue
		}
		return p
	}
	return ""
}

func (d *Document) usGaapURI() string {
	if uri := d.namespaces["us-gaap"]; uri != "" {
		return uri
	}
	for _, uri := range d.namespaces {
		if strings.Contains(uri, "fasb.org/us-gaap") {
			return uri
		}
	}
	return ""
}

// elements returns elements with the given local name bound to namespace uri.
func (d *Document) elements(local, uri string) []*Node {
	if uri == "" {
		return nil
	}
	var out []*Node
	for _, n := range d.byLocal[local] {
		if n.Name.Space == uri {
			out = append(out, n)
		}
	}
	return out
}

// unqualified returns elements with the given local name and no prefix. An
// unprefixed element picks up the default namespace when one is declared.
func (d *Document) unqualified(local string) []*Node {
	def := d.namespaces[""]
	var out []*Node
	for _, n := range d.byLocal[local] {
		if n.Name.Space == "" || (def != "" && n.Name.Space == def) {
			out = append(out, n)
		}
	}
	return out
}

// inlineFacts returns ix:nonFraction facts for a concept, restricted to the
// given prefix unless prefix is "*".
func (d *Document) inlineFacts(concept, prefix string) []*Node {
	var out []*Node
	for _, n := range d.inline[concept] {
		p, _ := splitQName(n.Attr("name"))
		if prefix == "*" || p == prefix {
			out = append(out, n)
		}
	}
	return out
}

// deiValue returns the text of the first plain element or ix:nonNumeric fact
// carrying the dei concept, e.g. DocumentPeriodEndDate.
func (d *Document) deiValue(concept string) string {
	for _, n := range d.byLocal[concept] {
		if t := n.InnerText(); t != "" {
			return t
		}
	}
	for _, n := range d.byLocal["nonNumeric"] {
		if _, c := splitQName(n.Attr("name")); c == concept {
			if t := n.InnerText(); t != "" {
				return t
			}
		}
	}
	return ""
}

func splitQName(q string) (prefix, local string) {
	if i := strings.IndexByte(q, ':'); i >= 0 {
		return q[:i], q[i+1:]
	}
	return "", q
}

// Fact is a numeric fact as it appears in the document, used for inspection.
type Fact struct {
	Concept    string `json:"concept"`
	ContextRef string `json:"context_ref"`
	Value      string `json:"value"`
	Scale      string `json:"scale,omitempty"`
}

// Facts lists every element carrying a contextRef whose concept contains
// filter (case-insensitive). An empty filter lists everything.
func (d *Document) Facts(filter string) []Fact {
	filter = strings.ToLower(filter)
	var out []Fact
	var walk func(n *Node)
	walk = func(n *Node) {
		if ref := n.Attr("contextRef"); ref != "" {
			concept := n.Name.Local
			if p := prefixFor(d, n.Name.Space); p != "" {
				concept = p + ":" + concept
			}
			if name := n.Attr("name"); name != "" {
				concept = name
			}
			if filter == "" || strings.Contains(strings.ToLower(concept), filter) {
				out = append(out, Fact{Concept: concept, ContextRef: ref, Value: n.InnerText(), Scale: n.Attr("scale")})
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(d.Root)
	return out
}

func prefixFor(d *Document, uri string) string {
	if uri == "" {
		return ""
	}
	for _, p := range d.nsOrder {
		if d.namespaces[p] == uri {
			return p
		}
	}
	return ""
}
