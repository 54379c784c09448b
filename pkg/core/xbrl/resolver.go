package xbrl

import (
	"fmt"
	"strconv"
	"strings"

	"airline_financials/pkg/models"

	"github.com/shopspring/decimal"
)

// Resolver finds the first candidate tag with a usable numeric fact.
type Resolver struct {
	doc           *Document
	usGaap        string
	companyPrefix string
	companyURI    string
}

func NewResolver(doc *Document) *Resolver {
	prefix := doc.CompanyPrefix()
	return &Resolver{
		doc:           doc,
		usGaap:        doc.usGaapURI(),
		companyPrefix: prefix,
		companyURI:    doc.Namespace(prefix),
	}
}

// Resolve walks set.Tags in declared order and returns the first value found.
// When contexts is non-nil only facts whose contextRef is in it qualify; an
// empty non-nil set therefore matches nothing. Absence is reported as
// models.ErrConceptNotFound, which is distinct from a found zero.
func (r *Resolver) Resolve(set ConceptTagSet, contexts ContextSet) (models.ExtractedValue, error) {
	for _, tag := range set.Tags {
		if n, v, ok := r.resolveTag(tag, contexts); ok {
			return models.ExtractedValue{
				Concept: set.Concept,
				Value:   v,
				Source:  models.SourceXBRL,
				Ref:     fmt.Sprintf("%s@%s", tag, n.Attr("contextRef")),
			}, nil
		}
	}
	return models.ExtractedValue{}, fmt.Errorf("%s: %w", set.Concept, models.ErrConceptNotFound)
}

func (r *Resolver) resolveTag(tag string, contexts ContextSet) (*Node, float64, bool) {
	passes := [][]*Node{
		// namespace-aware
		r.doc.elements(tag, r.usGaap),
		r.doc.elements(tag, r.companyURI),
		r.doc.inlineFacts(tag, "us-gaap"),
		r.companyInline(tag),
		// namespace-less
		r.doc.unqualified(tag),
		// recursive
		r.doc.inlineFacts(tag, "*"),
		r.doc.byLocal[tag],
	}
	for _, nodes := range passes {
		for _, n := range nodes {
			if contexts != nil && !contexts.Contains(n.Attr("contextRef")) {
				continue
			}
			if v, ok := factValue(n); ok {
				return n, v, true
			}
		}
	}
	return nil, 0, false
}

func (r *Resolver) companyInline(tag string) []*Node {
	if r.companyPrefix == "" {
		return nil
	}
	return r.doc.inlineFacts(tag, r.companyPrefix)
}

// factValue reads a numeric fact. Inline facts carry scale and sign
// attributes; the displayed text is formatted with separators.
func factValue(n *Node) (float64, bool) {
	if strings.EqualFold(n.Attr("nil"), "true") {
		return 0, false
	}
	text := n.InnerText()
	if text == "" {
		return 0, false
	}

	format := n.Attr("format")
	if strings.Contains(format, "fixed-zero") || strings.Contains(format, "zerodash") {
		return 0, true
	}
	switch text {
	case "-", "—", "–":
		if n.Name.Local == "nonFraction" {
			return 0, true
		}
		return 0, false
	}

	clean := strings.NewReplacer(",", "", "\u2212", "-", "$", "", " ", "", "\u00a0", "").Replace(text)
	if strings.Contains(format, "numcommadecimal") || strings.Contains(format, "num-comma-decimal") {
		clean = strings.NewReplacer(".", "", ",", ".", " ", "", "\u00a0", "").Replace(text)
	}
	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = strings.Trim(clean, "()")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, false
	}
	if s := n.Attr("scale"); s != "" {
		if scale, err := strconv.Atoi(s); err == nil {
			d = d.Shift(int32(scale))
		}
	}
	if negative || n.Attr("sign") == "-" {
		d = d.Neg()
	}
	return d.InexactFloat64(), true
}
