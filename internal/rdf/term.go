// Package rdf defines the RDF terms and triples the search engine works on.
package rdf

import (
	"sort"
	"strconv"
	"strings"
)

// Kind distinguishes the three RDF term types.
type Kind uint8

// Term kinds. The zero Kind marks the zero Term, which stands for "no term".
const (
	KindNone Kind = iota
	KindIRI
	KindLiteral
	KindBlank
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	case KindBlank:
		return "blank"
	default:
		return "none"
	}
}

// Term is an RDF node or predicate. Terms are comparable and compared by value,
// so they can be used directly as map keys.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string
	Lang     string
}

// IRI returns an IRI term.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// Literal returns a plain literal term.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// LangLiteral returns a language-tagged literal term.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: strings.ToLower(lang)}
}

// TypedLiteral returns a literal with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// Blank returns a blank node term. A leading "_:" is stripped.
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(id, "_:")}
}

// IsZero reports whether t is the zero Term.
func (t Term) IsZero() bool { return t.Kind == KindNone }

// IsIRI reports whether t can be dereferenced.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// String renders the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := strconv.Quote(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}

		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}

		return s
	default:
		return ""
	}
}

// Less orders terms by kind, then value, datatype and language.
func (t Term) Less(o Term) bool {
	if t.Kind != o.Kind {
		return t.Kind < o.Kind
	}

	if t.Value != o.Value {
		return t.Value < o.Value
	}

	if t.Datatype != o.Datatype {
		return t.Datatype < o.Datatype
	}

	return t.Lang < o.Lang
}

// TermSet is a set of terms.
type TermSet map[Term]struct{}

// NewTermSet builds a set from the given terms.
func NewTermSet(terms ...Term) TermSet {
	s := make(TermSet, len(terms))
	for _, t := range terms {
		s[t] = struct{}{}
	}

	return s
}

// Add inserts t into the set.
func (s TermSet) Add(t Term) { s[t] = struct{}{} }

// Has reports whether t is in the set.
func (s TermSet) Has(t Term) bool {
	_, ok := s[t]
	return ok
}

// Union adds every member of o to s and returns s.
func (s TermSet) Union(o TermSet) TermSet {
	for t := range o {
		s[t] = struct{}{}
	}

	return s
}

// Clone returns a copy of the set.
func (s TermSet) Clone() TermSet {
	c := make(TermSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}

	return c
}

// Sorted returns the members in a stable order.
func (s TermSet) Sorted() []Term {
	out := make([]Term, 0, len(s))
	for t := range s {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })

	return out
}
