package automaton

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/persistorai/ldpath/internal/rdf"
)

// FilterKind tags the variant held by a Filter.
type FilterKind uint8

// Filter variants. The zero value is KindAny.
const (
	KindAny FilterKind = iota
	KindWhitelist
	KindBlacklist
	KindOnly
	KindBut
	KindRegex
	KindAnd
	KindOr
	KindAtLeast
	KindAtMost
)

// Filter is a closed set of term predicates. The zero Filter accepts everything.
// Arc filters test predicates; node filters test nodes. Both share the same
// variants so a definition can reuse one spelling for either.
type Filter struct {
	kind     FilterKind
	terms    rdf.TermSet
	term     rdf.Term
	expr     string
	re       *regexp.Regexp
	children []Filter
	k        int
}

// ArcFilter tests the predicate of an edge.
type ArcFilter = Filter

// NodeFilter tests a node a state is about to be entered with.
type NodeFilter = Filter

// Any accepts every term.
func Any() Filter { return Filter{} }

// Whitelist accepts only the listed terms.
func Whitelist(terms ...rdf.Term) Filter {
	return Filter{kind: KindWhitelist, terms: rdf.NewTermSet(terms...)}
}

// Blacklist accepts every term except the listed ones.
func Blacklist(terms ...rdf.Term) Filter {
	return Filter{kind: KindBlacklist, terms: rdf.NewTermSet(terms...)}
}

// Only accepts exactly one term.
func Only(t rdf.Term) Filter { return Filter{kind: KindOnly, term: t} }

// But accepts every term except one.
func But(t rdf.Term) Filter { return Filter{kind: KindBut, term: t} }

// Regex accepts terms whose lexical value matches expr from its first character.
func Regex(expr string) (Filter, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)`)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: regex %q: %v", ErrInvalidFilter, expr, err)
	}

	return Filter{kind: KindRegex, expr: expr, re: re}, nil
}

// And accepts when every child accepts.
func And(fs ...Filter) (Filter, error) {
	if len(fs) == 0 {
		return Filter{}, fmt.Errorf("%w: and needs at least one filter", ErrInvalidFilter)
	}

	return Filter{kind: KindAnd, children: fs}, nil
}

// Or accepts when some child accepts.
func Or(fs ...Filter) (Filter, error) {
	if len(fs) == 0 {
		return Filter{}, fmt.Errorf("%w: or needs at least one filter", ErrInvalidFilter)
	}

	return Filter{kind: KindOr, children: fs}, nil
}

// AtLeast accepts when k or more children accept.
func AtLeast(k int, fs ...Filter) (Filter, error) {
	if len(fs) == 0 || k < 0 || k > len(fs) {
		return Filter{}, fmt.Errorf("%w: at_least %d of %d filters", ErrInvalidFilter, k, len(fs))
	}

	return Filter{kind: KindAtLeast, children: fs, k: k}, nil
}

// AtMost accepts when no more than k children accept.
func AtMost(k int, fs ...Filter) (Filter, error) {
	if len(fs) == 0 || k < 0 || k > len(fs) {
		return Filter{}, fmt.Errorf("%w: at_most %d of %d filters", ErrInvalidFilter, k, len(fs))
	}

	return Filter{kind: KindAtMost, children: fs, k: k}, nil
}

// Kind returns the variant tag.
func (f Filter) Kind() FilterKind { return f.kind }

// Match reports whether f accepts t.
func (f Filter) Match(t rdf.Term) bool {
	switch f.kind {
	case KindAny:
		return true
	case KindWhitelist:
		return f.terms.Has(t)
	case KindBlacklist:
		return !f.terms.Has(t)
	case KindOnly:
		return t == f.term
	case KindBut:
		return t != f.term
	case KindRegex:
		return f.re.MatchString(t.Value)
	case KindAnd:
		for _, c := range f.children {
			if !c.Match(t) {
				return false
			}
		}

		return true
	case KindOr:
		for _, c := range f.children {
			if c.Match(t) {
				return true
			}
		}

		return false
	case KindAtLeast:
		n := 0
		for _, c := range f.children {
			if c.Match(t) {
				n++
				if n >= f.k {
					return true
				}
			}
		}

		return n >= f.k
	case KindAtMost:
		n := 0
		for _, c := range f.children {
			if c.Match(t) {
				n++
				if n > f.k {
					return false
				}
			}
		}

		return true
	default:
		return false
	}
}

// Inverse returns the finite set of accepted terms when the filter has one.
// Only whitelists and Only filters are invertible; for everything else the
// caller has to fetch all predicates and filter client-side.
func (f Filter) Inverse() (rdf.TermSet, bool) {
	switch f.kind {
	case KindWhitelist:
		return f.terms.Clone(), true
	case KindOnly:
		return rdf.NewTermSet(f.term), true
	default:
		return nil, false
	}
}

// String describes the filter for logs.
func (f Filter) String() string {
	switch f.kind {
	case KindAny:
		return "any"
	case KindWhitelist:
		return "in" + setString(f.terms)
	case KindBlacklist:
		return "not_in" + setString(f.terms)
	case KindOnly:
		return "only(" + f.term.String() + ")"
	case KindBut:
		return "but(" + f.term.String() + ")"
	case KindRegex:
		return "regex(" + f.expr + ")"
	case KindAnd:
		return "and" + childString(f.children)
	case KindOr:
		return "or" + childString(f.children)
	case KindAtLeast:
		return fmt.Sprintf("at_least_%d%s", f.k, childString(f.children))
	case KindAtMost:
		return fmt.Sprintf("at_most_%d%s", f.k, childString(f.children))
	default:
		return "?"
	}
}

func setString(s rdf.TermSet) string {
	parts := make([]string, 0, len(s))
	for _, t := range s.Sorted() {
		parts = append(parts, t.String())
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

func childString(fs []Filter) string {
	parts := make([]string, 0, len(fs))
	for _, c := range fs {
		parts = append(parts, c.String())
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
