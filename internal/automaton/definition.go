package automaton

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/persistorai/ldpath/internal/rdf"
)

// StartToken stands for the start node inside filter term lists.
const StartToken = "$start"

// DefaultPrefixes are available to every definition.
var DefaultPrefixes = map[string]string{
	"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
	"owl":     "http://www.w3.org/2002/07/owl#",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"swrc":    "http://swrc.ontoware.org/ontology#",
	"dbo":     "http://dbpedia.org/ontology/",
	"dbp":     "http://dbpedia.org/property/",
	"dbr":     "http://dbpedia.org/resource/",
	"yago":    "http://yago-knowledge.org/resource/",
	"lmdb":    "http://data.linkedmdb.org/resource/movie/",
}

// Definition is the YAML form of a query automaton.
type Definition struct {
	ID          int                  `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description,omitempty"`
	Start       string               `yaml:"start"`
	Root        string               `yaml:"root,omitempty"`
	Prefixes    map[string]string    `yaml:"prefixes,omitempty"`
	States      map[string]StateSpec `yaml:"states,omitempty"`
	Transitions []TransitionSpec     `yaml:"transitions"`
	Loops       []LoopSpec           `yaml:"loops,omitempty"`
}

// StateSpec carries the optional filters of a named state.
type StateSpec struct {
	Filter *FilterSpec `yaml:"filter,omitempty"`
	Accept *FilterSpec `yaml:"accept,omitempty"`
}

// TransitionSpec is one hop. Exactly one of Through, ThroughNot or Any should
// be set; none means any predicate.
type TransitionSpec struct {
	From       string   `yaml:"from"`
	Through    []string `yaml:"through,omitempty"`
	ThroughNot []string `yaml:"through_not,omitempty"`
	Any        bool     `yaml:"any,omitempty"`
	Direction  string   `yaml:"direction,omitempty"`
	To         string   `yaml:"to"`
}

// LoopSpec adds forward and backward self transitions.
type LoopSpec struct {
	State   string   `yaml:"state"`
	Through []string `yaml:"through"`
}

// FilterSpec selects one filter variant.
type FilterSpec struct {
	Any     bool         `yaml:"any,omitempty"`
	In      []string     `yaml:"in,omitempty"`
	NotIn   []string     `yaml:"not_in,omitempty"`
	Only    string       `yaml:"only,omitempty"`
	But     string       `yaml:"but,omitempty"`
	Regex   string       `yaml:"regex,omitempty"`
	And     []FilterSpec `yaml:"and,omitempty"`
	Or      []FilterSpec `yaml:"or,omitempty"`
	AtLeast *CountSpec   `yaml:"at_least,omitempty"`
	AtMost  *CountSpec   `yaml:"at_most,omitempty"`
}

// CountSpec is the argument of at_least and at_most.
type CountSpec struct {
	K  int          `yaml:"k"`
	Of []FilterSpec `yaml:"of"`
}

// ParseDefinition decodes a YAML definition.
func ParseDefinition(r io.Reader) (*Definition, error) {
	var d Definition

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding query definition: %w", err)
	}

	if d.Name == "" {
		return nil, fmt.Errorf("%w: query definition without name", ErrConfiguration)
	}

	if d.Start == "" {
		return nil, fmt.Errorf("%w: query %q has no start node", ErrConfiguration, d.Name)
	}

	return &d, nil
}

// StartNode resolves the start IRI.
func (d *Definition) StartNode() (rdf.Term, error) {
	r := d.resolver(rdf.Term{})

	t, err := r.term(d.Start)
	if err != nil {
		return rdf.Term{}, err
	}

	if !t.IsIRI() {
		return rdf.Term{}, fmt.Errorf("%w: start %q is not an IRI", ErrConfiguration, d.Start)
	}

	return t, nil
}

// Build turns the definition into an automaton rooted at its start node.
func (d *Definition) Build(weight float64, opts ...Option) (*Automaton, error) {
	start, err := d.StartNode()
	if err != nil {
		return nil, err
	}

	return d.BuildFrom(start, weight, opts...)
}

// BuildFrom builds the automaton with a different start node.
func (d *Definition) BuildFrom(start rdf.Term, weight float64, opts ...Option) (*Automaton, error) {
	r := d.resolver(start)

	root := d.Root
	if root == "" {
		root = "s0"
	}

	filters := make(map[string][2]*NodeFilter, len(d.States))

	names := make([]string, 0, len(d.States))
	for name := range d.States {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		spec := d.States[name]

		var pair [2]*NodeFilter

		for i, fs := range []*FilterSpec{spec.Filter, spec.Accept} {
			if fs == nil {
				continue
			}

			f, err := r.filter(*fs)
			if err != nil {
				return nil, fmt.Errorf("state %q: %w", name, err)
			}

			pair[i] = &f
		}

		filters[name] = pair
	}

	rootFilters := filters[root]
	a := New(d.Name, start, root, rootFilters[0], rootFilters[1], opts...)

	for i, ts := range d.Transitions {
		arc, err := r.arc(ts)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}

		dir, err := rdf.ParseDirection(ts.Direction)
		if err != nil {
			return nil, fmt.Errorf("%w: transition %d: %v", ErrConfiguration, i, err)
		}

		dest := filters[ts.To]
		if _, exists := a.StateByName(ts.To); exists {
			dest = [2]*NodeFilter{}
		}

		if _, err := a.AddTransition(ts.From, arc, dir, ts.To, dest[0], dest[1]); err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
	}

	for i, ls := range d.Loops {
		preds, err := r.terms(ls.Through)
		if err != nil {
			return nil, fmt.Errorf("loop %d: %w", i, err)
		}

		for _, dir := range []rdf.Direction{rdf.Forward, rdf.Backward} {
			if _, err := a.AddTransition(ls.State, Whitelist(preds...), dir, ls.State, nil, nil); err != nil {
				return nil, fmt.Errorf("loop %d: %w", i, err)
			}
		}
	}

	for name := range filters {
		if _, ok := a.StateByName(name); !ok {
			return nil, fmt.Errorf("%w: state %q is declared but never used", ErrConfiguration, name)
		}
	}

	if err := a.ComputeHeuristics(weight); err != nil {
		return nil, err
	}

	return a, nil
}

type resolver struct {
	prefixes map[string]string
	start    rdf.Term
}

func (d *Definition) resolver(start rdf.Term) *resolver {
	p := make(map[string]string, len(DefaultPrefixes)+len(d.Prefixes))
	for k, v := range DefaultPrefixes {
		p[k] = v
	}

	for k, v := range d.Prefixes {
		p[k] = v
	}

	return &resolver{prefixes: p, start: start}
}

var errStartUnbound = errors.New("$start used before the start node is known")

// term resolves "$start", "<iri>", "prefix:local", absolute IRIs and quoted
// literals. Anything else is a plain literal.
func (r *resolver) term(s string) (rdf.Term, error) {
	s = strings.TrimSpace(s)

	switch {
	case s == StartToken:
		if r.start.IsZero() {
			return rdf.Term{}, fmt.Errorf("%w: %v", ErrConfiguration, errStartUnbound)
		}

		return r.start, nil
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return rdf.IRI(s[1 : len(s)-1]), nil
	case len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`):
		return rdf.Literal(s[1 : len(s)-1]), nil
	}

	if prefix, local, ok := strings.Cut(s, ":"); ok {
		if ns, known := r.prefixes[prefix]; known {
			return rdf.IRI(ns + local), nil
		}

		if strings.HasPrefix(local, "//") || prefix == "urn" || prefix == "mailto" {
			return rdf.IRI(s), nil
		}

		return rdf.Term{}, fmt.Errorf("%w: unknown prefix %q in %q", ErrConfiguration, prefix, s)
	}

	return rdf.Literal(s), nil
}

func (r *resolver) terms(ss []string) ([]rdf.Term, error) {
	out := make([]rdf.Term, 0, len(ss))

	for _, s := range ss {
		t, err := r.term(s)
		if err != nil {
			return nil, err
		}

		out = append(out, t)
	}

	return out, nil
}

func (r *resolver) arc(ts TransitionSpec) (ArcFilter, error) {
	set := 0
	for _, b := range []bool{len(ts.Through) > 0, len(ts.ThroughNot) > 0, ts.Any} {
		if b {
			set++
		}
	}

	if set > 1 {
		return Filter{}, fmt.Errorf("%w: through, through_not and any are exclusive", ErrInvalidFilter)
	}

	switch {
	case len(ts.Through) > 0:
		preds, err := r.terms(ts.Through)
		if err != nil {
			return Filter{}, err
		}

		return Whitelist(preds...), nil
	case len(ts.ThroughNot) > 0:
		preds, err := r.terms(ts.ThroughNot)
		if err != nil {
			return Filter{}, err
		}

		return Blacklist(preds...), nil
	default:
		return Any(), nil
	}
}

func (r *resolver) filter(fs FilterSpec) (Filter, error) {
	var (
		out   Filter
		err   error
		count int
	)

	pick := func(f Filter, e error) {
		count++
		out, err = f, e
	}

	if fs.Any {
		pick(Any(), nil)
	}

	if len(fs.In) > 0 {
		terms, e := r.terms(fs.In)
		pick(Whitelist(terms...), e)
	}

	if len(fs.NotIn) > 0 {
		terms, e := r.terms(fs.NotIn)
		pick(Blacklist(terms...), e)
	}

	if fs.Only != "" {
		t, e := r.term(fs.Only)
		pick(Only(t), e)
	}

	if fs.But != "" {
		t, e := r.term(fs.But)
		pick(But(t), e)
	}

	if fs.Regex != "" {
		pick(Regex(fs.Regex))
	}

	if len(fs.And) > 0 {
		pick(r.combine(fs.And, And))
	}

	if len(fs.Or) > 0 {
		pick(r.combine(fs.Or, Or))
	}

	if fs.AtLeast != nil {
		pick(r.count(*fs.AtLeast, AtLeast))
	}

	if fs.AtMost != nil {
		pick(r.count(*fs.AtMost, AtMost))
	}

	switch {
	case count == 0:
		return Filter{}, fmt.Errorf("%w: empty filter", ErrInvalidFilter)
	case count > 1:
		return Filter{}, fmt.Errorf("%w: filter sets %d variants", ErrInvalidFilter, count)
	}

	return out, err
}

func (r *resolver) children(specs []FilterSpec) ([]Filter, error) {
	fs := make([]Filter, 0, len(specs))

	for _, s := range specs {
		f, err := r.filter(s)
		if err != nil {
			return nil, err
		}

		fs = append(fs, f)
	}

	return fs, nil
}

func (r *resolver) combine(specs []FilterSpec, op func(...Filter) (Filter, error)) (Filter, error) {
	fs, err := r.children(specs)
	if err != nil {
		return Filter{}, err
	}

	return op(fs...)
}

func (r *resolver) count(cs CountSpec, op func(int, ...Filter) (Filter, error)) (Filter, error) {
	fs, err := r.children(cs.Of)
	if err != nil {
		return Filter{}, err
	}

	return op(cs.K, fs...)
}
