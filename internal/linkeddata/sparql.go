package linkeddata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/persistorai/ldpath/internal/fetch"
	"github.com/persistorai/ldpath/internal/rdf"
)

// Endpoint is a SPARQL service answering for IRIs that match Pattern.
type Endpoint struct {
	Pattern *regexp.Regexp
	URL     string
}

// NewEndpoint compiles pattern and pairs it with url.
func NewEndpoint(pattern, url string) (Endpoint, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Endpoint{}, fmt.Errorf("endpoint pattern %q: %w", pattern, err)
	}

	return Endpoint{Pattern: re, URL: url}, nil
}

// DefaultEndpoints lists services known to publish reverse links that the
// dereferenced documents lack.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{Pattern: regexp.MustCompile(`^http://yago-knowledge\.org/resource/`), URL: "https://linkeddata1.calcul.u-psud.fr/sparql"},
	}
}

func endpointFor(eps []Endpoint, iri string) (Endpoint, bool) {
	for _, ep := range eps {
		if ep.Pattern.MatchString(iri) {
			return ep, true
		}
	}

	return Endpoint{}, false
}

// BuildQuery returns the SELECT that retrieves the edges around iri which the
// hints call for, or "" when no direction is needed.
func BuildQuery(iri string, h fetch.Hints) string {
	fwd := blockFilter(h.Forward, "?s", iri)
	bwd := blockFilter(h.Backward, "?o", iri)

	switch {
	case fwd != "" && bwd != "":
		return "SELECT ?s ?p ?o WHERE {\n" +
			"  { ?s ?p ?o . FILTER (" + fwd + ") }\n" +
			"  UNION\n" +
			"  { ?s ?p ?o . FILTER (" + bwd + ") }\n" +
			"}"
	case fwd != "":
		return "SELECT ?s ?p ?o WHERE { ?s ?p ?o . FILTER (" + fwd + ") }"
	case bwd != "":
		return "SELECT ?s ?p ?o WHERE { ?s ?p ?o . FILTER (" + bwd + ") }"
	default:
		return ""
	}
}

func blockFilter(n fetch.Need, v, iri string) string {
	if !n.Needed || (n.Constrained && len(n.Predicates) == 0) {
		return ""
	}

	f := "sameTerm(" + v + ", " + iriRef(iri) + ")"
	if !n.Constrained {
		return f
	}

	preds := make([]string, 0, len(n.Predicates))
	for _, p := range n.Predicates.Sorted() {
		preds = append(preds, "sameTerm(?p, "+iriRef(p.Value)+")")
	}

	return f + " && (" + strings.Join(preds, " || ") + ")"
}

const iriExcluded = "<>\"{}|^`\\"

// iriRef writes iri as a SPARQL IRIREF. Characters the grammar excludes
// from IRIREF are percent-encoded so a remote value cannot end the term.
func iriRef(iri string) string {
	var b strings.Builder

	b.Grow(len(iri) + 2)
	b.WriteByte('<')

	for i := 0; i < len(iri); i++ {
		c := iri[i]
		if c <= 0x20 || strings.IndexByte(iriExcluded, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}

		b.WriteByte(c)
	}

	b.WriteByte('>')

	return b.String()
}

type sparqlResults struct {
	Results struct {
		Bindings []map[string]sparqlTerm `json:"bindings"`
	} `json:"results"`
}

type sparqlTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang"`
	Datatype string `json:"datatype"`
}

func (t sparqlTerm) term() rdf.Term {
	switch t.Type {
	case "uri":
		return rdf.IRI(t.Value)
	case "bnode":
		return rdf.Blank(t.Value)
	case "literal", "typed-literal":
		if t.Lang != "" {
			return rdf.LangLiteral(t.Value, t.Lang)
		}

		return rdf.TypedLiteral(t.Value, t.Datatype)
	default:
		return rdf.Term{}
	}
}

// DecodeResults reads an application/sparql-results+json document with ?s ?p
// ?o bindings. Rows with missing or malformed terms are skipped.
func DecodeResults(r io.Reader) ([]rdf.Triple, error) {
	var res sparqlResults
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding sparql results: %w", err)
	}

	out := make([]rdf.Triple, 0, len(res.Results.Bindings))

	for _, b := range res.Results.Bindings {
		t := rdf.Triple{S: b["s"].term(), P: b["p"].term(), O: b["o"].term()}
		if t.S.IsZero() || !t.P.IsIRI() || t.O.IsZero() {
			continue
		}

		out = append(out, t)
	}

	return out, nil
}

func (c *Client) sparql(ctx context.Context, ep Endpoint, query string) ([]rdf.Triple, error) {
	u, err := url.Parse(ep.URL)
	if err != nil {
		return nil, fmt.Errorf("endpoint url %q: %w", ep.URL, err)
	}

	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	var triples []rdf.Triple

	op := func() error {
		resp, err := c.get(ctx, u.String(), "application/sparql-results+json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		triples, err = DecodeResults(resp.Body)
		if err != nil {
			return backoff.Permanent(err)
		}

		return nil
	}

	if err := c.retry(ctx, ep.URL, op); err != nil {
		return nil, err
	}

	return triples, nil
}
