package rdf_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/ldpath/internal/rdf"
)

func TestTermString(t *testing.T) {
	tests := []struct {
		term rdf.Term
		want string
	}{
		{rdf.IRI("http://ex.org/a"), "<http://ex.org/a>"},
		{rdf.Blank("_:b0"), "_:b0"},
		{rdf.Literal("Alice"), `"Alice"`},
		{rdf.LangLiteral("Alice", "EN"), `"Alice"@en`},
		{rdf.TypedLiteral("3", "http://www.w3.org/2001/XMLSchema#integer"), `"3"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{rdf.Term{}, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.term.String())
	}
}

func TestTermIdentityByValue(t *testing.T) {
	a := rdf.IRI("http://ex.org/a")
	b := rdf.IRI("http://ex.org/" + "a")

	assert.Equal(t, a, b)
	assert.NotEqual(t, rdf.Literal("a"), rdf.IRI("a"))
	assert.True(t, rdf.Term{}.IsZero())
	assert.True(t, a.IsIRI())
	assert.False(t, rdf.Literal("x").IsIRI())
}

func TestTermSetSorted(t *testing.T) {
	s := rdf.NewTermSet(rdf.IRI("http://ex.org/c"), rdf.IRI("http://ex.org/a"), rdf.Literal("z"))
	s.Add(rdf.IRI("http://ex.org/a"))

	got := s.Sorted()
	require.Len(t, got, 3)
	assert.Equal(t, rdf.IRI("http://ex.org/a"), got[0])
	assert.Equal(t, rdf.IRI("http://ex.org/c"), got[1])
	assert.Equal(t, rdf.Literal("z"), got[2])

	u := rdf.NewTermSet(rdf.IRI("http://ex.org/d")).Union(s)
	assert.Len(t, u, 4)
	assert.True(t, u.Has(rdf.Literal("z")))
}

func TestParseDirection(t *testing.T) {
	d, err := rdf.ParseDirection("backward")
	require.NoError(t, err)
	assert.Equal(t, rdf.Backward, d)
	assert.Equal(t, "<", d.String())

	d, err = rdf.ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, rdf.Forward, d)

	_, err = rdf.ParseDirection("sideways")
	assert.Error(t, err)
}

func TestDecodeNTriples(t *testing.T) {
	doc := `<http://ex.org/a> <http://xmlns.com/foaf/0.1/name> "Alice"@en .
<http://ex.org/a> <http://ex.org/knows> <http://ex.org/b> .
_:x <http://ex.org/knows> <http://ex.org/a> .
`
	triples, err := rdf.Decode(strings.NewReader(doc), rdf.FormatNTriples)
	require.NoError(t, err)
	require.Len(t, triples, 3)

	assert.Equal(t, rdf.IRI("http://ex.org/a"), triples[0].S)
	assert.Equal(t, rdf.LangLiteral("Alice", "en"), triples[0].O)
	assert.Equal(t, rdf.IRI("http://ex.org/b"), triples[1].O)
	assert.Equal(t, rdf.KindBlank, triples[2].S.Kind)
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := rdf.Decode(strings.NewReader(""), rdf.FormatUnknown)
	assert.ErrorIs(t, err, rdf.ErrUnsupportedFormat)
}

func TestFormatForMediaType(t *testing.T) {
	assert.Equal(t, rdf.FormatTurtle, rdf.FormatForMediaType("text/turtle; charset=utf-8"))
	assert.Equal(t, rdf.FormatNTriples, rdf.FormatForMediaType("application/n-triples"))
	assert.Equal(t, rdf.FormatRDFXML, rdf.FormatForMediaType("application/rdf+xml"))
	assert.Equal(t, rdf.FormatUnknown, rdf.FormatForMediaType("text/html"))
}
