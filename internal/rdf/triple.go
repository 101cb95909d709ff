package rdf

import (
	"errors"
	"fmt"
	"io"
	"strings"

	knakk "github.com/knakk/rdf"
)

// Direction tells which way a transition consumes an edge.
type Direction uint8

const (
	// Forward reads subject --p--> object from the subject side.
	Forward Direction = iota
	// Backward reads the same edge from the object side.
	Backward
)

// String returns ">" for forward and "<" for backward.
func (d Direction) String() string {
	if d == Backward {
		return "<"
	}

	return ">"
}

// Name returns the long form used in definitions and logs.
func (d Direction) Name() string {
	if d == Backward {
		return "backward"
	}

	return "forward"
}

// ParseDirection accepts "forward", "backward", ">" and "<".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward", "fwd", ">":
		return Forward, nil
	case "backward", "backwards", "bwd", "<":
		return Backward, nil
	default:
		return Forward, fmt.Errorf("unknown direction %q", s)
	}
}

// Triple is one edge of the discovered graph.
type Triple struct {
	S Term
	P Term
	O Term
}

// String renders the triple as an N-Triples statement.
func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Format is a serialisation the decoder understands.
type Format int

// Supported formats.
const (
	FormatUnknown Format = iota
	FormatTurtle
	FormatNTriples
	FormatRDFXML
)

// FormatForMediaType maps a Content-Type header value to a Format.
func FormatForMediaType(contentType string) Format {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))

	switch mt {
	case "text/turtle", "application/x-turtle", "application/turtle":
		return FormatTurtle
	case "application/n-triples", "text/plain", "application/ntriples":
		return FormatNTriples
	case "application/rdf+xml", "application/xml", "text/xml":
		return FormatRDFXML
	default:
		return FormatUnknown
	}
}

// ErrUnsupportedFormat is returned for media types without a decoder.
var ErrUnsupportedFormat = errors.New("unsupported rdf format")

// Decode reads every triple from r. Triples decoded before a syntax error are
// returned together with the error.
func Decode(r io.Reader, f Format) ([]Triple, error) {
	var kf knakk.Format

	switch f {
	case FormatTurtle:
		kf = knakk.Turtle
	case FormatNTriples:
		kf = knakk.NTriples
	case FormatRDFXML:
		kf = knakk.RDFXML
	default:
		return nil, ErrUnsupportedFormat
	}

	dec := knakk.NewTripleDecoder(r, kf)

	var out []Triple

	for {
		kt, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return out, nil
		}

		if err != nil {
			return out, fmt.Errorf("decoding triple %d: %w", len(out)+1, err)
		}

		out = append(out, Triple{S: fromKnakk(kt.Subj), P: fromKnakk(kt.Pred), O: fromKnakk(kt.Obj)})
	}
}

func fromKnakk(t knakk.Term) Term {
	switch t.Type() {
	case knakk.TermIRI:
		return IRI(t.String())
	case knakk.TermBlank:
		return Blank(t.String())
	case knakk.TermLiteral:
		lit, ok := t.(knakk.Literal)
		if !ok {
			return Literal(t.String())
		}

		if lit.Lang() != "" {
			return LangLiteral(lit.String(), lit.Lang())
		}

		dt := lit.DataType.String()
		if dt == xsdString || dt == rdfLangString {
			dt = ""
		}

		return TypedLiteral(lit.String(), dt)
	default:
		return Term{}
	}
}

const (
	xsdString     = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)
