package linkeddata

import (
	"errors"
	"fmt"
)

// ErrNoData means neither the document nor an endpoint produced triples.
var ErrNoData = errors.New("no data for resource")

// StatusError is a non-2xx HTTP answer.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// Temporary reports whether retrying can help.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 408 || e.StatusCode == 429 || e.StatusCode >= 500
}

// FetchError collects the failures of one resource fetch.
type FetchError struct {
	IRI    string
	Deref  error
	SPARQL error
}

// Error implements error.
func (e *FetchError) Error() string {
	switch {
	case e.Deref != nil && e.SPARQL != nil:
		return fmt.Sprintf("fetching %s: deref: %v; sparql: %v", e.IRI, e.Deref, e.SPARQL)
	case e.Deref != nil:
		return fmt.Sprintf("fetching %s: deref: %v", e.IRI, e.Deref)
	case e.SPARQL != nil:
		return fmt.Sprintf("fetching %s: sparql: %v", e.IRI, e.SPARQL)
	default:
		return fmt.Sprintf("fetching %s: %v", e.IRI, ErrNoData)
	}
}

// Unwrap exposes the underlying causes.
func (e *FetchError) Unwrap() []error {
	var errs []error

	for _, err := range []error{e.Deref, e.SPARQL} {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		errs = append(errs, ErrNoData)
	}

	return errs
}
