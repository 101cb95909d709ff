// Package linkeddata fetches RDF descriptions of resources from the web by
// dereferencing their IRIs and, where a SPARQL endpoint is known, querying it
// for the reverse links documents usually omit.
package linkeddata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/persistorai/ldpath/internal/fetch"
	"github.com/persistorai/ldpath/internal/rdf"
)

const (
	defaultAttempts  = 2
	defaultUserAgent = "ldpath/1.0 (+https://github.com/persistorai/ldpath)"
	acceptRDF        = "text/turtle, application/n-triples;q=0.9, application/rdf+xml;q=0.8"
	maxBodyBytes     = 32 << 20
)

// Client implements fetch.Fetcher over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	endpoints  []Endpoint
	attempts   int
	retryWait  time.Duration
	delay      *DelaySimulator
	log        *logrus.Logger

	perHost rate.Limit
	burst   int
	mu      sync.Mutex
	limits  map[string]*rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithEndpoints replaces the SPARQL endpoint table.
func WithEndpoints(eps ...Endpoint) Option {
	return func(c *Client) { c.endpoints = eps }
}

// WithAttempts sets how many times each HTTP call is tried.
func WithAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithRetryWait sets the first backoff interval between attempts.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.retryWait = d }
}

// WithRateLimit caps requests per second to any single host. Zero disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.perHost = rate.Inf
			return
		}

		c.perHost = rate.Limit(perSecond)
		c.burst = max(burst, 1)
	}
}

// WithDelaySimulator pads every fetch to a sampled network delay.
func WithDelaySimulator(d *DelaySimulator) Option {
	return func(c *Client) { c.delay = d }
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  defaultUserAgent,
		endpoints:  DefaultEndpoints(),
		attempts:   defaultAttempts,
		retryWait:  250 * time.Millisecond,
		log:        logrus.StandardLogger(),
		perHost:    rate.Inf,
		burst:      1,
		limits:     make(map[string]*rate.Limiter),
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// Fetch dereferences req.Node and, when an endpoint serves it, runs the
// hinted SPARQL lookup alongside. It fails only when both sources failed or
// nothing was tried successfully.
func (c *Client) Fetch(ctx context.Context, req fetch.Request) ([]rdf.Triple, error) {
	start := time.Now()
	iri := req.Node.Value

	if !req.Node.IsIRI() {
		return nil, &FetchError{IRI: req.Node.String()}
	}

	var (
		docTriples, epTriples []rdf.Triple
		derefErr, sparqlErr   error
		triedSPARQL           bool
		g                     errgroup.Group
	)

	if isHTTP(iri) {
		g.Go(func() error {
			docTriples, derefErr = c.Dereference(ctx, iri)
			return nil
		})
	} else {
		derefErr = fmt.Errorf("%s is not dereferenceable", iri)
	}

	if ep, ok := endpointFor(c.endpoints, iri); ok {
		if q := BuildQuery(iri, req.Hints); q != "" {
			triedSPARQL = true

			g.Go(func() error {
				epTriples, sparqlErr = c.sparql(ctx, ep, q)
				return nil
			})
		}
	}

	_ = g.Wait()

	if c.delay != nil {
		if err := c.delay.Pad(ctx, time.Since(start)); err != nil {
			return nil, err
		}
	}

	log := c.log.WithField("iri", iri)
	if derefErr != nil {
		log.WithError(derefErr).Debug("dereference failed")
	}

	if sparqlErr != nil {
		log.WithError(sparqlErr).Debug("sparql lookup failed")
	}

	if derefErr != nil && (!triedSPARQL || sparqlErr != nil) {
		return nil, &FetchError{IRI: iri, Deref: derefErr, SPARQL: sparqlErr}
	}

	out := make([]rdf.Triple, 0, len(docTriples)+len(epTriples))
	out = append(out, docTriples...)
	out = append(out, epTriples...)

	if len(out) == 0 {
		return nil, &FetchError{IRI: iri}
	}

	return out, nil
}

// Dereference GETs iri with RDF content negotiation and parses the body.
func (c *Client) Dereference(ctx context.Context, iri string) ([]rdf.Triple, error) {
	docURL := iri
	if i := strings.IndexByte(docURL, '#'); i >= 0 {
		docURL = docURL[:i]
	}

	var triples []rdf.Triple

	op := func() error {
		resp, err := c.get(ctx, docURL, acceptRDF)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		format := rdf.FormatForMediaType(resp.Header.Get("Content-Type"))
		if format == rdf.FormatUnknown {
			return backoff.Permanent(fmt.Errorf("%w: %q", rdf.ErrUnsupportedFormat, resp.Header.Get("Content-Type")))
		}

		triples, err = rdf.Decode(io.LimitReader(resp.Body, maxBodyBytes), format)
		if err != nil && len(triples) == 0 {
			return backoff.Permanent(err)
		}

		if err != nil {
			c.log.WithError(err).WithField("iri", iri).Debug("keeping triples decoded before syntax error")
		}

		return nil
	}

	if err := c.retry(ctx, iri, op); err != nil {
		return nil, err
	}

	return triples, nil
}

// get performs one rate-limited GET. Non-2xx answers are returned as
// *StatusError, permanent unless retrying can help.
func (c *Client) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	if err := c.wait(ctx, rawURL); err != nil {
		return nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		se := &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
		if se.Temporary() {
			return nil, se
		}

		return nil, backoff.Permanent(se)
	}

	return resp, nil
}

func (c *Client) retry(ctx context.Context, target string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	attempt := 0
	wrapped := func() error {
		attempt++

		err := op()
		if err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"url":     target,
				"attempt": attempt,
			}).Debug("http attempt failed")
		}

		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.attempts-1)), ctx)
	if err := backoff.Retry(wrapped, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Unwrap()
		}

		return err
	}

	return nil
}

func (c *Client) wait(ctx context.Context, rawURL string) error {
	if c.perHost == rate.Inf {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse %q: %w", rawURL, err)
	}

	c.mu.Lock()
	lim, ok := c.limits[u.Host]
	if !ok {
		lim = rate.NewLimiter(c.perHost, c.burst)
		c.limits[u.Host] = lim
	}
	c.mu.Unlock()

	return lim.Wait(ctx)
}

func isHTTP(iri string) bool {
	return strings.HasPrefix(iri, "http://") || strings.HasPrefix(iri, "https://")
}
