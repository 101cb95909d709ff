package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/persistorai/ldpath/internal/metrics"
	"github.com/persistorai/ldpath/internal/rdf"
)

// Pool defaults.
const (
	DefaultSize    = 40
	DefaultTimeout = 15 * time.Second
)

// ErrPoolTimeout is logged when a Map call gives up on unfinished requests.
var ErrPoolTimeout = errors.New("fetch pool timeout")

// Pool runs fetches on at most Size goroutines at a time. In-flight fetches
// run under the pool's own context, so cancelling a Map caller does not cut a
// transfer short; only the call deadline and Close do.
type Pool struct {
	size    int
	timeout time.Duration
	sem     *semaphore.Weighted
	log     *logrus.Logger

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool with the given concurrency and per-call timeout.
func NewPool(size int, timeout time.Duration, log *logrus.Logger) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	base, cancel := context.WithCancel(context.Background())

	return &Pool{
		size:    size,
		timeout: timeout,
		sem:     semaphore.NewWeighted(int64(size)),
		log:     log,
		base:    base,
		cancel:  cancel,
	}
}

// Size returns the concurrency bound.
func (p *Pool) Size() int { return p.size }

// Timeout returns the per-call budget.
func (p *Pool) Timeout() time.Duration { return p.timeout }

// Map fetches every request and streams responses in completion order. The
// channel closes once all responses were delivered, the call budget is spent,
// or ctx is cancelled. Results arriving after that are dropped.
func (p *Pool) Map(ctx context.Context, f Fetcher, reqs []Request) <-chan Response {
	out := make(chan Response)

	p.mu.Lock()
	if p.closed || len(reqs) == 0 {
		p.mu.Unlock()
		close(out)

		return out
	}

	callCtx, cancelCall := context.WithTimeout(p.base, p.timeout)
	results := make(chan Response, len(reqs))

	var call sync.WaitGroup

	for _, req := range reqs {
		call.Add(1)
		p.wg.Add(1)

		go func() {
			defer p.wg.Done()
			defer call.Done()

			resp, ok := p.run(callCtx, f, req)
			if ok {
				results <- resp
			}
		}()
	}
	p.mu.Unlock()

	go func() {
		call.Wait()
		cancelCall()
	}()

	go p.collect(ctx, callCtx, results, out, len(reqs))

	return out
}

func (p *Pool) collect(ctx, callCtx context.Context, results <-chan Response, out chan<- Response, total int) {
	defer close(out)

	for delivered := 0; delivered < total; delivered++ {
		var resp Response

		// Finished results win over an expired deadline.
		select {
		case resp = <-results:
		default:
			select {
			case resp = <-results:
			case <-callCtx.Done():
				p.abandon(total - delivered)
				return
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- resp:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) abandon(n int) {
	metrics.FetchTotal.WithLabelValues(metrics.OutcomeAbandoned).Add(float64(n))
	p.log.WithError(ErrPoolTimeout).WithFields(logrus.Fields{
		"abandoned": n,
		"timeout":   p.timeout.String(),
	}).Warn("abandoning unfinished fetches")
}

// ErrPanic wraps a panic raised inside a Fetcher.
var ErrPanic = errors.New("fetcher panicked")

// Do calls f, turning a panic into an error wrapping ErrPanic.
func Do(ctx context.Context, f Fetcher, req Request) (triples []rdf.Triple, err error) {
	defer func() {
		if r := recover(); r != nil {
			triples, err = nil, fmt.Errorf("%w: %s: %v", ErrPanic, req.Node, r)
		}
	}()

	return f.Fetch(ctx, req)
}

// run executes one request. ok is false when the result is no longer wanted.
func (p *Pool) run(ctx context.Context, f Fetcher, req Request) (Response, bool) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Response{}, false
	}
	defer p.sem.Release(1)

	start := time.Now()
	triples, err := Do(ctx, f, req)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return Response{}, false
	}

	if err != nil {
		if errors.Is(err, ErrPanic) {
			p.log.WithError(err).WithField("iri", req.Node.Value).Error("fetch worker panic")
		}

		metrics.FetchTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return Response{Request: req, Err: err, Failed: true}, true
	}

	outcome := metrics.OutcomeOK
	if len(triples) == 0 {
		outcome = metrics.OutcomeEmpty
	}

	metrics.FetchTotal.WithLabelValues(outcome).Inc()
	metrics.FetchDuration.Observe(elapsed.Seconds())

	return Response{Request: req, Triples: triples, Elapsed: elapsed}, true
}

// Close cancels in-flight fetches and waits for every worker to return.
// Calling it again is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}

	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	return nil
}
