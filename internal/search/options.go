package search

import (
	"time"

	"github.com/persistorai/ldpath/internal/fetch"
)

// Default limits, matching the benchmark settings the engine was tuned with.
const (
	DefaultParallelRequests = fetch.DefaultSize
	DefaultFetchTimeout     = fetch.DefaultTimeout
	DefaultLimitAnswers     = 1000
	DefaultLimitTriples     = 100000
	DefaultLimitTime        = 30 * time.Minute
	DefaultRetryEvery       = 10
)

// Limits stop a search from issuing fetches once reached. Zero disables a
// limit. Answers additionally ends the search after that many paths.
type Limits struct {
	Answers int
	Triples int
	Time    time.Duration
}

// Options tune a Search.
type Options struct {
	Algorithm        Algorithm
	QuickGoal        bool
	ParallelRequests int
	// BatchSize bounds one tier; zero means ParallelRequests.
	BatchSize    int
	FetchTimeout time.Duration
	Limits       Limits
	// RetryEvery runs a retry sweep over failed nodes every that many
	// batches. Zero disables retries.
	RetryEvery     int
	MemorySampling bool
	Clock          func() time.Time
}

// DefaultOptions returns A* with quick goals and the default limits.
func DefaultOptions() Options {
	return Options{
		Algorithm:        AStar,
		QuickGoal:        true,
		ParallelRequests: DefaultParallelRequests,
		FetchTimeout:     DefaultFetchTimeout,
		Limits: Limits{
			Answers: DefaultLimitAnswers,
			Triples: DefaultLimitTriples,
			Time:    DefaultLimitTime,
		},
		RetryEvery: DefaultRetryEvery,
		Clock:      time.Now,
	}
}

// Option modifies Options.
type Option func(*Options)

// WithAlgorithm selects the frontier ordering.
func WithAlgorithm(a Algorithm) Option {
	return func(o *Options) { o.Algorithm = a }
}

// WithQuickGoal toggles reporting goals as soon as they are reached.
func WithQuickGoal(on bool) Option {
	return func(o *Options) { o.QuickGoal = on }
}

// WithParallelRequests sets the fetch pool size.
func WithParallelRequests(n int) Option {
	return func(o *Options) { o.ParallelRequests = n }
}

// WithBatchSize bounds how many NodeStates one tier may hold.
func WithBatchSize(n int) Option {
	return func(o *Options) { o.BatchSize = n }
}

// WithFetchTimeout sets the budget of one batch of fetches.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Options) { o.FetchTimeout = d }
}

// WithLimits replaces the limits.
func WithLimits(l Limits) Option {
	return func(o *Options) { o.Limits = l }
}

// WithRetryEvery sets how often failed nodes are retried.
func WithRetryEvery(batches int) Option {
	return func(o *Options) { o.RetryEvery = batches }
}

// WithMemorySampling records heap usage in every snapshot.
func WithMemorySampling(on bool) Option {
	return func(o *Options) { o.MemorySampling = on }
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.Clock = clock }
}

func (o Options) normalized() Options {
	if o.ParallelRequests <= 0 {
		o.ParallelRequests = DefaultParallelRequests
	}

	if o.BatchSize <= 0 {
		o.BatchSize = o.ParallelRequests
	}

	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}

	if o.Clock == nil {
		o.Clock = time.Now
	}

	return o
}
