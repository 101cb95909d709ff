package linkeddata

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"sync"
	"time"
)

// DelayResolution is the width of one bucket in a delay distribution.
const DelayResolution = 10 * time.Millisecond

// DelaySimulator samples request latencies from a recorded distribution so
// that benchmarks against a local mirror behave like the live web.
type DelaySimulator struct {
	// cumulative[i] counts observed requests that took at most (i+1) buckets.
	cumulative []int
	mu         sync.Mutex
	rng        *rand.Rand
}

// NewDelaySimulator builds a simulator from a cumulative count table.
func NewDelaySimulator(cumulative []int, seed uint64) (*DelaySimulator, error) {
	if len(cumulative) <= 10 {
		return nil, fmt.Errorf("delay table has %d buckets, need more than 10", len(cumulative))
	}

	if !sort.IntsAreSorted(cumulative) || cumulative[len(cumulative)-1] <= 0 {
		return nil, fmt.Errorf("delay table must be a non-decreasing cumulative count")
	}

	return &DelaySimulator{
		cumulative: cumulative,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// LoadDelaySimulator reads a JSON array of cumulative counts.
func LoadDelaySimulator(path string, seed uint64) (*DelaySimulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading delay table: %w", err)
	}

	var table []int
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decoding delay table: %w", err)
	}

	return NewDelaySimulator(table, seed)
}

// Sample draws one delay.
func (d *DelaySimulator) Sample() time.Duration {
	total := d.cumulative[len(d.cumulative)-1]

	d.mu.Lock()
	pick := d.rng.IntN(total)
	d.mu.Unlock()

	bucket := sort.Search(len(d.cumulative), func(i int) bool { return d.cumulative[i] > pick })

	return time.Duration(bucket+1) * DelayResolution
}

// Pad sleeps for whatever remains of a sampled delay after spent.
func (d *DelaySimulator) Pad(ctx context.Context, spent time.Duration) error {
	wait := d.Sample() - spent
	if wait <= 0 {
		return nil
	}

	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
