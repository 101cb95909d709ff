package search

import (
	"runtime"
	"time"

	"github.com/persistorai/ldpath/internal/metrics"
	"github.com/persistorai/ldpath/internal/models"
)

// Stats records a snapshot after every batch and every expansion. It only
// observes; nothing in the search reads it back.
type Stats struct {
	clock   func() time.Time
	t0      time.Time
	triples func() int
	memory  bool

	status  models.Snapshot
	history []models.Snapshot
}

func newStats(clock func() time.Time, triples func() int, memory bool) *Stats {
	s := &Stats{clock: clock, triples: triples, memory: memory}
	s.Tick()

	return s
}

// Tick restarts the wall clock.
func (s *Stats) Tick() { s.t0 = s.clock() }

// Goal counts one more answer.
func (s *Stats) Goal() {
	s.status.GoalsFound++
	metrics.GoalsTotal.Inc()
}

// Batch counts one more batch and snapshots.
func (s *Stats) Batch() {
	s.status.BatchID++
	s.Snap()
}

// Expand records the expansion of a node. For remote expansions triples and
// elapsed describe the request that loaded it.
func (s *Stats) Expand(iri string, triples int, elapsed time.Duration, local bool) {
	s.status.Expansions++

	kind := "remote"
	if local {
		s.status.LocalExpansions++
		kind = "local"
	} else {
		s.status.RemoteExpansions++
	}

	metrics.ExpansionsTotal.WithLabelValues(kind).Inc()

	s.status.RequestIRI = iri
	s.status.RequestTriples = triples
	s.status.RequestTime = elapsed.Seconds()
	s.status.RequestTotalTime += elapsed.Seconds()
	s.Snap()
}

// Snap appends the current counters to the history.
func (s *Stats) Snap() models.Snapshot {
	if s.memory {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		s.status.Memory = float64(ms.HeapAlloc) / (1 << 20)
	}

	s.status.Triples = s.triples()
	s.status.WallClock = s.clock().Sub(s.t0).Seconds()
	metrics.GraphTriples.Set(float64(s.status.Triples))

	s.history = append(s.history, s.status)

	return s.status
}

// Last returns the current counters without recording them.
func (s *Stats) Last() models.Snapshot { return s.status }

// History returns a copy of every snapshot taken so far.
func (s *Stats) History() []models.Snapshot {
	out := make([]models.Snapshot, len(s.history))
	copy(out, s.history)

	return out
}
