package models

import (
	"strings"
	"time"
)

// Limits bound one search run. Time is in seconds.
type Limits struct {
	Time    float64 `json:"time"`
	Triples int     `json:"triples"`
	Ans     int     `json:"ans"`
}

// Params records how a run was configured.
type Params struct {
	Limits           Limits  `json:"limits"`
	Algorithm        string  `json:"algorithm"`
	ParallelRequests int     `json:"parallelRequests"`
	QuickGoal        bool    `json:"quickGoal"`
	Weight           float64 `json:"weight"`
}

// StepTransition names the edge a path step arrived through. D is ">" for
// forward and "<" for backward.
type StepTransition struct {
	P string `json:"P"`
	D string `json:"d"`
}

// PathStep is one (node, state) pair of an answer path. The first step of a
// path has no transition.
type PathStep struct {
	Transition *StepTransition `json:"transition"`
	State      string          `json:"state"`
	Node       string          `json:"node"`
}

// Snapshot is one point of the stats history. JSON keys match the files
// produced by earlier benchmark runs so existing plots keep working.
type Snapshot struct {
	WallClock        float64 `json:"wallClock"`
	BatchID          int     `json:"batchID"`
	Memory           float64 `json:"memory"`
	GoalsFound       int     `json:"goals_found"`
	Expansions       int     `json:"expansions"`
	LocalExpansions  int     `json:"local_expansions"`
	RemoteExpansions int     `json:"remote_expansions"`
	Triples          int     `json:"triples"`
	RequestTriples   int     `json:"requestTriples"`
	RequestTime      float64 `json:"requestTime"`
	RequestTotalTime float64 `json:"requestTotalTime"`
	RequestIRI       string  `json:"requestIRI"`
}

// RunData is what a search produced. Time is wall-clock seconds.
type RunData struct {
	Paths        [][]PathStep `json:"Paths"`
	PathCount    int          `json:"PathCount"`
	StatsHistory []Snapshot   `json:"StatsHistory"`
	Time         float64      `json:"Time"`
}

// RunResult is the record written for every run.
type RunResult struct {
	ID        string    `json:"id,omitempty"`
	Query     string    `json:"query"`
	Params    Params    `json:"params"`
	Data      RunData   `json:"data"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// RunSummary is a listing row of the archive.
type RunSummary struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Params      Params    `json:"params"`
	PathCount   int       `json:"path_count"`
	TimeSeconds float64   `json:"time_seconds"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchRequest is the body of POST /api/v1/searches.
type SearchRequest struct {
	Query            string   `json:"query"`
	Start            string   `json:"start,omitempty"`
	Algorithm        string   `json:"algorithm,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	ParallelRequests int      `json:"parallel_requests,omitempty"`
	BatchSize        int      `json:"batch_size,omitempty"`
	QuickGoal        *bool    `json:"quick_goal,omitempty"`
	Limits           *Limits  `json:"limits,omitempty"`
}

// Validate checks a SearchRequest for required fields and sane bounds.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrMissingQuery
	}

	if r.Weight != nil && *r.Weight <= 0 {
		return ErrInvalidWeight
	}

	if r.ParallelRequests < 0 || r.ParallelRequests > MaxParallelRequests {
		return ErrFieldOutOfRange("parallel_requests", 0, MaxParallelRequests)
	}

	if r.BatchSize < 0 {
		return ErrFieldOutOfRange("batch_size", 0, MaxParallelRequests*100)
	}

	if r.Limits != nil && (r.Limits.Time < 0 || r.Limits.Ans < 0 || r.Limits.Triples < 0) {
		return ErrNegativeLimit
	}

	if r.Start != "" && !strings.Contains(r.Start, "://") {
		return ErrInvalidStart
	}

	return nil
}

// MaxParallelRequests caps the pool size a client may ask for.
const MaxParallelRequests = 256
