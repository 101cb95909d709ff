package search

import (
	"context"

	"github.com/persistorai/ldpath/internal/models"
)

// Run drains Paths and returns everything the search produced. onPath, when
// set, sees every path as it is found.
func (s *Search) Run(ctx context.Context, onPath func(Path)) *models.RunData {
	t0 := s.opts.Clock()
	data := &models.RunData{Paths: [][]models.PathStep{}}

	for p := range s.Paths(ctx) {
		if onPath != nil {
			onPath(p)
		}

		data.Paths = append(data.Paths, p.Steps(s.a))
	}

	data.PathCount = len(data.Paths)
	data.StatsHistory = s.stats.History()
	data.Time = s.opts.Clock().Sub(t0).Seconds()

	return data
}

// Params describes the run configuration in archive form.
func (s *Search) Params() models.Params {
	return models.Params{
		Limits: models.Limits{
			Time:    s.opts.Limits.Time.Seconds(),
			Triples: s.opts.Limits.Triples,
			Ans:     s.opts.Limits.Answers,
		},
		Algorithm:        s.opts.Algorithm.String(),
		ParallelRequests: s.opts.ParallelRequests,
		QuickGoal:        s.opts.QuickGoal,
		Weight:           s.a.Weight(),
	}
}
