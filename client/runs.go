package client

import (
	"context"
	"net/url"
	"strconv"
)

// RunService reads the server's run archive.
type RunService struct {
	c *Client
}

type runListResponse struct {
	Runs  []RunSummary `json:"runs"`
	Total int          `json:"total"`
}

// List returns the most recent runs. A limit of zero uses the server default.
func (s *RunService) List(ctx context.Context, limit int) ([]RunSummary, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp runListResponse
	if err := s.c.get(ctx, "/api/v1/runs", params, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

// Get returns one archived run with its paths and stats history.
func (s *RunService) Get(ctx context.Context, id string) (*RunResult, error) {
	var r RunResult
	if err := s.c.get(ctx, "/api/v1/runs/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
