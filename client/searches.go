package client

import "context"

// SearchService runs searches on the server.
type SearchService struct {
	c *Client
}

// Run executes req and blocks until the search ends. The returned result
// carries an ID when the server archives runs.
func (s *SearchService) Run(ctx context.Context, req *SearchRequest) (*RunResult, error) {
	var r RunResult
	if err := s.c.post(ctx, "/api/v1/searches", req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
