package client

import "context"

// QueryService lists the server's query catalogue.
type QueryService struct {
	c *Client
}

type queryListResponse struct {
	Queries []Query `json:"queries"`
	Total   int     `json:"total"`
}

// List returns every query ordered by id.
func (s *QueryService) List(ctx context.Context) ([]Query, error) {
	var resp queryListResponse
	if err := s.c.get(ctx, "/api/v1/queries", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Queries, nil
}
