package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/persistorai/ldpath/internal/httputil"
	"github.com/persistorai/ldpath/internal/models"
)

func decodeError(t *testing.T, body []byte) httputil.ErrorResponse {
	t.Helper()

	var e httputil.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	return e
}

func TestCreateSearch(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(&fakeRunner{}, nil, nil), http.MethodPost, "/api/v1/searches", `{"query":"ok","algorithm":"dfs"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res models.RunResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if res.Data.PathCount != 2 || len(res.Data.Paths) != 2 {
		t.Errorf("got %d paths (count %d), want 2", len(res.Data.Paths), res.Data.PathCount)
	}
}

func TestCreateSearch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		runner *fakeRunner
		body   string
		status int
		code   string
	}{
		{"malformed body", &fakeRunner{}, `{"query":`, http.StatusBadRequest, "invalid_request"},
		{"unknown query", &fakeRunner{}, `{"query":"nope"}`, http.StatusNotFound, "not_found"},
		{"invalid weight", &fakeRunner{}, `{"query":"ok","weight":-1}`, http.StatusBadRequest, "validation_error"},
		{"internal", &fakeRunner{err: errors.New("boom")}, `{"query":"ok"}`, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(newRouter(tt.runner, nil, nil), http.MethodPost, "/api/v1/searches", tt.body)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}

			e := decodeError(t, w.Body.Bytes())
			if e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}

			if e.RequestID == "" {
				t.Error("error response without request_id")
			}

			if tt.status == http.StatusInternalServerError && e.Message != "internal server error" {
				t.Errorf("internal error leaked: %q", e.Message)
			}
		})
	}
}
