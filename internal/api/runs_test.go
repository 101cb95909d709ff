package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/persistorai/ldpath/internal/models"
)

func sampleRuns() *fakeRuns {
	return &fakeRuns{runs: map[string]*models.RunResult{
		"r1": {ID: "r1", Query: "OK", Data: models.RunData{PathCount: 3}},
	}}
}

func TestRuns_Disabled(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(&fakeRunner{}, nil, nil), http.MethodGet, "/api/v1/runs", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRuns_List(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(&fakeRunner{}, sampleRuns(), fakeDB{}), http.MethodGet, "/api/v1/runs?limit=5", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Runs  []models.RunSummary `json:"runs"`
		Total int                 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body.Total != 1 || body.Runs[0].PathCount != 3 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestRuns_Get(t *testing.T) {
	t.Parallel()

	h := newRouter(&fakeRunner{}, sampleRuns(), fakeDB{})

	if w := doRequest(h, http.MethodGet, "/api/v1/runs/r1", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w := doRequest(h, http.MethodGet, "/api/v1/runs/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	if e := decodeError(t, w.Body.Bytes()); e.Code != "not_found" {
		t.Errorf("code = %q, want not_found", e.Code)
	}
}
