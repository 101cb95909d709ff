package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
)

func decodeMap(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	return m
}

func TestHealth_WithoutArchive(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(&fakeRunner{}, nil, nil), http.MethodGet, "/api/v1/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := decodeMap(t, w.Body.Bytes())

	if body["status"] != "ok" || body["version"] != "test-v1" {
		t.Errorf("unexpected body %v", body)
	}

	if body["database"] != "not_configured" {
		t.Errorf("database = %v, want not_configured", body["database"])
	}

	if body["queries"] != float64(1) {
		t.Errorf("queries = %v, want 1", body["queries"])
	}

	if body["schema_version"] != float64(1) {
		t.Errorf("schema_version = %v, want 1", body["schema_version"])
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(&fakeRunner{}, &fakeRuns{}, fakeDB{err: errDown}), http.MethodGet, "/api/v1/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("liveness must not fail on database errors, got %d", w.Code)
	}

	if got := decodeMap(t, w.Body.Bytes())["database"]; got != "disconnected" {
		t.Errorf("database = %v, want disconnected", got)
	}
}

func TestQueries_List(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(&fakeRunner{}, nil, nil), http.MethodGet, "/api/v1/queries", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if got := decodeMap(t, w.Body.Bytes())["total"]; got != float64(1) {
		t.Errorf("total = %v, want 1", got)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(&fakeRunner{}, nil, nil), http.MethodGet, "/api/v1/health", "")

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}
