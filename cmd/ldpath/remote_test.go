package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeArgs runs root with args and returns its output.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out strings.Builder
	root.SetOut(&out)
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)

	_, err := root.ExecuteC()

	return out.String(), err
}

func resetGlobals(t *testing.T) {
	t.Helper()
	prepareConfig(t)

	orig := struct{ fmt, server string }{flagFmt, flagServer}
	t.Cleanup(func() {
		flagFmt = orig.fmt
		flagServer = orig.server
	})
}

func remoteServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/queries", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"queries": []map[string]any{{"id": 42, "name": "Remote_query", "start": "<http://ex.org/r>"}},
			"total":   1,
		})
	})
	mux.HandleFunc("GET /api/v1/runs", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"runs":  []map[string]any{{"id": "run-1", "query": "Remote_query", "path_count": 7}},
			"total": 1,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestQueries_Local(t *testing.T) {
	resetGlobals(t)

	out, err := executeArgs(t, newRootCmd(), "queries")
	if err != nil {
		t.Fatalf("queries: %v", err)
	}

	if !strings.HasPrefix(out, "ID") || !strings.Contains(out, "Direct_Coauthors") {
		t.Errorf("unexpected listing:\n%s", out)
	}
}

func TestQueries_Remote(t *testing.T) {
	resetGlobals(t)
	srv := remoteServer(t)

	out, err := executeArgs(t, newRootCmd(), "--server", srv.URL, "--format", "json", "queries")
	if err != nil {
		t.Fatalf("queries: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}

	if len(got) != 1 || got[0]["name"] != "Remote_query" {
		t.Errorf("unexpected queries %v", got)
	}
}

func TestRunsList_Remote(t *testing.T) {
	resetGlobals(t)
	srv := remoteServer(t)

	out, err := executeArgs(t, newRootCmd(), "--server", srv.URL, "runs", "list")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}

	if !strings.Contains(out, "run-1") || !strings.Contains(out, "Remote_query") {
		t.Errorf("unexpected listing:\n%s", out)
	}
}

func TestRunsList_NeedsArchive(t *testing.T) {
	resetGlobals(t)
	t.Setenv("LDPATH_DATABASE_URL", "")

	if _, err := executeArgs(t, newRootCmd(), "runs", "list"); err == nil {
		t.Fatal("expected an error without a database or server")
	}
}

func TestRun_RequiresQuery(t *testing.T) {
	resetGlobals(t)

	if _, err := executeArgs(t, newRootCmd(), "run"); err == nil {
		t.Fatal("expected missing --query error")
	}
}
