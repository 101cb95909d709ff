package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/persistorai/ldpath/internal/models"
)

func sampleParams() models.Params {
	return models.Params{
		Limits:           models.Limits{Time: 1800, Triples: 100000, Ans: 1000},
		Algorithm:        "AStar",
		ParallelRequests: 40,
		QuickGoal:        true,
		Weight:           1,
	}
}

func TestResultPath(t *testing.T) {
	quick := sampleParams()

	slow := sampleParams()
	slow.QuickGoal = false
	slow.Weight = 1.5
	slow.Algorithm = "Dijkstra"
	slow.ParallelRequests = 8
	slow.Limits.Time = 60

	tests := []struct {
		name   string
		params models.Params
		want   string
	}{
		{
			name:   "quick goal",
			params: quick,
			want:   "out/q13-Direct_coauthors/p40/quick/q13--AStar-w1-p40-quickGoal-time1800-ans1000-triples100000.json",
		},
		{
			name:   "slow goal",
			params: slow,
			want:   "out/q13-Direct_coauthors/p8/slow/q13--Dijkstra-w1.5-p8-slowGoal-time60-ans1000-triples100000.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resultPath("out", 13, "Direct_coauthors", tt.params)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	path := resultPath(dir, 0, "Node_name", sampleParams())

	r := &models.RunResult{
		Query:  "Node_name",
		Params: sampleParams(),
		Data: models.RunData{
			Paths:     [][]models.PathStep{{{State: "s0", Node: "http://ex.org/a"}}},
			PathCount: 1,
			Time:      0.5,
		},
	}

	if err := writeResult(path, r); err != nil {
		t.Fatalf("writeResult: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}

	data, ok := got["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data object: %s", raw)
	}

	if data["PathCount"] != float64(1) {
		t.Errorf("PathCount: got %v", data["PathCount"])
	}

	if _, ok := got["id"]; ok {
		t.Error("unarchived result must not carry an id")
	}
}
