package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/search"
)

// Files written next to the working directory by --dump.
const (
	dumpGraphFile   = "last-db.json"
	dumpAnswersFile = "last-ans.json"
)

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// resultPath names the result file of a run. The layout groups runs by query,
// pool size and goal mode so benchmark sweeps land in comparable folders:
// <out>/q<id>-<name>/p<pool>/<quick|slow>/q<id>--<alg>-w<w>-p<pool>-<quickGoal|slowGoal>-time<t>-ans<a>-triples<s>.json
func resultPath(out string, id int, name string, p models.Params) string {
	mode, goal := "slow", "slowGoal"
	if p.QuickGoal {
		mode, goal = "quick", "quickGoal"
	}

	dir := filepath.Join(out,
		fmt.Sprintf("q%d-%s", id, name),
		fmt.Sprintf("p%d", p.ParallelRequests),
		mode)

	file := fmt.Sprintf("q%d--%s-w%s-p%d-%s-time%s-ans%d-triples%d.json",
		id, p.Algorithm, formatWeight(p.Weight), p.ParallelRequests, goal,
		strconv.FormatFloat(p.Limits.Time, 'f', -1, 64), p.Limits.Ans, p.Limits.Triples)

	return filepath.Join(dir, file)
}

// writeResult writes r as indented JSON to path, creating its directory.
func writeResult(path string, r *models.RunResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating result directory: %w", err)
	}

	return writeJSONFile(path, r)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := formatJSON(f, v); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// writeDump saves the loaded graph and the answers in dir.
func writeDump(dir string, sr *search.Search, answers [][]models.PathStep) error {
	f, err := os.Create(filepath.Join(dir, dumpGraphFile))
	if err != nil {
		return fmt.Errorf("creating graph dump: %w", err)
	}

	if err := sr.Graph().Dump(f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return writeJSONFile(filepath.Join(dir, dumpAnswersFile), answers)
}
