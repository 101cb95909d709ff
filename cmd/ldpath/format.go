package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/persistorai/ldpath/internal/models"
)

func formatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func formatTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, wd := range widths {
		seps[i] = strings.Repeat("-", wd)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

// formatPath renders one answer as
// node --p--> node <--p-- node, with each node's state in brackets.
func formatPath(st styles, steps []models.PathStep) string {
	var b strings.Builder

	for i, s := range steps {
		if s.Transition != nil {
			arrow := " --" + s.Transition.P + "--> "
			if s.Transition.D == "<" {
				arrow = " <--" + s.Transition.P + "-- "
			}
			b.WriteString(st.edge.Render(arrow))
		} else if i > 0 {
			b.WriteString(" ")
		}

		b.WriteString(st.node.Render(s.Node))
		b.WriteString(st.state.Render("[" + s.State + "]"))
	}

	return b.String()
}

func printParams(w io.Writer, st styles, name string, p models.Params) {
	fmt.Fprintln(w, st.title.Render("Solving "+name+"..."))
	fmt.Fprintln(w, st.label.Render("Parameters:"))
	fmt.Fprintf(w, "  Algorithm:      %s\n", p.Algorithm)
	fmt.Fprintf(w, "  Quick-Goal:     %t\n", p.QuickGoal)
	fmt.Fprintf(w, "  Weight:         %s\n", formatWeight(p.Weight))
	fmt.Fprintf(w, "  Pool Size:      %d\n", p.ParallelRequests)
	fmt.Fprintln(w, "  Limits:")
	fmt.Fprintf(w, "    Time:    %gs\n", p.Limits.Time)
	fmt.Fprintf(w, "    Answers: %d\n", p.Limits.Ans)
	fmt.Fprintf(w, "    Triples: %d\n", p.Limits.Triples)
}
