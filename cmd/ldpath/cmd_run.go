package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/search"
	"github.com/persistorai/ldpath/internal/service"
)

type runFlags struct {
	query   string
	start   string
	dump    bool
	archive bool
	quiet   bool
}

func newRunCmd() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a catalogue query and write its result file",
		Example: `  ldpath run -q 13
  ldpath run -q direct_coauthors --alg dijkstra --pool-size 8 --time 60
  ldpath run -q 0 --start http://dbpedia.org/resource/Berlin --dump`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, rf)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&rf.query, "query", "q", "", "Query id or name (see 'ldpath queries')")
	f.StringVar(&rf.start, "start", "", "Override the query's start IRI")
	f.Float64P("weight", "w", 1, "Heuristic weight")
	f.String("alg", "a*", "Algorithm: a*|dijkstra|bfs|dfs")
	f.Int("pool-size", 40, "Parallel requests per batch")
	f.Int("batch-size", 0, "Nodes per batch (0 uses the pool size)")
	f.Float64("time", 1800, "Time limit in seconds")
	f.Int("ans", 1000, "Answer limit")
	f.Int("triples", 100000, "Triple limit")
	f.Bool("slow-goal", false, "Report answers when expanded instead of when reached")
	f.String("out", "results", "Result directory")
	f.Bool("cache", false, "Cache fetched documents on disk")
	f.String("queries-dir", "", "Directory with extra query definitions")
	f.BoolVar(&rf.dump, "dump", false, "Write "+dumpGraphFile+" and "+dumpAnswersFile+" to the working directory")
	f.BoolVar(&rf.archive, "archive", false, "Store the run in the PostgreSQL archive")
	f.BoolVar(&rf.quiet, "quiet", false, "Do not print paths as they are found")

	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func runQuery(cmd *cobra.Command, rf runFlags) error {
	queries, err := loadCatalogue(cfg)
	if err != nil {
		return err
	}

	fetcher, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	svc := service.NewSearchService(queries, fetcher, nil, service.DefaultsFromConfig(cfg), log)

	sr, def, err := svc.Prepare(&models.SearchRequest{Query: rf.query, Start: rf.start})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := stylesFor(out)
	params := sr.Params()
	path := resultPath(cfg.OutDir, def.ID, def.Name, params)

	printParams(out, st, def.Name, params)
	fmt.Fprintln(out, st.muted.Render("Writing log to "+path))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := sr.Automaton()
	n := 0

	data := sr.Run(ctx, func(p search.Path) {
		n++
		if !rf.quiet {
			fmt.Fprintf(out, "%s %s\n", st.muted.Render(fmt.Sprintf("%4d", n)), formatPath(st, p.Steps(a)))
		}
	})

	if ctx.Err() != nil {
		fmt.Fprintln(out, st.warn.Render("Interrupted, saving partial results"))
	}

	result := &models.RunResult{
		Query:     def.Name,
		Params:    params,
		Data:      *data,
		CreatedAt: time.Now().UTC(),
	}

	last := sr.Stats().Last()
	fmt.Fprintf(out, "%s %d paths in %.2fs, %d expansions, %d triples\n",
		st.success.Render("Done:"), data.PathCount, data.Time, last.Expansions, last.Triples)

	if err := writeResult(path, result); err != nil {
		return err
	}

	if rf.dump {
		if err := writeDump(".", sr, data.Paths); err != nil {
			return err
		}
	}

	if rf.archive {
		id, err := archiveRun(result, sr)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, st.muted.Render("Archived as "+id))
	}

	return nil
}

// archiveRun stores result synchronously. It runs on a fresh context so an
// interrupted search is still archived.
func archiveRun(result *models.RunResult, sr *search.Search) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	runs, pool, err := openStore(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer pool.Close()

	return runs.SaveRun(ctx, result, sr.Graph().Triples())
}
