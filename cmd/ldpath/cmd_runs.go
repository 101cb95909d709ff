package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/ldpath/client"
	"github.com/persistorai/ldpath/internal/models"
)

// runReader is satisfied by the archive store and, through remoteRuns, by a
// running server.
type runReader interface {
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
	GetRun(ctx context.Context, id string) (*models.RunResult, error)
}

type remoteRuns struct{ c *client.Client }

func (r remoteRuns) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	return r.c.Runs.List(ctx, limit)
}

func (r remoteRuns) GetRun(ctx context.Context, id string) (*models.RunResult, error) {
	return r.c.Runs.Get(ctx, id)
}

// openRuns returns the archive reader for the current flags and a func that
// releases it.
func openRuns(ctx context.Context) (runReader, func(), error) {
	if flagServer != "" {
		return remoteRuns{c: client.New(flagServer)}, func() {}, nil
	}

	runs, pool, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return runs, pool.Close, nil
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse archived runs",
	}

	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsShowCmd())

	return cmd
}

func runsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			runs, closeRuns, err := openRuns(ctx)
			if err != nil {
				return err
			}
			defer closeRuns()

			list, err := runs.ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagFmt == "json" {
				return formatJSON(out, list)
			}

			rows := make([][]string, 0, len(list))
			for _, r := range list {
				rows = append(rows, []string{
					r.ID,
					r.Query,
					r.Params.Algorithm,
					strconv.Itoa(r.PathCount),
					fmt.Sprintf("%.2f", r.TimeSeconds),
					r.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			formatTable(out, []string{"ID", "QUERY", "ALG", "PATHS", "SECONDS", "CREATED"}, rows)

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Max runs")

	return cmd
}

func runsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runs, closeRuns, err := openRuns(ctx)
			if err != nil {
				return err
			}
			defer closeRuns()

			r, err := runs.GetRun(ctx, args[0])
			if err != nil {
				return err
			}

			return formatJSON(cmd.OutOrStdout(), r)
		},
	}
}
