package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/ldpath/client"
	"github.com/persistorai/ldpath/internal/queries"
)

func newQueriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List the query catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := listQueries(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if flagFmt == "json" {
				return formatJSON(out, infos)
			}

			rows := make([][]string, 0, len(infos))
			for _, q := range infos {
				rows = append(rows, []string{strconv.Itoa(q.ID), q.Name, q.Start, q.Description})
			}
			formatTable(out, []string{"ID", "NAME", "START", "DESCRIPTION"}, rows)

			return nil
		},
	}
}

func listQueries(ctx context.Context) ([]queries.Info, error) {
	if flagServer != "" {
		return client.New(flagServer).Queries.List(ctx)
	}

	c, err := loadCatalogue(cfg)
	if err != nil {
		return nil, err
	}

	return c.Infos(), nil
}
