package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/ldpath/internal/db"
	"github.com/persistorai/ldpath/internal/db/migrations"
	"github.com/persistorai/ldpath/internal/dbpool"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending archive migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfg.ArchiveEnabled() {
				return fmt.Errorf("migrate needs LDPATH_DATABASE_URL")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := db.RunMigrations(ctx, pool, log, migrations.FS)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migrations (schema version %d)\n", n, db.SchemaVersion())

			return nil
		},
	}
}
