// Command ldpath runs property-path queries over Linked Data.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/ldpath/internal/config"
)

// Build-time variables set via ldflags.
var (
	commit    = ""
	buildDate = ""
)

var (
	flagConfig string
	flagFmt    string
	flagServer string

	cfg *config.Config
	log *logrus.Logger
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("ldpath version %s (commit: %s, built: %s)", config.Version, commit, buildDate)
	}
	return fmt.Sprintf("ldpath version %s", config.Version)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ldpath",
		Short:   "ldpath: property-path search over Linked Data",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error

			cfg, err = loadConfig(cmd)
			if err != nil {
				return err
			}

			log, err = newLogger(cfg)

			return err
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ./ldpath.yaml if present)")
	pf.String("log-level", "info", "Log level: debug|info|warn|error (env: LDPATH_LOG_LEVEL)")
	pf.String("log-format", "text", "Log format: text|json (env: LDPATH_LOG_FORMAT)")
	pf.StringVar(&flagFmt, "format", "table", "Output format for listings: table|json")
	pf.StringVar(&flagServer, "server", "", "Read queries and runs from a running ldpath server (e.g. http://localhost:3040)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newQueriesCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newRunsCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
