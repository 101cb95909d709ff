package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/ldpath/internal/config"
	"github.com/persistorai/ldpath/internal/logging"
)

// flagKeys maps command-line flags to config keys. A flag only overrides the
// file and environment when it was set explicitly.
var flagKeys = map[string]string{
	"log-level":   "log_level",
	"log-format":  "log_format",
	"alg":         "algorithm",
	"weight":      "weight",
	"pool-size":   "parallel_requests",
	"batch-size":  "batch_size",
	"ans":         "limit_answers",
	"triples":     "limit_triples",
	"out":         "out_dir",
	"cache":       "cache_enabled",
	"queries-dir": "queries_dir",
	"port":        "port",
	"host":        "listen_host",
}

// loadConfig reads file and environment configuration and applies the flags
// of cmd on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.NewViper(flagConfig)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	// --time is in seconds, the config key is a duration.
	if f := flags.Lookup("time"); f != nil && f.Changed {
		secs, err := flags.GetFloat64("time")
		if err != nil {
			return nil, err
		}

		v.Set("limit_time", time.Duration(secs*float64(time.Second)))
	}

	if f := flags.Lookup("slow-goal"); f != nil && f.Changed {
		slow, err := flags.GetBool("slow-goal")
		if err != nil {
			return nil, err
		}

		v.Set("quick_goal", !slow)
	}

	return config.FromViper(v)
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
}
