// Package config provides file and environment driven configuration for ldpath.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. LDPATH_LOG_LEVEL.
const EnvPrefix = "LDPATH"

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Endpoint maps IRIs matching Pattern to a SPARQL endpoint.
type Endpoint struct {
	Pattern string `mapstructure:"pattern"`
	URL     string `mapstructure:"url"`
}

// Config holds all application configuration values.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// DatabaseURL enables the run archive when set.
	DatabaseURL Secret `mapstructure:"database_url"`
	DBMaxConns  int32  `mapstructure:"db_max_conns"`

	Port            string   `mapstructure:"port"`
	ListenHost      string   `mapstructure:"listen_host"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	RateLimitPerSec float64  `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int      `mapstructure:"rate_limit_burst"`

	UserAgent      string        `mapstructure:"user_agent"`
	Endpoints      []Endpoint    `mapstructure:"endpoints"`
	FetchAttempts  int           `mapstructure:"fetch_attempts"`
	FetchRetryWait time.Duration `mapstructure:"fetch_retry_wait"`
	HostRate       float64       `mapstructure:"host_rate"`
	HostBurst      int           `mapstructure:"host_burst"`
	DelayTable     string        `mapstructure:"delay_table"`

	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheDir     string        `mapstructure:"cache_dir"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`

	QueriesDir string `mapstructure:"queries_dir"`
	OutDir     string `mapstructure:"out_dir"`

	Algorithm        string        `mapstructure:"algorithm"`
	Weight           float64       `mapstructure:"weight"`
	QuickGoal        bool          `mapstructure:"quick_goal"`
	ParallelRequests int           `mapstructure:"parallel_requests"`
	BatchSize        int           `mapstructure:"batch_size"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	RetryEvery       int           `mapstructure:"retry_every"`
	LimitTime        time.Duration `mapstructure:"limit_time"`
	LimitTriples     int           `mapstructure:"limit_triples"`
	LimitAnswers     int           `mapstructure:"limit_answers"`
}

// SetDefaults registers every key with its default value. Keys without a
// default are invisible to environment lookups.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("database_url", "")
	v.SetDefault("db_max_conns", 10)

	v.SetDefault("port", "3040")
	v.SetDefault("listen_host", "127.0.0.1")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit_per_sec", 5.0)
	v.SetDefault("rate_limit_burst", 10)

	v.SetDefault("user_agent", "ldpath/"+Version)
	v.SetDefault("fetch_attempts", 2)
	v.SetDefault("fetch_retry_wait", "500ms")
	v.SetDefault("host_rate", 20.0)
	v.SetDefault("host_burst", 10)
	v.SetDefault("delay_table", "")

	v.SetDefault("cache_enabled", false)
	v.SetDefault("cache_dir", ".ldpath-cache")
	v.SetDefault("cache_ttl", "24h")

	v.SetDefault("queries_dir", "")
	v.SetDefault("out_dir", "results")

	v.SetDefault("algorithm", "a*")
	v.SetDefault("weight", 1.0)
	v.SetDefault("quick_goal", true)
	v.SetDefault("parallel_requests", 40)
	v.SetDefault("batch_size", 0)
	v.SetDefault("fetch_timeout", "15s")
	v.SetDefault("retry_every", 10)
	v.SetDefault("limit_time", "30m")
	v.SetDefault("limit_triples", 100000)
	v.SetDefault("limit_answers", 1000)
}

// NewViper returns a viper instance with defaults, the LDPATH_ environment
// binding and, when path is set, the given config file. Without a path an
// optional ./ldpath.yaml is read.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ldpath")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return v, nil
}

// Load reads configuration from the optional file at path and the
// environment, then validates it.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}

	return FromViper(v)
}

// FromViper decodes and validates an already prepared viper instance. The CLI
// uses it after binding its flags.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// ArchiveEnabled reports whether runs are stored in PostgreSQL.
func (c *Config) ArchiveEnabled() bool { return c.DatabaseURL.Value() != "" }
