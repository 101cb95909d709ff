package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

func (c *Config) validate() error {
	for _, check := range []func() error{
		c.validateLogging,
		c.validateDatabase,
		c.validateNetwork,
		c.validateCORS,
		c.validateFetch,
		c.validateEndpoints,
		c.validateSearch,
	} {
		if err := check(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got %q", c.LogFormat)
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return nil
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if !isLoopback(dbHost) && dbURL.Query().Get("sslmode") == "disable" {
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
	}

	if c.DBMaxConns < 1 || c.DBMaxConns > 100 {
		return fmt.Errorf("DB_MAX_CONNS must be between 1 and 100")
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Loopback for local use, 0.0.0.0/:: for containers where the network
	// boundary is enforced outside.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	if c.RateLimitPerSec <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_SEC must be positive and RATE_LIMIT_BURST at least 1")
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateFetch() error {
	if c.FetchAttempts < 1 || c.FetchAttempts > 10 {
		return fmt.Errorf("FETCH_ATTEMPTS must be between 1 and 10")
	}

	if c.FetchRetryWait < 0 {
		return fmt.Errorf("FETCH_RETRY_WAIT must not be negative")
	}

	if c.HostRate < 0 || c.HostBurst < 0 {
		return fmt.Errorf("HOST_RATE and HOST_BURST must not be negative")
	}

	if c.CacheEnabled && c.CacheDir == "" {
		return fmt.Errorf("CACHE_DIR is required when CACHE_ENABLED is true")
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}

	return nil
}

func (c *Config) validateEndpoints() error {
	for i, ep := range c.Endpoints {
		if _, err := regexp.Compile(ep.Pattern); err != nil {
			return fmt.Errorf("endpoints[%d].pattern: %w", i, err)
		}

		u, err := url.ParseRequestURI(ep.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("endpoints[%d].url must be an http(s) URL, got %q", i, ep.URL)
		}
	}

	return nil
}

func (c *Config) validateSearch() error {
	if c.Weight <= 0 {
		return fmt.Errorf("WEIGHT must be positive")
	}

	if c.ParallelRequests < 1 || c.ParallelRequests > 256 {
		return fmt.Errorf("PARALLEL_REQUESTS must be between 1 and 256")
	}

	if c.BatchSize < 0 || c.RetryEvery < 0 {
		return fmt.Errorf("BATCH_SIZE and RETRY_EVERY must not be negative")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}

	if c.LimitTime < 0 || c.LimitTriples < 0 || c.LimitAnswers < 0 {
		return fmt.Errorf("limits must not be negative")
	}

	return nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
