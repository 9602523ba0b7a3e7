// Package config loads maptree server settings from an optional YAML
// file and MAPTREE_* environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/maptree/internal/retry"
)

// Backend kinds
const (
	BackendMemory = "memory" // sharded in-process store
	BackendRemote = "remote" // storage node over HTTP
)

// Retry mirrors retry.Policy in YAML
type Retry struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	Multiplier float64       `yaml:"multiplier"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Config is the server configuration
type Config struct {
	Listen         string        `yaml:"listen"`
	Backend        string        `yaml:"backend"`
	NodeAddr       string        `yaml:"node_addr"`
	Shards         int           `yaml:"shards"`
	PoolSize       int           `yaml:"pool_size"`
	Retry          Retry         `yaml:"retry"`
	AuditDir       string        `yaml:"audit_dir"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	p := retry.DefaultPolicy()
	return Config{
		Listen:   ":8080",
		Backend:  BackendMemory,
		Shards:   4,
		PoolSize: 8,
		Retry: Retry{
			Attempts:   p.Attempts,
			Backoff:    p.Backoff,
			Multiplier: p.Multiplier,
			MaxBackoff: p.MaxBackoff,
		},
		AuditDir:       ".",
		HealthInterval: 5 * time.Second,
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty), then environment variables read through getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("MAPTREE_LISTEN", &c.Listen)
	str("MAPTREE_BACKEND", &c.Backend)
	str("MAPTREE_NODE_ADDR", &c.NodeAddr)
	str("MAPTREE_AUDIT_DIR", &c.AuditDir)
	return errors.Join(
		num("MAPTREE_SHARDS", &c.Shards),
		num("MAPTREE_POOL_SIZE", &c.PoolSize),
		num("MAPTREE_RETRY_ATTEMPTS", &c.Retry.Attempts),
		dur("MAPTREE_RETRY_BACKOFF", &c.Retry.Backoff),
		dur("MAPTREE_HEALTH_INTERVAL", &c.HealthInterval),
	)
}

// Validate reports settings the server cannot start with
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendMemory:
		if c.Shards < 1 {
			errs = append(errs, fmt.Errorf("shards must be at least 1, got %d", c.Shards))
		}
	case BackendRemote:
		if c.NodeAddr == "" {
			errs = append(errs, errors.New("remote backend requires node_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("pool_size must be at least 1, got %d", c.PoolSize))
	}
	if c.Retry.Attempts < 1 {
		errs = append(errs, fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts))
	}
	return errors.Join(errs...)
}

// RetryPolicy converts the retry section into a retry.Policy
func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		Attempts:   c.Retry.Attempts,
		Backoff:    c.Retry.Backoff,
		Multiplier: c.Retry.Multiplier,
		MaxBackoff: c.Retry.MaxBackoff,
	}
}
