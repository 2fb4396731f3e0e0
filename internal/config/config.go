// Package config loads CLI settings from the config file, PA_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (PA_API_URL, PA_SESSION_STORE).
const EnvPrefix = "PA"

// Session store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Config is the resolved CLI configuration.
type Config struct {
	APIURL    string        `mapstructure:"api_url"`
	PublicURL string        `mapstructure:"public_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Lang      string        `mapstructure:"lang"`
	Output    string        `mapstructure:"output"`
	LogLevel  string        `mapstructure:"log_level"`
	Profile   string        `mapstructure:"profile"`
	Session   Session       `mapstructure:"session"`
	Redis     Redis         `mapstructure:"redis"`
	Postgres  Postgres      `mapstructure:"postgres"`

	// TraceFile receives request spans as JSON; empty disables tracing.
	TraceFile string `mapstructure:"trace_file"`
	// MetricsFile receives the request metrics of the run in the
	// Prometheus text format; empty disables the dump.
	MetricsFile string `mapstructure:"metrics_file"`

	// File is the config file that was read, "" when none was found.
	File string `mapstructure:"-"`
}

// Session selects where the session survives between invocations.
type Session struct {
	Store  string        `mapstructure:"store"`
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// Redis holds the redis session store settings.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Postgres holds the postgres session store settings.
type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

// Configured reports whether the admin API base URL is set.
func (c *Config) Configured() bool { return strings.TrimSpace(c.APIURL) != "" }

// PublicBase returns the public API base. It defaults to the parent of the
// admin base (".../api/admin" -> ".../api").
func (c *Config) PublicBase() string {
	if p := strings.TrimSpace(c.PublicURL); p != "" {
		return strings.TrimRight(p, "/")
	}
	base := strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	return strings.TrimSuffix(base, "/admin")
}

// Dir is the per-user config directory ($XDG_CONFIG_HOME/folio-admin).
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "folio-admin")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "folio-admin")
	}
	return filepath.Join(home, ".config", "folio-admin")
}

func defaults(v *viper.Viper) {
	v.SetDefault("api_url", "")
	v.SetDefault("public_url", "")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("lang", "it")
	v.SetDefault("output", OutputTable)
	v.SetDefault("log_level", "warn")
	v.SetDefault("profile", "default")
	v.SetDefault("trace_file", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("session.store", StoreFile)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("postgres.dsn", "")
}

// Load resolves the configuration. file overrides the default location;
// flags, when non-nil, are bound by their names (dashes become underscores,
// so --api-url binds api_url). A missing default config file is not an
// error; a missing explicit one is.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !known[key] {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.File = v.ConfigFileUsed()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// known lists the keys that may be overridden by a flag of the same name.
var known = map[string]bool{
	"api_url": true, "public_url": true, "timeout": true, "lang": true, "output": true,
	"log_level": true, "profile": true, "trace_file": true, "metrics_file": true,
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output format %q (table, json, yaml)", c.Output)
	}
	switch c.Session.Store {
	case StoreMemory, StoreFile, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("invalid session.store %q (memory, file, redis, postgres)", c.Session.Store)
	}
	if c.Session.Store == StorePostgres && strings.TrimSpace(c.Postgres.DSN) == "" {
		return errors.New("session.store=postgres requires postgres.dsn")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if strings.TrimSpace(c.Profile) == "" || strings.ContainsAny(c.Profile, `/\`) {
		return fmt.Errorf("invalid profile %q", c.Profile)
	}
	return nil
}
