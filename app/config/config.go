// Package config loads runtime settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	// ShutdownGrace bounds how long in-flight requests may run after a signal.
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverNeo4j  = "neo4j"
	DriverMongo  = "mongo"
)

type StoreConfig struct {
	Driver string       `yaml:"driver"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
	Mongo  MongoConfig  `yaml:"mongo"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type MongoConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type LLMConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type SearchConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Results  int    `yaml:"results"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns settings that work for local development.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           "0.0.0.0:8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			ShutdownGrace:  10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{Path: "data/collab.db"},
			Neo4j: Neo4jConfig{
				URI:      "neo4j://neo4j:7687",
				Username: "neo4j",
				Password: "password",
				Database: "neo4j",
			},
			Mongo: MongoConfig{URL: "mongodb://localhost:27017", Database: "projectdb"},
		},
		Auth: AuthConfig{
			Issuer:   "collab-go",
			TokenTTL: 30 * time.Minute,
		},
		LLM: LLMConfig{
			BaseURL:           "https://openrouter.ai/api/v1",
			Model:             "meta-llama/llama-3.3-70b-instruct:free",
			RequestsPerMinute: 20,
		},
		Search: SearchConfig{
			Endpoint: "https://google.serper.dev/search",
			Results:  5,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read the config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.Trim(v, "\"' ")
		}
	}
	str("COLLAB_ADDR", &c.Server.Addr)
	str("COLLAB_STORE_DRIVER", &c.Store.Driver)
	str("COLLAB_SQLITE_PATH", &c.Store.SQLite.Path)
	str("COLLAB_NEO4J_URI", &c.Store.Neo4j.URI)
	str("COLLAB_NEO4J_USERNAME", &c.Store.Neo4j.Username)
	str("COLLAB_NEO4J_PASSWORD", &c.Store.Neo4j.Password)
	str("COLLAB_NEO4J_DATABASE", &c.Store.Neo4j.Database)
	str("MONGO_URL", &c.Store.Mongo.URL)
	str("COLLAB_MONGO_DATABASE", &c.Store.Mongo.Database)
	str("COLLAB_AUTH_SECRET", &c.Auth.Secret)
	str("COLLAB_LLM_BASE_URL", &c.LLM.BaseURL)
	str("COLLAB_LLM_MODEL", &c.LLM.Model)
	str("OPENROUTER_API_KEY", &c.LLM.APIKey)
	str("SERPER_API_KEY", &c.Search.APIKey)
	str("COLLAB_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("COLLAB_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := lookup("COLLAB_TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("COLLAB_TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	if v, ok := lookup("COLLAB_TRACING"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COLLAB_TRACING: %w", err)
		}
		c.Tracing.Enabled = b
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var problems []error
	switch c.Store.Driver {
	case DriverSQLite, DriverNeo4j, DriverMongo:
	default:
		problems = append(problems, fmt.Errorf("store.driver %q is not one of sqlite, neo4j, mongo", c.Store.Driver))
	}
	if c.Auth.Secret == "" {
		problems = append(problems, errors.New("auth.secret must be set (COLLAB_AUTH_SECRET)"))
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, errors.New("auth.token_ttl must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return level, nil
}
