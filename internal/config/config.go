// Package config loads and validates the stopsearch service configuration
// from a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Source  SourceConfig  `yaml:"source"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"readTimeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`
}

// SourceConfig selects the stop dataset. Only the section named by Type is
// used.
type SourceConfig struct {
	Type          string              `yaml:"type" validate:"oneof=file redis elasticsearch"`
	File          FileConfig          `yaml:"file"`
	Redis         RedisConfig         `yaml:"redis"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
}

// FileConfig points at a local dataset.
type FileConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format" validate:"omitempty,oneof=json csv gtfs"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db" validate:"min=0,max=15"`
	Namespace string `yaml:"namespace"`
}

// ElasticsearchConfig holds Elasticsearch connection parameters.
type ElasticsearchConfig struct {
	URLs          []string `yaml:"urls" validate:"dive,url"`
	Index         string   `yaml:"index"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	APIKey        string   `yaml:"apiKey"`
	RefreshPolicy string   `yaml:"refreshPolicy" validate:"omitempty,oneof=true false wait_for"`
	BatchSize     int      `yaml:"batchSize" validate:"min=0"`
}

// SearchConfig controls suggestion limits.
type SearchConfig struct {
	DefaultLimit   int  `yaml:"defaultLimit" validate:"min=1,ltefield=MaxLimit"`
	MaxLimit       int  `yaml:"maxLimit" validate:"min=1"`
	MinQueryLength int  `yaml:"minQueryLength" validate:"min=1"`
	Warm           bool `yaml:"warm"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// MetricsConfig controls the Prometheus endpoint on the main server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"omitempty,startswith=/"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that the selected source is
// configured.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("invalid config: metrics.path is required when metrics are enabled")
	}

	switch c.Source.Type {
	case "file":
		if c.Source.File.Path == "" {
			return fmt.Errorf("invalid config: source.file.path is required")
		}
	case "redis":
		if c.Source.Redis.Addr == "" {
			return fmt.Errorf("invalid config: source.redis.addr is required")
		}
	case "elasticsearch":
		if len(c.Source.Elasticsearch.URLs) == 0 {
			return fmt.Errorf("invalid config: source.elasticsearch.urls is required")
		}
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Source: SourceConfig{
			Type: "file",
			File: FileConfig{
				Path: "data/stops.json",
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				Namespace: "stopsearch",
			},
			Elasticsearch: ElasticsearchConfig{
				Index: "stops",
			},
		},
		Search: SearchConfig{
			DefaultLimit:   10,
			MaxLimit:       30,
			MinQueryLength: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// applyEnvOverrides reads STOPSEARCH_* environment variables and overrides
// the corresponding config fields. Unparsable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOPSEARCH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STOPSEARCH_SOURCE_TYPE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("STOPSEARCH_SOURCE_FILE_PATH"); v != "" {
		cfg.Source.File.Path = v
	}
	if v := os.Getenv("STOPSEARCH_SOURCE_FILE_FORMAT"); v != "" {
		cfg.Source.File.Format = v
	}
	if v := os.Getenv("STOPSEARCH_REDIS_ADDR"); v != "" {
		cfg.Source.Redis.Addr = v
	}
	if v := os.Getenv("STOPSEARCH_REDIS_PASSWORD"); v != "" {
		cfg.Source.Redis.Password = v
	}
	if v := os.Getenv("STOPSEARCH_REDIS_NAMESPACE"); v != "" {
		cfg.Source.Redis.Namespace = v
	}
	if v := os.Getenv("STOPSEARCH_ELASTICSEARCH_URLS"); v != "" {
		cfg.Source.Elasticsearch.URLs = strings.Split(v, ",")
	}
	if v := os.Getenv("STOPSEARCH_ELASTICSEARCH_INDEX"); v != "" {
		cfg.Source.Elasticsearch.Index = v
	}
	if v := os.Getenv("STOPSEARCH_ELASTICSEARCH_API_KEY"); v != "" {
		cfg.Source.Elasticsearch.APIKey = v
	}
	if v := os.Getenv("STOPSEARCH_SEARCH_WARM"); v != "" {
		if warm, err := strconv.ParseBool(v); err == nil {
			cfg.Search.Warm = warm
		}
	}
	if v := os.Getenv("STOPSEARCH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STOPSEARCH_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
