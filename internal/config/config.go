package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/toyz/axon-input/pkg/input"
	"github.com/toyz/axon-input/pkg/input/repository"
)

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds the runtime configuration of the input mapping components.
// Every field is read from the environment by Load.
type Config struct {
	// Cache selects the metadata cache backend: memory, redis or none
	Cache       string        `env:"AXON_INPUT_CACHE,default=memory"`
	RedisAddr   string        `env:"AXON_INPUT_REDIS_ADDR,default=localhost:6379"`
	CachePrefix string        `env:"AXON_INPUT_CACHE_PREFIX,default=axon:"`
	CacheTTL    time.Duration `env:"AXON_INPUT_CACHE_TTL,default=0s"`

	LogLevel  string `env:"AXON_INPUT_LOG_LEVEL,default=info"`
	LogFormat string `env:"AXON_INPUT_LOG_FORMAT,default=text"`

	FromTag   string `env:"AXON_INPUT_TAG_FROM,default=from"`
	LoadTag   string `env:"AXON_INPUT_TAG_LOAD,default=load"`
	EntityTag string `env:"AXON_INPUT_TAG_ENTITY,default=input"`

	// MappingFile is an optional YAML directive mapping layered over the struct tags
	MappingFile string `env:"AXON_INPUT_MAPPING_FILE"`

	// MySQLHost enables the MySQL connection pool when set
	MySQLHost     string `env:"AXON_INPUT_MYSQL_HOST"`
	MySQLPort     int    `env:"AXON_INPUT_MYSQL_PORT,default=3306"`
	MySQLUser     string `env:"AXON_INPUT_MYSQL_USER,default=root"`
	MySQLPassword string `env:"AXON_INPUT_MYSQL_PASSWORD"`
	MySQLDatabase string `env:"AXON_INPUT_MYSQL_DATABASE"`
	MySQLMaxOpen  int    `env:"AXON_INPUT_MYSQL_MAX_OPEN_CONNS,default=10"`
	MySQLMaxIdle  int    `env:"AXON_INPUT_MYSQL_MAX_IDLE_CONNS,default=5"`
}

// Load decodes the configuration from the environment and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	switch c.Cache {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("AXON_INPUT_CACHE must be one of memory, redis, none: got %q", c.Cache)
	}
	if c.Cache == CacheRedis && c.RedisAddr == "" {
		return fmt.Errorf("AXON_INPUT_REDIS_ADDR is required for the redis cache")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("AXON_INPUT_CACHE_TTL must not be negative: got %s", c.CacheTTL)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("AXON_INPUT_LOG_FORMAT must be text or json: got %q", c.LogFormat)
	}
	if c.MySQLEnabled() && c.MySQLDatabase == "" {
		return fmt.Errorf("AXON_INPUT_MYSQL_DATABASE is required when AXON_INPUT_MYSQL_HOST is set")
	}
	return nil
}

// TagReader returns a reader using the configured tag names
func (c *Config) TagReader() *input.TagReader {
	return &input.TagReader{FromTag: c.FromTag, LoadTag: c.LoadTag, EntityTag: c.EntityTag}
}

// Reader returns the tag reader, layered under the YAML mapping when one is configured
func (c *Config) Reader() (input.Reader, error) {
	tags := c.TagReader()
	if c.MappingFile == "" {
		return tags, nil
	}
	mapping, err := input.LoadYAMLFile(c.MappingFile)
	if err != nil {
		return nil, err
	}
	return input.CompositeReader{mapping, tags}, nil
}

// MySQLEnabled reports whether a MySQL host is configured
func (c *Config) MySQLEnabled() bool {
	return c.MySQLHost != ""
}

// MySQL returns the connection settings of the MySQL pool
func (c *Config) MySQL() repository.MySQLConfig {
	return repository.MySQLConfig{
		Host:            c.MySQLHost,
		Port:            c.MySQLPort,
		User:            c.MySQLUser,
		Password:        c.MySQLPassword,
		Database:        c.MySQLDatabase,
		MaxOpenConns:    c.MySQLMaxOpen,
		MaxIdleConns:    c.MySQLMaxIdle,
		ConnMaxLifetime: time.Hour,
	}
}
