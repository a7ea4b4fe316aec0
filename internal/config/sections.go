package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Addr string `json:"addr"`
	// WriteTimeout is generous: a cold directions cache means upstream latency.
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":" + Get("PORT", "8080")
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr is required")
	}
	return nil
}

type DatabaseConfig struct {
	// SqlitePath holds the route catalog. ":memory:" is allowed.
	SqlitePath string `json:"sqlite_path"`
	// PostgresURL, when set, stores assignment commands and the SQL
	// directions cache in Postgres instead of SQLite.
	PostgresURL string `json:"postgres_url"`
	SeedPath    string `json:"seed_path"`
	SeedOnStart *bool  `json:"seed_on_start"`
}

func (c *DatabaseConfig) SetDefaults() {
	if c.SqlitePath == "" {
		c.SqlitePath = Get("DB_PATH", "data/app.db")
	}
	if c.PostgresURL == "" {
		c.PostgresURL = Get("DATABASE_URL", "")
	}
	if c.SeedPath == "" {
		c.SeedPath = Get("SEED_PATH", "data/seeds/routes.json")
	}
	if c.SeedOnStart == nil {
		on := true
		c.SeedOnStart = &on
	}
}

func (c DatabaseConfig) Validate() error {
	if strings.TrimSpace(c.SqlitePath) == "" {
		return errors.New("sqlite_path is required")
	}
	return nil
}

const (
	ProviderORS          = "ors"
	ProviderStraightLine = "straight_line"
)

type DirectionsConfig struct {
	// Provider selects the routing backend: "ors" or "straight_line".
	Provider         string `json:"provider"`
	PreferLocalRoads bool   `json:"prefer_local_roads"`
}

func (c *DirectionsConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderORS
	}
}

func (c DirectionsConfig) Validate() error {
	switch c.Provider {
	case ProviderORS, ProviderStraightLine:
		return nil
	}
	return fmt.Errorf("unknown provider %q", c.Provider)
}

type ORSConfig struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Profile string        `json:"profile"`
	Timeout time.Duration `json:"timeout"`
}

func (c *ORSConfig) SetDefaults() {
	if c.APIKey == "" {
		c.APIKey = Get("ORS_API_KEY", "")
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openrouteservice.org"
	}
	if c.Profile == "" {
		c.Profile = "driving-car"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

func (c ORSConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("api_key is required")
	}
	return nil
}

const (
	CacheNone  = "none"
	CacheSQL   = "sql"
	CacheRedis = "redis"
)

type CacheConfig struct {
	// Backend is one of "none", "sql" or "redis".
	Backend   string        `json:"backend"`
	RedisAddr string        `json:"redis_addr"`
	TTL       time.Duration `json:"ttl"`
}

func (c *CacheConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = CacheSQL
	}
	if c.TTL == 0 {
		c.TTL = 24 * time.Hour
	}
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case CacheNone, CacheSQL:
	case CacheRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.TTL < 0 {
		return errors.New("ttl must not be negative")
	}
	return nil
}

// MQTTConfig enables command fan-out when Broker is set.
type MQTTConfig struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
}

func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "route-board"
	}
	if c.Topic == "" {
		c.Topic = "routeboard/assignments"
	}
}

func (c MQTTConfig) Validate() error {
	if c.Broker != "" && strings.TrimSpace(c.Topic) == "" {
		return errors.New("topic is required when a broker is set")
	}
	return nil
}

func (c MQTTConfig) Enabled() bool { return c.Broker != "" }

type LoggingConfig struct {
	Level string `json:"level"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("level: %w", err)
	}
	return nil
}

type MetricsConfig struct {
	Enabled *bool `json:"enabled"`
}

func (c MetricsConfig) On() bool { return c.Enabled == nil || *c.Enabled }
