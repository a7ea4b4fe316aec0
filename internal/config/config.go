package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides. Nested keys use a double
// underscore: ROUTEBOARD_ORS__API_KEY sets ors.api_key.
const EnvPrefix = "ROUTEBOARD_"

type Config struct {
	Env        string           `json:"env"`
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Directions DirectionsConfig `json:"directions"`
	ORS        ORSConfig        `json:"ors"`
	Cache      CacheConfig      `json:"cache"`
	MQTT       MQTTConfig       `json:"mqtt"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
}

// Load reads .env (when present) into the process environment, then merges
// an optional YAML or JSON file at path and ROUTEBOARD_* variables, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// LoadDatabase is Load restricted to the database section, for tools that
// never talk to the routing service.
func LoadDatabase(path string) (DatabaseConfig, error) {
	cfg, err := read(path)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return DatabaseConfig{}, fmt.Errorf("load config: database: %w", err)
	}
	return cfg.Database, nil
}

func read(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load config: read .env: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("load config: unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config: %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load config: environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Env == "" {
		c.Env = Get("APP_ENV", "prod")
	}
	c.Server.SetDefaults()
	c.Database.SetDefaults()
	c.Directions.SetDefaults()
	c.ORS.SetDefaults()
	c.Cache.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
}

func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Directions.Validate(); err != nil {
		return fmt.Errorf("directions: %w", err)
	}
	if c.Directions.Provider == ProviderORS {
		if err := c.ORS.Validate(); err != nil {
			return fmt.Errorf("ors: %w", err)
		}
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Dev reports whether the service runs in local development mode.
func (c Config) Dev() bool { return c.Env == "dev" }

// Get returns the environment variable key, or fallback when it is unset
// or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
