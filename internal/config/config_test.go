package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
env: dev
server:
  addr: ":9000"
database:
  sqlite_path: ":memory:"
  seed_on_start: false
directions:
  provider: ors
  prefer_local_roads: true
ors:
  api_key: "secret"
  timeout: 3s
cache:
  backend: redis
  redis_addr: "localhost:6379"
  ttl: 1h
mqtt:
  broker: "tcp://localhost:1883"
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Dev())
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, ":memory:", cfg.Database.SqlitePath)
	require.NotNil(t, cfg.Database.SeedOnStart)
	assert.False(t, *cfg.Database.SeedOnStart)
	assert.True(t, cfg.Directions.PreferLocalRoads)
	assert.Equal(t, "secret", cfg.ORS.APIKey)
	assert.Equal(t, 3*time.Second, cfg.ORS.Timeout)
	assert.Equal(t, "driving-car", cfg.ORS.Profile)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, "routeboard/assignments", cfg.MQTT.Topic)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.On())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"ors": {"api_key": "from-file"}, "server": {"addr": ":1"}}`)
	t.Setenv("ROUTEBOARD_ORS__API_KEY", "from-env")
	t.Setenv("ROUTEBOARD_METRICS__ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ORS.APIKey)
	assert.Equal(t, ":1", cfg.Server.Addr)
	assert.False(t, cfg.Metrics.On())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("ROUTEBOARD_DIRECTIONS__PROVIDER", "straight_line")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, CacheSQL, cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.MQTT.Enabled())
	require.NotNil(t, cfg.Database.SeedOnStart)
	assert.True(t, *cfg.Database.SeedOnStart)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing ors key": `directions: {provider: ors}`,
		"bad provider":    `directions: {provider: google}`,
		"redis no addr":   "directions: {provider: straight_line}\ncache: {backend: redis}",
		"bad cache":       "directions: {provider: straight_line}\ncache: {backend: memcached}",
		"bad level":       "directions: {provider: straight_line}\nlogging: {level: loud}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("ORS_API_KEY", "")
			_, err := Load(writeFile(t, "c.yaml", body))
			assert.Error(t, err)
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load(writeFile(t, "c.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported")
}

func TestGet(t *testing.T) {
	t.Setenv("ROUTEBOARD_TEST_GET", "v")
	assert.Equal(t, "v", Get("ROUTEBOARD_TEST_GET", "fb"))
	assert.Equal(t, "fb", Get("ROUTEBOARD_TEST_UNSET", "fb"))
}

func TestLoadDatabaseSkipsRoutingValidation(t *testing.T) {
	t.Setenv("ORS_API_KEY", "")
	path := writeFile(t, "c.yaml", "database:\n  sqlite_path: tool.db\n  postgres_url: postgres://x\n")

	db, err := LoadDatabase(path)
	require.NoError(t, err)
	assert.Equal(t, "tool.db", db.SqlitePath)
	assert.Equal(t, "postgres://x", db.PostgresURL)
	assert.Equal(t, "data/seeds/routes.json", db.SeedPath)
}
