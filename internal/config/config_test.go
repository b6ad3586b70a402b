package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory so no stray .env or
// config.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, StoreMemory, c.Store.Driver)
	assert.Equal(t, DevAuthSecret, c.Auth.Secret)
	assert.Equal(t, domain.DefaultLimits(), c.Limits.Domain())
	assert.Empty(t, c.Kafka.Brokers)
	assert.Empty(t, c.EnvFile)

	settings, err := c.Settings()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("EVENTVEX_STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://db/eventvex")
	t.Setenv("EVENTVEX_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("EVENTVEX_LIMITS_REFUND_WINDOW", "48h")
	t.Setenv("EVENTVEX_FEES_PLATFORM_BPS", "100")
	t.Setenv("EVENTVEX_ACCESS_ADMINS", "0xad00000000000000000000000000000000000001")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.CORSOrigins)
	assert.Equal(t, StorePostgres, c.Store.Driver)
	assert.Equal(t, "postgres://db/eventvex", c.Database.URL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 48*time.Hour, c.Limits.RefundWindow)
	assert.Equal(t, 100, c.Fees.PlatformBps)

	grants, err := c.Access.Grants()
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "admin", grants[0].Role)
}

func TestLoad_PrefixedNameBeatsNothing(t *testing.T) {
	isolate(t)
	t.Setenv("EVENTVEX_SERVER_PORT", "7070")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7070", c.Server.Port)
}

func TestLoad_YAMLAndDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
server:
  port: "8181"
log:
  level: debug
  format: json
relay:
  batch: 25
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EVENTVEX_AUTH_SECRET=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("EVENTVEX_AUTH_SECRET") })

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8181", c.Server.Port)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, 25, c.Relay.Batch)
	assert.Equal(t, "from-dotenv", c.Auth.Secret)
	assert.Equal(t, filepath.Join(dir, ".env"), c.EnvFile)

	logger, err := c.Log.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, "debug", logger.GetLevel().String())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown store", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Store.Driver = StorePostgres; c.Database.URL = "" }},
		{"empty secret", func(c *Config) { c.Auth.Secret = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"fee above ceiling", func(c *Config) { c.Fees.MarketplaceBps = 1001 }},
		{"zero recipient", func(c *Config) { c.Fees.Recipient = domain.ZeroAddress.String() }},
		{"bad organizer address", func(c *Config) { c.Access.Organizers = []string{"0xabc"} }},
		{"no relay batch", func(c *Config) { c.Relay.Batch = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}
