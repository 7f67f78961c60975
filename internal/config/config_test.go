package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oh2fk/pskprop/internal/band"
	"github.com/oh2fk/pskprop/internal/types"
)

// clearEnv blanks every variable Load reads so ambient environment and any
// .env file on the test machine cannot leak into the table cases.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NATS_URL", "HOME_LOCATOR", "RADIUS_KM", "AGE_MINUTES", "BANDS",
		"PROJECTION", "HTTP_ADDR", "REDIS_ADDR", "DATABASE_URL",
		"PRUNE_INTERVAL", "STATS_PERSIST_INTERVAL", "LOG_FORMAT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME_LOCATOR", "KP20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nats://nats:4222", cfg.NATSURL)
	assert.Equal(t, "KP20", cfg.HomeLocator)
	assert.Equal(t, 400.0, cfg.RadiusKm)
	assert.Equal(t, 15*time.Minute, cfg.MaxAge)
	assert.Equal(t, band.Names(), cfg.Bands, "default band set is the whole plan")
	assert.Equal(t, types.ProjectionAzimuthal, cfg.Projection)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.PruneInterval)
	assert.Equal(t, 5*time.Minute, cfg.StatsInterval)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME_LOCATOR", "JO99ab")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("RADIUS_KM", "1500.5")
	t.Setenv("AGE_MINUTES", "60")
	t.Setenv("BANDS", "20m, 40m ,10m")
	t.Setenv("PROJECTION", "robinson")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DATABASE_URL", "postgres://pskprop@localhost/pskprop")
	t.Setenv("PRUNE_INTERVAL", "10s")
	t.Setenv("STATS_PERSIST_INTERVAL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, 1500.5, cfg.RadiusKm)
	assert.Equal(t, time.Hour, cfg.MaxAge)
	assert.Equal(t, []string{"20m", "40m", "10m"}, cfg.Bands)
	assert.Equal(t, types.ProjectionRobinson, cfg.Projection)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 10*time.Second, cfg.PruneInterval)
	assert.Equal(t, time.Minute, cfg.StatsInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing home locator", map[string]string{}},
		{"bad home locator", map[string]string{"HOME_LOCATOR": "ZZ99"}},
		{"zero radius", map[string]string{"HOME_LOCATOR": "KP20", "RADIUS_KM": "0"}},
		{"negative radius", map[string]string{"HOME_LOCATOR": "KP20", "RADIUS_KM": "-5"}},
		{"radius not a number", map[string]string{"HOME_LOCATOR": "KP20", "RADIUS_KM": "wide"}},
		{"zero age", map[string]string{"HOME_LOCATOR": "KP20", "AGE_MINUTES": "0"}},
		{"age not an integer", map[string]string{"HOME_LOCATOR": "KP20", "AGE_MINUTES": "15.5"}},
		{"unknown band", map[string]string{"HOME_LOCATOR": "KP20", "BANDS": "20m,hf"}},
		{"bands all blank", map[string]string{"HOME_LOCATOR": "KP20", "BANDS": " , ,"}},
		{"unknown projection", map[string]string{"HOME_LOCATOR": "KP20", "PROJECTION": "globe"}},
		{"bad prune interval", map[string]string{"HOME_LOCATOR": "KP20", "PRUNE_INTERVAL": "soon"}},
		{"negative prune interval", map[string]string{"HOME_LOCATOR": "KP20", "PRUNE_INTERVAL": "-10s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
