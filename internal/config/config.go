package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/oh2fk/pskprop/internal/band"
	"github.com/oh2fk/pskprop/internal/geo"
	"github.com/oh2fk/pskprop/internal/types"
)

// Config holds the daemon configuration.
type Config struct {
	NATSURL     string
	HomeLocator string
	RadiusKm    float64
	MaxAge      time.Duration
	Bands       []string
	Projection  types.ProjectionKind

	HTTPAddr      string
	RedisAddr     string
	DatabaseURL   string
	PruneInterval time.Duration
	StatsInterval time.Duration
	LogFormat     string
	LogLevel      string
}

// Load reads configuration from environment variables and an optional .env
// file. Boot fails on anything malformed; at runtime the same values are
// revalidated per update by the session instead.
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		NATSURL:     envOrDefault("NATS_URL", "nats://nats:4222"),
		HomeLocator: os.Getenv("HOME_LOCATOR"),
		HTTPAddr:    envOrDefault("HTTP_ADDR", ":8080"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogFormat:   envOrDefault("LOG_FORMAT", "text"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.HomeLocator == "" {
		return nil, fmt.Errorf("HOME_LOCATOR environment variable is required")
	}
	if _, err := geo.Decode(cfg.HomeLocator); err != nil {
		return nil, fmt.Errorf("HOME_LOCATOR: %w", err)
	}

	radius, err := parseFloat("RADIUS_KM", 400)
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, fmt.Errorf("RADIUS_KM must be positive, got %v", radius)
	}
	cfg.RadiusKm = radius

	ageMinutes, err := parseInt("AGE_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	if ageMinutes <= 0 {
		return nil, fmt.Errorf("AGE_MINUTES must be positive, got %d", ageMinutes)
	}
	cfg.MaxAge = time.Duration(ageMinutes) * time.Minute

	cfg.Bands = band.Names()
	if raw := os.Getenv("BANDS"); raw != "" {
		var bands []string
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !band.IsValid(name) {
				return nil, fmt.Errorf("BANDS: unknown band %q", name)
			}
			bands = append(bands, name)
		}
		if len(bands) == 0 {
			return nil, fmt.Errorf("BANDS must name at least one band")
		}
		cfg.Bands = bands
	}

	cfg.Projection = types.ProjectionKind(envOrDefault("PROJECTION", string(types.ProjectionAzimuthal)))
	switch cfg.Projection {
	case types.ProjectionMercator, types.ProjectionRobinson, types.ProjectionAzimuthal:
	default:
		return nil, fmt.Errorf("PROJECTION: unknown kind %q", cfg.Projection)
	}

	cfg.PruneInterval, err = parseDuration("PRUNE_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.StatsInterval, err = parseDuration("STATS_PERSIST_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, s)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, s)
	}
	return v, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, s)
	}
	return v, nil
}
