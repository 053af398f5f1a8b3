package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration.
type Config struct {
	HTTPAddr          string
	GRPCAddr          string
	MySQLDSN          string
	RedisAddr         string
	LogLevel          string
	GeocoderURL       string
	GeocoderUserAgent string
	GeocodeTimeout    time.Duration
	GeocodeRate       float64
	GeocodeCacheTTL   time.Duration
	AutoMigrate       bool
	ShutdownTimeout   time.Duration
}

// LoadDotEnv preloads variables from the given files, .env when none are named.
// Missing files are ignored and variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		GRPCAddr:          getenv("GRPC_ADDR", ":50051"),
		MySQLDSN:          getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/foodshelter?parseTime=true"),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		GeocoderURL:       getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getenv("GEOCODER_USER_AGENT", "food-shelter-dashboard/1.0"),
	}

	var err error
	if cfg.GeocodeTimeout, err = duration("GEOCODE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheTTL, err = duration("GEOCODE_CACHE_TTL", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = duration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeocodeRate, err = float("GEOCODE_RATE", 1); err != nil {
		return nil, err
	}
	if cfg.AutoMigrate, err = boolean("AUTO_MIGRATE", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func float(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s: invalid positive number %q", key, v)
	}
	return f, nil
}

func boolean(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q", key, v)
	}
	return b, nil
}
