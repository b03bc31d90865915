package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration for the lookup service.
type Server struct {
	Addr     string
	LogLevel string

	// Directory is the base URL of the participant directory.
	Directory string
	// SMP is the base URL of the capability (service metadata) endpoints.
	SMP string

	// RemoteTimeout bounds every single directory or capability call.
	RemoteTimeout time.Duration
	// CapabilityWorkers bounds parallel capability checks per request.
	CapabilityWorkers int
	// CapabilityGrace is how long a request waits for in-flight capability
	// checks before proceeding with whatever completed.
	CapabilityGrace time.Duration

	Cache CacheConfig
	Redis RedisConfig
}

// CacheConfig controls the capability cache.
type CacheConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// RedisConfig selects the optional Redis cache backend. An empty URL keeps
// the in-memory backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:              envString("LOCATOR_ADDR", ":8080"),
		LogLevel:          envString("LOCATOR_LOG_LEVEL", "info"),
		Directory:         envString("LOCATOR_DIRECTORY_URL", "http://localhost:8090"),
		SMP:               envString("LOCATOR_SMP_URL", "http://localhost:8091"),
		RemoteTimeout:     envDuration("LOCATOR_REMOTE_TIMEOUT", 5*time.Second),
		CapabilityWorkers: envInt("LOCATOR_CAPABILITY_WORKERS", 4),
		CapabilityGrace:   envDuration("LOCATOR_CAPABILITY_GRACE", 10*time.Second),
		Cache: CacheConfig{
			TTL:           envDuration("LOCATOR_CACHE_TTL", 2*time.Hour),
			SweepInterval: envDuration("LOCATOR_CACHE_SWEEP_INTERVAL", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("LOCATOR_REDIS_URL"),
			PoolSize:     envInt("LOCATOR_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("LOCATOR_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("LOCATOR_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("LOCATOR_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("LOCATOR_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
