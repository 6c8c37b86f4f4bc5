// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds everything the server process needs at startup.
type Config struct {
	// Addr is the listen address for the HTTP and websocket server.
	Addr string
	// DatabaseURL enables match-history persistence when set.
	DatabaseURL string
	// RedisURL enables the action log when set.
	RedisURL string
	// RoomSweepInterval is how often the stale-room sweep runs.
	RoomSweepInterval time.Duration
	// RoomMaxIdle is how long a room may sit idle before the sweep
	// deletes it.
	RoomMaxIdle time.Duration
	// LogLevel is a logrus level name, defaulting to info.
	LogLevel string
}

// Load reads .env if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		logrus.Info("Loaded environment from .env")
	}

	return Config{
		Addr:              ":" + getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RoomSweepInterval: getDuration("ROOM_SWEEP_INTERVAL", 5*time.Minute),
		RoomMaxIdle:       getDuration("ROOM_MAX_IDLE", 30*time.Minute),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.Warnf("invalid duration for %s: %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
