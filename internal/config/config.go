package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/DoyleJ11/domainguessr-backend/internal/obslog"
)

// ServerConfig drives cmd/server. Empty RedisURL or DatabaseURL selects the
// in-memory store for that concern.
type ServerConfig struct {
	Addr        string
	RedisURL    string
	DatabaseURL string

	LobbyTTL         time.Duration
	LeaderboardLimit int
	ShutdownTimeout  time.Duration

	Log obslog.Options
}

// Load reads .env files (if present) and then the environment. Variables
// already set in the environment win over .env values.
func Load(envFiles ...string) (*ServerConfig, error) {
	if err := loadDotenv(envFiles...); err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		Addr:             ":8080",
		LobbyTTL:         24 * time.Hour,
		LeaderboardLimit: 10,
		ShutdownTimeout:  10 * time.Second,
		Log:              obslog.OptionsFromEnv(),
	}

	if v := strings.TrimSpace(os.Getenv("ADDR")); v != "" {
		cfg.Addr = v
	} else if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Addr = ":" + v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	var err error
	if cfg.LobbyTTL, err = durationEnv("LOBBY_TTL", cfg.LobbyTTL); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("LEADERBOARD_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("LEADERBOARD_LIMIT must be a positive integer, got %q", v)
		}
		cfg.LeaderboardLimit = n
	}

	return cfg, nil
}

func loadDotenv(files ...string) error {
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

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
