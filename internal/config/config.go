package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	AllowedRooms []string

	EgressMode   string
	EgressDryRun bool

	StatsBackend  string
	StatsFile     string
	RedisURL      string
	StatsRedisKey string
	DatabaseURL   string

	MessagesDir string
}

// Load reads the process environment. Required: IRIS_BASE_URL, IRIS_WS_URL,
// BOT_PREFIX, plus the connection string of the selected stats backend.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:    "http",
		StatsBackend:  "file",
		StatsFile:     "data.json",
		StatsRedisKey: "rps:stats",
	}

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	cfg.BotPrefix = env("BOT_PREFIX")

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	cfg.AllowedRooms = splitList(env("ALLOWED_ROOMS"))

	if v := strings.ToLower(env("EGRESS_MODE")); v != "" {
		cfg.EgressMode = v
	}
	if v := env("EGRESS_DRYRUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EgressDryRun = b
		}
	}

	if v := strings.ToLower(env("STATS_BACKEND")); v != "" {
		cfg.StatsBackend = v
	}
	if v := env("STATS_FILE"); v != "" {
		cfg.StatsFile = v
	}
	cfg.RedisURL = env("REDIS_URL")
	if v := env("STATS_REDIS_KEY"); v != "" {
		cfg.StatsRedisKey = v
	}
	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.MessagesDir = env("MESSAGES_DIR")

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	switch cfg.EgressMode {
	case "http", "ws", "auto":
	default:
		return nil, fmt.Errorf("EGRESS_MODE %q: want http, ws or auto", cfg.EgressMode)
	}
	switch cfg.StatsBackend {
	case "file":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for STATS_BACKEND=redis")
		}
	case "postgres", "postgresql", "pg":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for STATS_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("STATS_BACKEND %q: want file, redis or postgres", cfg.StatsBackend)
	}

	return cfg, nil
}

// IrisHeaders returns the X-User-* headers sent to Iris on HTTP and the WS
// handshake. Empty values are skipped by the transport.
func (c *AppConfig) IrisHeaders() map[string]string {
	return map[string]string{
		"X-User-Id":    c.XUserID,
		"X-User-Email": c.XUserEmail,
		"X-Session-Id": c.XSessionID,
	}
}

// RoomAllowed reports whether room may use the bot. No allow-list means all rooms.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
