package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Arturia169/my-homepage/internal/livestatus"
)

const DefaultSchemaVersion = "live-api-v2"

var DefaultImageHosts = []string{
	"i0.hdslb.com", "i1.hdslb.com", "i2.hdslb.com", "i3.hdslb.com", "i4.hdslb.com",
	"i5.hdslb.com", "i6.hdslb.com", "i7.hdslb.com", "i8.hdslb.com", "i9.hdslb.com",
	"img.ytimg.com", "i.ytimg.com",
}

type Config struct {
	AppEnv   string
	LogLevel string
	Host     string
	Port     string

	BilibiliRooms []string
	YTChannels    []string
	YTAPIKey      string
	YTMaxResults  int

	PlaceholderKeywords   []string
	PlaceholderCutoffYear int

	UpstreamTimeout time.Duration
	SchemaVersion   string
	ImageHosts      []string

	RedisURL      string
	RedisPassword string
	SnapshotTTL   time.Duration

	DatabaseURL string

	// Warnings collects values that were present but unusable and replaced by
	// their defaults.
	Warnings []string
}

// LoadEnvFile loads .env (if present) or ENV_FILE with override. Real
// environment variables win over .env.
func LoadEnvFile() {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			log.Printf("env: failed to load ENV_FILE=%q: %v", envFile, err)
		} else {
			log.Printf("env: loaded %s", envFile)
		}
		return
	}
	if err := godotenv.Load(); err == nil {
		log.Printf("env: loaded .env")
	}
}

// Load reads the process environment. It never fails on a bad optional value;
// see Validate.
func Load() *Config {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Host:     getEnv("HOST", "127.0.0.1"),
		Port:     getEnv("PORT", "8788"),

		BilibiliRooms: ParseList(os.Getenv("BILIBILI_ROOMS")),
		YTChannels:    ParseList(os.Getenv("YT_CHANNELS")),
		YTAPIKey:      strings.TrimSpace(os.Getenv("YT_API_KEY")),

		SchemaVersion: getEnv("SCHEMA_VERSION", DefaultSchemaVersion),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
	}

	cfg.YTMaxResults = cfg.getInt("YT_MAX_RESULTS", 10)
	cfg.PlaceholderCutoffYear = cfg.getInt("PLACEHOLDER_CUTOFF_YEAR", livestatus.DefaultCutoffYear)
	cfg.UpstreamTimeout = cfg.getDuration("UPSTREAM_TIMEOUT", 5*time.Second)
	cfg.SnapshotTTL = cfg.getDuration("SNAPSHOT_TTL", 10*time.Minute)

	cfg.PlaceholderKeywords = ParseList(os.Getenv("PLACEHOLDER_KEYWORDS"))
	if len(cfg.PlaceholderKeywords) == 0 {
		cfg.PlaceholderKeywords = append([]string(nil), livestatus.DefaultPlaceholderKeywords...)
	}
	cfg.ImageHosts = ParseList(os.Getenv("IMG_ALLOWED_HOSTS"))
	if len(cfg.ImageHosts) == 0 {
		cfg.ImageHosts = append([]string(nil), DefaultImageHosts...)
	}
	return cfg
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(c.Port)
	if err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("config: invalid PORT %q", c.Port)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("config: UPSTREAM_TIMEOUT must be positive")
	}
	if c.YTMaxResults <= 0 || c.YTMaxResults > 50 {
		return fmt.Errorf("config: YT_MAX_RESULTS must be between 1 and 50, got %d", c.YTMaxResults)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) Targets() livestatus.Targets {
	return livestatus.Targets{
		Rooms:    append([]string(nil), c.BilibiliRooms...),
		Channels: append([]string(nil), c.YTChannels...),
	}
}

// ParseList splits a comma separated value, trimming items and dropping empties.
func ParseList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s=%q, using %d", key, v, def))
		return def
	}
	return i
}

func (c *Config) getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s=%q, using %s", key, v, def))
		return def
	}
	return d
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
