package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	JWTSecret     string
	JWTIssuer     string
	SyncRateLimit string // ulule/limiter formatted rate, e.g. "10-M"

	// Realtime channel tuning
	ChannelWriteTimeout time.Duration
	ChannelPongTimeout  time.Duration

	// Device mirror queue tuning (used by the embedded device engine in tests
	// and by any binary wiring the device packages against this server)
	MirrorBaseBackoff time.Duration
	MirrorMaxBackoff  time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "trade-keeper-app")
	viper.SetDefault("SYNC_RATE_LIMIT", "10-M")
	viper.SetDefault("CHANNEL_WRITE_TIMEOUT", "10s")
	viper.SetDefault("CHANNEL_PONG_TIMEOUT", "60s")
	viper.SetDefault("MIRROR_BASE_BACKOFF", "500ms")
	viper.SetDefault("MIRROR_MAX_BACKOFF", "30s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	cfg.SyncRateLimit = viper.GetString("SYNC_RATE_LIMIT")

	cfg.ChannelWriteTimeout = parseDurationOr("CHANNEL_WRITE_TIMEOUT", 10*time.Second)
	cfg.ChannelPongTimeout = parseDurationOr("CHANNEL_PONG_TIMEOUT", 60*time.Second)
	cfg.MirrorBaseBackoff = parseDurationOr("MIRROR_BASE_BACKOFF", 500*time.Millisecond)
	cfg.MirrorMaxBackoff = parseDurationOr("MIRROR_MAX_BACKOFF", 30*time.Second)

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
