package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Summarizer SummarizerConfig
	Archive    ArchiveConfig
	Trigger    TriggerConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// HS256 secret for locally issued tokens; OIDC wins when configured.
	JWTSecret      string
	AccessTokenTTL time.Duration
	OIDCIssuer     string
	OIDCClientID   string
}

type SummarizerConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type TriggerConfig struct {
	Enabled  bool
	Interval time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5020")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "standupdoc")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("SUMMARIZER_MODEL", "gpt-4o-mini")
	viper.SetDefault("SUMMARIZER_TIMEOUT", 30)
	viper.SetDefault("ARCHIVE_BUCKET", "standup-snapshots")
	viper.SetDefault("TRIGGER_INTERVAL", 60)
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			OIDCIssuer:     viper.GetString("OIDC_ISSUER"),
			OIDCClientID:   viper.GetString("OIDC_CLIENT_ID"),
		},
		Summarizer: SummarizerConfig{
			Endpoint: viper.GetString("SUMMARIZER_ENDPOINT"),
			APIKey:   os.Getenv("SUMMARIZER_API_KEY"),
			Model:    viper.GetString("SUMMARIZER_MODEL"),
			Timeout:  time.Duration(viper.GetInt("SUMMARIZER_TIMEOUT")) * time.Second,
		},
		Archive: ArchiveConfig{
			Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
			AccessKey: os.Getenv("ARCHIVE_ACCESS_KEY"),
			SecretKey: os.Getenv("ARCHIVE_SECRET_KEY"),
			Bucket:    viper.GetString("ARCHIVE_BUCKET"),
			UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
		},
		Trigger: TriggerConfig{
			Enabled:  viper.GetBool("TRIGGER_ENABLED"),
			Interval: time.Duration(viper.GetInt("TRIGGER_INTERVAL")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if cfg.Auth.JWTSecret == "" && cfg.Auth.OIDCIssuer == "" {
		log.Println("WARNING: neither JWT_SECRET nor OIDC_ISSUER is set; API auth is disabled")
	}

	return cfg, nil
}
