package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the training tracker API.
type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	Location *time.Location

	// PublicURL prefixes links handed to external clients such as calendar apps.
	PublicURL   string
	CORSOrigins string

	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string

	SessionTTL        time.Duration
	SessionCookieName string
	SessionSecure     bool

	FeedSecret string
	FeedTTL    time.Duration

	StorageDriver       string
	StorageDir          string
	StoragePublicPrefix string
	MaxUploadBytes      int64

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	NATSURL     string
	NATSSubject string

	StatsCacheTTL time.Duration

	AuthRateLimitMax    int
	AuthRateLimitWindow time.Duration

	SeedEnabled bool
	SeedToken   string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TRAINING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Training Manager")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.cookie_name", "training_session")
	v.SetDefault("feed.ttl", "8760h")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.public_prefix", "/uploads")
	v.SetDefault("storage.max_size_mb", 10)
	v.SetDefault("cloudinary.folder", "training/certificates")
	v.SetDefault("nats.subject", "training.activity")
	v.SetDefault("stats.cache_ttl", "1m")
	v.SetDefault("ratelimit.auth_max", 10)
	v.SetDefault("ratelimit.auth_window", "1m")

	sessionTTL, err := parseDuration(v, "session.ttl")
	if err != nil {
		return Config{}, err
	}
	feedTTL, err := parseDuration(v, "feed.ttl")
	if err != nil {
		return Config{}, err
	}
	statsTTL, err := parseDuration(v, "stats.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	authWindow, err := parseDuration(v, "ratelimit.auth_window")
	if err != nil {
		return Config{}, err
	}

	location, err := time.LoadLocation(v.GetString("app.timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid app timezone: %w", err)
	}

	maxSizeMB := v.GetInt64("storage.max_size_mb")
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		Location:               location,
		PublicURL:              strings.TrimRight(v.GetString("app.public_url"), "/"),
		CORSOrigins:            v.GetString("cors.origins"),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		SessionTTL:             sessionTTL,
		SessionCookieName:      v.GetString("session.cookie_name"),
		SessionSecure:          v.GetBool("session.secure"),
		FeedSecret:             v.GetString("feed.secret"),
		FeedTTL:                feedTTL,
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		StorageDir:             v.GetString("storage.dir"),
		StoragePublicPrefix:    v.GetString("storage.public_prefix"),
		MaxUploadBytes:         maxSizeMB * 1024 * 1024,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		StatsCacheTTL:          statsTTL,
		AuthRateLimitMax:       v.GetInt("ratelimit.auth_max"),
		AuthRateLimitWindow:    authWindow,
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		BootstrapAdminEmail:    v.GetString("bootstrap.admin_email"),
		BootstrapAdminPassword: v.GetString("bootstrap.admin_password"),
	}

	if cfg.FeedSecret == "" {
		return Config{}, fmt.Errorf("feed secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	switch cfg.StorageDriver {
	case "local":
	case "cloudinary":
		if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
			return Config{}, fmt.Errorf("cloudinary credentials must be provided for the cloudinary storage driver")
		}
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.SeedEnabled && cfg.SeedToken == "" {
		return Config{}, fmt.Errorf("seed token must be provided when seeding is enabled")
	}

	if cfg.AuthRateLimitMax <= 0 {
		cfg.AuthRateLimitMax = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
