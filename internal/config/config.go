package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server       ServerConfig
	MongoDB      MongoDBConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	RateLimit    RateLimitConfig
	Verification VerificationConfig
	MinIO        MinIOConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
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

// IdentityConfig selects how bearer tokens are verified. FirebaseProjectID
// derives the OIDC issuer/audience; Issuer/ClientID override it for other
// providers. JWTSecret enables the HS256 development verifier.
type IdentityConfig struct {
	FirebaseProjectID  string
	Issuer             string
	ClientID           string
	JWTSecret          string
	AllowInsecureToken bool
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type VerificationConfig struct {
	PublicURL string
	TokenTTL  time.Duration
}

type MinIOConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	Bucket         string
	MaxUploadBytes int64
}

// OIDCIssuer returns the issuer URL tokens must be signed by, or "" when none is configured.
func (c IdentityConfig) OIDCIssuer() string {
	if c.Issuer != "" {
		return strings.TrimRight(c.Issuer, "/")
	}
	if c.FirebaseProjectID != "" {
		return "https://securetoken.google.com/" + c.FirebaseProjectID
	}
	return ""
}

// Audience returns the expected aud claim.
func (c IdentityConfig) Audience() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return c.FirebaseProjectID
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("MONGODB_DATABASE", "devblog")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("APP_PUBLIC_URL", "http://localhost:5000")
	v.SetDefault("EMAIL_VERIFICATION_TTL", 1440)
	v.SetDefault("MINIO_BUCKET", "devblog")
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Identity: IdentityConfig{
			FirebaseProjectID:  v.GetString("FIREBASE_PROJECT_ID"),
			Issuer:             v.GetString("OIDC_ISSUER"),
			ClientID:           v.GetString("OIDC_CLIENT_ID"),
			JWTSecret:          v.GetString("JWT_SECRET"),
			AllowInsecureToken: v.GetBool("ALLOW_INSECURE_TOKEN"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Verification: VerificationConfig{
			PublicURL: strings.TrimRight(v.GetString("APP_PUBLIC_URL"), "/"),
			TokenTTL:  time.Duration(v.GetInt("EMAIL_VERIFICATION_TTL")) * time.Minute,
		},
		MinIO: MinIOConfig{
			Endpoint:       v.GetString("MINIO_ENDPOINT"),
			AccessKey:      v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:      v.GetString("MINIO_SECRET_KEY"),
			UseSSL:         v.GetBool("MINIO_USE_SSL"),
			Bucket:         v.GetString("MINIO_BUCKET"),
			MaxUploadBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Environment == "production" {
		if c.Identity.AllowInsecureToken {
			return fmt.Errorf("ALLOW_INSECURE_TOKEN must not be set in production")
		}
		if c.Identity.OIDCIssuer() == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID or OIDC_ISSUER is required in production")
		}
	}
	if c.Verification.TokenTTL <= 0 {
		return fmt.Errorf("EMAIL_VERIFICATION_TTL must be positive")
	}
	return nil
}
