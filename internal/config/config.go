// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it. Unset keys take the defaults below.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Image store backends.
const (
	ImageStoreLocal = "local"
	ImageStoreS3    = "s3"
)

type Config struct {
	Port              int
	DBPath            string
	JWTSecret         string
	AccessTokenExpiry time.Duration
	AllowedOrigins    []string
	LogLevel          slog.Level
	BcryptCost        int

	ImageStore  string
	UploadDir   string
	MaxUploadMB int
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// Load reads .env (if any) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		DBPath:      get("DB_PATH", "data/recipes.db"),
		JWTSecret:   get("JWT_SECRET_KEY", ""),
		ImageStore:  strings.ToLower(get("IMAGE_STORE", ImageStoreLocal)),
		UploadDir:   get("UPLOAD_DIR", "uploads/recipes"),
		S3Bucket:    get("S3_BUCKET", ""),
		S3Region:    get("S3_REGION", "us-east-1"),
		S3Endpoint:  get("S3_ENDPOINT", ""),
		S3AccessKey: get("S3_ACCESS_KEY", ""),
		S3SecretKey: get("S3_SECRET_KEY", ""),
		S3PublicURL: get("S3_PUBLIC_URL", ""),
	}

	var err error
	if cfg.Port, err = positiveInt("PORT", get("PORT", "8080")); err != nil {
		return nil, err
	}
	if cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}

	minutes, err := positiveInt("ACCESS_TOKEN_EXPIRE_MINUTES", get("ACCESS_TOKEN_EXPIRE_MINUTES", "30"))
	if err != nil {
		return nil, err
	}
	cfg.AccessTokenExpiry = time.Duration(minutes) * time.Minute

	if cfg.MaxUploadMB, err = positiveInt("MAX_UPLOAD_MB", get("MAX_UPLOAD_MB", "5")); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = positiveInt("BCRYPT_COST", get("BCRYPT_COST", "12")); err != nil {
		return nil, err
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("config: BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	for _, origin := range strings.Split(get("ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET_KEY must be at least 16 characters")
	}
	switch c.ImageStore {
	case ImageStoreLocal:
	case ImageStoreS3:
		if c.S3Bucket == "" {
			return errors.New("config: S3_BUCKET is required when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("config: IMAGE_STORE must be %q or %q, got %q", ImageStoreLocal, ImageStoreS3, c.ImageStore)
	}
	return nil
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// String renders the config for logs with secrets redacted.
func (c *Config) String() string {
	return fmt.Sprintf(
		"port=%d db=%s jwt_secret=%s token_expiry=%s origins=%v log_level=%s image_store=%s upload_dir=%s s3_bucket=%s s3_endpoint=%s s3_access_key=%s s3_secret_key=%s",
		c.Port, c.DBPath, redact(c.JWTSecret), c.AccessTokenExpiry, c.AllowedOrigins, c.LogLevel,
		c.ImageStore, c.UploadDir, c.S3Bucket, c.S3Endpoint, redact(c.S3AccessKey), redact(c.S3SecretKey),
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

func positiveInt(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
