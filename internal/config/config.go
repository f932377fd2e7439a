// Package config loads the server configuration from environment
// variables. Command-line flags in cmd/zaloga override these values.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/erazemk/zaloga/internal/storage"
)

// Config holds all application configuration values.
type Config struct {
	// DB is a SQLite path or a postgres:// URL.
	DB   string
	Addr string
	// PublicURL is the externally visible base URL of the server, used to
	// build photo URLs when photos are kept in the database.
	PublicURL string
	Bucket    string
	CameraCmd string
	AdminUser string
	LogPath   string

	// S3-compatible object storage. Photos go to the database when
	// S3Endpoint is empty.
	S3Endpoint   string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	S3PublicURL  string
	S3PublicRead bool
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DB:        envOrDefault("ZALOGA_DB", "zaloga.sqlite3"),
		Addr:      envOrDefault("ZALOGA_ADDR", ":8080"),
		PublicURL: os.Getenv("ZALOGA_PUBLIC_URL"),
		Bucket:    envOrDefault("ZALOGA_BUCKET", storage.DefaultBucket),
		CameraCmd: os.Getenv("ZALOGA_CAMERA_CMD"),
		AdminUser: envOrDefault("ZALOGA_ADMIN", "Admin"),
		LogPath:   os.Getenv("ZALOGA_LOG"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	if v := os.Getenv("S3_PUBLIC_READ"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("S3_PUBLIC_READ: %w", err)
		}
		cfg.S3PublicRead = b
	}

	return cfg, nil
}

// Validate checks values that flags may have changed after Load.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("database path required")
	}
	if c.S3Endpoint != "" && (c.S3AccessKey == "" || c.S3SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set with S3_ENDPOINT")
	}
	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("public URL %q must be absolute", c.PublicURL)
		}
	}
	return nil
}

// UseS3 reports whether photos go to S3 rather than the database.
func (c *Config) UseS3() bool {
	return c.S3Endpoint != ""
}

// S3 returns the S3 bucket settings.
func (c *Config) S3() storage.S3Config {
	return storage.S3Config{
		Endpoint:   c.S3Endpoint,
		Region:     c.S3Region,
		AccessKey:  c.S3AccessKey,
		SecretKey:  c.S3SecretKey,
		Bucket:     c.Bucket,
		PublicURL:  c.S3PublicURL,
		PublicRead: c.S3PublicRead,
	}
}

// BaseURL returns PublicURL, or an http URL derived from Addr.
func (c *Config) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	host := c.Addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
