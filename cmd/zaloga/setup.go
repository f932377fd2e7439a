package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/url"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/storage"
	"github.com/erazemk/zaloga/internal/store"
)

// openDatabase opens and migrates the database. On first run it creates
// the admin account and prints its password to out.
func openDatabase(ctx context.Context, cfg *config.Config, out io.Writer) (*db.DB, error) {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	users, err := store.ListUsers(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	if len(users) == 0 {
		password, err := createAdmin(ctx, database, cfg.AdminUser)
		if err != nil {
			database.Close()
			return nil, err
		}
		printInitResult(out, cfg.AdminUser, password)
	}

	slog.Debug("database ready", "db", redactDSN(cfg.DB))
	return database, nil
}

// createAdmin creates the first admin user with a random password.
func createAdmin(ctx context.Context, database *db.DB, username string) (string, error) {
	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := store.CreateUser(ctx, database, username, string(hash), model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

// printInitResult prints the admin account created on first run.
func printInitResult(out io.Writer, username, password string) {
	fmt.Fprintln(out, "Admin account created:")
	fmt.Fprintf(out, "  Username: %s\n", username)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this password, it cannot be recovered.")
	fmt.Fprintln(out, "The admin can change it after logging in.")
	fmt.Fprintln(out)
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// openBucket returns the S3 bucket when one is configured and the
// database-backed bucket otherwise.
func openBucket(cfg *config.Config, database *db.DB) (storage.Bucket, error) {
	if cfg.UseS3() {
		bucket, err := storage.NewS3(cfg.S3())
		if err != nil {
			return nil, fmt.Errorf("configuring S3: %w", err)
		}
		slog.Debug("photos stored in S3", "endpoint", cfg.S3Endpoint, "bucket", cfg.Bucket)
		return bucket, nil
	}
	return storage.NewTable(database, cfg.Bucket, cfg.BaseURL()), nil
}

// redactDSN hides the password of a postgres URL.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
