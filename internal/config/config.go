// Package config loads application configuration from an optional YAML file
// and environment variables. Environment variables win over file values.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr string
	DBPath     string

	// SecretKey is the 32-byte AES-256 key for encrypting stored passwords
	// and personal fields. Nil when CREDSYNC_SECRET_KEY is unset; writes to
	// the record store fail until a key is configured.
	SecretKey []byte

	IdentityBaseURL       string
	IdentityAdminEmail    string
	IdentityAdminPassword string

	AdminAPIBaseURL string
	AdminAPITimeout time.Duration

	// EmailDomain is appended to generated usernames to form identity
	// service account emails.
	EmailDomain string

	// ProtectedAccountEmail is the account the remote cleanup must never
	// delete, normally the admin account used for provisioning.
	ProtectedAccountEmail string
}

// HasIdentityCredentials returns true when the admin email and password are
// both set. The composition root signs in at startup only when this holds;
// otherwise sync requests fail until credentials are provided.
func (c *Config) HasIdentityCredentials() bool {
	return c.IdentityAdminEmail != "" && c.IdentityAdminPassword != ""
}

// fileConfig mirrors Config for the optional YAML file. The secret key is a
// hex string in the file, same encoding as the environment variable.
type fileConfig struct {
	ListenAddr            string `yaml:"listen_addr"`
	DBPath                string `yaml:"db_path"`
	SecretKey             string `yaml:"secret_key"`
	IdentityBaseURL       string `yaml:"identity_base_url"`
	IdentityAdminEmail    string `yaml:"identity_admin_email"`
	IdentityAdminPassword string `yaml:"identity_admin_password"`
	AdminAPIBaseURL       string `yaml:"admin_api_base_url"`
	AdminAPITimeout       string `yaml:"admin_api_timeout"`
	EmailDomain           string `yaml:"email_domain"`
	ProtectedAccountEmail string `yaml:"protected_account_email"`
}

// Load reads configuration, layering environment variables over the YAML
// file named by CREDSYNC_CONFIG_FILE (if set). Required:
// CREDSYNC_IDENTITY_BASE_URL, CREDSYNC_ADMIN_API_BASE_URL and
// CREDSYNC_EMAIL_DOMAIN. Optional with defaults: CREDSYNC_LISTEN_ADDR
// (127.0.0.1:8080), CREDSYNC_DB_PATH (credsync.db),
// CREDSYNC_ADMIN_API_TIMEOUT (30s).
func Load() (*Config, error) {
	var file fileConfig
	if path, ok := os.LookupEnv("CREDSYNC_CONFIG_FILE"); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read CREDSYNC_CONFIG_FILE: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse CREDSYNC_CONFIG_FILE %s: %w", path, err)
		}
	}

	cfg := &Config{
		ListenAddr:            layered("CREDSYNC_LISTEN_ADDR", file.ListenAddr, "127.0.0.1:8080"),
		DBPath:                layered("CREDSYNC_DB_PATH", file.DBPath, "credsync.db"),
		IdentityBaseURL:       layered("CREDSYNC_IDENTITY_BASE_URL", file.IdentityBaseURL, ""),
		IdentityAdminEmail:    layered("CREDSYNC_IDENTITY_ADMIN_EMAIL", file.IdentityAdminEmail, ""),
		IdentityAdminPassword: layered("CREDSYNC_IDENTITY_ADMIN_PASSWORD", file.IdentityAdminPassword, ""),
		AdminAPIBaseURL:       layered("CREDSYNC_ADMIN_API_BASE_URL", file.AdminAPIBaseURL, ""),
		EmailDomain:           layered("CREDSYNC_EMAIL_DOMAIN", file.EmailDomain, ""),
		ProtectedAccountEmail: layered("CREDSYNC_PROTECTED_ACCOUNT_EMAIL", file.ProtectedAccountEmail, ""),
	}

	if cfg.IdentityBaseURL == "" {
		return nil, fmt.Errorf("CREDSYNC_IDENTITY_BASE_URL is required")
	}
	if cfg.AdminAPIBaseURL == "" {
		return nil, fmt.Errorf("CREDSYNC_ADMIN_API_BASE_URL is required")
	}
	if cfg.EmailDomain == "" {
		return nil, fmt.Errorf("CREDSYNC_EMAIL_DOMAIN is required")
	}

	timeoutRaw := layered("CREDSYNC_ADMIN_API_TIMEOUT", file.AdminAPITimeout, "30s")
	timeout, err := time.ParseDuration(timeoutRaw)
	if err != nil {
		return nil, fmt.Errorf("CREDSYNC_ADMIN_API_TIMEOUT has invalid duration %q: %w", timeoutRaw, err)
	}
	cfg.AdminAPITimeout = timeout

	if keyHex := layered("CREDSYNC_SECRET_KEY", file.SecretKey, ""); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("CREDSYNC_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("CREDSYNC_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	return cfg, nil
}

// layered resolves one setting: environment variable, then file value, then
// default.
func layered(envKey, fileValue, fallback string) string {
	if v, ok := os.LookupEnv(envKey); ok {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return fallback
}
