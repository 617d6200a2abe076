package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the Foyer services.
type Config struct {
	Environment    string
	HTTPPort       int
	DatabaseURL    string
	DataStore      string
	LogLevel       string
	AllowedOrigins []string

	// IdentityURL is the base URL of the hosted identity deployment that
	// owns all credentials and sessions.
	IdentityURL    string
	IdentityAPIKey string
	WebhookSecret  string

	// SiteURL is this application's public base URL, used for SSO
	// redirects and absolute links.
	SiteURL string

	SSOClientID     string
	SSOClientSecret string

	SessionTTL            time.Duration
	SessionCheckTimeout   time.Duration
	StreamRefreshInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	identityAPIKey, err := getEnvOrFile("IDENTITY_API_KEY", "/run/secrets/foyer_identity_api_key")
	if err != nil {
		return Config{}, err
	}

	webhookSecret, err := getEnvOrFile("WEBHOOK_SECRET", "/run/secrets/foyer_webhook_secret")
	if err != nil {
		return Config{}, err
	}

	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/foyer_database_url")
	if err != nil {
		return Config{}, err
	}

	ssoClientSecret, err := getEnvOrFile("SSO_CLIENT_SECRET", "/run/secrets/foyer_sso_client_secret")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:     getEnv("APP_ENV", "development"),
		DatabaseURL:     databaseURL,
		DataStore:       strings.ToLower(getEnv("DATA_STORE", "memory")),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins:  parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:4200,http://localhost:8080")),
		IdentityURL:     strings.TrimSuffix(strings.TrimSpace(os.Getenv("IDENTITY_URL")), "/"),
		IdentityAPIKey:  strings.TrimSpace(identityAPIKey),
		WebhookSecret:   strings.TrimSpace(webhookSecret),
		SiteURL:         strings.TrimSuffix(strings.TrimSpace(os.Getenv("SITE_URL")), "/"),
		SSOClientID:     strings.TrimSpace(os.Getenv("SSO_CLIENT_ID")),
		SSOClientSecret: strings.TrimSpace(ssoClientSecret),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	cfg.SessionTTL, err = getDuration("SESSION_TTL", 12*time.Hour)
	if err != nil {
		return Config{}, err
	}

	cfg.SessionCheckTimeout, err = getDuration("SESSION_CHECK_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg.StreamRefreshInterval, err = getDuration("STREAM_REFRESH_INTERVAL", 60*time.Second)
	if err != nil {
		return Config{}, err
	}

	// The identity deployment and the site base URL have no usable
	// defaults; refusing to boot beats limping along without them.
	if cfg.IdentityURL == "" {
		return Config{}, fmt.Errorf("IDENTITY_URL is required")
	}
	if cfg.SiteURL == "" {
		return Config{}, fmt.Errorf("SITE_URL is required")
	}

	if cfg.DataStore == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATA_STORE is postgres but DATABASE_URL is not set")
	}

	if cfg.SSOClientID != "" && cfg.SSOClientSecret == "" {
		return Config{}, fmt.Errorf("SSO_CLIENT_ID is set but SSO_CLIENT_SECRET is not")
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory repository should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

// SSOEnabled reports whether the hosted-page sign-in flow is configured.
func (c Config) SSOEnabled() bool {
	return c.SSOClientID != "" && c.SSOClientSecret != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return d, nil
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
