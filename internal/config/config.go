package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseURL string

	// Redis (optional, backs the webhook rate limiter)
	RedisURL string

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// AdminEmails are promoted to admin on login (comma-separated)
	AdminEmails string

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Dispatcher (external generation worker)
	DispatcherURL   string        // Base URL of the worker, e.g. "https://worker.example.com"
	PluginToken     string        // Shared secret, sent and expected as X-Plugin-Token
	DispatchTimeout time.Duration // Timeout on the outbound dispatch call
	CallbackURL     string        // Public URL the worker posts results to
	ProbeInterval   time.Duration // How often the reachability probe pings the worker

	// Generation defaults file (YAML, optional)
	GenerationConfigFile string

	// Email (SMTP) notifications
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	baseURL := getEnv("BASE_URL", "http://localhost:3000")

	return &Config{
		Env:              getEnv("ENV", "development"),
		ServerAddr:       getEnv("SERVER_ADDR", ":3000"),
		BaseURL:          baseURL,
		DatabaseURL:      getEnv("DATABASE_URL", "postgres://localhost:5432/briefdesk?sslmode=disable"),
		RedisURL:         getEnv("REDIS_URL", ""),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", baseURL+"/auth/callback"),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		AdminEmails:      getEnv("ADMIN_EMAILS", ""),
		CORSOrigins:      getEnv("CORS_ORIGINS", ""),

		DispatcherURL:   getEnv("DISPATCHER_URL", ""),
		PluginToken:     getEnv("PLUGIN_SECRET_TOKEN", ""),
		DispatchTimeout: getDuration("DISPATCH_TIMEOUT", 10*time.Second),
		CallbackURL:     getEnv("CALLBACK_URL", baseURL+"/webhook/generation-callback"),
		ProbeInterval:   getDuration("DISPATCHER_PROBE_INTERVAL", 5*time.Minute),

		GenerationConfigFile: getEnv("GENERATION_CONFIG_FILE", "generation.yaml"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Briefdesk"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true when SMTP is fully configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsDispatchConfigured returns true when outbound generation is possible.
func (c *Config) IsDispatchConfigured() bool {
	return c.DispatcherURL != "" && c.PluginToken != ""
}

// IsAdminEmail reports whether the email is on the admin bootstrap list.
func (c *Config) IsAdminEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, admin := range strings.Split(c.AdminEmails, ",") {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return true
		}
	}
	return false
}

// AllowedOrigins returns the CORS origin list, defaulting to the base URL.
func (c *Config) AllowedOrigins() []string {
	origins := c.BaseURL
	if c.CORSOrigins != "" {
		origins = c.CORSOrigins
	}
	return strings.Split(origins, ",")
}
