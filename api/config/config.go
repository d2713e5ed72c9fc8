package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the global application configuration
var AppConfig *Config

// Config holds the application configuration
type Config struct {
	DatabaseURL     string
	StripeSecretKey string
	// Admin backend that issues payment intents and owns user records
	BackendBaseURL   string
	BackendAuthToken string
	// Route the UI navigates to after a successful payment
	DashboardRoute string
	// How long a checkout session stays alive after it started, regardless of activity (Go duration string)
	SessionTTL string
	// Optional: base URL for running remote HTTP integration tests (e.g., https://api.example.com)
	IntegrationBaseURL string
	// Server port
	HTTPPort string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{}

	// Try to load .env file from current directory and parent directories
	currentDir, _ := os.Getwd()
	for currentDir != "/" {
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			err = godotenv.Load(envPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load .env file: %v", err)
			}
			break
		}
		currentDir = filepath.Dir(currentDir)
	}

	vars := []struct {
		name     string
		envVar   string
		display  string
		required bool
	}{
		{"DatabaseURL", "DATABASE_URL", "Database URL", true},
		{"StripeSecretKey", "STRIPE_SECRET_KEY", "Stripe Secret Key", true},
		{"BackendBaseURL", "BACKEND_BASE_URL", "Backend Base URL", true},
		{"BackendAuthToken", "BACKEND_AUTH_TOKEN", "Backend Auth Token", false},
		{"DashboardRoute", "DASHBOARD_ROUTE", "Dashboard Route", false},
		{"SessionTTL", "SESSION_TTL", "Session TTL", false},
		{"IntegrationBaseURL", "INTEGRATION_BASE_URL", "Integration Base URL", false},
		{"HTTPPort", "PORT", "HTTP Port", false},
	}

	for _, v := range vars {
		value := os.Getenv(v.envVar)
		if v.required && value == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", v.display)
		}
		configField := reflect.ValueOf(config).Elem().FieldByName(v.name)
		configField.SetString(value)
	}

	// Defaults
	if config.HTTPPort == "" {
		config.HTTPPort = "8080"
	}
	if config.DashboardRoute == "" {
		config.DashboardRoute = DefaultDashboardRoute
	}
	if config.SessionTTL == "" {
		config.SessionTTL = DefaultSessionTTL.String()
	}
	if _, err := time.ParseDuration(config.SessionTTL); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL %q: %v", config.SessionTTL, err)
	}

	return config, nil
}

// SessionTTLDuration returns the parsed session TTL, falling back to the default.
func (c *Config) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return DefaultSessionTTL
	}
	return d
}
