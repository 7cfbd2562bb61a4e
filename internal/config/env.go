package config

import (
	"os"
	"strings"
	"time"
)

// Config holds the process settings read from the environment.
type Config struct {
	Port           string
	BakeryAPIURL   string
	IdentityAPIURL string
	IdentityAPIKey string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ImageProvider  string
	SessionSecret  string
	SessionTTL     time.Duration
	JournalDSN     string
	AllowedOrigins []string
	LogLevel       string
	AppConfigPath  string
	PublicConfig   string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		BakeryAPIURL:   getEnv("BAKERY_API_URL", "http://localhost:8081"),
		IdentityAPIURL: getEnv("IDENTITY_API_URL", ""),
		IdentityAPIKey: getEnv("IDENTITY_API_KEY", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		ImageProvider:  getEnv("IMAGE_PROVIDER", "openai"),
		SessionSecret:  getEnv("SESSION_SECRET", "dev-secret-change-me"),
		SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour),
		JournalDSN:     getEnv("JOURNAL_DSN", ""),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       getEnv("LOG_LEVEL", "normal"),
		AppConfigPath:  getEnv("APP_CONFIG_PATH", "config/app_config.json"),
		PublicConfig:   getEnv("PUBLIC_CONFIG_PATH", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
