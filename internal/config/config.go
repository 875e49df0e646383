package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-change-in-production"

var (
	ErrInsecureSecret = errors.New("JWT_SECRET must be set in production environment")
	ErrMissingAPIKey  = errors.New("OPENROUTER_API_KEY must be set in production environment")
)

type Config struct {
	Port            string
	Env             string
	LogMode         string
	DatabaseDSN     string
	JWTSecret       string
	JWTExpiry       time.Duration
	OpenRouterKey   string
	OpenRouterURL   string
	GenerationModel string
	CORSOrigins     []string
}

// Load reads configuration from the environment. Call godotenv first if a
// .env file should be honoured.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/fiszki?parseTime=true")
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("OPENROUTER_API_KEY", "")
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("GENERATION_MODEL", "google/gemini-2.0-flash-001")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.AutomaticEnv()

	cfg := Config{
		Port:            v.GetString("PORT"),
		Env:             v.GetString("ENV"),
		LogMode:         v.GetString("LOG_MODE"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTExpiry:       v.GetDuration("JWT_EXPIRY"),
		OpenRouterKey:   v.GetString("OPENROUTER_API_KEY"),
		OpenRouterURL:   v.GetString("OPENROUTER_BASE_URL"),
		GenerationModel: v.GetString("GENERATION_MODEL"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
	}

	if cfg.Env == "production" {
		if cfg.JWTSecret == devJWTSecret {
			return cfg, ErrInsecureSecret
		}
		if cfg.OpenRouterKey == "" {
			return cfg, ErrMissingAPIKey
		}
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
