package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the service reads from the environment.
type Config struct {
	Server     ServerConfig
	OpenRouter OpenRouterConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Supabase   SupabaseConfig
	Debate     DebateConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int
	Mode       string
	CORSOrigin string
}

// OpenRouterConfig holds model gateway settings.
type OpenRouterConfig struct {
	APIKey     string
	BaseURL    string
	JudgeModel string
}

// RedisConfig holds usage counter store settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// SupabaseConfig holds optional persistence settings. Persistence is disabled
// when either field is empty.
type SupabaseConfig struct {
	URL    string
	APIKey string
}

// DebateConfig holds orchestration tunables.
type DebateConfig struct {
	StreamIdleTimeout time.Duration
	JudgeMaxTurns     int
	ModelsFile        string
	FreeTierLimit     int
	ProTierLimit      int
}

// Load reads configuration from the environment, applying defaults for
// everything except the OpenRouter API key.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:       getEnvInt("PORT", 8080),
			Mode:       getEnv("GIN_MODE", "release"),
			CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:     getEnv("OPENROUTER_API_KEY", ""),
			BaseURL:    getEnv("OPENROUTER_BASE_URL", ""),
			JudgeModel: getEnv("PROMPTPIT_JUDGE_MODEL", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			APIKey: getEnv("SUPABASE_ANON_KEY", ""),
		},
		Debate: DebateConfig{
			StreamIdleTimeout: getEnvDuration("PROMPTPIT_STREAM_IDLE_TIMEOUT", 60*time.Second),
			JudgeMaxTurns:     getEnvInt("PROMPTPIT_JUDGE_MAX_TURNS", 12),
			ModelsFile:        getEnv("PROMPTPIT_MODELS_FILE", ""),
			FreeTierLimit:     getEnvInt("PROMPTPIT_FREE_TIER_LIMIT", 10),
			ProTierLimit:      getEnvInt("PROMPTPIT_PRO_TIER_LIMIT", 200),
		},
	}

	if cfg.OpenRouter.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	return cfg, nil
}

// RedisAddr returns the host:port dial address.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
