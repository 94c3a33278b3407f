// Package config loads application configuration from the environment,
// with a .env file honored in development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	OpenAI   OpenAIConfig
	TTS      TTSConfig
	Storage  StorageConfig
}

type AppConfig struct {
	Env string // development or production
}

type ServerConfig struct {
	Port    string
	BaseURL string // public base URL used in enclosure and feed links
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr string
}

type AuthConfig struct {
	JWTSecret string
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

type TTSConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type StorageConfig struct {
	Backend         string // local or s3
	AudioDir        string
	S3Bucket        string
	S3Region        string
	S3PublicBaseURL string
}

func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Env: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			BaseURL: getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.7),
		},
		TTS: TTSConfig{
			APIKey:  getEnv("TTS_API_KEY", os.Getenv("OPENAI_API_KEY")),
			BaseURL: getEnv("TTS_BASE_URL", "https://api.openai.com"),
			Model:   getEnv("TTS_MODEL", "gpt-4o-mini-tts"),
		},
		Storage: StorageConfig{
			Backend:         getEnv("STORAGE_BACKEND", "local"),
			AudioDir:        getEnv("AUDIO_DIR", "audio"),
			S3Bucket:        os.Getenv("S3_BUCKET"),
			S3Region:        os.Getenv("S3_REGION"),
			S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
