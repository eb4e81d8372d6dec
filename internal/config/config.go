package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Server struct {
		Port     string
		GinMode  string
		LogLevel string
	}

	Auth struct {
		// TokenSecret verifies the signed actor tokens minted by the
		// messaging gateway in front of this service.
		TokenSecret string
	}

	Scheduler struct {
		SweepSchedule string
	}

	Sessions struct {
		TTL time.Duration
	}

	Notifier struct {
		WebhookBaseURL string
		Timeout        time.Duration
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "bookpoll")
	config.DB.Password = getEnv("DB_PASSWORD", "bookpoll_password")
	config.DB.Name = getEnv("DB_NAME", "bookpoll_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")
	config.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	config.Auth.TokenSecret = getEnv("ACTOR_TOKEN_SECRET", "")

	config.Scheduler.SweepSchedule = getEnv("SWEEP_SCHEDULE", "@every 1m")

	config.Sessions.TTL = getEnvAsDuration("BALLOT_SESSION_TTL", 10*time.Minute)

	config.Notifier.WebhookBaseURL = getEnv("NOTIFIER_WEBHOOK_BASE_URL", "")
	config.Notifier.Timeout = getEnvAsDuration("NOTIFIER_TIMEOUT", 10*time.Second)

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization")

	return config
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
