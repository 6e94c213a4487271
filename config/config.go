package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Admin       AdminConfig
	ServiceArea ServiceAreaConfig
	Notify      NotifyConfig
}

type ServerConfig struct {
	Port    string
	Env     string
	BaseURL string
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	SigningKey  string // Secret key for JWT signing
	Issuer      string // JWT issuer claim
	ExpiryHours int    // token lifetime (default: 168 = 7 days)
}

type AdminConfig struct {
	Email    string
	Password string
}

// ServiceAreaConfig is the bounding box outside which donations are
// rejected. Defaults to the Austin, TX metro area.
type ServiceAreaConfig struct {
	North float64
	South float64
	East  float64
	West  float64
}

type NotifyConfig struct {
	APIURL         string // outbound mail REST endpoint
	APIKey         string
	From           string
	BatchSize      int // subscribers per fan-out batch (default: 10)
	BatchDelayMs   int // pause between batches (default: 1000)
}

// Load returns application configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "3000"),
			Env:     getEnv("ENV", "development"),
			BaseURL: getEnv("BASE_URL", "http://localhost:3000"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		JWT: JWTConfig{
			SigningKey:  getEnv("JWT_SECRET", ""),
			Issuer:      getEnv("JWT_ISSUER", "fasthelp"),
			ExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 168), // 7 days
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@fasthelp.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		ServiceArea: ServiceAreaConfig{
			North: getEnvFloat("SERVICE_AREA_NORTH", 30.5149),
			South: getEnvFloat("SERVICE_AREA_SOUTH", 30.0986),
			East:  getEnvFloat("SERVICE_AREA_EAST", -97.5691),
			West:  getEnvFloat("SERVICE_AREA_WEST", -97.9383),
		},
		Notify: NotifyConfig{
			APIURL:       getEnv("MAIL_API_URL", ""),
			APIKey:       getEnv("MAIL_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "noreply@fasthelp.com"),
			BatchSize:    getEnvInt("NOTIFY_BATCH_SIZE", 10),
			BatchDelayMs: getEnvInt("NOTIFY_BATCH_DELAY_MS", 1000),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
