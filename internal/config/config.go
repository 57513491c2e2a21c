package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Admin JWT configuration
	JWT JWTConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// Booking lifecycle configuration
	Booking BookingConfig

	// Redis availability cache configuration
	Redis RedisConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	// TrustedProxies are the peers whose X-Forwarded-For / X-Real-IP headers are believed.
	// Empty means client IPs come from the connection only.
	TrustedProxies []string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	Driver             string // "postgres" (lib/pq) or "pgx"
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool
}

// JWTConfig holds the admin token configuration
type JWTConfig struct {
	Secret      string
	Issuer      string
	TokenExpiry time.Duration
}

// PaymentConfig holds Razorpay and UPI configuration
type PaymentConfig struct {
	KeyID        string // Razorpay key id (public, returned to the client)
	KeySecret    string // Razorpay key secret (SECRET - never expose to client)
	APIURL       string
	Currency     string
	MaxAmount    int64 // upper bound for a single order, in whole currency units
	MerchantName string
	UPIPayeeID   string // VPA used for the manual UPI flow
	UPIPayeeName string
	Timeout      time.Duration
}

// BookingConfig holds pending-booking retention settings
type BookingConfig struct {
	PendingTTL     time.Duration
	ReaperSchedule string // robfig/cron spec
	ReaperBatch    int
}

// RedisConfig holds the availability cache configuration
type RedisConfig struct {
	Address  string // empty disables the cache
	Password string
	DB       int
	CacheTTL time.Duration
}

// RateLimitConfig holds per-client limits for the payment endpoints
type RateLimitConfig struct {
	RPS             float64
	Burst           int
	IdleTTL         time.Duration // buckets unused for this long are evicted
	CleanupInterval time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Driver:             getEnv("DATABASE_DRIVER", "postgres"),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret:      getEnv("ADMIN_JWT_SECRET", ""),
			Issuer:      getEnv("ADMIN_JWT_ISSUER", "napcube-admin"),
			TokenExpiry: time.Duration(getEnvAsInt("ADMIN_JWT_EXPIRY", 3600)) * time.Second,
		},
		Payment: PaymentConfig{
			KeyID:        getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:    getEnv("RAZORPAY_KEY_SECRET", ""),
			APIURL:       getEnv("RAZORPAY_API_URL", "https://api.razorpay.com"),
			Currency:     getEnv("PAYMENT_CURRENCY", "INR"),
			MaxAmount:    int64(getEnvAsInt("PAYMENT_MAX_AMOUNT", 1000000)),
			MerchantName: getEnv("MERCHANT_NAME", "NapCube"),
			UPIPayeeID:   getEnv("UPI_PAYEE_ID", ""),
			UPIPayeeName: getEnv("UPI_PAYEE_NAME", "NapCube Booking"),
			Timeout:      time.Duration(getEnvAsInt("RAZORPAY_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Booking: BookingConfig{
			PendingTTL:     time.Duration(getEnvAsInt("BOOKING_PENDING_TTL_MINUTES", 30)) * time.Minute,
			ReaperSchedule: getEnv("BOOKING_REAPER_SCHEDULE", "@every 5m"),
			ReaperBatch:    getEnvAsInt("BOOKING_REAPER_BATCH", 200),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: time.Duration(getEnvAsInt("AVAILABILITY_CACHE_TTL_SECONDS", 30)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:             getEnvAsFloat("RATE_LIMIT_RPS", 2),
			Burst:           getEnvAsInt("RATE_LIMIT_BURST", 10),
			IdleTTL:         time.Duration(getEnvAsInt("RATE_LIMIT_IDLE_TTL_SECONDS", 600)) * time.Second,
			CleanupInterval: time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP_SECONDS", 60)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"authorization", "x-client-info", "apikey", "content-type"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration.
// Missing Razorpay credentials are not fatal here: the payment endpoints fail closed instead.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'postgres' or 'pgx')", c.Database.Driver)
	}

	if c.Payment.MaxAmount <= 0 {
		return fmt.Errorf("PAYMENT_MAX_AMOUNT must be positive")
	}

	if c.Booking.PendingTTL <= 0 {
		return fmt.Errorf("BOOKING_PENDING_TTL_MINUTES must be positive")
	}

	if c.Server.Environment == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required in production")
	}

	return nil
}

// PaymentConfigured reports whether both Razorpay credentials are present
func (c *PaymentConfig) PaymentConfigured() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
