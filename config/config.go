package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	JWTSecret          string
	JWTExpiryHours     int
	ShopTimezone       string
	BookingDailyLimit  int
	ShopLatitude       float64
	ShopLongitude      float64
	BreakdownBaseFee   float64
	BreakdownPerKmRate float64
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production, environment variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := fromEnv()

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// fromEnv builds a Config purely from the current environment.
func fromEnv() *Config {
	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		JWTSecret:          getEnv("JWT_SECRET", "garagedesk-dev-secret"),
		JWTExpiryHours:     getEnvInt("JWT_EXPIRY_HOURS", 24),
		ShopTimezone:       getEnv("SHOP_TIMEZONE", "Asia/Kolkata"),
		BookingDailyLimit:  getEnvInt("BOOKING_DAILY_LIMIT", 8),
		ShopLatitude:       getEnvFloat("SHOP_LATITUDE", 12.9716),
		ShopLongitude:      getEnvFloat("SHOP_LONGITUDE", 77.5946),
		BreakdownBaseFee:   getEnvFloat("BREAKDOWN_BASE_FEE", 300),
		BreakdownPerKmRate: getEnvFloat("BREAKDOWN_PER_KM_RATE", 50),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// GetConfig returns the loaded configuration. If Load has not been called
// (unit tests), a config built from environment defaults is returned.
func GetConfig() *Config {
	if appConfig == nil {
		appConfig = fromEnv()
	}
	return appConfig
}

// SetConfig replaces the global configuration (primarily for testing)
func SetConfig(c *Config) {
	appConfig = c
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.BookingDailyLimit <= 0 {
		return fmt.Errorf("BOOKING_DAILY_LIMIT must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid integer for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid number for %s, using default %v", key, defaultValue)
	}
	return defaultValue
}
