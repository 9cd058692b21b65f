// Package config provides configuration management for the billtrack
// application. It handles loading and validation of configuration values from
// environment variables, with support for required variables, default values,
// and collective error reporting: every problem found during loading is
// reported at once instead of failing on the first one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig represents configuration for the PostgreSQL connection pool.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxConns int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret            string        // Secret key for signing JWTs
	TokenDuration        time.Duration // Lifetime of issued session tokens
	RefreshTokenDuration time.Duration // Lifetime of persisted refresh tokens
	MaxLoginAttempts     int           // Failed attempts before a timed lock
	LockoutDuration      time.Duration // How long a locked account stays locked
}

// MailConfig holds email notification configuration. When MockMode is true
// messages are logged instead of delivered, so environments without mail
// infrastructure still exercise the full rendering path.
type MailConfig struct {
	MockMode bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string // Port for the HTTP server
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB     *DatabaseConfig
	Auth   *AuthConfig
	Mail   *MailConfig
	Server *ServerConfig
}

// getRequiredEnv reads a required environment variable, appending to the
// errors slice when it is absent.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv reads an optional environment variable with a default.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt reads an optional integer variable. Uses defaultValue if
// not set; appends an error if the value does not parse.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvBool reads an optional boolean variable ("true"/"false").
func getOptionalEnvBool(key string, defaultValue bool, errors *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected boolean, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueBool
}

// getOptionalEnvDuration reads an optional duration variable.
// `time.ParseDuration` expects a string like "15m", "24h".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// parseAndValidatePoolSize converts a pool-size value to an integer and clamps
// it between 5 and 100.
func parseAndValidatePoolSize(valueStr string, varName string, errors *[]string) int {
	size, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid pool size for %s: expected integer, got '%s': %v", varName, valueStr, err))
		return 5
	}
	if size < 5 {
		size = 5
	}
	if size > 100 {
		size = 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading
// and returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Database configuration
	dbUser := getRequiredEnv("DB_USER", &errors)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errors)
	dbName := getRequiredEnv("DB_NAME", &errors)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errors)
	maxConns := parseAndValidatePoolSize(getOptionalEnv("DB_POOL_SIZE", "10"), "DB_POOL_SIZE", &errors)

	dbConfig := &DatabaseConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxConns: maxConns,
	}

	// Auth configuration. The lockout parameters default to the documented
	// policy: four failed attempts lock the account for fifteen minutes.
	authConfig := &AuthConfig{
		JWTSecret:            getRequiredEnv("JWT_SECRET", &errors),
		TokenDuration:        getOptionalEnvDuration("JWT_EXPIRES_IN", 24*time.Hour, &errors),
		RefreshTokenDuration: getOptionalEnvDuration("REFRESH_TOKEN_EXPIRES_IN", 168*time.Hour, &errors), // 7 days
		MaxLoginAttempts:     getOptionalEnvInt("MAX_LOGIN_ATTEMPTS", 4, &errors),
		LockoutDuration:      getOptionalEnvDuration("LOCKOUT_DURATION", 15*time.Minute, &errors),
	}

	// Mail configuration
	mailConfig := &MailConfig{
		MockMode: getOptionalEnvBool("MOCK_EMAIL", false, &errors),
		Host:     getOptionalEnv("SMTP_HOST", "smtp.gmail.com"),
		Port:     getOptionalEnvInt("SMTP_PORT", 587, &errors),
		Username: getOptionalEnv("SMTP_USER", ""),
		Password: getOptionalEnv("SMTP_PASSWORD", ""),
		From:     getOptionalEnv("EMAIL_FROM", "noreply@billtrack.local"),
	}
	// Real delivery needs SMTP credentials; mock mode does not.
	if !mailConfig.MockMode && mailConfig.Username == "" {
		errors = append(errors, "SMTP_USER is required unless MOCK_EMAIL=true")
	}

	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		DB:     dbConfig,
		Auth:   authConfig,
		Mail:   mailConfig,
		Server: serverConfig,
	}, nil
}
