package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                 string
	AllowedOrigins       []string
	FrontendURL          string
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	RedisAddr            string
	RedisPassword        string

	// Token signing. Access and refresh use distinct keys so a leaked
	// access token can never be replayed as a refresh token.
	AccessTokenSecret  string
	RefreshTokenSecret string
	TokenIssuer        string
	TokenAudience      string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	MaxSessionsPerUser int
	BcryptCost         int
}

var AppConfig *Config

func LoadConfig() *Config {
	port := GetEnv("PORT", "8080")

	// Frontend & CORS
	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:3000")
	allowedOriginsStr := GetEnv("ALLOWED_ORIGINS", "")

	// Build allowed origins list (Frontend URL + Localhost + CSV values)
	allowedOrigins := []string{
		frontendURL,
		"http://localhost:3000", // Local development
	}
	if allowedOriginsStr != "" {
		extras := strings.Split(allowedOriginsStr, ",")
		for _, origin := range extras {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	// Database Config
	dbURL := GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", ""))
	dbMaxOpenConns := GetEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	dbMaxIdleConns := GetEnvAsInt("DB_MAX_IDLE_CONNS", 25)
	dbConnMaxLifetimeMin := GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	// Security
	accessSecret := GetEnv("ACCESS_TOKEN_SECRET", "dev-access-secret-change-in-production")
	refreshSecret := GetEnv("REFRESH_TOKEN_SECRET", "dev-refresh-secret-change-in-production")

	AppConfig = &Config{
		Port:                 port,
		AllowedOrigins:       allowedOrigins,
		FrontendURL:          frontendURL,
		DatabaseURL:          dbURL,
		DBMaxOpenConns:       dbMaxOpenConns,
		DBMaxIdleConns:       dbMaxIdleConns,
		DBConnMaxLifetimeMin: dbConnMaxLifetimeMin,
		RedisAddr:            GetEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:        GetEnv("REDIS_PASSWORD", ""),
		AccessTokenSecret:    accessSecret,
		RefreshTokenSecret:   refreshSecret,
		TokenIssuer:          GetEnv("TOKEN_ISSUER", "adoptapaw-api"),
		TokenAudience:        GetEnv("TOKEN_AUDIENCE", "adoptapaw-client"),
		AccessTokenTTL:       time.Duration(GetEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL:      time.Duration(GetEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 30)) * 24 * time.Hour,
		MaxSessionsPerUser:   GetEnvAsInt("MAX_SESSIONS_PER_USER", 5),
		BcryptCost:           GetEnvAsInt("BCRYPT_COST", 14),
	}

	return AppConfig
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
