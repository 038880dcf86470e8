package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key"

type Config struct {
	ServerPort  string
	Environment string

	// DBDriver selects the persistence backend: postgres, mysql, firestore or memory.
	DBDriver    string
	DatabaseDSN string

	FirebaseProject         string
	FirebaseCredentialsPath string
	FirebaseCredentialsJSON string

	// AuthProvider is jwt (tokens issued by /members/login) or firebase.
	AuthProvider string
	JWTSecret    string
	JWTExpiry    int64

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		Environment:             getEnv("ENVIRONMENT", "development"),
		DBDriver:                strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN:             getEnv("DATABASE_DSN", ""),
		FirebaseProject:         getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		AuthProvider:            strings.ToLower(getEnv("AUTH_PROVIDER", "jwt")),
		JWTSecret:               getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry:               getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours
		RateLimitRPS:            getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:          int(getEnvAsInt64("RATE_LIMIT_BURST", 40)),
		CORSAllowedOrigins:      getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects combinations that cannot serve traffic.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}

	switch c.DBDriver {
	case "postgres", "mysql":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for driver %q", c.DBDriver)
		}
	case "firestore":
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for driver firestore")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.AuthProvider {
	case "jwt":
		if c.Environment == "production" && c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.JWTExpiry <= 0 {
			return fmt.Errorf("JWT_EXPIRY must be positive")
		}
	case "firebase":
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for firebase auth")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}

	return nil
}

// UsesFirebase reports whether any component needs a Firebase app.
func (c *Config) UsesFirebase() bool {
	return c.DBDriver == "firestore" || c.AuthProvider == "firebase"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
