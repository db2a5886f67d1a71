package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// MinNominatimDelay is the lowest delay allowed before each fallback call
const MinNominatimDelay = time.Second

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogPretty bool
	HTTPDebug bool // log every outbound geocoder request

	// Boundary source (GeoJSON)
	BoundaryPath string `validate:"required"`

	// Primary geocoder (AWS Location Service); all four must be set to use it
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	PlaceIndexName     string
	PrimaryProbeQuery  string

	// Fallback geocoder (Nominatim)
	NominatimURL       string        `validate:"required,url"`
	NominatimUserAgent string        `validate:"required"`
	NominatimTimeout   time.Duration `validate:"gt=0,lte=10s"`
	NominatimMinDelay  time.Duration `validate:"gte=1s"`

	// Orchestration policy
	FallbackOnNotFound bool

	// Rate limiting of the HTTP surface
	RateLimitType   string        `validate:"oneof=memory redis"`
	RateLimit       int           `validate:"gt=0"`
	RateLimitWindow time.Duration `validate:"gt=0"`

	// Redis configuration (rate limiter type "redis")
	RedisAddr     string `validate:"required_if=RateLimitType redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	// DotEnvLoaded is true when a .env file was read
	DotEnvLoaded bool `validate:"-"`
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is read first when present; real
// environment variables win over it.
func Load() *Config {
	dotEnv := godotenv.Load() == nil

	cfg := &Config{
		// Server config
		Port:      getEnv("PORT", "3000"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		HTTPDebug: getEnvAsBool("HTTP_DEBUG", false),

		BoundaryPath: getEnv("BOUNDARY_PATH", "./data/boundary.geojson"),

		// Primary geocoder
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSRegion:          getEnv("AWS_DEFAULT_REGION", ""),
		PlaceIndexName:     getEnv("PLACE_INDEX_NAME", ""),
		PrimaryProbeQuery:  getEnv("PRIMARY_PROBE_QUERY", "placeholder"),

		// Fallback geocoder
		NominatimURL:       getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search"),
		NominatimUserAgent: getEnv("NOMINATIM_USER_AGENT", "boundary-checker/1.0"),
		NominatimTimeout:   getEnvAsDuration("NOMINATIM_TIMEOUT", 10*time.Second),
		NominatimMinDelay:  max(getEnvAsDuration("NOMINATIM_MIN_DELAY", MinNominatimDelay), MinNominatimDelay),

		FallbackOnNotFound: getEnvAsBool("FALLBACK_ON_NOT_FOUND", false),

		// Rate limiting (default: memory, 30 lookups per minute)
		RateLimitType:   strings.ToLower(getEnv("RATE_LIMITER_TYPE", "memory")),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 30),
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),

		// Redis config
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		DotEnvLoaded: dotEnv,
	}

	return cfg
}

// Validate checks the configuration with the struct tags above
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// PrimaryConfigured reports whether every primary geocoder setting is present
func (c *Config) PrimaryConfigured() bool {
	return c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != "" &&
		c.AWSRegion != "" && c.PlaceIndexName != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads an environment variable as a boolean (1, true, yes, on)
// Returns default if not set or invalid
func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getEnvAsDuration reads a duration such as "1500ms" or "10s"; a bare number
// is taken as seconds. Returns default if not set or invalid
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
