package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Redis     RedisConfig
	Routing   RoutingConfig
	Anomaly   AnomalyConfig
	Statutory StatutoryConfig
	Payroll   PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret                    string
	AccessTokenExpirationTime string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string

	// Timezone decides which calendar day a check-in belongs to.
	Timezone        string
	EnforceGeofence bool
	AllowedOrigins  []string
	CronEnabled     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RoutingConfig configures the optional driving-route provider. An empty
// BaseURL disables it and every distance falls back to Haversine.
type RoutingConfig struct {
	BaseURL  string
	Profile  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type AnomalyConfig struct {
	MinTimeGap         time.Duration
	MaxSpeedKmh        float64
	MaxDailyDistanceKm float64
	LocationJumpKm     float64
	LocationJumpWindow time.Duration
	FlagMissingRoute   bool
}

type StatutoryConfig struct {
	PFRate          string
	PFWageCeiling   string
	ESIRate         string
	ESIThreshold    string
	ProfessionalTax string
}

type PayrollConfig struct {
	ProrationRule string
	RoundingRule  string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "25"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.ParseInt(getEnv("DB_MIN_CONNS", "5"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}
	maxConnIdleTime, err := time.ParseDuration(getEnv("DB_MAX_CONN_IDLE_TIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONN_IDLE_TIME: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),

		MaxConns:        int32(maxConns),
		MinConns:        int32(minConns),
		MaxConnIdleTime: maxConnIdleTime,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	enforceGeofence, err := strconv.ParseBool(getEnv("ENFORCE_GEOFENCE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENFORCE_GEOFENCE: %w", err)
	}

	cronEnabled, err := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_ENABLED: %w", err)
	}

	config.App = AppConfig{
		Port:            appPort,
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Timezone:        getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		EnforceGeofence: enforceGeofence,
		AllowedOrigins:  getEnvSlice("CORS_ALLOWED_ORIGINS"),
		CronEnabled:     cronEnabled,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:                    getEnv("JWT_SECRET_KEY", ""),
		AccessTokenExpirationTime: getEnv("JWT_ACCESS_TOKEN_EXPIRATION", "15m"),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	// Routing provider configuration
	routingTimeout, err := time.ParseDuration(getEnv("ROUTING_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROUTING_TIMEOUT: %w", err)
	}
	routingCacheTTL, err := time.ParseDuration(getEnv("ROUTING_CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROUTING_CACHE_TTL: %w", err)
	}

	config.Routing = RoutingConfig{
		BaseURL:  getEnv("ROUTING_BASE_URL", ""),
		Profile:  getEnv("ROUTING_PROFILE", "driving"),
		Timeout:  routingTimeout,
		CacheTTL: routingCacheTTL,
	}

	// Anomaly thresholds
	if config.Anomaly, err = loadAnomalyConfig(); err != nil {
		return nil, err
	}

	// Statutory deductions
	config.Statutory = StatutoryConfig{
		PFRate:          getEnv("STATUTORY_PF_RATE", "0.12"),
		PFWageCeiling:   getEnv("STATUTORY_PF_WAGE_CEILING", "15000"),
		ESIRate:         getEnv("STATUTORY_ESI_RATE", "0.0075"),
		ESIThreshold:    getEnv("STATUTORY_ESI_THRESHOLD", "21000"),
		ProfessionalTax: getEnv("STATUTORY_PROFESSIONAL_TAX", "200"),
	}

	config.Payroll = PayrollConfig{
		ProrationRule: getEnv("PAYROLL_PRORATION_RULE", "DAILY"),
		RoundingRule:  getEnv("PAYROLL_ROUNDING_RULE", "ROUND_NEAREST"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAnomalyConfig() (AnomalyConfig, error) {
	var cfg AnomalyConfig
	var err error

	if cfg.MinTimeGap, err = time.ParseDuration(getEnv("ANOMALY_MIN_TIME_GAP", "5m")); err != nil {
		return cfg, fmt.Errorf("invalid ANOMALY_MIN_TIME_GAP: %w", err)
	}
	if cfg.MaxSpeedKmh, err = strconv.ParseFloat(getEnv("ANOMALY_MAX_SPEED_KMH", "120"), 64); err != nil {
		return cfg, fmt.Errorf("invalid ANOMALY_MAX_SPEED_KMH: %w", err)
	}
	if cfg.MaxDailyDistanceKm, err = strconv.ParseFloat(getEnv("ANOMALY_MAX_DAILY_DISTANCE_KM", "500"), 64); err != nil {
		return cfg, fmt.Errorf("invalid ANOMALY_MAX_DAILY_DISTANCE_KM: %w", err)
	}
	if cfg.LocationJumpKm, err = strconv.ParseFloat(getEnv("ANOMALY_LOCATION_JUMP_KM", "50"), 64); err != nil {
		return cfg, fmt.Errorf("invalid ANOMALY_LOCATION_JUMP_KM: %w", err)
	}
	if cfg.LocationJumpWindow, err = time.ParseDuration(getEnv("ANOMALY_LOCATION_JUMP_WINDOW", "30m")); err != nil {
		return cfg, fmt.Errorf("invalid ANOMALY_LOCATION_JUMP_WINDOW: %w", err)
	}
	if cfg.FlagMissingRoute, err = strconv.ParseBool(getEnv("ANOMALY_FLAG_MISSING_ROUTE", "false")); err != nil {
		return cfg, fmt.Errorf("invalid ANOMALY_FLAG_MISSING_ROUTE: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Anomaly.MaxSpeedKmh <= 0 {
		return fmt.Errorf("ANOMALY_MAX_SPEED_KMH must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
