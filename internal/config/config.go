package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName          = "DataTopup"
	defaultAppEnv           = "development"
	defaultPort             = "5000"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultSessionTTL       = 24 * time.Hour
	defaultDeliveryDelay    = time.Second
	defaultLoginAttempts    = 5
	defaultPaystackBaseURL  = "https://api.paystack.co"
	defaultEnvFile          = ".env"
	simulationSentinelValue = "simulation_mode_active"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	ShutdownPeriod time.Duration

	DatabaseURL string
	RedisURL    string

	SupabaseURL string
	SupabaseKey string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	DataMartAPIKey         string
	SimulatedDeliveryDelay time.Duration
	PaystackPublicKey      string
	PaystackSecretKey      string
	PaystackBaseURL        string
	LoginAttemptsPerMinute int
	IdempotencyTTL         time.Duration
}

// Load reads an optional .env file and then populates a Config from the environment.
func Load() (Config, error) {
	envFile := getEnv("ENV_FILE", defaultEnvFile)
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseKey:       os.Getenv("SUPABASE_KEY"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		DataMartAPIKey:    os.Getenv("DATAMART_API_KEY"),
		PaystackPublicKey: os.Getenv("PAYSTACK_PUBLIC_KEY"),
		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   strings.TrimRight(getEnv("PAYSTACK_BASE_URL", defaultPaystackBaseURL), "/"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.SimulatedDeliveryDelay, err = durationEnv("SIMULATED_DELIVERY_DELAY", defaultDeliveryDelay); err != nil {
		return Config{}, err
	}

	cfg.LoginAttemptsPerMinute = defaultLoginAttempts
	if v := os.Getenv("LOGIN_ATTEMPTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_ATTEMPTS_PER_MINUTE: %w", err)
		}
		cfg.LoginAttemptsPerMinute = n
	}

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	}

	if (cfg.SupabaseURL == "") != (cfg.SupabaseKey == "") {
		return Config{}, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be set together")
	}

	if !cfg.IsDev() {
		if cfg.SessionSecret == "" {
			return Config{}, fmt.Errorf("SESSION_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if !cfg.UseSupabase() && cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("SUPABASE_URL/SUPABASE_KEY or DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether in-memory fallbacks are acceptable.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// UseSupabase reports whether Supabase backs identity and profiles.
func (c Config) UseSupabase() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

// SimulationMode reports whether data bundles are delivered by the simulator.
// An empty key or the sentinel value keeps the service in simulation.
func (c Config) SimulationMode() bool {
	return c.DataMartAPIKey == "" || c.DataMartAPIKey == simulationSentinelValue
}

// durationEnv reads KEY_SECONDS as an integer first, then KEY as a Go duration.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	secondsKey := key + "_SECONDS"
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
