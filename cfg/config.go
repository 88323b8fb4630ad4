package cfg

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ObservabilityConfig struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string
}

// AppleConfig holds the static Sign In with Apple strategy settings.
// Loaded once at startup and treated as read-only afterwards.
type AppleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	DefaultScope string
	UIDField     string
	Prompt       string
	AccessType   string
}

type Config struct {
	AppEnv        string
	HTTPAddr      string
	Redis         RedisConfig
	Postgres      PostgresConfig
	Observability ObservabilityConfig
	Apple         AppleConfig
}

func Load() (*Config, error) {
	var errs []error

	err := godotenv.Load()
	if err != nil {
		return nil, errors.New("failed load cfg: " + err.Error())
	}

	appEnv := mustEnv("APP_ENV", &errs)
	httpAddr := envOrDefault("HTTP_ADDR", ":8080")

	redisHost := mustEnv("REDIS_HOST", &errs)
	redisPort := mustEnv("REDIS_PORT", &errs)
	redisPassword := mustEnv("REDIS_PASSWORD", &errs)

	pgHost := mustEnv("POSTGRES_HOST", &errs)
	pgPort := mustEnv("POSTGRES_PORT", &errs)
	pgUser := mustEnv("POSTGRES_USER", &errs)
	pgPassword := mustEnv("POSTGRES_PASSWORD", &errs)
	pgDBName := mustEnv("POSTGRES_DB", &errs)
	pgSSLMode := envOrDefault("POSTGRES_SSLMODE", "disable")

	serviceName := envOrDefault("OTEL_SERVICE_NAME", "applesso")
	otlpEndpoint := mustEnv("OTEL_EXPORTER_OTLP_ENDPOINT", &errs)

	appleClientID := mustEnv("APPLE_CLIENT_ID", &errs)
	appleClientSecret := mustEnv("APPLE_CLIENT_SECRET", &errs)
	appleRedirectURL := mustEnv("APPLE_REDIRECT_URL", &errs)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		AppEnv:   appEnv,
		HTTPAddr: httpAddr,
		Redis: RedisConfig{
			Host:     redisHost,
			Port:     redisPort,
			Password: redisPassword,
		},
		Postgres: PostgresConfig{
			Host:     pgHost,
			Port:     pgPort,
			User:     pgUser,
			Password: pgPassword,
			DBName:   pgDBName,
			SSLMode:  pgSSLMode,
		},
		Observability: ObservabilityConfig{
			ServiceName:  serviceName,
			Environment:  appEnv,
			OTLPEndpoint: otlpEndpoint,
		},
		Apple: AppleConfig{
			ClientID:     appleClientID,
			ClientSecret: appleClientSecret,
			RedirectURL:  appleRedirectURL,
			DefaultScope: envOrDefault("APPLE_DEFAULT_SCOPE", "name email"),
			UIDField:     envOrDefault("APPLE_UID_FIELD", "uid"),
			Prompt:       os.Getenv("APPLE_PROMPT"),
			AccessType:   os.Getenv("APPLE_ACCESS_TYPE"),
		},
	}, nil
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

func envOrDefault(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}
