package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/service"
	"github.com/barkshad/fuliza/pkg/kafka"
	"github.com/barkshad/fuliza/pkg/postgres"
	"github.com/barkshad/fuliza/pkg/tlsutil"
)

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ProjectionTTL time.Duration
	ProfileTTL    time.Duration
}

type KafkaConfig struct {
	kafka.Config
	CallbackTopic string
	TopicPrefix   string
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	URLExpiry time.Duration
}

type ScoringConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type PaymentConfig struct {
	BaseURL      string
	APIKey       string
	Countdown    time.Duration
	PollInterval time.Duration
	Confirmation string
	Timeout      time.Duration
	// CallbackSecret enables the HTTP payment webhook when set.
	CallbackSecret string
}

type AuthConfig struct {
	PrivateKeyFile string
	PublicKeyFile  string
	Secret         string
	Issuer         string
	Expiration     time.Duration
}

type Config struct {
	GRPCPort       int
	HTTPPort       int
	GRPCReflection bool
	LogLevel       string
	LogFormat      string
	ServiceName    string

	DB      postgres.Config
	Redis   RedisConfig
	Kafka   KafkaConfig
	Objects ObjectStoreConfig
	Scoring ScoringConfig
	Payment PaymentConfig
	Auth    AuthConfig
	TLS     tlsutil.Config

	// OTLPEndpoint enables tracing when set.
	OTLPEndpoint string

	Tiers           service.TierPolicy
	Fallback        service.FallbackPolicy
	ProjectionCap   decimal.Decimal
	RateLimitPerMin int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is honored when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	tiers := service.DefaultTierPolicy()
	tiers.SilverRatio = getEnvDecimal("TIER_SILVER_RATIO", tiers.SilverRatio)
	tiers.BronzeRatio = getEnvDecimal("TIER_BRONZE_RATIO", tiers.BronzeRatio)
	tiers.FeeRate = getEnvDecimal("TIER_FEE_RATE", tiers.FeeRate)
	tiers.MinLimit = getEnvDecimal("TIER_MIN_LIMIT", tiers.MinLimit)
	tiers.FallbackLimit = getEnvDecimal("TIER_FALLBACK_LIMIT", tiers.FallbackLimit)

	fallback := service.DefaultFallbackPolicy()
	fallback.Score = getEnvInt("SCORING_FALLBACK_SCORE", fallback.Score)
	fallback.Limit = getEnvDecimal("SCORING_FALLBACK_LIMIT", fallback.Limit)

	return Config{
		GRPCPort:       getEnvInt("GRPC_PORT", 9090),
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		GRPCReflection: getEnvBool("GRPC_REFLECTION", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		ServiceName:    "boost-service",
		DB: postgres.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "boost"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "boost"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			ProjectionTTL: getEnvDuration("PROJECTION_TTL", 30*time.Minute),
			ProfileTTL:    getEnvDuration("PROFILE_CACHE_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Config: kafka.Config{
				Brokers:       getEnvList("KAFKA_BROKERS", nil),
				ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "boost-service"),
				TLS:           getEnvBool("KAFKA_TLS", false),
				SASLEnabled:   getEnvBool("KAFKA_SASL_ENABLED", false),
				SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", "plain"),
				SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
				SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			},
			CallbackTopic: getEnv("KAFKA_CALLBACK_TOPIC", "boost.payment.callbacks"),
			TopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", "boost"),
		},
		Objects: ObjectStoreConfig{
			Endpoint:  getEnv("OBJECT_STORE_ENDPOINT", ""),
			AccessKey: getEnv("OBJECT_STORE_ACCESS_KEY", ""),
			SecretKey: getEnv("OBJECT_STORE_SECRET_KEY", ""),
			Bucket:    getEnv("OBJECT_STORE_BUCKET", "boost-documents"),
			UseSSL:    getEnvBool("OBJECT_STORE_SSL", true),
			PublicURL: getEnv("OBJECT_STORE_PUBLIC_URL", ""),
			URLExpiry: getEnvDuration("OBJECT_STORE_URL_EXPIRY", 7*24*time.Hour),
		},
		Scoring: ScoringConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout: getEnvDuration("SCORING_TIMEOUT", 12*time.Second),
		},
		Payment: PaymentConfig{
			BaseURL:      getEnv("LIPANA_BASE_URL", "https://api.lipana.dev/v1"),
			APIKey:       getEnv("LIPANA_API_KEY", ""),
			Countdown:    getEnvDuration("PAYMENT_COUNTDOWN", 15*time.Second),
			PollInterval: getEnvDuration("PAYMENT_POLL_INTERVAL", 3*time.Second),
			Confirmation: getEnv("PAYMENT_CONFIRMATION", "poll"),
			Timeout:      getEnvDuration("PAYMENT_HTTP_TIMEOUT", 10*time.Second),

			CallbackSecret: getEnv("PAYMENT_CALLBACK_SECRET", ""),
		},
		Auth: AuthConfig{
			PrivateKeyFile: getEnv("JWT_PRIVATE_KEY_FILE", ""),
			PublicKeyFile:  getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Secret:         getEnv("JWT_SECRET", ""),
			Issuer:         getEnv("JWT_ISSUER", "boost-service"),
			Expiration:     getEnvDuration("JWT_EXPIRATION", time.Hour),
		},
		TLS: tlsutil.Config{
			CertFile:     getEnv("TLS_CERT_FILE", ""),
			KeyFile:      getEnv("TLS_KEY_FILE", ""),
			ClientCAFile: getEnv("TLS_CLIENT_CA_FILE", ""),
		},
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Tiers:           tiers,
		Fallback:        fallback,
		ProjectionCap:   getEnvDecimal("PROJECTION_CAP", decimal.Zero),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.DB.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.Auth.Secret == "" && c.Auth.PrivateKeyFile == "" {
		errs = append(errs, errors.New("JWT_SECRET or JWT_PRIVATE_KEY_FILE is required"))
	}
	if c.Payment.Countdown <= 0 || c.Payment.PollInterval <= 0 {
		errs = append(errs, errors.New("PAYMENT_COUNTDOWN and PAYMENT_POLL_INTERVAL must be positive"))
	}
	if err := c.Tiers.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
