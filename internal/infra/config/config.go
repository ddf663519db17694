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

	"spacio/internal/domain/pricing"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	MongoURI           string
	MongoDB            string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	JWTSecret          string
	Currency           string

	FeePolicyVersion     string
	ServiceFeeRate       *decimal.Decimal
	InsuranceRatePerUnit *decimal.Decimal
	RefundableDeposit    *decimal.Decimal

	HoldTTL           time.Duration
	HoldSweepInterval time.Duration

	PricingSuggestURL     string
	PricingSuggestTimeout time.Duration
	PricingSuggestClamps  string

	ListingsFixtures string
}

// Load reads an optional .env file, then parses configuration from the environment.
// Variables already present in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses configuration from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:                  getEnv("APP_ENV", "dev"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		MongoURI:             os.Getenv("MONGO_URI"),
		MongoDB:              getEnv("MONGO_DB", "spacio"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		KafkaTopicPrefix:     getEnv("KAFKA_TOPIC_PREFIX", ""),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		Currency:             strings.ToUpper(getEnv("CURRENCY", "USD")),
		FeePolicyVersion:     getEnv("FEE_POLICY_VERSION", pricing.DefaultPolicyVersion),
		PricingSuggestURL:    os.Getenv("PRICING_SUGGEST_URL"),
		PricingSuggestClamps: os.Getenv("PRICING_SUGGEST_CLAMPS"),
		ListingsFixtures:     os.Getenv("LISTINGS_FIXTURES"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.HoldTTL, err = parseDurationEnv("HOLD_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.HoldSweepInterval, err = parseDurationEnv("HOLD_SWEEP_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.PricingSuggestTimeout, err = parseDurationEnv("PRICING_SUGGEST_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ServiceFeeRate, err = parseDecimalEnv("SERVICE_FEE_RATE"); err != nil {
		return Config{}, err
	}
	if cfg.InsuranceRatePerUnit, err = parseDecimalEnv("INSURANCE_RATE_PER_UNIT"); err != nil {
		return Config{}, err
	}
	if cfg.RefundableDeposit, err = parseDecimalEnv("REFUNDABLE_DEPOSIT"); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("RETRY_BACKOFF component %q must be positive", val)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.HoldTTL <= 0 {
		return Config{}, fmt.Errorf("HOLD_TTL must be positive")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("KAFKA_BROKERS requires MONGO_URI for the outbox")
	}
	if cfg.JWTSecret == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("JWT_SECRET is required outside dev")
	}
	return cfg, nil
}

// IsDev reports whether the service runs in a local environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "local", "test":
		return true
	}
	return false
}

// PolicyBook builds the fee policy book, applying rate overrides to the current version.
func (c Config) PolicyBook() (*pricing.PolicyBook, error) {
	base, err := pricing.MustPolicyBook(pricing.DefaultPolicyVersion).Resolve(c.FeePolicyVersion)
	if err != nil {
		return nil, fmt.Errorf("FEE_POLICY_VERSION %q: %w", c.FeePolicyVersion, err)
	}
	if c.ServiceFeeRate == nil && c.InsuranceRatePerUnit == nil && c.RefundableDeposit == nil {
		return pricing.NewPolicyBook(c.FeePolicyVersion)
	}
	if c.ServiceFeeRate != nil {
		base.ServiceFeeRate = *c.ServiceFeeRate
	}
	if c.InsuranceRatePerUnit != nil {
		base.InsuranceRatePerUnit = *c.InsuranceRatePerUnit
	}
	if c.RefundableDeposit != nil {
		base.RefundableDeposit = *c.RefundableDeposit
	}
	return pricing.NewPolicyBook(c.FeePolicyVersion, base)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseDecimalEnv(key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s decimal: %w", key, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%s must be non-negative", key)
	}
	return &d, nil
}
