package config

import (
	"os"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSecret     string
	PublicBaseURL string
	SeedProducts  bool

	Session SessionConfig
	Payment PaymentConfig
}

// SessionConfig holds the keys for the signed cart cookie.
type SessionConfig struct {
	HashKey  string
	BlockKey string
}

// PaymentConfig describes the payment provider. MerchantID and APIKey are
// allowed to be empty; payment initiation then reports a configuration error.
type PaymentConfig struct {
	MerchantID string
	APIKey     string
	APIURL     string
	Currency   string
	Timeout    time.Duration
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Addr:          getenv("APP_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		SeedProducts:  os.Getenv("SEED_PRODUCTS") == "1",
		Session: SessionConfig{
			HashKey:  os.Getenv("SESSION_HASH_KEY"),
			BlockKey: os.Getenv("SESSION_BLOCK_KEY"),
		},
		Payment: PaymentConfig{
			MerchantID: os.Getenv("OPAY_MERCHANT_ID"),
			APIKey:     os.Getenv("OPAY_API_KEY"),
			APIURL:     getenv("OPAY_API_URL", "https://api.opay.com/payment/initiate"),
			Currency:   getenv("OPAY_CURRENCY", "NGN"),
			Timeout:    getDuration("PAYMENT_TIMEOUT", 15*time.Second),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
