package config

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"strconv"
	"time"
)

// MinSecretLen is the minimum decoded JWT secret length in bytes. HMAC-SHA512
// wants a key of at least the hash's output size.
const MinSecretLen = 64

type Config struct {
	Addr         string
	DBPath       string
	LogLevel     string
	JWTSecret    []byte
	TokenTTL     time.Duration
	StoreTimeout time.Duration
	RateLimits   RateLimits

	// GeneratedSecret is set when no usable INKWELL_JWT_SECRET was provided
	// and a random one was generated. Tokens do not survive a restart in
	// that mode; the caller should log a warning.
	GeneratedSecret bool
}

type RateLimits struct {
	LoginPerMinute  int
	TogglePerMinute int
}

func Load() (Config, error) {
	addr := envString("INKWELL_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	cfg := Config{
		Addr:         addr,
		DBPath:       envString("INKWELL_DB", "inkwell.db"),
		LogLevel:     envString("INKWELL_LOG_LEVEL", "info"),
		TokenTTL:     envDuration("INKWELL_TOKEN_TTL", 24*time.Hour),
		StoreTimeout: envDuration("INKWELL_STORE_TIMEOUT", 5*time.Second),
		RateLimits: RateLimits{
			LoginPerMinute:  envInt("INKWELL_RL_LOGIN_PER_MIN", 10),
			TogglePerMinute: envInt("INKWELL_RL_TOGGLE_PER_MIN", 120),
		},
	}

	secret, generated, err := loadSecret(os.Getenv("INKWELL_JWT_SECRET"))
	if err != nil {
		return Config{}, err
	}
	cfg.JWTSecret = secret
	cfg.GeneratedSecret = generated

	return cfg, nil
}

// loadSecret decodes the base64 secret from the environment. An empty or
// too-short value falls back to a fresh random secret so a dev server still
// starts; production deployments must set a stable one.
func loadSecret(encoded string) ([]byte, bool, error) {
	if encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err == nil && len(decoded) >= MinSecretLen {
			return decoded, false, nil
		}
	}
	secret := make([]byte, MinSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, false, err
	}
	return secret, true, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
