package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// NATS configuration
	NatsURL            string
	NatsRequestSubject string
	NatsTimeout        time.Duration

	// Redis / session configuration
	RedisURL      string
	SessionTTL    time.Duration
	SweepInterval time.Duration

	// Anthropic configuration
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicTimeout time.Duration

	// Medication validation (RxNorm)
	MedValBaseURL    string
	MedValTimeout    time.Duration
	MedValConfidence float64
	MedValEnabled    bool

	// Gatekeeper thresholds
	GeneralConfidenceFloor float64
	TherapyConfidenceFloor float64

	// Service configuration
	ServiceName string
}

func Load() *Config {
	return &Config{
		// NATS settings
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsRequestSubject: getEnv("NATS_REQUEST_SUBJECT", "intake.chat"),
		NatsTimeout:        getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// Session settings
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL:    getDurationEnv("SESSION_TTL", 30*time.Minute),
		SweepInterval: getDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		// Anthropic settings
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		AnthropicTimeout: getDurationEnv("ANTHROPIC_TIMEOUT", 30*time.Second),

		// Medication validation settings
		MedValBaseURL:    getEnv("MEDVAL_BASE_URL", "https://rxnav.nlm.nih.gov/REST"),
		MedValTimeout:    getDurationEnv("MEDVAL_TIMEOUT", 5*time.Second),
		MedValConfidence: getFloatEnv("MEDVAL_CONFIDENCE", 0.80),
		MedValEnabled:    getBoolEnv("MEDVAL_ENABLED", true),

		// Gatekeeper thresholds
		GeneralConfidenceFloor: getFloatEnv("GENERAL_CONFIDENCE_FLOOR", 0.60),
		TherapyConfidenceFloor: getFloatEnv("THERAPY_CONFIDENCE_FLOOR", 0.78),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "dietbuddy-intake"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
