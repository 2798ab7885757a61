package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	SQLitePath      string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	Extractor       string // auto | claude | keyword
	PatientID       string
	NatsURL         string
	ExtractTimeout  int // seconds
}

func Load() Config {
	return Config{
		Port:            envInt("TRIALLOG_PORT", 8600),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		SQLitePath:      envStr("TRIALLOG_DB", "./clinical_trial.db"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("TRIALLOG_MODEL", "claude-sonnet-4-20250514"),
		Extractor:       envStr("TRIALLOG_EXTRACTOR", "auto"),
		PatientID:       envStr("TRIALLOG_PATIENT_ID", "7482"),
		NatsURL:         envStr("NATS_URL", ""),
		ExtractTimeout:  envInt("TRIALLOG_EXTRACT_TIMEOUT_SECONDS", 10),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
