// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	TextModel    string
	TitleModel   string
	TTSModel     string
	TTSVoice     string

	StorageBackend string // "memory", "sqlite" or "firestore"
	DBPath         string
	UseMockLLM     bool // true = use mock even on GCP
	VoiceEnabled   bool

	// How many user turns between memory synthesis passes.
	SynthesisEvery int

	// Escalation delivery. All three secrets must be present for real sends;
	// otherwise escalation runs in simulated mode.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	EmergencyContact string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// Load reads all env vars and builds the config.
func Load() (*Config, error) {
	var mode Mode
	switch getEnv("AURELIA_MODE", "local") {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("PORT", "8080"),

		GCPProjectID: getEnv("AURELIA_GCP_PROJECT", ""),
		GCPLocation:  getEnv("AURELIA_GCP_LOCATION", "us-central1"),
		TextModel:    getEnv("AURELIA_TEXT_MODEL", "gemini-2.5-flash"),
		TitleModel:   getEnv("AURELIA_TITLE_MODEL", "gemini-2.5-flash-lite"),
		TTSModel:     getEnv("AURELIA_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		TTSVoice:     getEnv("AURELIA_TTS_VOICE", "Kore"),

		StorageBackend: getEnv("AURELIA_STORAGE_BACKEND", "memory"),
		DBPath:         getEnv("AURELIA_DB_PATH", "./data/aurelia.db"),
		UseMockLLM:     getBoolEnv("AURELIA_USE_MOCK_LLM", mode == ModeLocal),
		VoiceEnabled:   getBoolEnv("AURELIA_VOICE_ENABLED", mode == ModeGCP),

		SynthesisEvery: getIntEnv("AURELIA_SYNTHESIS_EVERY", 4),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		EmergencyContact: getEnv("AURELIA_EMERGENCY_CONTACT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the combinations that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Mode == ModeGCP && !c.UseMockLLM && c.GCPProjectID == "" {
		return fmt.Errorf("AURELIA_GCP_PROJECT must be set in gcp mode")
	}
	switch c.StorageBackend {
	case "memory", "sqlite", "firestore":
	default:
		return fmt.Errorf("AURELIA_STORAGE_BACKEND must be memory, sqlite or firestore, got %q", c.StorageBackend)
	}
	if c.StorageBackend == "sqlite" && c.DBPath == "" {
		return fmt.Errorf("AURELIA_DB_PATH cannot be empty with the sqlite backend")
	}
	if c.StorageBackend == "firestore" && c.GCPProjectID == "" {
		return fmt.Errorf("AURELIA_GCP_PROJECT is required for the firestore backend")
	}
	if c.SynthesisEvery <= 0 {
		return fmt.Errorf("AURELIA_SYNTHESIS_EVERY must be > 0")
	}
	return nil
}

// DeliveryConfigured reports whether all three escalation secrets are set.
func (c *Config) DeliveryConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}
