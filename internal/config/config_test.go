package config_test

import (
	"testing"

	"github.com/aurelia-care/aurelia/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Mode != config.ModeLocal {
		t.Fatalf("expected local mode by default, got %s", cfg.Mode)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if !cfg.UseMockLLM {
		t.Fatalf("local mode should default to the mock gateway")
	}
	if cfg.StorageBackend != "memory" {
		t.Fatalf("expected memory storage by default, got %s", cfg.StorageBackend)
	}
	if cfg.SynthesisEvery != 4 {
		t.Fatalf("expected synthesis cadence 4, got %d", cfg.SynthesisEvery)
	}
	if cfg.DeliveryConfigured() {
		t.Fatalf("delivery must not be configured without credentials")
	}
}

func TestLoadGCPModeRequiresProject(t *testing.T) {
	t.Setenv("AURELIA_MODE", "gcp")
	t.Setenv("AURELIA_USE_MOCK_LLM", "false")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected an error without AURELIA_GCP_PROJECT")
	}

	t.Setenv("AURELIA_GCP_PROJECT", "my-project")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mode != config.ModeGCP {
		t.Fatalf("expected gcp mode, got %s", cfg.Mode)
	}
}

func TestLoadRejectsUnknownStorageBackend(t *testing.T) {
	t.Setenv("AURELIA_STORAGE_BACKEND", "redis")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected an error for an unknown storage backend")
	}
}

func TestLoadFirestoreBackendRequiresProject(t *testing.T) {
	t.Setenv("AURELIA_STORAGE_BACKEND", "firestore")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected an error without AURELIA_GCP_PROJECT")
	}
}

func TestDeliveryConfigured(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550001111")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.DeliveryConfigured() {
		t.Fatalf("expected delivery to be configured")
	}
}
