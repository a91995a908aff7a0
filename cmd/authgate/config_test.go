package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.PinLength != 6 {
		t.Fatalf("PinLength = %d, want 6", cfg.PinLength)
	}
	if cfg.Biometric.PromptMessage == "" {
		t.Fatal("default biometric prompt is empty")
	}
	if len(cfg.StoreSalt()) == 0 {
		t.Fatal("default salt does not decode")
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authgate.yaml")
	content := `
pin_length: 4
store:
  path: /tmp/creds.db
  device_secret: test-secret
  salt: "00112233445566778899aabbccddeeff"
biometric:
  prompt_message: "Unlock"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.PinLength != 4 {
		t.Fatalf("PinLength = %d, want 4", cfg.PinLength)
	}
	if cfg.Store.Path != "/tmp/creds.db" {
		t.Fatalf("store path = %q, want /tmp/creds.db", cfg.Store.Path)
	}
	if got := len(cfg.StoreSalt()); got != 16 {
		t.Fatalf("salt length = %d, want 16", got)
	}
}

func TestLoadConfig_RejectsBadPinLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authgate.yaml")
	if err := os.WriteFile(path, []byte("pin_length: 12\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for out-of-range pin_length")
	}
}

func TestLoadConfig_RejectsBadSalt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authgate.yaml")
	content := "store:\n  salt: \"not-hex\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for non-hex salt")
	}
}
