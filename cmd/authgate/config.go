package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the harness configuration
type Config struct {
	// PinLength is the fixed PIN length
	PinLength int `yaml:"pin_length"`

	// Store configuration
	Store StoreConfig `yaml:"store"`

	// Biometric configuration
	Biometric BiometricConfig `yaml:"biometric"`
}

// StoreConfig holds credential store settings
type StoreConfig struct {
	// Path is the SQLite credential database path
	Path string `yaml:"path"`

	// LegacyPath is the prior-generation credential file (migration source)
	LegacyPath string `yaml:"legacy_path"`

	// DeviceSecret seeds the store key derivation
	DeviceSecret string `yaml:"device_secret"`

	// Salt is the hex-encoded key derivation salt
	Salt string `yaml:"salt"`
}

// BiometricConfig holds biometric prompt settings
type BiometricConfig struct {
	PromptMessage string `yaml:"prompt_message"`
}

// DefaultConfig returns the default harness configuration
func DefaultConfig() *Config {
	return &Config{
		PinLength: 6,
		Store: StoreConfig{
			Path:         "authgate.db",
			LegacyPath:   "keychain.json",
			DeviceSecret: "dev-device-secret",
			Salt:         "6e696d6275732d617574686761746531",
		},
		Biometric: BiometricConfig{
			PromptMessage: "Unlock your wallet",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Use defaults if no config file
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.PinLength < 4 || c.PinLength > 8 {
		return fmt.Errorf("pin_length must be 4-8, got %d", c.PinLength)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Store.DeviceSecret == "" {
		return fmt.Errorf("store.device_secret is required")
	}
	if _, err := hex.DecodeString(c.Store.Salt); err != nil {
		return fmt.Errorf("store.salt must be hex: %w", err)
	}
	return nil
}

// StoreSalt returns the decoded key derivation salt
func (c *Config) StoreSalt() []byte {
	salt, _ := hex.DecodeString(c.Store.Salt)
	return salt
}
