package main

import (
	"fmt"
	"os"
	"time"

	"github.com/neodyma/laik/pkg/config"
)

// loadConfig loads the configuration from file, auto-generating a default
// one if none exists yet.
func loadConfig() (*config.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		configPath = "laik.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("config file not found, creating default configuration at: %s\n", configPath)

		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// generateRunID creates a unique run ID.
func generateRunID() string {
	return fmt.Sprintf("run-%d", time.Now().Unix())
}
