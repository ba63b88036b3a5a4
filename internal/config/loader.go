package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars substitutes ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "fleetfix"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "INFO"
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = "json"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "fleetfix.db"
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:8080"
	}
	if cfg.Dispatcher.Timeout <= 0 {
		cfg.Dispatcher.Timeout = 30 * time.Second
	}
	if cfg.Playbook.TextUpdateInterval <= 0 {
		cfg.Playbook.TextUpdateInterval = 5 * time.Second
	}
}

func validate(cfg *Config) error {
	if !cfg.Dispatcher.Mock && cfg.Dispatcher.BaseURL == "" {
		return fmt.Errorf("dispatcher.base_url is required unless dispatcher.mock is enabled")
	}
	seen := make(map[string]bool)
	for i, t := range cfg.API.Tokens {
		if t.Token == "" {
			return fmt.Errorf("api.tokens[%d]: token is empty", i)
		}
		if t.Account == "" || t.Username == "" {
			return fmt.Errorf("api.tokens[%d]: account and username are required", i)
		}
		if seen[t.Token] {
			return fmt.Errorf("api.tokens[%d]: duplicate token", i)
		}
		seen[t.Token] = true
	}
	return nil
}
