package config

import "time"

// Config represents the complete fleetfix configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Store      StoreConfig      `yaml:"store"`
	API        APIConfig        `yaml:"api"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Playbook   PlaybookConfig   `yaml:"playbook,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StoreConfig defines where the SQLite store lives.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Listen string     `yaml:"listen"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken maps a bearer token to the identity it authenticates.
type APIToken struct {
	Token        string   `yaml:"token"`
	Account      string   `yaml:"account"`
	Username     string   `yaml:"username"`
	Entitlements []string `yaml:"entitlements,omitempty"`
}

// DispatcherConfig defines how to reach the playbook dispatcher service.
// When Mock is true the reference in-memory client is used instead.
type DispatcherConfig struct {
	BaseURL string        `yaml:"base_url"`
	PSK     string        `yaml:"psk"`
	Timeout time.Duration `yaml:"timeout"`
	Mock    bool          `yaml:"mock,omitempty"`
}

// PlaybookConfig controls the text-update block embedded in every work
// request payload.
type PlaybookConfig struct {
	TextUpdates        bool          `yaml:"text_updates"`
	TextUpdateInterval time.Duration `yaml:"text_update_interval"`
	TextUpdateFull     bool          `yaml:"text_update_full"`
}
