package config

import "time"

// Config represents the complete parbreak configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	API     APIConfig     `yaml:"api,omitempty"`
}

// ServiceConfig defines coordinator settings.
type ServiceConfig struct {
	Name        string        `yaml:"name"`
	LogLevel    string        `yaml:"log_level"`
	Listen      string        `yaml:"listen"`       // TCP address workers connect to
	TakeBackoff time.Duration `yaml:"take_backoff"` // empty-queue retry interval
	ReadBuffer  int           `yaml:"read_buffer"`  // per-read buffer, also the message size ceiling
	JobsFile    string        `yaml:"jobs_file"`    // optional startup command list
}

// APIConfig defines the optional HTTP status API.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	// APIKey, when set, is required as a bearer token on every API request.
	APIKey string `yaml:"api_key"`
}
