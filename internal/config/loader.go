package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultListen is the TCP address the coordinator binds when nothing else
// is configured. The port number is part of the protocol's folklore; workers
// assume it.
const DefaultListen = ":55000"

// Default returns a Config with every default applied, used when no config
// file is given.
func Default() *Config {
	return applyDefaults(&Config{})
}

// Load reads and parses configuration from a YAML file and applies defaults
// for anything left unset.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with -config flag", absPath)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	out := applyDefaults(&cfg)
	if err := validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func applyDefaults(cfg *Config) *Config {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "parbreak"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "INFO"
	}
	if cfg.Service.Listen == "" {
		cfg.Service.Listen = DefaultListen
	}
	if cfg.Service.TakeBackoff <= 0 {
		cfg.Service.TakeBackoff = 5 * time.Second
	}
	if cfg.Service.ReadBuffer <= 0 {
		cfg.Service.ReadBuffer = 2048
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:8600"
	}
	return cfg
}

func validate(cfg *Config) error {
	if !strings.Contains(cfg.Service.Listen, ":") {
		return fmt.Errorf("service.listen %q is not a host:port address", cfg.Service.Listen)
	}
	if cfg.API.Enabled && !strings.Contains(cfg.API.Listen, ":") {
		return fmt.Errorf("api.listen %q is not a host:port address", cfg.API.Listen)
	}
	return nil
}

// ReadCommandFile reads a job list, one shell command per line. Blank lines
// are skipped; everything else is taken verbatim.
func ReadCommandFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read command file: %w", err)
	}

	var commands []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		commands = append(commands, line)
	}
	return commands, nil
}
