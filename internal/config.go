package internal

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StoreAlias names one store in the config file: the URI to open and any
// passwords specific to it.
type StoreAlias struct {
	URI       string   `yaml:"uri"`
	Passwords []string `yaml:"passwords,omitempty"`
}

// Config is the YAML configuration for the CLI: a map of store aliases
// that can be referenced on the command line as "@name".
type Config struct {
	Stores map[string]StoreAlias `yaml:"stores"`
}

// LoadConfig reads and parses a YAML config file. Every alias must carry
// a URI.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	for name, alias := range cfg.Stores {
		if alias.URI == "" {
			return nil, fmt.Errorf("config %s: store %q has no uri", path, name)
		}
	}
	return &cfg, nil
}

// Resolve maps a command-line store argument to a URI and its passwords.
// An argument of the form "@name" is looked up among the aliases; any
// other argument passes through unchanged. A nil Config resolves plain
// arguments only.
func (c *Config) Resolve(arg string) (string, []string, error) {
	name, ok := strings.CutPrefix(arg, "@")
	if !ok {
		return arg, nil, nil
	}
	if c == nil {
		return "", nil, fmt.Errorf("store alias %q used without a config file", arg)
	}
	alias, ok := c.Stores[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown store alias %q", arg)
	}
	return alias.URI, alias.Passwords, nil
}
