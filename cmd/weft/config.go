package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the optional YAML configuration file. Flags take precedence
// where both are given.
type Config struct {
	Provider  string            `yaml:"provider"`   // "ollama", "anthropic", or "" for none
	Model     string            `yaml:"model"`      // provider model name
	OllamaURL string            `yaml:"ollama_url"` // ollama server URL
	Database  string            `yaml:"database"`   // sqlite path
	MaxDepth  int               `yaml:"max_depth"`  // template recursion bound
	Vars      map[string]string `yaml:"vars"`       // seed variables
}

// LoadConfig reads the config file at path. A missing file yields the
// zero config; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
