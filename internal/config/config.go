package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-application dotfile read from the analyzed root.
const ConfigFileName = ".adconfig"

// Config tunes the analyzer for one application. All fields are optional;
// zero values fall back to the built-in behavior. List fields are added to
// the built-in sets, not replacing them.
type Config struct {
	// AppName overrides the detected Flask application symbol in the result.
	AppName string `yaml:"app_name"`
	// DefaultMethods replaces the HTTP methods assumed when a route
	// decorator names none. Defaults to GET.
	DefaultMethods []string `yaml:"default_methods"`
	// DBKeywords are extra module name fragments that mark a function as
	// database-dependent.
	DBKeywords []string `yaml:"db_keywords"`
	// IgnoreDirs are extra directory names skipped during discovery.
	IgnoreDirs []string `yaml:"ignore_dirs"`
	// Workers caps the parse worker count. Zero means one per CPU.
	Workers int `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{}
}

// Load reads the config dotfile from dir. A missing or unreadable file
// yields the defaults; a malformed file is logged and also yields the
// defaults, so a bad dotfile never blocks analysis.
func Load(dir string) *Config {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Warn("config.parse.err", "path", path, "err", err)
		return Default()
	}
	return &cfg
}

// EffectiveAppName returns the configured app name or the detected one.
func (c *Config) EffectiveAppName(detected string) string {
	if c != nil && c.AppName != "" {
		return c.AppName
	}
	return detected
}

// EffectiveDefaultMethods returns the methods assumed for routes that
// declare none.
func (c *Config) EffectiveDefaultMethods() []string {
	if c != nil && len(c.DefaultMethods) > 0 {
		return c.DefaultMethods
	}
	return []string{"GET"}
}

// EffectiveWorkers returns the configured worker cap, or 0 to size the
// pool from the CPU count.
func (c *Config) EffectiveWorkers() int {
	if c != nil && c.Workers > 0 {
		return c.Workers
	}
	return 0
}

// ExtraDBKeywords returns the additional database keywords, never nil.
func (c *Config) ExtraDBKeywords() []string {
	if c == nil {
		return nil
	}
	return c.DBKeywords
}

// ExtraIgnoreDirs returns the additional ignored directories, never nil.
func (c *Config) ExtraIgnoreDirs() []string {
	if c == nil {
		return nil
	}
	return c.IgnoreDirs
}
