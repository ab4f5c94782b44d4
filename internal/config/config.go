// Package config provides configuration management for docstitch using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the DOCSTITCH_ prefix, validation, and path safety checks.
// It manages the document manifest, playground scan paths, generation
// options, preview server settings, and watch-mode options.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/docstitch/docstitch/internal/validation"
)

type Config struct {
	Document DocumentConfig `yaml:"document" mapstructure:"document"`
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Generate GenerateConfig `yaml:"generate" mapstructure:"generate"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
}

// DocumentConfig describes the document to assemble.
type DocumentConfig struct {
	// Title is the document title, used for the preview page and the
	// default TOC heading.
	Title string `yaml:"title" mapstructure:"title"`
	// Fragments lists fragment files or globs in stitch order. When empty,
	// FragmentsDir is globbed and fragments are ordered by front matter
	// weight, then path.
	Fragments []string `yaml:"fragments" mapstructure:"fragments"`
	// FragmentsDir is the directory searched for fragments when Fragments
	// is empty.
	FragmentsDir string `yaml:"fragments_dir" mapstructure:"fragments_dir"`
	// Output is the generated Markdown path.
	Output string `yaml:"output" mapstructure:"output"`
}

// SourcesConfig describes where playground sources live.
type SourcesConfig struct {
	ScanPaths       []string `yaml:"scan_paths" mapstructure:"scan_paths"`
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
}

// GenerateConfig holds generation options.
type GenerateConfig struct {
	// NoBanner suppresses the generated-file banner at the top of outputs.
	NoBanner bool `yaml:"no_banner" mapstructure:"no_banner"`
	// CacheDir stores the fragment render cache; empty disables persistence.
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
	// IncludeDrafts renders fragments marked draft in front matter.
	IncludeDrafts bool `yaml:"include_drafts" mapstructure:"include_drafts"`
}

// ServerConfig holds preview server settings.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	Open bool   `yaml:"open" mapstructure:"open"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	// DebounceMillis groups rapid file events before regenerating.
	DebounceMillis int      `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	Ignore         []string `yaml:"ignore" mapstructure:"ignore"`
}

// Load builds the configuration from viper's merged sources and validates it.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	// Workaround for viper slice handling: explicit settings beat the
	// zero values Unmarshal sometimes leaves behind.
	if viper.IsSet("sources.scan_paths") && len(config.Sources.ScanPaths) == 0 {
		config.Sources.ScanPaths = viper.GetStringSlice("sources.scan_paths")
	}
	if viper.IsSet("document.fragments") && len(config.Document.Fragments) == 0 {
		config.Document.Fragments = viper.GetStringSlice("document.fragments")
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Document.FragmentsDir == "" {
		config.Document.FragmentsDir = "docs/fragments"
	}
	if config.Document.Output == "" {
		config.Document.Output = "README.md"
	}
	if len(config.Sources.ScanPaths) == 0 && !viper.IsSet("sources.scan_paths") {
		config.Sources.ScanPaths = []string{"./playground"}
	}
	if len(config.Sources.ExcludePatterns) == 0 {
		config.Sources.ExcludePatterns = []string{"node_modules", "vendor", ".git"}
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8135
	}
	if config.Watch.DebounceMillis == 0 {
		config.Watch.DebounceMillis = 300
	}
}

func validateConfig(config *Config) error {
	if err := validateDocumentConfig(&config.Document); err != nil {
		return fmt.Errorf("document config: %w", err)
	}
	if err := validateSourcesConfig(&config.Sources); err != nil {
		return fmt.Errorf("sources config: %w", err)
	}
	if config.Generate.CacheDir != "" {
		if err := validation.ValidateRelativePath(config.Generate.CacheDir); err != nil {
			return fmt.Errorf("generate config: cache_dir %q: %w", config.Generate.CacheDir, err)
		}
	}
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	return nil
}

func validateDocumentConfig(config *DocumentConfig) error {
	if err := validation.ValidateRelativePath(config.Output); err != nil {
		return fmt.Errorf("output %q: %w", config.Output, err)
	}
	if err := validation.ValidateRelativePath(config.FragmentsDir); err != nil {
		return fmt.Errorf("fragments_dir %q: %w", config.FragmentsDir, err)
	}
	for _, f := range config.Fragments {
		if err := validation.ValidateRelativePath(f); err != nil {
			return fmt.Errorf("fragment %q: %w", f, err)
		}
	}

	return nil
}

func validateSourcesConfig(config *SourcesConfig) error {
	if len(config.ScanPaths) == 0 {
		return fmt.Errorf("at least one scan path is required")
	}
	for _, p := range config.ScanPaths {
		if err := validation.ValidateRelativePath(p); err != nil {
			return fmt.Errorf("scan path %q: %w", p, err)
		}
	}

	return nil
}

func validateServerConfig(config *ServerConfig) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}
	if strings.ContainsAny(config.Host, " /") {
		return fmt.Errorf("invalid host: %q", config.Host)
	}

	return nil
}
