// Package config provides configuration management for the modelgen CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/leapmodel/internal/codegen"
)

// Config holds all CLI configuration options.
type Config struct {
	// Packages are the package patterns to generate when none are given as arguments.
	Packages []string `koanf:"packages"`
	// Output is the base name of the generated file in each package.
	Output string `koanf:"output"`
	Suffix string `koanf:"suffix"`
	Marker string `koanf:"marker"`
	// Contracts names contract types that carry no marker comment.
	Contracts []string    `koanf:"contracts"`
	LogLevel  string      `koanf:"log_level"`
	Verbose   bool        `koanf:"verbose"`
	Format    string      `koanf:"format"`
	Watch     WatchConfig `koanf:"watch"`

	// Dir is the directory package patterns are resolved in.
	Dir string `koanf:"-"`
}

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Default configuration values - uses the generator's defaults
const (
	DefaultOutput   = codegen.DefaultOutput
	DefaultSuffix   = codegen.DefaultSuffix
	DefaultMarker   = codegen.DefaultMarker
	DefaultLogLevel = "warn"
	DefaultFormat   = "table"
	DefaultDebounce = 300 * time.Millisecond
)

// Output formats accepted by the inspect command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)
