package config

import (
	"fmt"
	"go/token"
	"log/slog"
	"path/filepath"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Output == "" || filepath.Base(c.Output) != c.Output {
		return fmt.Errorf("output must be a file name without directories, got %q", c.Output)
	}
	if !strings.HasSuffix(c.Output, ".go") || strings.HasSuffix(c.Output, "_test.go") {
		return fmt.Errorf("output must be a non-test .go file, got %q", c.Output)
	}
	if c.Suffix == "" || !token.IsIdentifier("X"+c.Suffix) {
		return fmt.Errorf("suffix %q does not form a valid identifier", c.Suffix)
	}
	if !strings.HasPrefix(c.Marker, "//") {
		return fmt.Errorf("marker must be a line comment, got %q", c.Marker)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown format %q (want table|json|yaml)", c.Format)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

// ParseLevel parses a log level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
