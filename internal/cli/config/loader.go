package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
// A double underscore separates nested keys: MODELGEN_WATCH__DEBOUNCE.
const EnvPrefix = "MODELGEN_"

// configNames are the file names searched for in the working directory.
var configNames = []string{"modelgen.yaml", "modelgen.yml", ".modelgen.yaml"}

// configKey and loggerKey are used to store values in the command context.
type (
	configKey struct{}
	loggerKey struct{}
)

// listKeys are read from the environment as space separated lists.
var listKeys = map[string]struct{}{"packages": {}, "contracts": {}}

// flagKeys maps flag names that differ from their config keys.
var flagKeys = map[string]string{
	"contract": "contracts",
	"debounce": "watch.debounce",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > modelgen.yaml > modelgen.yml > .modelgen.yaml
func findConfigFile(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load loads configuration from defaults, the config file, environment
// variables and flags. Precedence (highest to lowest): flags > env vars >
// config file > defaults. The returned path is the config file used, if any.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"packages":       []string{"."},
		"output":         DefaultOutput,
		"suffix":         DefaultSuffix,
		"marker":         DefaultMarker,
		"log_level":      DefaultLogLevel,
		"verbose":        false,
		"format":         DefaultFormat,
		"watch.debounce": DefaultDebounce,
	}, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile, cwd)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: MODELGEN_LOG_LEVEL -> log_level
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(name, value string) (string, any) {
		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if _, ok := listKeys[key]; ok {
			return key, strings.Fields(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}

	// Patterns in a config file are relative to the file, not the working directory.
	cfg.Dir = cwd
	if used != "" {
		if abs, err := filepath.Abs(used); err == nil {
			cfg.Dir = filepath.Dir(abs)
		}
	}

	if cfg.Verbose && !flagChanged(flags, "log-level") {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, used, nil
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	return flags != nil && flags.Changed(name)
}

// NewLogger builds the CLI logger writing text records to w.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// NewContext returns a copy of ctx carrying cfg and logger.
func NewContext(ctx context.Context, cfg *Config, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey{}, cfg)
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves the config from the command context.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	// Return default config if none in context
	return &Config{
		Packages: []string{"."},
		Output:   DefaultOutput,
		Suffix:   DefaultSuffix,
		Marker:   DefaultMarker,
		LogLevel: DefaultLogLevel,
		Format:   DefaultFormat,
		Watch:    WatchConfig{Debounce: DefaultDebounce},
		Dir:      ".",
	}
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
