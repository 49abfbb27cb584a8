// Package config provides the options shared by all rdfpub commands.
//
// Options are loaded with koanf. Precedence (highest to lowest):
// flags > RDFPUB_ environment variables > defaults. Site settings are not
// handled here; they live in the .rdfpub descriptor of the input directory.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	siteconfig "github.com/rdfpub/generator/internal/config"
)

// Default option values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultOutput    = "auto"
)

// EnvPrefix is the prefix of environment variables holding options.
const EnvPrefix = "RDFPUB_"

// Output modes.
const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
)

// Options holds the CLI options.
type Options struct {
	Verbose   bool   `koanf:"verbose"`
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	Output    string `koanf:"output"`
}

// loggerKey is used to store the logger in a context.
type loggerKey struct{}

var (
	k       = koanf.New(".")
	current *Options
)

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	current = nil
}

// LoadOptions loads options from defaults, the environment and flags.
// Only flags that were explicitly set override the other sources.
func LoadOptions(flags *pflag.FlagSet) (*Options, error) {
	k = koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"verbose":    false,
		"log_level":  DefaultLogLevel,
		"log_format": DefaultLogFormat,
		"output":     DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// RDFPUB_LOG_LEVEL -> log_level. RDFPUB_SITE_* belongs to the descriptor.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		if strings.HasPrefix(s, siteconfig.EnvPrefix) {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var o Options
	if err := k.Unmarshal("", &o); err != nil {
		return nil, fmt.Errorf("unable to decode options: %w", err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	current = &o
	return &o, nil
}

// GetCurrentOptions returns the options loaded last, or nil.
func GetCurrentOptions() *Options {
	return current
}

// Validate checks the option values.
func (o *Options) Validate() error {
	if _, err := o.Level(); err != nil {
		return err
	}
	switch o.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", o.LogFormat)
	}
	switch o.Output {
	case OutputAuto, OutputText, OutputJSON:
	default:
		return fmt.Errorf("invalid output mode %q (want auto, text or json)", o.Output)
	}
	return nil
}

// Level returns the log level. Verbose forces debug.
func (o *Options) Level() (slog.Level, error) {
	if o.Verbose {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", o.LogLevel, err)
	}
	return level, nil
}

// NewLogger creates the logger described by o writing to w.
func NewLogger(w io.Writer, o *Options) (*slog.Logger, error) {
	level, err := o.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if o.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
