// Package config provides configuration types and defaults for recolor.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/muesli/termenv"

	"github.com/zjrosen/recolor/internal/highlight"
	"github.com/zjrosen/recolor/internal/log"
	"github.com/zjrosen/recolor/internal/style"
)

// Color modes.
const (
	ColorAlways = "always" // emit escape sequences unconditionally, 24-bit colors kept as-is
	ColorAuto   = "auto"   // follow the output terminal and NO_COLOR / CLICOLOR_FORCE
	ColorNever  = "never"  // pass text through unstyled
)

// LocalConfigFile is looked up in the working directory before the user config.
const LocalConfigFile = ".recolor.yaml"

// Config holds all configuration options for recolor.
// Palette holds token lists, one per palette slot; Styles maps capture-group
// names to token lists.
type Config struct {
	Color        string            `mapstructure:"color" yaml:"color"`
	Engine       string            `mapstructure:"engine" yaml:"engine"`
	MatchTimeout time.Duration     `mapstructure:"match_timeout" yaml:"match_timeout"`
	Palette      []string          `mapstructure:"palette" yaml:"palette,omitempty"`
	Styles       map[string]string `mapstructure:"styles" yaml:"styles,omitempty"`
}

// MarshalYAML renders durations in their string form.
func (c Config) MarshalYAML() (any, error) {
	return struct {
		Color        string            `yaml:"color"`
		Engine       string            `yaml:"engine"`
		MatchTimeout string            `yaml:"match_timeout"`
		Palette      []string          `yaml:"palette,omitempty"`
		Styles       map[string]string `yaml:"styles,omitempty"`
	}{
		Color:        c.Color,
		Engine:       c.Engine,
		MatchTimeout: c.MatchTimeout.String(),
		Palette:      c.Palette,
		Styles:       c.Styles,
	}, nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Color:        ColorAlways,
		Engine:       string(highlight.EngineRE2),
		MatchTimeout: 0, // no limit
	}
}

// DefaultConfigPath returns ~/.config/recolor/config.yaml, or an empty string
// if the home directory is unavailable.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "recolor", "config.yaml")
}

// Validate checks every option and eagerly parses the palette and styles so
// that all configuration errors surface before any input is read.
func Validate(c Config) error {
	switch c.Color {
	case "", ColorAlways, ColorAuto, ColorNever:
		// Valid
	default:
		return fmt.Errorf("color must be %q, %q, or %q, got %q", ColorAlways, ColorAuto, ColorNever, c.Color)
	}

	switch highlight.Engine(c.Engine) {
	case "", highlight.EngineRE2, highlight.EngineBacktrack:
		// Valid
	default:
		return fmt.Errorf("engine must be %q or %q, got %q", highlight.EngineRE2, highlight.EngineBacktrack, c.Engine)
	}

	if c.MatchTimeout < 0 {
		return fmt.Errorf("match_timeout must not be negative, got %s", c.MatchTimeout)
	}

	if _, err := c.PaletteStyles(); err != nil {
		return err
	}
	if _, err := c.StyleTable(); err != nil {
		return err
	}
	return nil
}

// PaletteStyles parses the configured palette, or returns the default one.
func (c Config) PaletteStyles() (style.Palette, error) {
	p, err := style.ParsePalette(c.Palette)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	return p, nil
}

// StyleTable parses the configured group styles.
//
// Keys read through viper are lower-cased, so config-file entries only apply
// to capture groups with lower-case names.
func (c Config) StyleTable() (style.Table, error) {
	t, err := style.ParseTable(c.Styles)
	if err != nil {
		return nil, fmt.Errorf("styles: %w", err)
	}
	return t, nil
}

// MatcherOptions returns the regex engine options.
func (c Config) MatcherOptions() highlight.Options {
	return highlight.Options{
		Engine:       highlight.Engine(c.Engine),
		MatchTimeout: c.MatchTimeout,
	}
}

// ColorProfile returns the profile to render with when writing to out.
func (c Config) ColorProfile(out io.Writer) termenv.Profile {
	switch c.Color {
	case ColorNever:
		return termenv.Ascii
	case ColorAuto:
		return termenv.NewOutput(out).EnvColorProfile()
	default:
		return termenv.TrueColor
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# recolor configuration

# When to emit color: always (default), auto, or never.
# "auto" follows the terminal and honors NO_COLOR / CLICOLOR_FORCE.
color: always

# Regex engine: re2 (default, linear time) or backtrack (look-around and
# backreferences, may be slow on pathological patterns).
engine: re2

# Upper bound for a single match attempt with the backtrack engine.
# 0 disables the limit.
# match_timeout: 500ms

# Fallback styles for capture groups without an explicit style, indexed by the
# group's position in the pattern (modulo the palette length).
# palette:
#   - red
#   - green
#   - yellow
#   - blue
#   - magenta
#   - cyan
#   - white

# Styles for named capture groups. Names must be lower case.
# Command-line NAME=STYLE arguments take precedence.
# styles:
#   level: bold,red
#   ts: dim
#   msg: "#87d7ff,italic"

# Style tokens:
#   colors:     black red green yellow blue magenta cyan white
#   bright:     bright_black bright_red ... bright_white
#   truecolor:  "#RRGGBB" (quote it, '#' starts a YAML comment)
#   attributes: bold dim italic underline blink hidden strikethrough
`
}

// ErrConfigExists is returned by WriteDefaultConfig when the file exists and
// overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string, force bool) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath, "force", force)

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, configPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking config file: %w", err)
		}
	}

	// Create parent directory if needed
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
