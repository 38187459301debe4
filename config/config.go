package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the root of a configuration file.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	AA    AAConfig    `toml:"aa"`
	Log   LogConfig   `toml:"log"`
}

// CacheConfig holds the texture cache budget.
type CacheConfig struct {
	MaxTextures     int   `toml:"max_textures"`
	MaxTextureBytes int64 `toml:"max_texture_bytes"`
}

// AAConfig controls offscreen antialiasing.
type AAConfig struct {
	Enabled          bool `toml:"enabled"`
	MaxOffscreenSize int  `toml:"max_offscreen_size"`
	PreferMSAA       bool `toml:"prefer_msaa"`
}

// LogConfig selects the log level of command-line tools.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{MaxTextures: 256, MaxTextureBytes: 16 << 20},
		AA:    AAConfig{Enabled: true, MaxOffscreenSize: 256},
		Log:   LogConfig{Level: "info"},
	}
}

// Parse decodes data on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config: %w: %s", ErrInvalid, strict.String())
		}
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Cache.MaxTextures < 0:
		return fmt.Errorf("%w: cache.max_textures %d < 0", ErrInvalid, c.Cache.MaxTextures)
	case c.Cache.MaxTextureBytes < 0:
		return fmt.Errorf("%w: cache.max_texture_bytes %d < 0", ErrInvalid, c.Cache.MaxTextureBytes)
	case c.AA.MaxOffscreenSize < 0:
		return fmt.Errorf("%w: aa.max_offscreen_size %d < 0", ErrInvalid, c.AA.MaxOffscreenSize)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps Level onto a slog level. An empty level means info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, l.Level)
	}
}
