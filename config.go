package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"stripecodec/logx"
)

const (
	configEnv         = "STRIPECODEC_CONFIG"
	defaultConfigFile = "stripecodec.toml"
)

// Config is read from stripecodec.toml (or $STRIPECODEC_CONFIG).
type Config struct {
	// Transparent is the palette index skipped when decoding, -1 for none.
	Transparent int `toml:"transparent"`
	// HeaderSize is the chunk header size folded into stored offsets.
	HeaderSize int  `toml:"header_size"`
	Zstd       bool `toml:"zstd"`
	// Workers bounds how many files are processed at once; 0 means NumCPU.
	Workers    int    `toml:"workers"`
	LogLevel   string `toml:"log_level"`
	Color      string `toml:"color"`
	MaxZPlanes int    `toml:"max_zplanes"`
}

var DefaultConfig = Config{
	Transparent: -1,
	HeaderSize:  8,
	Zstd:        true,
	LogLevel:    "info",
	Color:       "auto",
	MaxZPlanes:  4,
}

// ParseConfig decodes TOML over the defaults. Unknown keys are an error.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return cfg, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Transparent < -1 || c.Transparent > 255 {
		return fmt.Errorf("transparent must be -1 or a palette index, got %d", c.Transparent)
	}
	if c.HeaderSize < 0 || c.HeaderSize > 255 {
		return fmt.Errorf("header_size must be in 0..255, got %d", c.HeaderSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxZPlanes < 0 || c.MaxZPlanes > 255 {
		return fmt.Errorf("max_zplanes must be in 0..255, got %d", c.MaxZPlanes)
	}
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logx.ParseColorMode(c.Color); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads the config file. A missing default file yields the
// defaults; a missing file named by the environment is an error.
func LoadConfig() (Config, error) {
	path, explicit := os.LookupEnv(configEnv)
	if !explicit || path == "" {
		path = defaultConfigFile
		explicit = false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return DefaultConfig, nil
		}
		return DefaultConfig, err
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// apply installs the logging settings.
func (c Config) apply() {
	lvl, _ := logx.ParseLevel(c.LogLevel)
	mode, _ := logx.ParseColorMode(c.Color)
	logx.SetLevel(lvl)
	logx.SetOutput(os.Stderr, mode)
}
