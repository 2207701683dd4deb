// Package config loads fixscan CLI settings with viper. Values come from, in
// increasing precedence, built-in defaults, an optional YAML file, FIXSCAN_*
// environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. FIXSCAN_LOG_LEVEL.
const EnvPrefix = "FIXSCAN"

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Decoder DecoderConfig `mapstructure:"decoder"`
	Input   InputConfig   `mapstructure:"input"`
	Output  OutputConfig  `mapstructure:"output"`
}

type LogConfig struct {
	Level  string     `mapstructure:"level"`  // trace | debug | info | warn | error
	Format string     `mapstructure:"format"` // text | json
	File   FileConfig `mapstructure:"file"`
}

// FileConfig controls the rotating log file.
type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type DecoderConfig struct {
	Capacity          int  `mapstructure:"capacity"`
	Checksum          bool `mapstructure:"checksum"`
	StrictTermination bool `mapstructure:"strict_termination"`
}

type InputConfig struct {
	Format  string `mapstructure:"format"` // raw | pipe | pcap
	Workers int    `mapstructure:"workers"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"` // text | json | yaml
	Tags   []int  `mapstructure:"tags"`
}

// New returns a viper instance with defaults and environment overrides set.
// Callers bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "fixscan.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("decoder.capacity", 200)
	v.SetDefault("decoder.checksum", true)
	v.SetDefault("decoder.strict_termination", false)

	v.SetDefault("input.format", "pipe")
	v.SetDefault("input.workers", runtime.GOMAXPROCS(0))

	v.SetDefault("output.format", "text")
	v.SetDefault("output.tags", []int{})
}

// Load reads path, if set, into v and returns the validated result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks c and fills in values that depend on the host:
// input.workers 0 becomes GOMAXPROCS.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q (must be trace/debug/info/warn/error)", ErrInvalid, c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format %q (must be text/json)", ErrInvalid, c.Log.Format)
	}
	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return fmt.Errorf("%w: log.file.path is required when log.file.enabled=true", ErrInvalid)
	}
	if c.Decoder.Capacity < 0 {
		return fmt.Errorf("%w: decoder.capacity %d", ErrInvalid, c.Decoder.Capacity)
	}
	switch c.Input.Format {
	case "raw", "pipe", "pcap":
	default:
		return fmt.Errorf("%w: input.format %q (must be raw/pipe/pcap)", ErrInvalid, c.Input.Format)
	}
	if c.Input.Workers < 0 {
		return fmt.Errorf("%w: input.workers %d", ErrInvalid, c.Input.Workers)
	}
	if c.Input.Workers == 0 {
		c.Input.Workers = runtime.GOMAXPROCS(0)
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: output.format %q (must be text/json/yaml)", ErrInvalid, c.Output.Format)
	}
	return nil
}
