// Package settings loads the additive runtime configuration extension
// described by spec.md §5: optional connect/read timeouts and logging
// knobs, layered over environment variables via viper. None of these
// values affect wire compatibility; every default preserves source
// parity (unlimited timeouts).
package settings

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/marmos91/filewire/internal/bytesize"
)

// Settings holds the process-wide knobs filewire accepts beyond the
// three local input files.
type Settings struct {
	ConnectTimeout time.Duration     `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration     `mapstructure:"read_timeout"`
	LogLevel       string            `mapstructure:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
	LogFormat      string            `mapstructure:"log_format" validate:"oneof=text json"`
	MaxFileSize    bytesize.ByteSize `mapstructure:"max_file_size"`
}

// Defaults returns the source-parity defaults: unlimited timeouts, INFO
// level, text format, no file size cap.
func Defaults() Settings {
	return Settings{
		ConnectTimeout: 0,
		ReadTimeout:    0,
		LogLevel:       "INFO",
		LogFormat:      "text",
		MaxFileSize:    0,
	}
}

// Load reads FILEWIRE_-prefixed environment variables over the
// defaults and validates the result.
func Load() (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("FILEWIRE")
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("connect_timeout", defaults.ConnectTimeout)
	v.SetDefault("read_timeout", defaults.ReadTimeout)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("max_file_size", "0")

	var s Settings
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	if err := v.Unmarshal(&s, viper.DecodeHook(decodeHook)); err != nil {
		return Settings{}, fmt.Errorf("settings: decode: %w", err)
	}

	if err := validator.New().Struct(s); err != nil {
		return Settings{}, fmt.Errorf("settings: validate: %w", err)
	}
	return s, nil
}
