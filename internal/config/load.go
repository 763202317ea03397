package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "sunspec"

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
	v.SetDefault("device.driver", DRIVER_MODBUS)
	v.SetDefault("device.host", "")
	v.SetDefault("device.serial_url", "")
	v.SetDefault("device.port", 502)
	v.SetDefault("device.baud_rate", 9600)
	v.SetDefault("device.unit_id", 1)
	v.SetDefault("device.timeout_millis", 1000)
	v.SetDefault("device.max_read_span", 125)
	v.SetDefault("device.base_addresses", []int{40000, 50000, 0})
	v.SetDefault("device.input_registers", false)
	v.SetDefault("device.max_models", 256)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.base_topic", "sunspec")
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("poll.enabled", true)
	v.SetDefault("poll.interval_millis", 5000)
}

// Load reads the configuration from the environment (SUNSPEC_ prefix) and,
// when CONFIG_FILE points to an existing file, from that YAML file.
func Load(v *viper.Viper) (*Config, error) {

	// alias PORT => SUNSPEC_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SUNSPEC_PORT", port)
	}

	SetDefaults(v)

	// SUNSPEC_DEVICE_HOST => device.host
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			v.SetConfigFile(cfgFile)

			err = v.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.LogLevel = ParseLogLevel(v.GetString("log_level"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "trace":
		return zap.DebugLevel
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	case "warn":
		return zap.WarnLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.MQTT.Username = "*redacted*"
	c.MQTT.Password = "*redacted*"
	return c
}
