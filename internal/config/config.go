package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
	"go.uber.org/zap/zapcore"
)

const (
	DRIVER_MODBUS   = "modbus"
	DRIVER_GOBURROW = "goburrow"
	DRIVER_TEST     = "test"

	MIN_POLL_INTERVAL_MILLIS = 1000
)

var drivers = []string{DRIVER_MODBUS, DRIVER_GOBURROW, DRIVER_TEST}

type Config struct {
	LogLevel zapcore.Level
	Device   DeviceConfig `mapstructure:"device"`
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Poll     PollConfig   `mapstructure:"poll"`
	Port     uint         `mapstructure:"port"`
	HttpLog  bool         `mapstructure:"http_log"`
}

type DeviceConfig struct {
	Driver         string
	Host           string
	Port           uint
	SerialURL      string   `mapstructure:"serial_url"`
	BaudRate       uint     `mapstructure:"baud_rate"`
	UnitId         uint8    `mapstructure:"unit_id"`
	TimeoutMillis  uint32   `mapstructure:"timeout_millis"`
	MaxReadSpan    uint16   `mapstructure:"max_read_span"`
	BaseAddresses  []uint16 `mapstructure:"base_addresses"`
	InputRegisters bool     `mapstructure:"input_registers"`
	MaxModels      int      `mapstructure:"max_models"`
}

type PollConfig struct {
	Enabled        bool
	IntervalMillis uint32 `mapstructure:"interval_millis"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

// FunctionKind selects which register table the device exposes its models in.
func (c DeviceConfig) FunctionKind() sunspec_modbus.FunctionKind {
	if c.InputRegisters {
		return sunspec_modbus.InputRegister
	}
	return sunspec_modbus.HoldingRegister
}

func (c DeviceConfig) DiscoveryOptions() sunspec_modbus.DiscoveryOptions {
	return sunspec_modbus.DiscoveryOptions{
		BaseAddresses: c.BaseAddresses,
		FunctionKind:  c.FunctionKind(),
		MaxReadSpan:   c.MaxReadSpan,
		MaxModels:     c.MaxModels,
	}
}

// Validate checks bounds and normalizes the MQTT topics in place.
func (c *Config) Validate() error {
	if !slices.Contains(drivers, c.Device.Driver) {
		return fmt.Errorf("unknown device driver %q, expected one of %s", c.Device.Driver, strings.Join(drivers, ", "))
	}
	if c.Device.Driver != DRIVER_TEST && c.Device.Host == "" && c.Device.SerialURL == "" {
		return errors.New("device host or serial_url is required")
	}
	if c.Device.MaxReadSpan < 1 || c.Device.MaxReadSpan > sunspec_modbus.SUNSPEC_DEFAULT_MAX_READ_SPAN {
		return fmt.Errorf("device max_read_span must be between 1 and %d", sunspec_modbus.SUNSPEC_DEFAULT_MAX_READ_SPAN)
	}
	if len(c.Device.BaseAddresses) == 0 {
		return errors.New("device base_addresses must not be empty")
	}
	if c.Device.MaxModels < 1 {
		return errors.New("device max_models must be positive")
	}
	if c.Poll.Enabled && c.Poll.IntervalMillis < MIN_POLL_INTERVAL_MILLIS {
		return fmt.Errorf("poll interval_millis must be at least %d", MIN_POLL_INTERVAL_MILLIS)
	}
	topic, err := CheckMQTTTopic(c.MQTT.BaseTopic)
	if err != nil {
		return err
	}
	c.MQTT.BaseTopic = topic
	haTopic, err := CheckMQTTTopic(c.MQTT.HADiscoveryTopic)
	if err != nil {
		return fmt.Errorf("invalid homeassistant discovery topic: %w", err)
	}
	c.MQTT.HADiscoveryTopic = haTopic
	return nil
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
