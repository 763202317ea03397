package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("SUNSPEC_DEVICE_HOST", "192.168.1.20")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(DRIVER_MODBUS, cfg.Device.Driver)
	assert.Equal("192.168.1.20", cfg.Device.Host)
	assert.Equal(uint(502), cfg.Device.Port)
	assert.Equal([]uint16{40000, 50000, 0}, cfg.Device.BaseAddresses)
	assert.Equal(uint16(125), cfg.Device.MaxReadSpan)
	assert.Equal(256, cfg.Device.MaxModels)
	assert.Equal("sunspec", cfg.MQTT.BaseTopic)
	assert.False(cfg.MQTT.HADiscoveryEnable)
	assert.Equal("homeassistant", cfg.MQTT.HADiscoveryTopic)
	assert.Equal(uint32(5000), cfg.Poll.IntervalMillis)
	assert.Equal(uint(8080), cfg.Port)
	assert.Equal(zap.WarnLevel, cfg.LogLevel)
	assert.Equal(sunspec_modbus.HoldingRegister, cfg.Device.FunctionKind())
}

func TestLoadFromFile(t *testing.T) {
	assert := assert.New(t)
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log_level: debug
device:
  driver: goburrow
  serial_url: /dev/ttyUSB0
  baud_rate: 19200
  unit_id: 3
  base_addresses: [50000]
  input_registers: true
mqtt:
  base_topic: Roof_PV
  password: secret
`), 0o600))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("SUNSPEC_PORT", "")
	t.Setenv("PORT", "9090")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(DRIVER_GOBURROW, cfg.Device.Driver)
	assert.Equal("/dev/ttyUSB0", cfg.Device.SerialURL)
	assert.Equal(uint(19200), cfg.Device.BaudRate)
	assert.Equal(uint8(3), cfg.Device.UnitId)
	assert.Equal([]uint16{50000}, cfg.Device.BaseAddresses)
	assert.Equal(sunspec_modbus.InputRegister, cfg.Device.FunctionKind())
	assert.Equal("roof_pv", cfg.MQTT.BaseTopic)
	assert.Equal(uint(9090), cfg.Port)
	assert.Equal(zap.DebugLevel, cfg.LogLevel)

	redacted := cfg.Redacted()
	assert.Equal("*redacted*", redacted.MQTT.Password)
	assert.Equal("secret", cfg.MQTT.Password)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Device: DeviceConfig{
				Driver:        DRIVER_MODBUS,
				Host:          "localhost",
				MaxReadSpan:   125,
				BaseAddresses: []uint16{40000},
				MaxModels:     256,
			},
			MQTT: MQTTConfig{BaseTopic: "sunspec", HADiscoveryTopic: "homeassistant"},
			Poll: PollConfig{Enabled: true, IntervalMillis: 5000},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Device.Driver = "rtu" }},
		{"no host", func(c *Config) { c.Device.Host = "" }},
		{"zero read span", func(c *Config) { c.Device.MaxReadSpan = 0 }},
		{"read span too large", func(c *Config) { c.Device.MaxReadSpan = 126 }},
		{"no base addresses", func(c *Config) { c.Device.BaseAddresses = nil }},
		{"no models", func(c *Config) { c.Device.MaxModels = 0 }},
		{"poll too fast", func(c *Config) { c.Poll.IntervalMillis = 999 }},
		{"bad topic", func(c *Config) { c.MQTT.BaseTopic = "sun/spec" }},
		{"bad discovery topic", func(c *Config) { c.MQTT.HADiscoveryTopic = "" }},
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg = valid()
	cfg.Device.Driver = DRIVER_TEST
	cfg.Device.Host = ""
	cfg.Poll.Enabled = false
	cfg.Poll.IntervalMillis = 0
	assert.NoError(t, cfg.Validate())
}

func TestCheckMQTTTopic(t *testing.T) {
	assert := assert.New(t)
	topic, err := CheckMQTTTopic("SunSpec_1")
	assert.NoError(err)
	assert.Equal("sunspec_1", topic)
	_, err = CheckMQTTTopic("")
	assert.Error(err)
}
