package util

import (
	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Device: config.DeviceConfig{
			Driver:        config.DRIVER_TEST,
			Host:          "-.-.-.-",
			Port:          502,
			UnitId:        1,
			TimeoutMillis: 1000,
			MaxReadSpan:   sunspec_modbus.SUNSPEC_DEFAULT_MAX_READ_SPAN,
			BaseAddresses: sunspec_modbus.SunSpecBaseAddresses,
			MaxModels:     sunspec_modbus.SUNSPEC_DEFAULT_MAX_MODELS,
		},
		MQTT: config.MQTTConfig{
			Host:              "localhost",
			Port:              1883,
			BaseTopic:         "sunspec",
			HADiscoveryEnable: true,
			HADiscoveryTopic:  "homeassistant",
		},
		Poll: config.PollConfig{
			Enabled:        true,
			IntervalMillis: 5000,
		},
		Port: 8080,
	}
}
