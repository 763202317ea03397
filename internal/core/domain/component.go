package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE       = "bridge"
	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
)

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

// GenericSensor is a Home Assistant entity. Field names a decoded value of the
// model at ModelIndex, the bridge state sensor has no Field.
type GenericSensor struct {
	Device           Device
	Id               string
	SensorType       string
	Name             string
	UniqueId         string
	ModelIndex       int
	Field            string
	StateClass       string // measurement, total_increasing (accumulators)
	DeviceClass      string
	EntityCategory   string // diagnostic, config, nil
	EnabledByDefault *bool
	Icon             string
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("sunspec_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "berfenger",
		Model:        "SunSpec2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("SunSpec2MQTT %s", md5HashShort(baseTopic)),
	}
}

// SunSpecDevice identifies the device by its serial number, or by the chain
// base address when the common model could not be read.
func SunSpecDevice(desc sunspec_modbus.DeviceDescription) Device {
	info := desc.Info
	if info == nil {
		return Device{
			Id:   fmt.Sprintf("sunspec_%d", desc.BaseAddress),
			Name: fmt.Sprintf("SunSpec device %d", desc.BaseAddress),
		}
	}
	return Device{
		Id:           fmt.Sprintf("sunspec_%s", md5HashShort(info.Manufacturer+info.Serial)),
		Version:      info.Version,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         fmt.Sprintf("%s %s %s", info.Manufacturer, info.Model, md5HashShort(info.Serial)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

// ModelSensors declares one sensor per decoded value of model. Only the first
// sensor carries the full device description.
func ModelSensors(device Device, model ModelState) []GenericSensor {
	var sensors []GenericSensor
	for _, v := range model.Values {
		id := fieldSensorId(model.Index, v.Name)
		sensor := GenericSensor{
			Device:     device,
			Id:         id,
			SensorType: SENSOR_TYPE_SENSOR,
			Name:       fmt.Sprintf("%s %d %s", model.Description, model.Index, v.Name),
			UniqueId:   uniqueId(device.Id, id),
			ModelIndex: model.Index,
			Field:      v.Name,
		}
		if len(sensors) > 0 {
			sensor.Device = IdDevice(device)
		}
		switch v.Class {
		case sunspec_modbus.Accumulator:
			sensor.StateClass = STATE_CLASS_TOTAL_INCREASING
		case sunspec_modbus.Plain:
			if _, ok := v.Value.(string); !ok {
				sensor.StateClass = STATE_CLASS_MEASUREMENT
			}
		case sunspec_modbus.Bitfield:
			sensor.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
			sensor.EnabledByDefault = optionalBool(false)
		}
		if model.Id == uint16(sunspec_modbus.SUNSPEC_WK_COMMON) {
			sensor.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
		}
		sensors = append(sensors, sensor)
	}
	return sensors
}

// fieldSensorId turns "DCW[1]" of model 3 into "m3_dcw_1".
func fieldSensorId(index int, field string) string {
	name := strings.NewReplacer("[", "_", "]", "").Replace(strings.ToLower(field))
	return fmt.Sprintf("m%d_%s", index, name)
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
