package mqtt

import (
	"fmt"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice `json:"device"`
	StateTopic        string            `json:"state_topic"`
	ValueTemplate     string            `json:"value_template,omitempty"`
	StateClass        string            `json:"state_class,omitempty"`
	DeviceClass       string            `json:"device_class,omitempty"`
	UnitOfMeasurement string            `json:"unit_of_measurement,omitempty"`
	AvTopic           string            `json:"availability_topic,omitempty"`
	EntityCategory    string            `json:"entity_category,omitempty"`
	Name              string            `json:"name"`
	UniqueId          string            `json:"unique_id"`
	Platform          string            `json:"platform"`
	EnabledByDefault  *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn         string            `json:"payload_on,omitempty"`
	PayloadOff        string            `json:"payload_off,omitempty"`
	Icon              string            `json:"icon,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func (c *MQTTClient) HADiscoverySensorTopic(sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", c.cfg.HADiscoveryTopic, sensor.SensorType, sensor.Device.Id, sensor.Id)
}

// fieldValueTemplate picks one named value out of a model state payload.
func fieldValueTemplate(field string) string {
	return fmt.Sprintf(`{{ value_json["values"] | selectattr("name", "eq", "%s") | map(attribute="value") | first | default(none) }}`, field)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	dev := device(sensor.Device)
	disConfig := HADiscoveryConfig{
		Device:           dev,
		StateClass:       sensor.StateClass,
		DeviceClass:      sensor.DeviceClass,
		AvTopic:          client.BridgeStateTopic(),
		EntityCategory:   sensor.EntityCategory,
		Name:             sensor.Name,
		UniqueId:         sensor.UniqueId,
		Icon:             sensor.Icon,
		EnabledByDefault: sensor.EnabledByDefault,
		Platform:         "mqtt",
	}
	if sensor.Id == domain.SENSOR_ID_BRIDGE_STATE {
		disConfig.StateTopic = client.BridgeStateTopic()
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
	} else {
		disConfig.StateTopic = client.ModelStateTopic(sensor.ModelIndex)
		disConfig.ValueTemplate = fieldValueTemplate(sensor.Field)
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
