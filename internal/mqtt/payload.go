package mqtt

import (
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
	"github.com/carlmjohnson/versioninfo"
)

// DevicePayload is published, retained, on the device topic after every
// discovery.
type DevicePayload struct {
	sunspec_modbus.DeviceDescription
	BridgeVersion string `json:"bridge_version"`
}

func NewDevicePayload(device sunspec_modbus.DeviceDescription) DevicePayload {
	return DevicePayload{
		DeviceDescription: device,
		BridgeVersion:     versioninfo.Short(),
	}
}
