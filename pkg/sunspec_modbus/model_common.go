package sunspec_modbus

var (
	CommonManufacturer  = str("Mn", 0, 16)
	CommonModelName     = str("Md", 16, 16)
	CommonOptions       = str("Opt", 32, 8)
	CommonVersion       = str("Vr", 40, 8)
	CommonSerialNumber  = str("SN", 48, 16)
	CommonDeviceAddress = DataPoint{Name: "DA", Offset: 64, Type: UInt16}
)

var commonDataPoints = []DataPoint{
	CommonManufacturer,
	CommonModelName,
	CommonOptions,
	CommonVersion,
	CommonSerialNumber,
	CommonDeviceAddress,
}

func init() {
	RegisterModel(ModelId{Id: SUNSPEC_WK_COMMON, Description: "Common", Capability: CapabilityCommon},
		func(data *ModelData, baseAddress uint16, id ModelId, length uint16) ModelAccessor {
			return newCommonModelAccessor(data, baseAddress, id, length)
		})
}

// CommonModelAccessor decodes model 1, present on every SunSpec device.
type CommonModelAccessor struct {
	BaseModelAccessor
	// length announced by the device header
	ReportedLength uint16
}

// Devices report 65 or 66; the block is always treated as 66 words (the last
// one is a pad).
func newCommonModelAccessor(data *ModelData, baseAddress uint16, id ModelId, length uint16) *CommonModelAccessor {
	return &CommonModelAccessor{
		BaseModelAccessor: newBaseModelAccessor(data, baseAddress, id, SUNSPEC_COMMON_MODEL_LENGTH,
			SUNSPEC_COMMON_MODEL_LENGTH, 0, commonDataPoints, nil),
		ReportedLength: length,
	}
}

func (m *CommonModelAccessor) Manufacturer() (string, error) {
	return m.StringValue(CommonManufacturer)
}

func (m *CommonModelAccessor) ModelName() (string, error) {
	return m.StringValue(CommonModelName)
}

func (m *CommonModelAccessor) Options() (string, error) {
	return m.StringValue(CommonOptions)
}

func (m *CommonModelAccessor) Version() (string, error) {
	return m.StringValue(CommonVersion)
}

func (m *CommonModelAccessor) SerialNumber() (string, error) {
	return m.StringValue(CommonSerialNumber)
}

func (m *CommonModelAccessor) DeviceAddress() (*int32, error) {
	return m.Int32Value(CommonDeviceAddress)
}

// DeviceInfo collects the identification strings of the device.
type DeviceInfo struct {
	Manufacturer  string `json:"manufacturer"`
	Model         string `json:"model"`
	Options       string `json:"options,omitempty"`
	Version       string `json:"version"`
	Serial        string `json:"serial"`
	DeviceAddress *int32 `json:"device_address,omitempty"`
}

func (m *CommonModelAccessor) Info() (*DeviceInfo, error) {
	manufacturer, err := m.Manufacturer()
	if err != nil {
		return nil, err
	}
	model, err := m.ModelName()
	if err != nil {
		return nil, err
	}
	options, err := m.Options()
	if err != nil {
		return nil, err
	}
	version, err := m.Version()
	if err != nil {
		return nil, err
	}
	serial, err := m.SerialNumber()
	if err != nil {
		return nil, err
	}
	da, err := m.DeviceAddress()
	if err != nil {
		return nil, err
	}
	return &DeviceInfo{
		Manufacturer:  manufacturer,
		Model:         model,
		Options:       options,
		Version:       version,
		Serial:        serial,
		DeviceAddress: da,
	}, nil
}
