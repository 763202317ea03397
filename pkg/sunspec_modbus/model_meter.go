package sunspec_modbus

import "math"

// integer + scale factor meter layout shared by models 201 to 204
var (
	MeterA            = DataPoint{Name: "A", Offset: 0, Type: Int16, ScaleFactor: "A_SF"}
	MeterAphA         = DataPoint{Name: "AphA", Offset: 1, Type: Int16, ScaleFactor: "A_SF"}
	MeterAphB         = DataPoint{Name: "AphB", Offset: 2, Type: Int16, ScaleFactor: "A_SF"}
	MeterAphC         = DataPoint{Name: "AphC", Offset: 3, Type: Int16, ScaleFactor: "A_SF"}
	MeterA_SF         = sf("A_SF", 4)
	MeterPhV          = DataPoint{Name: "PhV", Offset: 5, Type: Int16, ScaleFactor: "V_SF"}
	MeterPhVphA       = DataPoint{Name: "PhVphA", Offset: 6, Type: Int16, ScaleFactor: "V_SF"}
	MeterPhVphB       = DataPoint{Name: "PhVphB", Offset: 7, Type: Int16, ScaleFactor: "V_SF"}
	MeterPhVphC       = DataPoint{Name: "PhVphC", Offset: 8, Type: Int16, ScaleFactor: "V_SF"}
	MeterPPV          = DataPoint{Name: "PPV", Offset: 9, Type: Int16, ScaleFactor: "V_SF"}
	MeterV_SF         = sf("V_SF", 13)
	MeterHz           = DataPoint{Name: "Hz", Offset: 14, Type: Int16, ScaleFactor: "Hz_SF"}
	MeterHz_SF        = sf("Hz_SF", 15)
	MeterW            = DataPoint{Name: "W", Offset: 16, Type: Int16, ScaleFactor: "W_SF"}
	MeterWphA         = DataPoint{Name: "WphA", Offset: 17, Type: Int16, ScaleFactor: "W_SF"}
	MeterWphB         = DataPoint{Name: "WphB", Offset: 18, Type: Int16, ScaleFactor: "W_SF"}
	MeterWphC         = DataPoint{Name: "WphC", Offset: 19, Type: Int16, ScaleFactor: "W_SF"}
	MeterW_SF         = sf("W_SF", 20)
	MeterVA           = DataPoint{Name: "VA", Offset: 21, Type: Int16, ScaleFactor: "VA_SF"}
	MeterVA_SF        = sf("VA_SF", 25)
	MeterVAR          = DataPoint{Name: "VAR", Offset: 26, Type: Int16, ScaleFactor: "VAR_SF"}
	MeterVAR_SF       = sf("VAR_SF", 30)
	MeterPF           = DataPoint{Name: "PF", Offset: 31, Type: Int16, ScaleFactor: "PF_SF"}
	MeterPF_SF        = sf("PF_SF", 35)
	MeterTotWhExp     = DataPoint{Name: "TotWhExp", Offset: 36, Type: UInt32, Class: Accumulator, ScaleFactor: "TotWh_SF"}
	MeterTotWhImp     = DataPoint{Name: "TotWhImp", Offset: 44, Type: UInt32, Class: Accumulator, ScaleFactor: "TotWh_SF"}
	MeterTotWh_SF     = sf("TotWh_SF", 52)
	MeterTotVAhExp    = DataPoint{Name: "TotVAhExp", Offset: 53, Type: UInt32, Class: Accumulator, ScaleFactor: "TotVAh_SF"}
	MeterTotVAhImp    = DataPoint{Name: "TotVAhImp", Offset: 61, Type: UInt32, Class: Accumulator, ScaleFactor: "TotVAh_SF"}
	MeterTotVAh_SF    = sf("TotVAh_SF", 69)
	MeterEvt          = DataPoint{Name: "Evt", Offset: 103, Type: UInt32, Class: Bitfield}
	meterFixedLen     = uint16(105)
	meterDescriptions = map[uint16]string{
		201: "Meter (Single Phase)",
		202: "Meter (Split Single Phase)",
		203: "Meter (Wye-Connect Three Phase)",
		204: "Meter (Delta-Connect Three Phase)",
	}
)

var meterDataPoints = []DataPoint{
	MeterA, MeterAphA, MeterAphB, MeterAphC, MeterA_SF,
	MeterPhV, MeterPhVphA, MeterPhVphB, MeterPhVphC, MeterPPV, MeterV_SF,
	MeterHz, MeterHz_SF,
	MeterW, MeterWphA, MeterWphB, MeterWphC, MeterW_SF,
	MeterVA, MeterVA_SF, MeterVAR, MeterVAR_SF, MeterPF, MeterPF_SF,
	MeterTotWhExp, MeterTotWhImp, MeterTotWh_SF,
	MeterTotVAhExp, MeterTotVAhImp, MeterTotVAh_SF,
	MeterEvt,
}

func init() {
	for id := uint16(SUNSPEC_WK_METERS_MIN); id <= SUNSPEC_WK_METERS_MAX; id++ {
		RegisterModel(ModelId{Id: id, Description: meterDescriptions[id], Capability: CapabilityMeter},
			func(data *ModelData, baseAddress uint16, id ModelId, length uint16) ModelAccessor {
				return NewMeterModelAccessor(data, baseAddress, id, length)
			})
	}
}

type MeterModelAccessor struct {
	BaseModelAccessor
}

func NewMeterModelAccessor(data *ModelData, baseAddress uint16, id ModelId, length uint16) *MeterModelAccessor {
	return &MeterModelAccessor{
		BaseModelAccessor: newBaseModelAccessor(data, baseAddress, id, length, meterFixedLen, 0, meterDataPoints, nil),
	}
}

type ACMeterPowerFlow struct {
	// Current AC power flow. Positive = import. Negative = export
	CurrentPowerFlowWatt *float64
	// Current import AC power
	CurrentImportPowerWatt float64
	// Current export AC power
	CurrentExportPowerWatt float64
	// Lifetime exported energy in kWh
	TotalEnergyExportedKWh *float64
	// Lifetime imported energy in kWh
	TotalEnergyImportedKWh *float64
	// Grid frequency
	Frequency *float64
	// First grid phase voltage
	PhaseAVoltage *float64
}

func (m *MeterModelAccessor) GetCurrentPowerFlowWatt() (*float64, error) {
	return m.ScaledFloat64Value(MeterW, MeterW_SF)
}

func (m *MeterModelAccessor) GetPowerFlow() (*ACMeterPowerFlow, error) {
	totalRealPower, err := m.GetCurrentPowerFlowWatt()
	if err != nil {
		return nil, err
	}
	exported, err := m.ScaledFloat64Value(MeterTotWhExp, MeterTotWh_SF)
	if err != nil {
		return nil, err
	}
	imported, err := m.ScaledFloat64Value(MeterTotWhImp, MeterTotWh_SF)
	if err != nil {
		return nil, err
	}
	freq, err := m.ScaledFloat64Value(MeterHz, MeterHz_SF)
	if err != nil {
		return nil, err
	}
	phaseAVoltage, err := m.ScaledFloat64Value(MeterPhVphA, MeterV_SF)
	if err != nil {
		return nil, err
	}
	flow := &ACMeterPowerFlow{
		CurrentPowerFlowWatt:   totalRealPower,
		TotalEnergyExportedKWh: kilo(exported),
		TotalEnergyImportedKWh: kilo(imported),
		Frequency:              freq,
		PhaseAVoltage:          phaseAVoltage,
	}
	if totalRealPower != nil {
		if *totalRealPower < 0 {
			flow.CurrentExportPowerWatt = math.Abs(*totalRealPower)
		} else {
			flow.CurrentImportPowerWatt = *totalRealPower
		}
	}
	return flow, nil
}

func kilo(v *float64) *float64 {
	if v == nil {
		return nil
	}
	k := *v / 1000
	return &k
}
