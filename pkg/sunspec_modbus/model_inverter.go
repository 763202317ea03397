package sunspec_modbus

import (
	"fmt"
)

const (
	InverterStatusOff          = 1
	InverterStatusSleeping     = 2
	InverterStatusStarting     = 3
	InverterStatusMPPT         = 4
	InverterStatusThrottled    = 5
	InverterStatusShuttingDown = 6
	InverterStatusFault        = 7
	InverterStatusStandby      = 8
)

const (
	InverterStatusOffStr          = "off"
	InverterStatusSleepingStr     = "sleeping"
	InverterStatusStartingStr     = "starting"
	InverterStatusMPPTStr         = "mppt_tracking"
	InverterStatusThrottledStr    = "throttled"
	InverterStatusShuttingDownStr = "shutting_down"
	InverterStatusFaultStr        = "fault"
	InverterStatusStandbyStr      = "standby"
	InverterStatusUnknown         = "unknown"
)

func InverterStatusToString(state uint16) string {
	switch state {
	case InverterStatusOff:
		return InverterStatusOffStr
	case InverterStatusSleeping:
		return InverterStatusSleepingStr
	case InverterStatusStarting:
		return InverterStatusStartingStr
	case InverterStatusMPPT:
		return InverterStatusMPPTStr
	case InverterStatusThrottled:
		return InverterStatusThrottledStr
	case InverterStatusShuttingDown:
		return InverterStatusShuttingDownStr
	case InverterStatusFault:
		return InverterStatusFaultStr
	case InverterStatusStandby:
		return InverterStatusStandbyStr
	default:
		return fmt.Sprintf("%s(%d)", InverterStatusUnknown, state)
	}
}

// inverter event flags (Evt1)
const (
	InverterEventGroundFault     = 0
	InverterEventDCOverVolt      = 1
	InverterEventACDisconnect    = 2
	InverterEventDCDisconnect    = 3
	InverterEventGridDisconnect  = 4
	InverterEventCabinetOpen     = 5
	InverterEventManualShutdown  = 6
	InverterEventOverTemp        = 7
	InverterEventOverFrequency   = 8
	InverterEventUnderFrequency  = 9
	InverterEventACOverVolt      = 10
	InverterEventACUnderVolt     = 11
	InverterEventBlownStringFuse = 12
	InverterEventUnderTemp       = 13
	InverterEventMemoryLoss      = 14
	InverterEventHWTestFailure   = 15
)

// integer + scale factor inverter layout shared by models 101, 102 and 103
var (
	InverterA        = DataPoint{Name: "A", Offset: 0, Type: UInt16, ScaleFactor: "A_SF"}
	InverterAphA     = DataPoint{Name: "AphA", Offset: 1, Type: UInt16, ScaleFactor: "A_SF"}
	InverterAphB     = DataPoint{Name: "AphB", Offset: 2, Type: UInt16, ScaleFactor: "A_SF"}
	InverterAphC     = DataPoint{Name: "AphC", Offset: 3, Type: UInt16, ScaleFactor: "A_SF"}
	InverterA_SF     = sf("A_SF", 4)
	InverterPPVphAB  = DataPoint{Name: "PPVphAB", Offset: 5, Type: UInt16, ScaleFactor: "V_SF"}
	InverterPPVphBC  = DataPoint{Name: "PPVphBC", Offset: 6, Type: UInt16, ScaleFactor: "V_SF"}
	InverterPPVphCA  = DataPoint{Name: "PPVphCA", Offset: 7, Type: UInt16, ScaleFactor: "V_SF"}
	InverterPhVphA   = DataPoint{Name: "PhVphA", Offset: 8, Type: UInt16, ScaleFactor: "V_SF"}
	InverterPhVphB   = DataPoint{Name: "PhVphB", Offset: 9, Type: UInt16, ScaleFactor: "V_SF"}
	InverterPhVphC   = DataPoint{Name: "PhVphC", Offset: 10, Type: UInt16, ScaleFactor: "V_SF"}
	InverterV_SF     = sf("V_SF", 11)
	InverterW        = DataPoint{Name: "W", Offset: 12, Type: Int16, ScaleFactor: "W_SF"}
	InverterW_SF     = sf("W_SF", 13)
	InverterHz       = DataPoint{Name: "Hz", Offset: 14, Type: UInt16, ScaleFactor: "Hz_SF"}
	InverterHz_SF    = sf("Hz_SF", 15)
	InverterVA       = DataPoint{Name: "VA", Offset: 16, Type: Int16, ScaleFactor: "VA_SF"}
	InverterVA_SF    = sf("VA_SF", 17)
	InverterVAr      = DataPoint{Name: "VAr", Offset: 18, Type: Int16, ScaleFactor: "VAr_SF"}
	InverterVAr_SF   = sf("VAr_SF", 19)
	InverterPF       = DataPoint{Name: "PF", Offset: 20, Type: Int16, ScaleFactor: "PF_SF"}
	InverterPF_SF    = sf("PF_SF", 21)
	InverterWH       = DataPoint{Name: "WH", Offset: 22, Type: UInt32, Class: Accumulator, ScaleFactor: "WH_SF"}
	InverterWH_SF    = sf("WH_SF", 24)
	InverterDCA      = DataPoint{Name: "DCA", Offset: 25, Type: UInt16, ScaleFactor: "DCA_SF"}
	InverterDCA_SF   = sf("DCA_SF", 26)
	InverterDCV      = DataPoint{Name: "DCV", Offset: 27, Type: UInt16, ScaleFactor: "DCV_SF"}
	InverterDCV_SF   = sf("DCV_SF", 28)
	InverterDCW      = DataPoint{Name: "DCW", Offset: 29, Type: Int16, ScaleFactor: "DCW_SF"}
	InverterDCW_SF   = sf("DCW_SF", 30)
	InverterTmpCab   = DataPoint{Name: "TmpCab", Offset: 31, Type: Int16, ScaleFactor: "Tmp_SF"}
	InverterTmpSnk   = DataPoint{Name: "TmpSnk", Offset: 32, Type: Int16, ScaleFactor: "Tmp_SF"}
	InverterTmpTrns  = DataPoint{Name: "TmpTrns", Offset: 33, Type: Int16, ScaleFactor: "Tmp_SF"}
	InverterTmpOt    = DataPoint{Name: "TmpOt", Offset: 34, Type: Int16, ScaleFactor: "Tmp_SF"}
	InverterTmp_SF   = sf("Tmp_SF", 35)
	InverterSt       = DataPoint{Name: "St", Offset: 36, Type: UInt16, Class: Enumeration}
	InverterStVnd    = DataPoint{Name: "StVnd", Offset: 37, Type: UInt16, Class: Enumeration}
	InverterEvt1     = DataPoint{Name: "Evt1", Offset: 38, Type: UInt32, Class: Bitfield}
	InverterEvt2     = DataPoint{Name: "Evt2", Offset: 40, Type: UInt32, Class: Bitfield}
	InverterEvtVnd1  = DataPoint{Name: "EvtVnd1", Offset: 42, Type: UInt32, Class: Bitfield}
	InverterEvtVnd2  = DataPoint{Name: "EvtVnd2", Offset: 44, Type: UInt32, Class: Bitfield}
	InverterEvtVnd3  = DataPoint{Name: "EvtVnd3", Offset: 46, Type: UInt32, Class: Bitfield}
	InverterEvtVnd4  = DataPoint{Name: "EvtVnd4", Offset: 48, Type: UInt32, Class: Bitfield}
	inverterFixedLen = uint16(50)
)

var inverterDataPoints = []DataPoint{
	InverterA, InverterAphA, InverterAphB, InverterAphC, InverterA_SF,
	InverterPPVphAB, InverterPPVphBC, InverterPPVphCA,
	InverterPhVphA, InverterPhVphB, InverterPhVphC, InverterV_SF,
	InverterW, InverterW_SF, InverterHz, InverterHz_SF,
	InverterVA, InverterVA_SF, InverterVAr, InverterVAr_SF, InverterPF, InverterPF_SF,
	InverterWH, InverterWH_SF,
	InverterDCA, InverterDCA_SF, InverterDCV, InverterDCV_SF, InverterDCW, InverterDCW_SF,
	InverterTmpCab, InverterTmpSnk, InverterTmpTrns, InverterTmpOt, InverterTmp_SF,
	InverterSt, InverterStVnd,
	InverterEvt1, InverterEvt2, InverterEvtVnd1, InverterEvtVnd2, InverterEvtVnd3, InverterEvtVnd4,
}

func init() {
	descriptions := map[uint16]string{
		101: "Inverter (Single Phase)",
		102: "Inverter (Split-Phase)",
		103: "Inverter (Three Phase)",
	}
	for id := uint16(SUNSPEC_WK_INVERTERS_MIN); id <= SUNSPEC_WK_INVERTERS_MAX; id++ {
		RegisterModel(ModelId{Id: id, Description: descriptions[id], Capability: CapabilityInverter},
			func(data *ModelData, baseAddress uint16, id ModelId, length uint16) ModelAccessor {
				return NewInverterModelAccessor(data, baseAddress, id, length)
			})
	}
}

type InverterModelAccessor struct {
	BaseModelAccessor
}

func NewInverterModelAccessor(data *ModelData, baseAddress uint16, id ModelId, length uint16) *InverterModelAccessor {
	return &InverterModelAccessor{
		BaseModelAccessor: newBaseModelAccessor(data, baseAddress, id, length, inverterFixedLen, 0, inverterDataPoints, nil),
	}
}

type InverterState struct {
	CabinetTemperature *float64
	OperatingState     uint16
	OperatingStateStr  string
	Events             Bitmask
}

type InverterPowerFlow struct {
	ACPowerWatt *float64
	DCPowerWatt *float64
	// lifetime AC energy
	TotalEnergyWh *float64
	FrequencyHz   *float64
}

func (inv *InverterModelAccessor) GetState() (*InverterState, error) {
	temperature, err := inv.ScaledFloat64Value(InverterTmpCab, InverterTmp_SF)
	if err != nil {
		return nil, err
	}
	state, err := inv.Int32Value(InverterSt)
	if err != nil {
		return nil, err
	}
	events, err := inv.BitfieldValue(InverterEvt1)
	if err != nil {
		return nil, err
	}
	st := uint16(0)
	if state != nil {
		st = uint16(*state)
	}
	return &InverterState{
		CabinetTemperature: temperature,
		OperatingState:     st,
		OperatingStateStr:  InverterStatusToString(st),
		Events:             events,
	}, nil
}

func (inv *InverterModelAccessor) GetPowerFlow() (*InverterPowerFlow, error) {
	ac, err := inv.ScaledFloat64Value(InverterW, InverterW_SF)
	if err != nil {
		return nil, err
	}
	dc, err := inv.ScaledFloat64Value(InverterDCW, InverterDCW_SF)
	if err != nil {
		return nil, err
	}
	energy, err := inv.ScaledFloat64Value(InverterWH, InverterWH_SF)
	if err != nil {
		return nil, err
	}
	freq, err := inv.ScaledFloat64Value(InverterHz, InverterHz_SF)
	if err != nil {
		return nil, err
	}
	return &InverterPowerFlow{
		ACPowerWatt:   ac,
		DCPowerWatt:   dc,
		TotalEnergyWh: energy,
		FrequencyHz:   freq,
	}, nil
}
