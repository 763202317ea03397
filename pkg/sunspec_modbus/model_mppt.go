package sunspec_modbus

import "github.com/shopspring/decimal"

// fixed block
var (
	MPPTDCA_SF  = sf("DCA_SF", 0)
	MPPTDCV_SF  = sf("DCV_SF", 1)
	MPPTDCW_SF  = sf("DCW_SF", 2)
	MPPTDCWH_SF = sf("DCWH_SF", 3)
	MPPTEvt     = DataPoint{Name: "Evt", Offset: 4, Type: UInt32, Class: Bitfield}
	MPPTN       = DataPoint{Name: "N", Offset: 6, Type: UInt16}
	MPPTTmsPer  = DataPoint{Name: "TmsPer", Offset: 7, Type: UInt16}
)

// repeating module block, offsets relative to the instance
var (
	MPPTModuleID    = DataPoint{Name: "ID", Offset: 0, Type: UInt16}
	MPPTModuleIDStr = str("IDStr", 1, 8)
	MPPTModuleDCA   = DataPoint{Name: "DCA", Offset: 9, Type: UInt16, ScaleFactor: "DCA_SF"}
	MPPTModuleDCV   = DataPoint{Name: "DCV", Offset: 10, Type: UInt16, ScaleFactor: "DCV_SF"}
	MPPTModuleDCW   = DataPoint{Name: "DCW", Offset: 11, Type: UInt16, ScaleFactor: "DCW_SF"}
	MPPTModuleDCWH  = DataPoint{Name: "DCWH", Offset: 12, Type: UInt32, Class: Accumulator, ScaleFactor: "DCWH_SF"}
	MPPTModuleTms   = DataPoint{Name: "Tms", Offset: 14, Type: UInt32}
	MPPTModuleTmp   = DataPoint{Name: "Tmp", Offset: 16, Type: Int16}
	MPPTModuleDCSt  = DataPoint{Name: "DCSt", Offset: 17, Type: UInt16, Class: Enumeration}
	MPPTModuleDCEvt = DataPoint{Name: "DCEvt", Offset: 18, Type: UInt32, Class: Bitfield}
)

const (
	mpptFixedLen  = uint16(8)
	mpptModuleLen = uint16(20)
)

var mpptDataPoints = []DataPoint{
	MPPTDCA_SF, MPPTDCV_SF, MPPTDCW_SF, MPPTDCWH_SF, MPPTEvt, MPPTN, MPPTTmsPer,
}

var mpptModuleDataPoints = []DataPoint{
	MPPTModuleID, MPPTModuleIDStr, MPPTModuleDCA, MPPTModuleDCV, MPPTModuleDCW,
	MPPTModuleDCWH, MPPTModuleTms, MPPTModuleTmp, MPPTModuleDCSt, MPPTModuleDCEvt,
}

func init() {
	RegisterModel(ModelId{Id: SUNSPEC_WK_MPPT, Description: "Multiple MPPT Inverter Extension", Capability: CapabilityMPPT},
		func(data *ModelData, baseAddress uint16, id ModelId, length uint16) ModelAccessor {
			return NewMPPTModelAccessor(data, baseAddress, id, length)
		})
}

type MPPTModelAccessor struct {
	BaseModelAccessor
}

func NewMPPTModelAccessor(data *ModelData, baseAddress uint16, id ModelId, length uint16) *MPPTModelAccessor {
	return &MPPTModelAccessor{
		BaseModelAccessor: newBaseModelAccessor(data, baseAddress, id, length, mpptFixedLen, mpptModuleLen,
			mpptDataPoints, mpptModuleDataPoints),
	}
}

// MPPTModule is one repeating block instance of the extension.
type MPPTModule struct {
	Index  int
	model  *MPPTModelAccessor
	offset uint16
}

// Modules returns a view per repeating block instance. The count comes from the
// model length, not from the N register.
func (m *MPPTModelAccessor) Modules() []MPPTModule {
	n := m.RepeatingBlockInstanceCount()
	modules := make([]MPPTModule, n)
	for i := range modules {
		modules[i] = MPPTModule{Index: i, model: m, offset: m.RepeatingBlockOffset(i)}
	}
	return modules
}

func (mod MPPTModule) ID() (*int32, error) {
	v, err := mod.model.RawValueAt(MPPTModuleID, mod.offset)
	if err != nil || !v.Valid {
		return nil, err
	}
	id := int32(v.Decimal.IntPart())
	return &id, nil
}

func (mod MPPTModule) Name() (string, error) {
	return mod.model.StringValueAt(MPPTModuleIDStr, mod.offset)
}

func (mod MPPTModule) Current() (decimal.NullDecimal, error) {
	return mod.model.ScaledValueAt(MPPTModuleDCA, mod.offset, MPPTDCA_SF)
}

func (mod MPPTModule) Voltage() (decimal.NullDecimal, error) {
	return mod.model.ScaledValueAt(MPPTModuleDCV, mod.offset, MPPTDCV_SF)
}

func (mod MPPTModule) PowerWatt() (*float64, error) {
	return mod.model.scaledFloat64At(MPPTModuleDCW, mod.offset, MPPTDCW_SF)
}

func (mod MPPTModule) EnergyWh() (*float64, error) {
	return mod.model.scaledFloat64At(MPPTModuleDCWH, mod.offset, MPPTDCWH_SF)
}

func (mod MPPTModule) Events() (Bitmask, error) {
	return mod.model.BitfieldValueAt(MPPTModuleDCEvt, mod.offset)
}

// TotalPowerWatt sums the DC power of every module reporting a value. Nil when
// none does.
func (m *MPPTModelAccessor) TotalPowerWatt() (*float64, error) {
	var total *float64
	for _, mod := range m.Modules() {
		p, err := mod.PowerWatt()
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		if total == nil {
			total = new(float64)
		}
		*total += *p
	}
	return total, nil
}
