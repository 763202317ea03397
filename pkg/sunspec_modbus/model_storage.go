package sunspec_modbus

import (
	"fmt"
	"math"
)

// storage states
const (
	StorageChargeStatusOff         = 1
	StorageChargeStatusEmpty       = 2
	StorageChargeStatusDischarging = 3
	StorageChargeStatusCharging    = 4
	StorageChargeStatusFull        = 5
	StorageChargeStatusHolding     = 6
	StorageChargeStatusTest        = 7
)

// storage state strings
const (
	StorageChargeStatusOffStr         = "off"
	StorageChargeStatusEmptyStr       = "empty"
	StorageChargeStatusDischargingStr = "discharging"
	StorageChargeStatusChargingStr    = "charging"
	StorageChargeStatusFullStr        = "full"
	StorageChargeStatusHoldingStr     = "holding"
	StorageChargeStatusTestStr        = "test"
	StorageChargeStatusUnknownStr     = "unknown"
)

func StorageChargeStatusToString(storage uint16) string {
	switch storage {
	case StorageChargeStatusOff:
		return StorageChargeStatusOffStr
	case StorageChargeStatusEmpty:
		return StorageChargeStatusEmptyStr
	case StorageChargeStatusDischarging:
		return StorageChargeStatusDischargingStr
	case StorageChargeStatusCharging:
		return StorageChargeStatusChargingStr
	case StorageChargeStatusFull:
		return StorageChargeStatusFullStr
	case StorageChargeStatusHolding:
		return StorageChargeStatusHoldingStr
	case StorageChargeStatusTest:
		return StorageChargeStatusTestStr
	default:
		return fmt.Sprintf("%s(%d)", StorageChargeStatusUnknownStr, storage)
	}
}

// StorCtl_Mod bits
const (
	StorageControlCharge    = 0
	StorageControlDischarge = 1
)

var (
	StorageWChaMax            = DataPoint{Name: "WChaMax", Offset: 0, Type: UInt16, ScaleFactor: "WChaMax_SF"}
	StorageWChaGra            = DataPoint{Name: "WChaGra", Offset: 1, Type: UInt16, ScaleFactor: "WChaDisChaGra_SF"}
	StorageWDisChaGra         = DataPoint{Name: "WDisChaGra", Offset: 2, Type: UInt16, ScaleFactor: "WChaDisChaGra_SF"}
	StorageStorCtl_Mod        = DataPoint{Name: "StorCtl_Mod", Offset: 3, Type: UInt16, Class: Bitfield}
	StorageVAChaMax           = DataPoint{Name: "VAChaMax", Offset: 4, Type: UInt16, ScaleFactor: "VAChaMax_SF"}
	StorageMinRsvPct          = DataPoint{Name: "MinRsvPct", Offset: 5, Type: UInt16, ScaleFactor: "MinRsvPct_SF"}
	StorageChaState           = DataPoint{Name: "ChaState", Offset: 6, Type: UInt16, ScaleFactor: "ChaState_SF"}
	StorageStorAval           = DataPoint{Name: "StorAval", Offset: 7, Type: UInt16, ScaleFactor: "StorAval_SF"}
	StorageInBatV             = DataPoint{Name: "InBatV", Offset: 8, Type: UInt16, ScaleFactor: "InBatV_SF"}
	StorageChaSt              = DataPoint{Name: "ChaSt", Offset: 9, Type: UInt16, Class: Enumeration}
	StorageOutWRte            = DataPoint{Name: "OutWRte", Offset: 10, Type: Int16, ScaleFactor: "InOutWRte_SF"}
	StorageInWRte             = DataPoint{Name: "InWRte", Offset: 11, Type: Int16, ScaleFactor: "InOutWRte_SF"}
	StorageInOutWRte_WinTms   = DataPoint{Name: "InOutWRte_WinTms", Offset: 12, Type: UInt16}
	StorageInOutWRte_RvrtTms  = DataPoint{Name: "InOutWRte_RvrtTms", Offset: 13, Type: UInt16}
	StorageInOutWRte_RmpTms   = DataPoint{Name: "InOutWRte_RmpTms", Offset: 14, Type: UInt16}
	StorageChaGriSet          = DataPoint{Name: "ChaGriSet", Offset: 15, Type: UInt16, Class: Enumeration}
	StorageWChaMax_SF         = sf("WChaMax_SF", 16)
	StorageWChaDisChaGra_SF   = sf("WChaDisChaGra_SF", 17)
	StorageVAChaMax_SF        = sf("VAChaMax_SF", 18)
	StorageMinRsvPct_SF       = sf("MinRsvPct_SF", 19)
	StorageChaState_SF        = sf("ChaState_SF", 20)
	StorageStorAval_SF        = sf("StorAval_SF", 21)
	StorageInBatV_SF          = sf("InBatV_SF", 22)
	StorageInOutWRte_SF       = sf("InOutWRte_SF", 23)
	storageFixedLen           = uint16(24)
)

var storageDataPoints = []DataPoint{
	StorageWChaMax, StorageWChaGra, StorageWDisChaGra, StorageStorCtl_Mod,
	StorageVAChaMax, StorageMinRsvPct, StorageChaState, StorageStorAval, StorageInBatV,
	StorageChaSt, StorageOutWRte, StorageInWRte,
	StorageInOutWRte_WinTms, StorageInOutWRte_RvrtTms, StorageInOutWRte_RmpTms, StorageChaGriSet,
	StorageWChaMax_SF, StorageWChaDisChaGra_SF, StorageVAChaMax_SF, StorageMinRsvPct_SF,
	StorageChaState_SF, StorageStorAval_SF, StorageInBatV_SF, StorageInOutWRte_SF,
}

func init() {
	RegisterModel(ModelId{Id: SUNSPEC_WK_STORAGE, Description: "Basic Storage Controls", Capability: CapabilityStorage},
		func(data *ModelData, baseAddress uint16, id ModelId, length uint16) ModelAccessor {
			return NewStorageModelAccessor(data, baseAddress, id, length)
		})
}

type StorageModelAccessor struct {
	BaseModelAccessor
}

func NewStorageModelAccessor(data *ModelData, baseAddress uint16, id ModelId, length uint16) *StorageModelAccessor {
	return &StorageModelAccessor{
		BaseModelAccessor: newBaseModelAccessor(data, baseAddress, id, length, storageFixedLen, 0, storageDataPoints, nil),
	}
}

type StorageState struct {
	StateOfCharge       *float64
	MaxCapacityWatt     *uint32
	CurrentCapacityWatt *uint32
	ChargeStatus        uint16
	ChargeStatusStr     string
	ChargeControlled    bool
	DischargeControlled bool
}

func (s *StorageModelAccessor) GetStorageState() (*StorageState, error) {
	soc, err := s.ScaledFloat64Value(StorageChaState, StorageChaState_SF)
	if err != nil {
		return nil, err
	}
	maxCap, err := s.ScaledFloat64Value(StorageWChaMax, StorageWChaMax_SF)
	if err != nil {
		return nil, err
	}
	status, err := s.Int32Value(StorageChaSt)
	if err != nil {
		return nil, err
	}
	control, err := s.BitfieldValue(StorageStorCtl_Mod)
	if err != nil {
		return nil, err
	}
	chaSt := uint16(0)
	if status != nil {
		chaSt = uint16(*status)
	}
	// if state == off, soc = 0
	if chaSt == StorageChargeStatusOff {
		zero := 0.0
		soc = &zero
	}
	state := &StorageState{
		StateOfCharge:       soc,
		ChargeStatus:        chaSt,
		ChargeStatusStr:     StorageChargeStatusToString(chaSt),
		ChargeControlled:    control.Has(StorageControlCharge),
		DischargeControlled: control.Has(StorageControlDischarge),
	}
	if maxCap != nil {
		capacity := uint32(math.Round(*maxCap))
		state.MaxCapacityWatt = &capacity
		if soc != nil {
			current := uint32(math.Round(*soc / 100 * *maxCap))
			state.CurrentCapacityWatt = &current
		}
	}
	return state, nil
}
