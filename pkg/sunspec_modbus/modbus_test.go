package sunspec_modbus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func commonBlock(manufacturer string) TestModelBlock {
	return NewTestModelBlock(SUNSPEC_COMMON_MODEL_LENGTH).
		PutString(0, manufacturer, 16).
		PutString(16, "Test Model", 16).
		PutString(40, "1.0", 8).
		PutString(48, "SN-1", 16).
		Put(64, 1)
}

func TestDiscoverAtSecondCandidate(t *testing.T) {
	assert := assert.New(t)
	reader := NewTestRegisterReader()
	img := NewTestDeviceImage(reader, 50000)
	img.AddModel(SUNSPEC_WK_COMMON, commonBlock("Frostnews"))
	inverterAddr := img.AddModel(103, NewTestModelBlock(50))
	img.End()

	data, err := Discover(reader, DiscoveryOptions{Logger: zap.NewNop()})
	require.NoError(t, err)

	assert.Equal(uint16(50000), data.BaseAddress)
	models := data.Models()
	require.Len(t, models, 2)
	assert.Equal(uint16(SUNSPEC_WK_COMMON), models[0].ModelId().Id)
	assert.Equal(uint16(50002), models[0].BaseAddress())
	assert.Equal(uint16(50004), models[0].BlockAddress())
	assert.Equal(uint16(66), models[0].ModelLength())
	assert.Equal(uint16(103), models[1].ModelId().Id)
	assert.Equal(inverterAddr, models[1].BaseAddress())
	assert.Equal(uint16(50070), models[1].BaseAddress())
	assert.Equal(uint16(50), models[1].ModelLength())
	assert.IsType(&InverterModelAccessor{}, models[1])

	assert.True(reader.Probed(40000), "first candidate probed")
	assert.True(reader.Probed(50000), "second candidate probed")
	assert.False(reader.Probed(0), "third candidate never probed")

	manufacturer, err := data.CommonModel().Manufacturer()
	assert.NoError(err)
	assert.Equal("Frostnews", manufacturer)
}

func TestDiscoverNoMarker(t *testing.T) {
	assert := assert.New(t)
	reader := NewTestRegisterReader()
	reader.Set(40000, StringToWords("SunX", 2)...)
	reader.Set(0, 0, 0)

	data, err := Discover(reader, DiscoveryOptions{})
	assert.ErrorIs(err, ErrModelsNotFound)
	assert.Nil(data)
	assert.True(reader.Probed(0))
}

func TestDiscoverProbeErrorIsNotFatal(t *testing.T) {
	assert := assert.New(t)
	reader := NewTestRegisterReader()
	reader.FailAt(40000, errors.New("timeout"))
	img := NewTestDeviceImage(reader, 0)
	img.AddModel(SUNSPEC_WK_COMMON, commonBlock("Frostnews"))
	img.End()

	data, err := Discover(reader, DiscoveryOptions{})
	require.NoError(t, err)
	assert.Equal(uint16(0), data.BaseAddress)
	assert.Len(data.Models(), 1)
}

func TestDiscoverChainTooLong(t *testing.T) {
	reader := NewTestRegisterReader()
	img := NewTestDeviceImage(reader, 40000)
	img.AddModel(SUNSPEC_WK_COMMON, commonBlock("Frostnews"))
	for i := 0; i < 10; i++ {
		img.AddModel(64000, NewTestModelBlock(4))
	}
	img.End()

	_, err := Discover(reader, DiscoveryOptions{MaxModels: 5})
	assert.ErrorIs(t, err, ErrChainTooLong)

	data, err := Discover(reader, DiscoveryOptions{MaxModels: 11})
	assert.NoError(t, err)
	assert.Len(t, data.Models(), 11)
}

func TestDiscoverTransportError(t *testing.T) {
	reader := NewTestRegisterReader()
	img := NewTestDeviceImage(reader, 40000)
	img.AddModel(SUNSPEC_WK_COMMON, commonBlock("Frostnews"))
	// chain ends without an end marker

	_, err := Discover(reader, DiscoveryOptions{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelsNotFound)
}

func TestDiscoverReadSpan(t *testing.T) {
	assert := assert.New(t)
	reader := CreateTestRegisterReader()

	data, err := Discover(reader, DiscoveryOptions{MaxReadSpan: 40})
	require.NoError(t, err)
	require.NoError(t, ReadModelData(reader, data, HoldingRegister, 40))
	for _, r := range reader.Reads() {
		assert.LessOrEqual(r.Count, uint16(40), "read at %d", r.Address)
	}
}

func TestGenericModelInChain(t *testing.T) {
	assert := assert.New(t)
	reader := NewTestRegisterReader()
	img := NewTestDeviceImage(reader, 40000)
	img.AddModel(SUNSPEC_WK_COMMON, commonBlock("Frostnews"))
	img.AddModel(64110, NewTestModelBlock(3).Put(0, 7, 8, 9))
	img.AddModel(103, NewTestModelBlock(50))
	img.End()

	data, err := Discover(reader, DiscoveryOptions{})
	require.NoError(t, err)
	require.NoError(t, ReadModelData(reader, data, HoldingRegister, 0))
	require.Len(t, data.Models(), 3)

	generic, ok := data.Models()[1].(*GenericModelAccessor)
	require.True(t, ok)
	assert.Equal("Model 64110", generic.ModelId().Description)
	assert.Equal(uint16(0), generic.FixedBlockLength())
	words, err := generic.Words()
	assert.NoError(err)
	assert.Equal([]uint16{7, 8, 9}, words)

	values, err := ModelValues(generic)
	assert.NoError(err)
	assert.Empty(values)
	assert.Len(data.FindModels(103), 1)
}

func TestInfoInverter(t *testing.T) {
	assert := assert.New(t)
	data := testDevice(t)

	nfo, err := data.CommonModel().Info()
	require.NoError(t, err)
	assert.Equal("Frostnews", nfo.Manufacturer)
	assert.Equal("Primo GEN24 4.0", nfo.Model)
	assert.Equal("1.30.7-1", nfo.Version)
	assert.Equal("28136344", nfo.Serial)

	inverter := data.FindModels(103)[0].(*InverterModelAccessor)
	state, err := inverter.GetState()
	require.NoError(t, err)
	assert.InDelta(51.7, *state.CabinetTemperature, 1e-9)
	assert.Equal(uint16(InverterStatusMPPT), state.OperatingState)
	assert.Equal(InverterStatusMPPTStr, state.OperatingStateStr)

	flow, err := inverter.GetPowerFlow()
	require.NoError(t, err)
	assert.InDelta(320.2, *flow.ACPowerWatt, 1e-9)
	assert.InDelta(920.3, *flow.DCPowerWatt, 1e-9)
	assert.InDelta(8123456.0, *flow.TotalEnergyWh, 1e-9)
	assert.InDelta(50.01, *flow.FrequencyHz, 1e-9)

	temp, err := inverter.ScaledFloat64Value(InverterTmpSnk, InverterTmp_SF)
	assert.NoError(err)
	assert.Nil(temp, "heat sink temperature not implemented")
}

func TestMeter(t *testing.T) {
	assert := assert.New(t)
	data := testDevice(t)

	meter := data.FindModels(203)[0].(*MeterModelAccessor)
	power, err := meter.GetPowerFlow()
	require.NoError(t, err)
	assert.InDelta(-1250.0, *power.CurrentPowerFlowWatt, 1e-9)
	assert.InDelta(1250.0, power.CurrentExportPowerWatt, 1e-9)
	assert.Zero(power.CurrentImportPowerWatt)
	assert.InDelta(2770.34, *power.TotalEnergyExportedKWh, 1e-9)
	assert.InDelta(550.22, *power.TotalEnergyImportedKWh, 1e-9)
	assert.InDelta(50.0, *power.Frequency, 1e-9)
	assert.InDelta(234.24, *power.PhaseAVoltage, 1e-9)
}

func TestStorageState(t *testing.T) {
	assert := assert.New(t)
	data := testDevice(t)

	storage := data.FindModels(SUNSPEC_WK_STORAGE)[0].(*StorageModelAccessor)
	st, err := storage.GetStorageState()
	require.NoError(t, err)
	assert.InDelta(23.5, *st.StateOfCharge, 1e-9)
	assert.Equal(uint32(5260), *st.MaxCapacityWatt)
	assert.Equal(uint32(1236), *st.CurrentCapacityWatt)
	assert.Equal(StorageChargeStatusChargingStr, st.ChargeStatusStr)
	assert.False(st.ChargeControlled)
}

func TestMPPTModules(t *testing.T) {
	assert := assert.New(t)
	data := testDevice(t)

	mppt := data.FindModels(SUNSPEC_WK_MPPT)[0].(*MPPTModelAccessor)
	modules := mppt.Modules()
	require.Len(t, modules, 2)

	for i, want := range []float64{600, 320} {
		name, err := modules[i].Name()
		assert.NoError(err)
		assert.Equal(fmt.Sprintf("String %d", i+1), name)
		p, err := modules[i].PowerWatt()
		assert.NoError(err)
		assert.InDelta(want, *p, 1e-9)
		v, err := modules[i].Voltage()
		assert.NoError(err)
		assert.Equal("350.4", v.Decimal.String())
		a, err := modules[i].Current()
		assert.NoError(err)
		assert.Equal("5.12", a.Decimal.String())
	}
	total, err := mppt.TotalPowerWatt()
	assert.NoError(err)
	assert.InDelta(920.0, *total, 1e-9)
}

func TestModelValues(t *testing.T) {
	assert := assert.New(t)
	data := testDevice(t)

	values, err := ModelValues(data.FindModels(103)[0])
	require.NoError(t, err)
	byName := map[string]any{}
	for _, v := range values {
		byName[v.Name] = v.Value
	}
	assert.True(decimal.RequireFromString("320.2").Equal(byName["W"].(decimal.Decimal)))
	assert.NotContains(byName, "W_SF", "scale factors are not published")
	assert.NotContains(byName, "AphB", "unavailable fields are skipped")
	assert.NotContains(byName, "TmpSnk")
	assert.Equal(Bitmask(0), byName["Evt1"])

	values, err = ModelValues(data.FindModels(SUNSPEC_WK_MPPT)[0])
	require.NoError(t, err)
	byName = map[string]any{}
	for _, v := range values {
		byName[v.Name] = v.Value
	}
	assert.Equal("String 2", byName["IDStr[1]"])
	assert.True(decimal.NewFromInt(320).Equal(byName["DCW[1]"].(decimal.Decimal)))
	assert.NotContains(byName, "Tmp[0]")
}

func TestDescribe(t *testing.T) {
	assert := assert.New(t)
	data := testDevice(t)

	desc := data.Describe()
	assert.Equal(uint16(40000), desc.BaseAddress)
	require.NotNil(t, desc.Info)
	assert.Equal("Frostnews", desc.Info.Manufacturer)
	ids := []uint16{}
	for _, m := range desc.Models {
		ids = append(ids, m.Id)
	}
	assert.Equal([]uint16{1, 103, 160, 124, 203}, ids)
	assert.Equal("Inverter (Three Phase)", desc.Models[1].Description)
}

func TestCommonReportedLength(t *testing.T) {
	assert := assert.New(t)
	data := NewModelData(40000)
	common := newCommonModelAccessor(data, 40002, IdentifierFor(SUNSPEC_WK_COMMON), 65)
	assert.Equal(uint16(66), common.ModelLength())
	assert.Equal(uint16(65), common.ReportedLength)
	assert.Equal(uint16(66), common.FixedBlockLength())
}

func testDevice(t *testing.T) *ModelData {
	reader := CreateTestRegisterReader()
	data, err := Discover(reader, DiscoveryOptions{Logger: zap.Must(zap.NewDevelopment())})
	require.NoError(t, err)
	require.NoError(t, ReadModelData(reader, data, HoldingRegister, SUNSPEC_DEFAULT_MAX_READ_SPAN))
	return data
}
