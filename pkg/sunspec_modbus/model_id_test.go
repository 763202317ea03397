package sunspec_modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifierFor(t *testing.T) {
	assert := assert.New(t)

	common := IdentifierFor(SUNSPEC_WK_COMMON)
	assert.Equal(CapabilityCommon, common.Capability)
	assert.Equal("Common", common.Description)

	for id := uint16(201); id <= 204; id++ {
		assert.Equal(CapabilityMeter, IdentifierFor(id).Capability)
	}
	assert.Equal(CapabilityMPPT, IdentifierFor(160).Capability)
	assert.Equal(CapabilityStorage, IdentifierFor(124).Capability)

	generic := IdentifierFor(64001)
	assert.Equal(uint16(64001), generic.Id)
	assert.Equal("Model 64001", generic.Description)
	assert.Equal(CapabilityBase, generic.Capability)
	assert.Equal("64001(Model 64001)", generic.String())
}

func TestAccessorFor(t *testing.T) {
	assert := assert.New(t)
	data := NewModelData(40000)

	assert.IsType(&InverterModelAccessor{}, AccessorFor(data, 40070, 101, 50))
	assert.IsType(&MeterModelAccessor{}, AccessorFor(data, 40070, 203, 105))
	assert.IsType(&StorageModelAccessor{}, AccessorFor(data, 40070, 124, 24))
	assert.IsType(&CommonModelAccessor{}, AccessorFor(data, 40002, 1, 65))

	m := AccessorFor(data, 40100, 64001, 12)
	assert.IsType(&GenericModelAccessor{}, m)
	assert.Equal(uint16(40100), m.BaseAddress())
	assert.Equal(uint16(40102), m.BlockAddress())
	assert.Equal(uint16(12), m.ModelLength())
	assert.Equal(uint16(0), m.FixedBlockLength())
	assert.Equal(0, m.RepeatingBlockInstanceCount())
	assert.Empty(m.DataPoints())
}

func TestRegisterModel(t *testing.T) {
	assert := assert.New(t)
	const vendorId = 64900
	t.Cleanup(func() { delete(modelRegistry, vendorId) })

	points := []DataPoint{{Name: "Power", Offset: 0, Type: Int16, ScaleFactor: "SF"}, sf("SF", 1)}
	RegisterModel(ModelId{Id: vendorId, Description: "Vendor", Capability: CapabilityBase},
		func(data *ModelData, baseAddress uint16, id ModelId, length uint16) ModelAccessor {
			return &GenericModelAccessor{BaseModelAccessor: newBaseModelAccessor(data, baseAddress, id, length, 2, 0, points, nil)}
		})

	data := NewModelData(0)
	data.MergeRange(2, []uint16{42, 1})
	m := AccessorFor(data, 0, vendorId, 2)
	assert.Equal("Vendor", m.ModelId().Description)

	values, err := ModelValues(m)
	assert.NoError(err)
	assert.Len(values, 1)
	assert.Equal("Power", values[0].Name)
	assert.Equal("420", values[0].Value.(interface{ String() string }).String())
}
