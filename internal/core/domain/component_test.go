package domain

import (
	"testing"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSensors(t *testing.T) {
	assert := assert.New(t)

	device := SunSpecDevice(sunspec_modbus.DeviceDescription{BaseAddress: 40000})
	assert.Equal("sunspec_40000", device.Id)

	sensors := ModelSensors(device, ModelState{
		ModelSummary: sunspec_modbus.ModelSummary{Index: 3, Id: 160, Description: "Multiple MPPT"},
		Values: []sunspec_modbus.FieldValue{
			{Name: "IDStr[1]", Value: "String 2", Class: sunspec_modbus.Plain},
			{Name: "DCWH[1]", Value: 10, Class: sunspec_modbus.Accumulator},
			{Name: "DCEvt[1]", Value: sunspec_modbus.Bitmask(0), Class: sunspec_modbus.Bitfield},
		},
	})
	require.Len(t, sensors, 3)

	assert.Equal("m3_idstr_1", sensors[0].Id)
	assert.Equal("", sensors[0].StateClass)
	assert.Equal(device, sensors[0].Device)

	assert.Equal(STATE_CLASS_TOTAL_INCREASING, sensors[1].StateClass)
	assert.Equal(IdDevice(device), sensors[1].Device)
	assert.Equal(3, sensors[1].ModelIndex)
	assert.Equal("DCWH[1]", sensors[1].Field)

	assert.Equal(ENTITY_CLASS_DIAGNOSTIC, sensors[2].EntityCategory)
	require.NotNil(t, sensors[2].EnabledByDefault)
	assert.False(*sensors[2].EnabledByDefault)

	common := ModelSensors(device, ModelState{
		ModelSummary: sunspec_modbus.ModelSummary{Index: 0, Id: 1, Description: "Common"},
		Values:       []sunspec_modbus.FieldValue{{Name: "SN", Value: "1234"}},
	})
	assert.Equal(ENTITY_CLASS_DIAGNOSTIC, common[0].EntityCategory)
}
