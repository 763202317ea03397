package sunspec_modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeRangeRoundTrip(t *testing.T) {
	assert := assert.New(t)
	data := NewModelData(40000)
	assert.True(data.Timestamp.IsZero())

	data.MergeRange(40010, []uint16{1, 2, 3, 0xFFFF})
	words, err := data.WordsAt(40010, 4)
	assert.NoError(err)
	assert.Equal([]uint16{1, 2, 3, 0xFFFF}, words)
	assert.False(data.Timestamp.IsZero())

	// later reads fully replace earlier ones
	data.MergeRange(40011, []uint16{7, 8})
	words, err = data.WordsAt(40010, 4)
	assert.NoError(err)
	assert.Equal([]uint16{1, 7, 8, 0xFFFF}, words)

	_, err = data.WordsAt(40012, 3)
	assert.ErrorIs(err, ErrMissingData)

	// merges past the address space are cut
	data.MergeRange(0xFFFE, []uint16{5, 6, 7})
	words, err = data.WordsAt(0xFFFE, 2)
	assert.NoError(err)
	assert.Equal([]uint16{5, 6}, words)
	_, err = data.WordsAt(0xFFFF, 2)
	assert.ErrorIs(err, ErrMissingData)
}

func TestFreezeIsIndependent(t *testing.T) {
	assert := assert.New(t)
	data := testDevice(t)
	frozen := data.Freeze()

	require.Len(t, frozen.Models(), len(data.Models()))
	for i, m := range frozen.Models() {
		assert.Equal(data.Models()[i].ModelId(), m.ModelId())
		assert.Equal(data.Models()[i].BaseAddress(), m.BaseAddress())
		assert.IsType(data.Models()[i], m)
	}
	assert.Equal(data.Timestamp, frozen.Timestamp)

	inverter := data.FindModels(103)[0].(*InverterModelAccessor)
	frozenInverter := frozen.FindModels(103)[0].(*InverterModelAccessor)

	// live snapshot gets a new read
	data.MergeRange(inverter.BlockAddress()+InverterW.Offset, []uint16{1000})

	live, err := inverter.ScaledFloat64Value(InverterW, InverterW_SF)
	assert.NoError(err)
	assert.InDelta(100.0, *live, 1e-9)
	old, err := frozenInverter.ScaledFloat64Value(InverterW, InverterW_SF)
	assert.NoError(err)
	assert.InDelta(320.2, *old, 1e-9)

	manufacturer, err := frozen.CommonModel().Manufacturer()
	assert.NoError(err)
	assert.Equal("Frostnews", manufacturer)
}
