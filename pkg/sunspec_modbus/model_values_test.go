package sunspec_modbus

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValueJSON(t *testing.T) {
	raw, err := json.Marshal([]FieldValue{
		{Name: "W", Value: decimal.New(3202, -1)},
		{Name: "WH", Value: decimal.NewFromInt(12345678901), Class: Accumulator},
		{Name: "SN", Value: "1234"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"W","value":320.2},{"name":"WH","value":12345678901},{"name":"SN","value":"1234"}]`, string(raw))
}
