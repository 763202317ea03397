package sunspec_modbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBytesToWords(t *testing.T) {
	assert := assert.New(t)

	words, err := bytesToWords([]byte{0x53, 0x75, 0x6e, 0x53}, 2)
	assert.NoError(err)
	assert.Equal([]uint16{0x5375, 0x6e53}, words)
	assert.Equal(SUNSPEC_MARKER, wordsToString(words))

	_, err = bytesToWords([]byte{0x00}, 1)
	assert.Error(err)
}

func TestCreateGoburrowClient(t *testing.T) {
	assert := assert.New(t)

	_, err := CreateGoburrowClient(GoburrowClientConfig{}, zap.NewNop(), nil)
	assert.Error(err)

	client, err := CreateGoburrowClient(GoburrowClientConfig{Address: "127.0.0.1:502", UnitId: 1, Timeout: time.Second}, zap.NewNop(), nil)
	assert.NoError(err)
	assert.NotNil(client)
}

func TestRecordTimer(t *testing.T) {
	var recorded []string
	inst := []ModbusInstrument{{RecordTime: func(fnName string, readTime time.Duration) {
		recorded = append(recorded, fnName)
	}}}
	RecordTimer("ReadRegisters", inst)()
	RecordTimer("ReadRegisters", nil)()
	assert.Equal(t, []string{"ReadRegisters"}, recorded)
}
