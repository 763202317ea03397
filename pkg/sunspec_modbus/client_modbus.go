package sunspec_modbus

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// ModbusClient reads registers through simonvetter/modbus. It accepts tcp://,
// rtu:// and rtuovertcp:// URLs.
type ModbusClient struct {
	client     *modbus.ModbusClient
	instrument []ModbusInstrument
}

type ModbusInstrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

type ModbusClientConfig struct {
	URL string
	// serial line speed, rtu only
	BaudRate uint
	UnitId   uint8
	Timeout  time.Duration
}

func CreateModbusClient(cfg ModbusClientConfig, logger *zap.Logger, instrumentation *ModbusInstrument) (*ModbusClient, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     cfg.URL,
		Speed:   cfg.BaudRate,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	// instrumentation
	var inst []ModbusInstrument
	logInst := traceLoggerInstrumentation(logger.With(zap.String("target", "sunspec")).With(zap.Uint8("unitId", cfg.UnitId)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	err = client.SetUnitId(cfg.UnitId)
	if err != nil {
		return nil, err
	}
	return &ModbusClient{
		client:     client,
		instrument: inst,
	}, nil
}

func TCPURL(host string, port uint) string {
	return fmt.Sprintf("tcp://%s:%d", host, port)
}

func (reader *ModbusClient) Open() error {
	return reader.client.Open()
}

func (reader *ModbusClient) Close() error {
	return reader.client.Close()
}

func (reader *ModbusClient) ReadWords(kind FunctionKind, addr uint16, quantity uint16) ([]uint16, error) {
	defer RecordTimer("ReadRegisters", reader.instrument)()
	regType := modbus.HOLDING_REGISTER
	if kind == InputRegister {
		regType = modbus.INPUT_REGISTER
	}
	return reader.client.ReadRegisters(addr, quantity, regType)
}

func RecordTimer(name string, instrument []ModbusInstrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}

func traceLoggerInstrumentation(logger *zap.Logger) *ModbusInstrument {
	if logger == nil || !logger.Core().Enabled(zap.DebugLevel) {
		return nil
	}
	return &ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug(fmt.Sprintf("modbus [%s]: %d millis", fnName, readTime.Milliseconds()))
		},
	}
}
