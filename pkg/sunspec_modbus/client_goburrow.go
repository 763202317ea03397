package sunspec_modbus

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"
)

type goburrowHandler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// GoburrowClient reads registers through goburrow/modbus, over TCP or a local
// serial line.
type GoburrowClient struct {
	handler    goburrowHandler
	client     modbus.Client
	instrument []ModbusInstrument
}

type GoburrowClientConfig struct {
	// host:port for TCP
	Address string
	// serial device, takes precedence over Address
	SerialPort string
	BaudRate   int
	UnitId     uint8
	Timeout    time.Duration
}

func CreateGoburrowClient(cfg GoburrowClientConfig, logger *zap.Logger, instrumentation *ModbusInstrument) (*GoburrowClient, error) {
	var handler goburrowHandler
	if cfg.SerialPort != "" {
		h := modbus.NewRTUClientHandler(cfg.SerialPort)
		h.BaudRate = cfg.BaudRate
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.SlaveId = cfg.UnitId
		h.Timeout = cfg.Timeout
		handler = h
	} else if cfg.Address != "" {
		h := modbus.NewTCPClientHandler(cfg.Address)
		h.SlaveId = cfg.UnitId
		h.Timeout = cfg.Timeout
		handler = h
	} else {
		return nil, fmt.Errorf("sunspec: goburrow client needs an address or a serial port")
	}

	var inst []ModbusInstrument
	logInst := traceLoggerInstrumentation(logger.With(zap.String("target", "sunspec")).With(zap.Uint8("unitId", cfg.UnitId)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}
	return &GoburrowClient{
		handler:    handler,
		client:     modbus.NewClient(handler),
		instrument: inst,
	}, nil
}

func (reader *GoburrowClient) Open() error {
	return reader.handler.Connect()
}

func (reader *GoburrowClient) Close() error {
	return reader.handler.Close()
}

func (reader *GoburrowClient) ReadWords(kind FunctionKind, addr uint16, quantity uint16) ([]uint16, error) {
	defer RecordTimer("ReadRegisters", reader.instrument)()
	var payload []byte
	var err error
	if kind == InputRegister {
		payload, err = reader.client.ReadInputRegisters(addr, quantity)
	} else {
		payload, err = reader.client.ReadHoldingRegisters(addr, quantity)
	}
	if err != nil {
		return nil, err
	}
	return bytesToWords(payload, quantity)
}

func bytesToWords(payload []byte, quantity uint16) ([]uint16, error) {
	if len(payload) != int(quantity)*2 {
		return nil, fmt.Errorf("sunspec: got %d bytes for %d registers", len(payload), quantity)
	}
	words := make([]uint16, quantity)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(payload[i*2:])
	}
	return words, nil
}
