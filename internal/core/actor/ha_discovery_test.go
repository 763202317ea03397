package actor

import (
	"testing"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHADiscoveryActor(t *testing.T) {

	assert := assert.New(t)

	as := actor.NewActorSystem()
	t.Cleanup(as.Shutdown)
	context := as.Root
	cfg := util.LoadTestConfig()
	es := &eventstream.EventStream{}

	desc := sunspec_modbus.DeviceDescription{
		BaseAddress: 40000,
		Info:        &sunspec_modbus.DeviceInfo{Manufacturer: "Frostnews", Model: "Symo", Serial: "1234"},
	}
	sunspecPID := context.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(domain.GetDeviceRequest); ok {
			ctx.Respond(domain.GetDeviceResponse{Device: &desc})
		}
	}))
	announced := make(chan []domain.GenericSensor, 10)
	mqttPID := context.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if msg, ok := ctx.Message().(domain.PublishDiscoveryRequest); ok {
			announced <- msg.Sensors
		}
	}))

	pid := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, sunspecPID, mqttPID, es, zap.NewNop())
	}))
	t.Cleanup(func() { context.Stop(pid) })

	next := func() []domain.GenericSensor {
		select {
		case s := <-announced:
			return s
		case <-time.After(2 * time.Second):
			require.FailNow(t, "no discovery published")
			return nil
		}
	}

	bridge := next()
	require.Len(t, bridge, 1)
	assert.Equal(domain.SENSOR_ID_BRIDGE_STATE, bridge[0].Id)

	model := domain.ModelUpdateEvent{Model: domain.ModelState{
		ModelSummary: sunspec_modbus.ModelSummary{Index: 1, Id: 103, Description: "Inverter (Three Phase)"},
		Values:       []sunspec_modbus.FieldValue{{Name: "W", Value: decimal.NewFromInt(320)}},
	}}
	es.Publish(model)
	sensors := next()
	require.Len(t, sensors, 1)
	assert.Equal("m1_w", sensors[0].Id)
	assert.Equal(bridge[0].Device.Id, sensors[0].Device.ViaDevice)

	// already announced
	es.Publish(model)
	select {
	case s := <-announced:
		assert.Failf("unexpected announce", "%v", s)
	case <-time.After(200 * time.Millisecond):
	}

	// a new chain is announced again
	es.Publish(domain.DeviceUpdateEvent{Device: desc})
	es.Publish(model)
	assert.Len(next(), 1)
}
