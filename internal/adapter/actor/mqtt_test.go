package actor

import (
	"testing"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util"
	"github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, logger) })
	pid := context.Spawn(props)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)

	es.Publish(domain.DeviceUpdateEvent{
		UpdateEventMixIn: domain.UpdateEventMixIn{Retain: true},
		Device:           sunspec_modbus.DeviceDescription{BaseAddress: 40000},
	})
	es.Publish(domain.ModelUpdateEvent{
		Model: domain.ModelState{ModelSummary: sunspec_modbus.ModelSummary{Index: 1, Id: 103}},
	})
	// not an update event, ignored
	es.Publish("noise")

	assert.Eventually(t, func() bool {
		result, err := context.RequestFuture(pid, GetPublishedRequest{}, time.Second).Result()
		return err == nil && len(result.(GetPublishedResponse).Topics) == 2
	}, 2*time.Second, 50*time.Millisecond)

	result, err = context.RequestFuture(pid, GetPublishedRequest{}, time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"sunspec/device", "sunspec/model/1/state"}, result.(GetPublishedResponse).Topics)

	context.Stop(pid)

	as.Shutdown()
}

func TestEvent2MQTTMessage(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	act := NewTestMQTTActor(&cfg, nil, zap.NewNop())

	as := actor.NewActorSystem()
	defer as.Shutdown()
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return act }))
	_, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, time.Second).Result()
	require.NoError(t, err)

	raw, err := act.event2MQTTMessage(domain.ModelUpdateEvent{
		Model: domain.ModelState{
			ModelSummary: sunspec_modbus.ModelSummary{Index: 2, Id: 160, Description: "Multiple MPPT Inverter Extension"},
			Values:       []sunspec_modbus.FieldValue{{Name: "N", Value: 2}},
		},
	})
	require.NoError(t, err)
	assert.Equal("sunspec/model/2/state", raw.topic)
	assert.False(raw.retain)
	assert.JSONEq(`{"index":2,"id":160,"description":"Multiple MPPT Inverter Extension","address":0,"length":0,
		"timestamp":"0001-01-01T00:00:00Z","values":[{"name":"N","value":2}]}`, string(raw.message))

	raw, err = act.event2MQTTMessage("noise")
	assert.NoError(err)
	assert.Nil(raw)
}
