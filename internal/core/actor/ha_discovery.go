package actor

import (
	"fmt"

	adactor "github.com/berfenger/sunspec2mqtt/internal/adapter/actor"
	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// HADiscoveryActor announces the bridge and every decoded model value as Home
// Assistant sensors. Sensors are announced once per discovered chain.
type HADiscoveryActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	sunspecActor   *actor.PID
	mqttActor      *actor.PID
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription

	bridgeDevice domain.Device
	device       *domain.Device
	announced    map[string]bool

	logger *zap.Logger
}

type onDiscoveryEvent struct {
	event any
}

func NewHADiscoveryActor(config *config.Config, sunspecActor *actor.PID, mqttActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:       config,
		sunspecActor: sunspecActor,
		mqttActor:    mqttActor,
		eventStream:  eventStream,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		announced:    map[string]bool{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			switch value.(type) {
			case domain.DeviceUpdateEvent, domain.ModelUpdateEvent:
				ctx.Send(ctx.Self(), onDiscoveryEvent{event: value})
			}
		})

		state.bridgeDevice = domain.BridgeDevice(state.config.MQTT.BaseTopic)
		state.announce(ctx, domain.BridgeSensors(state.bridgeDevice))

		// the sunspec actor answers once its first discovery is done
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.sunspecActor, domain.GetDeviceRequest{}, adactor.DISCOVERY_TIMEOUT), func(err error) any {
			return domain.GetDeviceResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	case domain.GetDeviceResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@starting GetDeviceResponse")
		state.setDevice(*msg.Device)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.unsubscribe()
	case *actor.Stopping:
		state.unsubscribe()
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case onDiscoveryEvent:
		switch event := msg.event.(type) {
		case domain.DeviceUpdateEvent:
			state.logger.Debug("hadiscovery@default DeviceUpdateEvent")
			state.setDevice(event.Device)
		case domain.ModelUpdateEvent:
			var sensors []domain.GenericSensor
			for _, s := range domain.ModelSensors(*state.device, event.Model) {
				if !state.announced[s.UniqueId] {
					sensors = append(sensors, s)
				}
			}
			state.announce(ctx, sensors)
		}
	case *actor.Restarting:
		state.unsubscribe()
	case *actor.Stopping:
		state.unsubscribe()
	default:
		state.logger.Debug("hadiscovery@default: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// setDevice starts over with a new chain, its models may have moved.
func (state *HADiscoveryActor) setDevice(desc sunspec_modbus.DeviceDescription) {
	device := domain.SunSpecDevice(desc)
	device.ViaDevice = state.bridgeDevice.Id
	state.device = &device
	state.announced = map[string]bool{}
}

func (state *HADiscoveryActor) announce(ctx actor.Context, sensors []domain.GenericSensor) {
	if len(sensors) == 0 {
		return
	}
	for _, s := range sensors {
		state.announced[s.UniqueId] = true
	}
	state.logger.Debug("hadiscovery: announce", zap.Int("sensors", len(sensors)))
	ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{Sensors: sensors})
}

func (state *HADiscoveryActor) unsubscribe() {
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
}
