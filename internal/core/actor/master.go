package actor

import (
	"errors"
	"fmt"
	"time"

	adactor "github.com/berfenger/sunspec2mqtt/internal/adapter/actor"
	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	. "github.com/berfenger/sunspec2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type SunSpecActorProvider func(*eventstream.EventStream) *adactor.SunSpecActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck   healthCheckResult
	eventStream          *eventstream.EventStream
	sunspecActor         *actor.PID
	mqttActor            *actor.PID
	sunspecActorProvider SunSpecActorProvider
	mqttActorProvider    MQTTActorProvider
	logger               *zap.Logger

	// handed to children that the master builds itself
	rootLogger *zap.Logger
}

type healthCheckResult struct {
	sunspecActorHealthy bool
	mqttActorHealthy    bool
	checksReceived      int
	respondTo           *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, sunspecActorProvider SunSpecActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:               config,
		behavior:             actor.NewBehavior(),
		stash:                &Stash{},
		logger:               ActorLogger(domain.ACTOR_ID_MASTER, logger),
		rootLogger:           logger,
		eventStream:          &eventstream.EventStream{},
		sunspecActorProvider: sunspecActorProvider,
		mqttActorProvider:    mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start MQTT child first so it is subscribed before the first discovery
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start SunSpec child
		sunspecActorPID, err := state.startSunSpecActor(ctx)
		if err != nil {
			panic(err)
		}
		state.sunspecActor = sunspecActorPID

		if state.config.MQTT.HADiscoveryEnable {
			if _, err := state.startHADiscoveryActor(ctx); err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// SunSpec Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.sunspecActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_SUNSPEC,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.PollRequest, domain.GetDeviceRequest, domain.GetModelsRequest, domain.RediscoverRequest:
		// the sunspec actor answers the original sender
		ctx.Forward(state.sunspecActor)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := MQTTCommandToRequest(*msg.Command)
			if err != nil {
				state.logger.Warn("master@default unknown command", zap.Error(err))
				return
			}
			state.logger.Info("master@default bridge command", zap.String("command", cmd.BridgeCommand()))
			ctx.Send(state.sunspecActor, cmd)
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_SUNSPEC) {
			state.logger.Error("master@default sunspec error")
			panic(errors.New("sunspec terminated"))
		}
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		ctx.CancelReceiveTimeout()
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_SUNSPEC {
				state.currentHealthCheck.sunspecActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_MQTT {
				state.currentHealthCheck.mqttActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)
			ctx.CancelReceiveTimeout()

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startSunSpecActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	sunspecProps := actor.PropsFromProducer(func() actor.Actor {
		return state.sunspecActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	sunspecActorPID, err := ctx.SpawnNamed(sunspecProps, domain.ACTOR_ID_SUNSPEC)
	if err != nil {
		return nil, err
	}

	return sunspecActorPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	haProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.sunspecActor, state.mqttActor, state.eventStream, state.rootLogger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(haProps, domain.ACTOR_ID_HA_DISCOVERY)
}

func (state *healthCheckResult) reset() {
	state.sunspecActorHealthy = false
	state.mqttActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 2
}

func (state *healthCheckResult) allHealthy() bool {
	return state.sunspecActorHealthy && state.mqttActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
