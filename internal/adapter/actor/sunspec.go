package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const (
	DISCOVERY_TIMEOUT = 30 * time.Second
	POLL_TIMEOUT      = 10 * time.Second
)

var (
	ErrNoSnapshot    = errors.New("no poll completed yet")
	ErrModelIndex    = errors.New("model index out of range")
	ErrNotDiscovered = errors.New("device not discovered")
)

type SunSpecActor struct {
	behavior    actor.Behavior
	stash       *actorutil.Stash
	config      config.DeviceConfig
	reader      sunspec_modbus.RegisterReaderCloser
	eventStream *eventstream.EventStream

	// chain found by the last discovery
	data *sunspec_modbus.ModelData
	// result of the last successful poll, never mutated
	snapshot *sunspec_modbus.ModelData

	logger *zap.Logger
}

type discoveryResult struct {
	data    *sunspec_modbus.ModelData
	err     error
	replyTo *actor.PID
}

type pollResult struct {
	data    *sunspec_modbus.ModelData
	err     error
	replyTo *actor.PID
}

func NewSunSpecActor(cfg config.DeviceConfig, reader sunspec_modbus.RegisterReaderCloser, eventStream *eventstream.EventStream, logger *zap.Logger) *SunSpecActor {
	act := &SunSpecActor{
		config:      cfg,
		reader:      reader,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_SUNSPEC, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *SunSpecActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *SunSpecActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("sunspec@starting started")
		if err := state.reader.Open(); err != nil {
			panic(err)
		}
		state.discover(ctx, nil)
	case discoveryResult:
		if msg.err != nil {
			// let the supervisor restart us with backoff
			state.logger.Error("sunspec@starting discovery failed", zap.Error(msg.err))
			panic(msg.err)
		}
		state.discovered(msg.data)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.reader.Close()
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("sunspec@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *SunSpecActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("sunspec@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SUNSPEC,
			Healthy: state.data != nil,
			State:   "idle",
		})
	case domain.PollRequest:
		state.logger.Debug("sunspec@default: PollRequest")
		state.poll(ctx, actorutil.ForRequest(msg).ReplyTo(ctx))
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.PollCommand:
		state.logger.Debug("sunspec@default: PollCommand")
		state.poll(ctx, nil)
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.RediscoverRequest:
		state.logger.Debug("sunspec@default: RediscoverRequest")
		state.discover(ctx, actorutil.ForRequest(msg).ReplyTo(ctx))
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.GetDeviceRequest:
		state.logger.Debug("sunspec@default: GetDeviceRequest")
		resp := domain.GetDeviceResponse{}
		if state.data == nil {
			resp.ResponseError = ErrNotDiscovered
		} else {
			device := state.data.Describe()
			resp.Device = &device
		}
		actorutil.ForRequest(msg).Respond(ctx, resp)
	case domain.GetModelsRequest:
		state.logger.Debug("sunspec@default: GetModelsRequest")
		models, err := state.models(msg.Index)
		actorutil.ForRequest(msg).Respond(ctx, domain.GetModelsResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			Models:             models,
		})
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("sunspec@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *SunSpecActor) WaitingModbus(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case pollResult:
		state.logger.Debug("sunspec@WaitingModbus pollResult")
		resp := domain.PollResponse{}
		if msg.err != nil {
			state.logger.Error("sunspec@WaitingModbus poll failed", zap.Error(msg.err))
			resp.ResponseError = msg.err
		} else {
			state.snapshot = msg.data
			resp.Timestamp = msg.data.Timestamp
			resp.Models = state.publishModels()
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, resp)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case discoveryResult:
		state.logger.Debug("sunspec@WaitingModbus discoveryResult")
		resp := domain.RediscoverResponse{}
		if msg.err != nil {
			// keep serving the previous chain
			state.logger.Error("sunspec@WaitingModbus rediscovery failed", zap.Error(msg.err))
			resp.ResponseError = msg.err
		} else {
			state.discovered(msg.data)
			device := msg.data.Describe()
			resp.Device = &device
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, resp)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("sunspec@WaitingModbus stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *SunSpecActor) discover(ctx actor.Context, replyTo *actor.PID) {
	opts := state.config.DiscoveryOptions()
	opts.Logger = state.logger
	actorutil.NewBackgroundTask(ctx, func() (*discoveryResult, error) {
		data, err := sunspec_modbus.Discover(state.reader, opts)
		if err != nil {
			return nil, err
		}
		return &discoveryResult{data: data, replyTo: replyTo}, nil
	}).Recover(func(err error) discoveryResult {
		return discoveryResult{err: err, replyTo: replyTo}
	}).WithTimeout(DISCOVERY_TIMEOUT).PipeTo(ctx.Self())
}

// poll reads every model into a copy of the chain, the actor state is only
// replaced once the task has succeeded.
func (state *SunSpecActor) poll(ctx actor.Context, replyTo *actor.PID) {
	data := state.data.Freeze()
	kind := state.config.FunctionKind()
	span := state.config.MaxReadSpan
	actorutil.NewBackgroundTask(ctx, func() (*pollResult, error) {
		if err := sunspec_modbus.ReadModelData(state.reader, data, kind, span); err != nil {
			return nil, err
		}
		return &pollResult{data: data, replyTo: replyTo}, nil
	}).Recover(func(err error) pollResult {
		return pollResult{err: err, replyTo: replyTo}
	}).WithTimeout(POLL_TIMEOUT).PipeTo(ctx.Self())
}

func (state *SunSpecActor) discovered(data *sunspec_modbus.ModelData) {
	state.data = data
	state.snapshot = nil
	desc := data.Describe()
	state.logger.Info("sunspec device discovered",
		zap.Uint16("base", desc.BaseAddress),
		zap.Int("models", len(desc.Models)))
	state.eventStream.Publish(domain.DeviceUpdateEvent{
		UpdateEventMixIn: domain.UpdateEventMixIn{Retain: true},
		Device:           desc,
	})
}

func (state *SunSpecActor) publishModels() int {
	models, err := ModelStates(state.snapshot)
	if err != nil {
		state.logger.Error("sunspec: decode failed", zap.Error(err))
	}
	for _, m := range models {
		state.eventStream.Publish(domain.ModelUpdateEvent{Model: m})
	}
	return len(models)
}

func (state *SunSpecActor) models(index *int) ([]domain.ModelState, error) {
	if state.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	if index == nil {
		return ModelStates(state.snapshot)
	}
	all := state.snapshot.Models()
	if *index < 0 || *index >= len(all) {
		return nil, fmt.Errorf("%w: %d", ErrModelIndex, *index)
	}
	m, err := ModelState(state.snapshot, *index)
	if err != nil {
		return nil, err
	}
	return []domain.ModelState{*m}, nil
}

// ModelStates decodes every model of data. Models that fail to decode are
// left out and reported in the joined error.
func ModelStates(data *sunspec_modbus.ModelData) ([]domain.ModelState, error) {
	var states []domain.ModelState
	var errs []error
	for i := range data.Models() {
		m, err := ModelState(data, i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		states = append(states, *m)
	}
	return states, errors.Join(errs...)
}

func ModelState(data *sunspec_modbus.ModelData, index int) (*domain.ModelState, error) {
	m := data.Models()[index]
	values, err := sunspec_modbus.ModelValues(m)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.ModelId(), err)
	}
	return &domain.ModelState{
		ModelSummary: data.Summary(index),
		Timestamp:    data.Timestamp,
		Values:       values,
	}, nil
}
