package domain

import (
	"time"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_SUNSPEC      = "sunspec"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// ModelState is one model of the chain with its decoded field values.
type ModelState struct {
	sunspec_modbus.ModelSummary
	Timestamp time.Time                   `json:"timestamp"`
	Values    []sunspec_modbus.FieldValue `json:"values"`
}

type PollRequest struct {
	ActorRequestMixIn
}

type PollResponse struct {
	ActorResponseMixIn
	Models    int
	Timestamp time.Time
}

type GetDeviceRequest struct {
	ActorRequestMixIn
}

type GetDeviceResponse struct {
	ActorResponseMixIn
	Device *sunspec_modbus.DeviceDescription
}

// GetModelsRequest asks for the decoded models of the last poll. A nil Index
// selects every model.
type GetModelsRequest struct {
	ActorRequestMixIn
	Index *int
}

type GetModelsResponse struct {
	ActorResponseMixIn
	Models []ModelState
}

type RediscoverRequest struct {
	BridgeCommandMixIn
}

func (RediscoverRequest) BridgeCommand() string {
	return COMMAND_REDISCOVER
}

type RediscoverResponse struct {
	ActorResponseMixIn
	Device *sunspec_modbus.DeviceDescription
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
