package domain

import (
	"errors"
	"fmt"
)

// BridgeCommand is a request that can reach the bridge from outside, over the
// MQTT command topic.
type BridgeCommand interface {
	ActorRequest
	BridgeCommand() string
}

type BridgeCommandMixIn struct {
	ActorRequestMixIn
}

const (
	COMMAND_REDISCOVER = "rediscover"
	COMMAND_POLL       = "poll"
)

var ErrUnknownCommand = errors.New("unknown command")

// CommandFor maps a command name, as found in the MQTT command topic, to its
// request.
func CommandFor(name string) (BridgeCommand, error) {
	switch name {
	case COMMAND_REDISCOVER:
		return RediscoverRequest{}, nil
	case COMMAND_POLL:
		return PollCommand{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

// PollCommand triggers an out of schedule poll.
type PollCommand struct {
	BridgeCommandMixIn
}

func (PollCommand) BridgeCommand() string {
	return COMMAND_POLL
}
