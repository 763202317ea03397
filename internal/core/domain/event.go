package domain

import (
	"fmt"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
)

type UpdateEventMixIn struct {
	Retain bool
}

type UpdateEvent interface {
	UpdateEvent() string
	Retained() bool
}

func (e UpdateEventMixIn) UpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e UpdateEventMixIn) Retained() bool {
	return e.Retain
}

// ModelUpdateEvent carries the decoded values of one model after a poll.
type ModelUpdateEvent struct {
	UpdateEventMixIn
	Model ModelState
}

// DeviceUpdateEvent is emitted after every successful discovery.
type DeviceUpdateEvent struct {
	UpdateEventMixIn
	Device sunspec_modbus.DeviceDescription
}
