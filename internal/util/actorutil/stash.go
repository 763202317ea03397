package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

// Stash holds messages an actor cannot handle in its current behavior.
// Replayed messages keep their original sender so Respond still works.
type Stash struct {
	pending []stashed
}

type stashed struct {
	msg    any
	sender *actor.PID
}

func (s *Stash) Stash(ctx actor.Context, msg any) {
	s.pending = append(s.pending, stashed{msg: msg, sender: ctx.Sender()})
}

// UnstashAll replays every stashed message to self, oldest first.
func (s *Stash) UnstashAll(ctx actor.Context) {
	for _, m := range s.pending {
		ctx.RequestWithCustomSender(ctx.Self(), m.msg, m.sender)
	}
	s.pending = nil
}

// UnstashOldest replays a single message so the actor can switch behavior
// again before the next one is delivered.
func (s *Stash) UnstashOldest(ctx actor.Context) {
	if len(s.pending) == 0 {
		return
	}
	m := s.pending[0]
	s.pending = s.pending[1:]
	ctx.RequestWithCustomSender(ctx.Self(), m.msg, m.sender)
}
