package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []any
	targets  []*actor.PID
}

func (s *recordingSender) Send(pid *actor.PID, message interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	s.targets = append(s.targets, pid)
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func TestPollScheduler(t *testing.T) {

	assert := assert.New(t)

	sender := &recordingSender{}
	target := actor.NewPID("nonhost", "master")

	sched, err := NewPollScheduler(100*time.Millisecond, sender, target, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, sched.Start(ctx))

	assert.Eventually(func() bool { return sender.count() >= 2 }, 3*time.Second, 20*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	for i, m := range sender.messages {
		assert.IsType(domain.PollRequest{}, m)
		assert.Equal(target, sender.targets[i])
	}
}

func TestPollSchedulerInterval(t *testing.T) {
	_, err := NewPollScheduler(0, &recordingSender{}, actor.NewPID("nonhost", "master"), zap.NewNop())
	assert.Error(t, err)
}
