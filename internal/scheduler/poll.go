package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

const POLL_JOB_KEY = "sunspec_poll"

// Sender is the part of actor.RootContext the scheduler needs.
type Sender interface {
	Send(pid *actor.PID, message interface{})
}

// PollScheduler sends a domain.PollRequest to target every interval.
type PollScheduler struct {
	scheduler quartz.Scheduler
	interval  time.Duration
	sender    Sender
	target    *actor.PID
	logger    *zap.Logger
}

func NewPollScheduler(interval time.Duration, sender Sender, target *actor.PID, logger *zap.Logger) (*PollScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	return &PollScheduler{
		scheduler: quartz.NewStdScheduler(),
		interval:  interval,
		sender:    sender,
		target:    target,
		logger:    logger.With(zap.String("component", "scheduler")),
	}, nil
}

func (s *PollScheduler) Start(ctx context.Context) error {
	s.scheduler.Start(ctx)

	pollJob := job.NewFunctionJob(func(_ context.Context) (int, error) {
		s.logger.Debug("poll tick")
		s.sender.Send(s.target, domain.PollRequest{})
		return 0, nil
	})
	detail := quartz.NewJobDetail(pollJob, quartz.NewJobKey(POLL_JOB_KEY))
	if err := s.scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(s.interval)); err != nil {
		s.scheduler.Stop()
		return err
	}
	s.logger.Info("poll scheduled", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the scheduler and waits for a running tick to return.
func (s *PollScheduler) Stop(ctx context.Context) {
	s.scheduler.Stop()
	s.scheduler.Wait(ctx)
}
