package actorutil

import (
	"errors"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

// ErrNilResult is reported when a task returns neither a value nor an error.
var ErrNilResult = errors.New("background task returned no result")

// BackgroundTask runs a blocking function off the actor and delivers its
// outcome back as a message. Failures are only delivered when Recover maps
// them to a value.
type BackgroundTask[T any] struct {
	ctx     actor.Context
	fn      func() (*T, error)
	timeout time.Duration
	recover func(error) T
}

func NewBackgroundTask[T any](ctx actor.Context, fn func() (*T, error)) *BackgroundTask[T] {
	return &BackgroundTask[T]{ctx: ctx, fn: fn}
}

// WithTimeout fails the task with a timeout error once d has elapsed.
func (t *BackgroundTask[T]) WithTimeout(d time.Duration) *BackgroundTask[T] {
	t.timeout = d
	return t
}

func (t *BackgroundTask[T]) Recover(fn func(error) T) *BackgroundTask[T] {
	t.recover = fn
	return t
}

// PipeTo runs the task in the background and sends the result to pid.
func (t *BackgroundTask[T]) PipeTo(pid *actor.PID) {
	root := t.ctx.ActorSystem().Root
	go func() {
		if value, ok := t.run(); ok {
			root.Send(pid, value)
		}
	}()
}

func (t *BackgroundTask[T]) run() (T, bool) {
	bg := io.Eval(func() (T, error) {
		var zero T
		v, err := t.fn()
		if err != nil {
			return zero, err
		}
		if v == nil {
			return zero, ErrNilResult
		}
		return *v, nil
	})
	if t.timeout > 0 {
		bg = io.WithTimeout[T](t.timeout)(bg)
	}
	result := io.RunSync(bg)
	if result.Error == nil {
		return result.Value, true
	}
	if t.recover != nil {
		return t.recover(result.Error), true
	}
	var zero T
	return zero, false
}
