package session

import (
	"context"
	"time"
)

// Scheduler runs callbacks on a timer until their context is cancelled.
// The returned channel is closed once no further call of fn can start.
type Scheduler interface {
	Every(ctx context.Context, period time.Duration, fn func()) <-chan struct{}
	After(ctx context.Context, delay time.Duration, fn func()) <-chan struct{}
}

// TimerScheduler is the Scheduler backed by time.Ticker and time.Timer.
type TimerScheduler struct{}

// Every calls fn once per period until ctx is done.
func (TimerScheduler) Every(ctx context.Context, period time.Duration, fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return done
}

// After calls fn once after delay unless ctx is done first.
func (TimerScheduler) After(ctx context.Context, delay time.Duration, fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			fn()
		}
	}()
	return done
}

// task is one scheduled job owned by the session.
type task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   <-chan struct{}
}

func newTask() *task {
	ctx, cancel := context.WithCancel(context.Background())
	return &task{ctx: ctx, cancel: cancel}
}

// live reports whether the task has not been cancelled.
func (t *task) live() bool {
	return t.ctx.Err() == nil
}

// wait blocks until the scheduler released the task.
func (t *task) wait() {
	if t != nil && t.done != nil {
		<-t.done
	}
}
