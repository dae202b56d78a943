// Package poll runs periodic background tasks whose lifetime is bound to a context.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// interval is a fixed-delay schedule that, unlike "@every", allows sub-second periods.
type interval time.Duration

func (i interval) Next(t time.Time) time.Time { return t.Add(time.Duration(i)) }

// Scheduler owns a set of periodic tasks. Tasks receive the context passed to
// Run and stop being scheduled when it is cancelled.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
	ctx  context.Context
}

// New constructs an idle scheduler.
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log.Sugar()}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:  log,
	}
}

// Every registers fn to run each period. With immediate set, fn also runs once
// as soon as Run starts.
func (s *Scheduler) Every(name string, period time.Duration, immediate bool, fn func(context.Context)) error {
	if period <= 0 {
		return fmt.Errorf("poll %s: non-positive period %s", name, period)
	}
	job := cron.FuncJob(func() {
		if s.ctx == nil || s.ctx.Err() != nil {
			return
		}
		s.log.Debug("poll", zap.String("task", name))
		fn(s.ctx)
	})
	s.cron.Schedule(interval(period), job)
	if immediate {
		s.cron.Schedule(&once{}, job)
	}
	return nil
}

// Run starts the tasks and blocks until ctx is done, then waits for running tasks to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// once fires right away and then never again (cron skips a zero next time).
type once struct{ fired bool }

func (o *once) Next(t time.Time) time.Time {
	if o.fired {
		return time.Time{}
	}
	o.fired = true
	return t
}

type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...any) { l.s.Debugw(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}
