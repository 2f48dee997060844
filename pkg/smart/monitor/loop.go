// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/stratastor/logger"
	"github.com/stratastor/smartmond/pkg/errors"
	"github.com/stratastor/smartmond/pkg/lifecycle"
)

// Loop drives the single-threaded cooperative main loop: poll every
// registered device once per interval, repeat (spec.md section 4.10). The
// actual wait is delegated to a gocron.DurationJob rather than a hand-rolled
// ticker — the same scheduling library the teacher's disk manager uses for
// its own periodic discovery/health-check jobs — since Go's timers are
// already monotonic-clock-based and unaffected by a stepped wall clock, the
// exact scenario spec.md section 4.10 calls out. Reload draining and
// poll-now both hook onto that single job rather than reimplementing sleep.
type Loop struct {
	log      logger.Logger
	monitor  *Monitor
	registry *Registry
	interval time.Duration
	reloader func() (*Registry, error)
}

// NewLoop builds a Loop that polls registry every interval. reloader is
// called when SIGHUP fires and the current cycle has drained; it must
// re-parse configuration and return a freshly populated Registry (the old
// one's state is discarded).
func NewLoop(log logger.Logger, m *Monitor, registry *Registry, interval time.Duration, reloader func() (*Registry, error)) *Loop {
	return &Loop{log: log, monitor: m, registry: registry, interval: interval, reloader: reloader}
}

// pollNowTick bounds how often the loop checks for a SIGUSR1 poll-now
// request between scheduled runs.
const pollNowTick = 1 * time.Second

// Run blocks until ctx is cancelled (the process is exiting). Each
// scheduled run opens every registered device fresh, polls it, and closes
// it regardless of poll outcome (spec.md section 5's resource policy).
func (l *Loop) Run(ctx context.Context) {
	lifecycle.RegisterReloadHook(func() {
		if l.reloader == nil {
			return
		}
		fresh, err := l.reloader()
		if err != nil {
			l.log.Error("reload failed, keeping previous device registry",
				"err", errors.Wrap(err, errors.DiskLoopReloadFailed))
			return
		}
		l.registry.Reset()
		l.registry = fresh
		l.log.Info("device registry reloaded", "devices", l.registry.Len())
	})

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		l.log.Error("failed to create poll scheduler", "err", err)
		return
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(l.interval),
		gocron.NewTask(func() { l.runCycle(ctx) }),
		gocron.WithName("smart_poll_cycle"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.AfterJobRuns(func(_ uuid.UUID, _ string) {
				lifecycle.ReloadIfRequested()
			}),
		),
	)
	if err != nil {
		l.log.Error("failed to schedule poll cycle", "err", err)
		return
	}

	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			l.log.Error("poll scheduler shutdown failed", "err", err)
		}
	}()

	l.watchPollNow(ctx, job)
	<-ctx.Done()
}

// watchPollNow triggers an out-of-cycle run whenever SIGUSR1 sets the
// poll-now flag (spec.md section 4.10), without busy-polling faster than
// pollNowTick.
func (l *Loop) watchPollNow(ctx context.Context, job gocron.Job) {
	go func() {
		ticker := time.NewTicker(pollNowTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if lifecycle.PollNowRequested() {
					if err := job.RunNow(); err != nil {
						l.log.Error("poll-now trigger failed", "err", err)
					}
				}
			}
		}
	}()
}

// runCycle polls every registered device once, in registration order.
func (l *Loop) runCycle(ctx context.Context) {
	for _, dev := range l.registry.Devices() {
		if ctx.Err() != nil {
			return
		}
		l.pollOne(ctx, dev)
	}
}

func (l *Loop) pollOne(ctx context.Context, dev DeviceEntry) {
	if err := dev.Handle.Open(); err != nil {
		l.monitor.dispatcher.Send(ctx, dev.State, Event{
			Pathname: dev.Handle.Pathname(), Category: CategoryFailedOpenDevice,
			Message: err.Error(), DeviceType: dev.Handle.EffectiveType(), Occurred: time.Now(),
		}, false)
		return
	}
	defer dev.Handle.Close()

	if err := l.monitor.Poll(ctx, dev.Handle, dev.State); err != nil {
		l.log.Error("poll cycle failed", "pathname", dev.Handle.Pathname(), "err", err)
	}
}
