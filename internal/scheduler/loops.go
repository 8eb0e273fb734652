package scheduler

import (
	"context"
	"fmt"
	"time"

	"ovidio_backend/platform/config"
	"ovidio_backend/platform/logger"
)

// Loops computes when each periodic job is next due and enqueues it. The
// loops are independent: one failing enqueue is logged and the loop simply
// waits for the next occurrence.
type Loops struct {
	client *Client
	cfg    config.ScheduleConfig
	loc    *time.Location
	log    *logger.Logger
}

// NewLoops creates the trigger loops in the configured timezone.
func NewLoops(client *Client, cfg config.ScheduleConfig, log *logger.Logger) (*Loops, error) {
	loc, err := time.LoadLocation(cfg.GetTimezone())
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.GetTimezone(), err)
	}
	return &Loops{client: client, cfg: cfg, loc: loc, log: log}, nil
}

// Run starts all trigger loops and blocks until ctx is cancelled.
func (l *Loops) Run(ctx context.Context) {
	go l.loop(ctx, TaskCatalogSync, func(now time.Time) time.Time {
		return NextInterval(now, l.cfg.GetCatalogSyncInterval())
	})
	go l.loop(ctx, TaskIdentityFullSync, func(now time.Time) time.Time {
		return NextDaily(now, l.cfg.GetIdentitySyncHour(), 0, l.loc)
	})
	go l.loop(ctx, TaskFollowUps, func(now time.Time) time.Time {
		return NextDaily(now, l.cfg.GetFollowUpHour(), 0, l.loc)
	})
	go l.loop(ctx, TaskBirthdayGreetings, func(now time.Time) time.Time {
		return NextDaily(now, l.cfg.GetBirthdayHour(), 0, l.loc)
	})
	go l.loop(ctx, TaskWeeklyGreeting, func(now time.Time) time.Time {
		return NextWeekly(now, l.cfg.GetWeeklyGreetingWeekday(), l.cfg.GetWeeklyGreetingHour(), 0, l.loc)
	})

	<-ctx.Done()
}

func (l *Loops) loop(ctx context.Context, taskName string, next func(time.Time) time.Time) {
	for {
		runAt := next(time.Now())
		l.log.Info("job scheduled", "task", taskName, "run_at", runAt)

		timer := time.NewTimer(time.Until(runAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := l.client.Enqueue(ctx, taskName); err != nil {
			l.log.Error("job enqueue failed", "task", taskName, "error", err)
		}
	}
}
