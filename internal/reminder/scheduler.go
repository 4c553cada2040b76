package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/xaenox/time-bot/internal/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const DefaultInterval = time.Minute

type Sender interface {
	SendReminder(ctx context.Context, chatID int64) error
}

type Scheduler struct {
	registry *Registry
	sender   Sender
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger
}

func NewScheduler(registry *Registry, sender Sender, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		registry: registry,
		sender:   sender,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Reminder scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Tick(ctx, s.clock.Now())
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick sends every due reminder once. A failed send is skipped until the
// next tick; it never stops the others.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (int, error) {
	due, err := s.registry.Due(now, s.window())
	if err != nil {
		s.logger.Error("Failed to load reminders", zap.Error(err))
		return 0, err
	}

	sent := 0
	var errs error
	for _, rem := range due {
		if ctx.Err() != nil {
			return sent, multierr.Append(errs, ctx.Err())
		}
		if err := s.sender.SendReminder(ctx, rem.ChatID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send to user %d: %w", rem.UserID, err))
			continue
		}
		sent++
		if err := s.registry.MarkSent(rem, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark sent for user %d: %w", rem.UserID, err))
		}
	}

	if errs != nil {
		s.logger.Warn("Some reminders failed",
			zap.Int("due", len(due)),
			zap.Int("sent", sent),
			zap.Error(errs))
	}
	return sent, errs
}

// window covers a skipped minute when ticks drift across a minute boundary.
func (s *Scheduler) window() time.Duration {
	return 2 * max(s.interval, time.Minute)
}
