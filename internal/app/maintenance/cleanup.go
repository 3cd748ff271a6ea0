// Package maintenance runs scheduled housekeeping for the board data.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/roadboard/pkg/logger"
)

const defaultPurgeSpec = "@daily"

// Purger permanently removes rows soft deleted before a cutoff.
type Purger interface {
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner purges soft-deleted features and roadmaps once they are older than
// the retention window. A zero retention keeps deleted rows forever.
type Cleaner struct {
	features  Purger
	roadmaps  Purger
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used to compute the purge cutoff.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron expression of the purge job.
func WithSchedule(expr string) Option {
	return func(cleaner *Cleaner) {
		if expr != "" {
			cleaner.schedule = expr
		}
	}
}

// NewCleaner constructs a Cleaner. Features are purged before roadmaps so
// vote rows of a purged roadmap's features go first.
func NewCleaner(features, roadmaps Purger, retention time.Duration, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		features:  features,
		roadmaps:  roadmaps,
		retention: retention,
		schedule:  defaultPurgeSpec,
		now:       time.Now,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Enabled reports whether a purge job will be scheduled.
func (c *Cleaner) Enabled() bool {
	return c.retention > 0 && (c.features != nil || c.roadmaps != nil)
}

// Start registers the purge job and launches the scheduler.
func (c *Cleaner) Start() error {
	if !c.Enabled() {
		c.log.Debug("soft-delete purge disabled")
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("soft-delete purge failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	c.log.Info("soft-delete purge scheduled",
		zap.String("schedule", c.schedule),
		zap.Duration("retention", c.retention))
	return nil
}

// Stop halts the underlying scheduler, waiting for any running job to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce purges everything deleted before now minus the retention window.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := c.now().Add(-c.retention)
	var errs error

	if c.features != nil {
		n, err := c.features.PurgeDeletedBefore(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if n > 0 {
			c.log.Info("purged features", zap.Int64("count", n))
		}
	}

	if c.roadmaps != nil {
		n, err := c.roadmaps.PurgeDeletedBefore(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if n > 0 {
			c.log.Info("purged roadmaps", zap.Int64("count", n))
		}
	}

	return errs
}
