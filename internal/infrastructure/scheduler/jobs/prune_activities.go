// Package jobs contains the worker's scheduled jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/activity-hub/internal/application/command"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/redis"
	"github.com/learnhub/activity-hub/internal/infrastructure/scheduler"
	"github.com/learnhub/activity-hub/pkg/logger"
)

// PruneJobName is also the distributed lock resource.
const PruneJobName = "prune_activities"

// Pruner runs one retention pass.
type Pruner interface {
	Handle(ctx context.Context, cmd command.PruneActivitiesCommand) (*command.PruneActivitiesResult, error)
}

// Locker grants a single-holder lease on a named resource.
// *redis.Locker satisfies it.
type Locker interface {
	TryLock(ctx context.Context, resource string, ttl time.Duration) (func(context.Context) error, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE ACTIVITIES JOB
// ══════════════════════════════════════════════════════════════════════════════

// PruneActivitiesConfig contains configuration for the retention job.
type PruneActivitiesConfig struct {
	// MaxAge is how long activities are kept.
	MaxAge time.Duration

	// Timeout bounds one run and is also the lock TTL.
	Timeout time.Duration
}

// PruneActivitiesJob deletes expired activities. With a Locker only one
// replica prunes per round; the others report a skip.
type PruneActivitiesJob struct {
	pruner Pruner
	locker Locker
	config PruneActivitiesConfig
	log    *logger.Logger
}

// NewPruneActivitiesJob creates the job. locker may be nil when Redis is disabled.
func NewPruneActivitiesJob(pruner Pruner, locker Locker, cfg PruneActivitiesConfig, log *logger.Logger) *PruneActivitiesJob {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PruneActivitiesJob{
		pruner: pruner,
		locker: locker,
		config: cfg,
		log:    log.With(logger.String("job", PruneJobName)),
	}
}

// Name returns the job name.
func (j *PruneActivitiesJob) Name() string {
	return PruneJobName
}

// Description returns a human-readable description.
func (j *PruneActivitiesJob) Description() string {
	return fmt.Sprintf("Deletes activities older than %s", j.config.MaxAge)
}

// Run executes one retention pass.
func (j *PruneActivitiesJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.locker != nil {
		release, err := j.locker.TryLock(ctx, PruneJobName, j.config.Timeout)
		if errors.Is(err, redis.ErrLockHeld) {
			j.log.Debug("lock held by another replica")
			return scheduler.ErrJobSkipped
		}
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		defer func() {
			// Освобождаем блокировку даже если ctx уже отменён.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				j.log.Warn("failed to release lock", logger.Err(err))
			}
		}()
	}

	if _, err := j.pruner.Handle(ctx, command.PruneActivitiesCommand{MaxAge: j.config.MaxAge}); err != nil {
		return err
	}
	return nil
}
