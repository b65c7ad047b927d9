package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/database"
	"github.com/plateful/plateful-api/internal/queue"
	"go.uber.org/zap"
)

// DefaultActivityWindow bounds which families count as active: at
// least one member touched the API within this window.
const DefaultActivityWindow = 48 * time.Hour

// Warmer periodically enqueues snapshot jobs for recently active
// families so their dashboard snapshots and suggestion precomputes
// stay warm across day boundaries (the "Today" label shifts at
// midnight even when nobody writes).
type Warmer struct {
	jobQueue   queue.JobQueue
	familyRepo database.FamilyRepositoryInterface
	interval   time.Duration
	window     time.Duration
	logger     *zap.Logger
}

// NewWarmer creates a new warmer
func NewWarmer(jobQueue queue.JobQueue, familyRepo database.FamilyRepositoryInterface, interval time.Duration, logger *zap.Logger) *Warmer {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &Warmer{
		jobQueue:   jobQueue,
		familyRepo: familyRepo,
		interval:   interval,
		window:     DefaultActivityWindow,
		logger:     logger,
	}
}

// Start runs the warmup loop until the context is cancelled
func (w *Warmer) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ScheduleWarmupJobs(ctx); err != nil {
				w.logger.Error("warmup_scheduling_failed", zap.Error(err))
			}
		}
	}
}

// ScheduleWarmupJobs enqueues refresh and suggestion jobs for every
// family with recent member activity. Jobs are staggered a few seconds
// apart so a large deployment does not stampede the database.
func (w *Warmer) ScheduleWarmupJobs(ctx context.Context) error {
	since := time.Now().Add(-w.window)

	familyIDs, err := w.familyRepo.ListActiveFamilyIDs(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to list active families: %w", err)
	}

	var scheduled int
	for i, familyID := range familyIDs {
		notBefore := time.Now().Add(time.Duration(i) * 2 * time.Second)
		if err := w.enqueue(ctx, queue.JobTypeDashboardRefresh, familyID, notBefore); err != nil {
			w.logger.Warn("failed_to_schedule_refresh_job",
				zap.String("family_id", familyID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := w.enqueue(ctx, queue.JobTypeMealSuggestions, familyID, notBefore); err != nil {
			w.logger.Warn("failed_to_schedule_suggestion_job",
				zap.String("family_id", familyID.String()),
				zap.Error(err),
			)
		}
		scheduled++
	}

	w.logger.Info("scheduled_warmup_jobs",
		zap.Int("family_count", len(familyIDs)),
		zap.Int("scheduled", scheduled),
	)
	return nil
}

func (w *Warmer) enqueue(ctx context.Context, jobType queue.JobType, familyID uuid.UUID, notBefore time.Time) error {
	job := queue.NewJob(jobType, familyID)
	job.NotBefore = &notBefore

	// Stale warmup jobs are worthless; let the GC drop them.
	notAfter := notBefore.Add(w.interval)
	job.NotAfter = &notAfter

	return w.jobQueue.Enqueue(ctx, job)
}
