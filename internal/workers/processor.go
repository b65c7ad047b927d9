package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/plateful/plateful-api/internal/queue"
	"github.com/plateful/plateful-api/internal/services/suggest"
	"go.uber.org/zap"
)

// Processor routes queue messages to the refresher and suggester and
// owns the ack/retry decisions.
type Processor struct {
	refresher *Refresher
	suggester *Suggester
	jobQueue  queue.JobQueue // for re-enqueueing jobs with delays
	logger    *zap.Logger
}

// NewProcessor creates a new processor
func NewProcessor(refresher *Refresher, suggester *Suggester, jobQueue queue.JobQueue, logger *zap.Logger) *Processor {
	return &Processor{
		refresher: refresher,
		suggester: suggester,
		jobQueue:  jobQueue,
		logger:    logger,
	}
}

// ProcessJob processes a job based on its type
func (p *Processor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Respect NotBefore: re-enqueue and ack rather than busy-waiting
	// on an unready message.
	if !job.ShouldProcess() {
		if job.IsExpired() {
			p.logger.Info("dropping_expired_job",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.Type)),
			)
			if ackErr := msg.Ack(); ackErr != nil {
				return fmt.Errorf("failed to ack expired job: %w", ackErr)
			}
			return nil
		}
		return p.requeueLater(ctx, msg, job)
	}

	switch job.Type {
	case queue.JobTypeDashboardRefresh:
		if err := p.refresher.ProcessDashboardRefreshJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack refresh job: %w", ackErr)
		}
		return nil

	case queue.JobTypeMealSuggestions:
		if p.suggester == nil {
			// Suggestion plane not configured; drop silently.
			if ackErr := msg.Ack(); ackErr != nil {
				return fmt.Errorf("failed to ack suggestion job: %w", ackErr)
			}
			return nil
		}
		if err := p.suggester.ProcessMealSuggestionsJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack suggestion job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // unknown job type, send to DLQ
			p.logger.Warn("failed_to_nack_unknown_job_type", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError decides between delayed retry and DLQ. Rate-limit and
// quota errors from the suggestion provider get provider-appropriate
// backoff; everything else retries on a short delay until the job's
// retry budget runs out.
func (p *Processor) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if !job.CanRetry() {
		p.logger.Error("job_failed_permanently",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.String("family_id", job.FamilyID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil { // exhausted, send to DLQ
			p.logger.Warn("failed_to_nack_exhausted_job", zap.Error(nackErr))
		}
		return fmt.Errorf("job %s failed permanently: %w", job.ID, err)
	}

	retryDelay := suggest.GetRetryDelay(err, job.RetryCount)
	notBefore := time.Now().Add(retryDelay)

	retry := *job
	retry.RetryCount = job.RetryCount + 1
	retry.NotBefore = &notBefore

	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Warn("failed_to_ack_job_before_retry", zap.Error(ackErr))
	}

	if enqueueErr := p.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
		return fmt.Errorf("failed to re-enqueue job %s for retry: %w", job.ID, enqueueErr)
	}

	p.logger.Warn("job_scheduled_for_retry",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", retry.RetryCount),
		zap.Duration("retry_delay", retryDelay),
		zap.Error(err),
	)
	return nil
}

// requeueLater puts a not-yet-ready job back on the queue with its
// NotBefore intact.
func (p *Processor) requeueLater(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Warn("failed_to_ack_unready_job", zap.Error(ackErr))
	}
	if enqueueErr := p.jobQueue.Enqueue(ctx, job); enqueueErr != nil {
		return fmt.Errorf("failed to re-enqueue unready job %s: %w", job.ID, enqueueErr)
	}
	return nil
}
