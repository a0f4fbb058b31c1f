package notification

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

type ProcessReport struct {
	Released int64 `json:"released"`
	Claimed  int   `json:"claimed"`
	Sent     int   `json:"sent"`
	Retried  int   `json:"retried"`
	Failed   int   `json:"failed"`
}

// ClaimDueBatch picks up to limit due jobs, highest priority first and
// oldest first within a priority, and claims each one atomically. Jobs
// claimed by another worker in between are skipped.
func (uc *DefaultNotificationUsecase) ClaimDueBatch(ctx context.Context, limit int) ([]*domain.NotificationJob, error) {
	if limit <= 0 || limit > uc.Config.BatchSize {
		limit = uc.Config.BatchSize
	}
	now := uc.now()

	due, err := uc.Jobs.ListDue(ctx, now, uc.Config.MaxAttempts, limit)
	if err != nil {
		return nil, err
	}

	claimed := make([]*domain.NotificationJob, 0, len(due))
	for _, job := range due {
		ok, err := uc.Jobs.Claim(ctx, job.ID, now)
		if err != nil {
			return claimed, err
		}
		if !ok {
			continue
		}
		job.Status = domain.JobProcessing
		claimedAt := now
		job.ClaimedAt = &claimedAt
		claimed = append(claimed, job)
	}
	return claimed, nil
}

// ProcessOne renders and dispatches a claimed job and records the result.
// Delivery failures are not returned; they are stored on the job. The
// error is only set when the outcome itself could not be persisted.
func (uc *DefaultNotificationUsecase) ProcessOne(ctx context.Context, job *domain.NotificationJob) (domain.JobStatus, error) {
	start := uc.Now()
	attemptCtx, cancel := context.WithTimeout(ctx, uc.Config.AttemptTimeout)
	defer cancel()

	order, err := uc.Orders.GetOrderByID(attemptCtx, job.OrderID)
	if err != nil {
		if domain.IsNotFound(err) {
			return uc.fail(ctx, job, err, start)
		}
		return uc.retryOrFail(ctx, job, &domain.TransientDeliveryError{Stage: "load", Err: err}, start)
	}

	msg, err := uc.Renderer.Render(attemptCtx, order, job.Type, job.Metadata)
	if err != nil {
		return uc.retryOrFail(ctx, job, &domain.TransientDeliveryError{Stage: "render", Err: err}, start)
	}

	err = uc.Dispatcher.Dispatch(attemptCtx, domain.NotificationMessage{
		JobID:     job.ID,
		OrderID:   job.OrderID,
		Number:    order.Number,
		Type:      job.Type,
		Address:   msg.Address,
		Text:      msg.Text,
		URL:       msg.URL,
		CreatedAt: uc.now(),
	})
	if err != nil {
		return uc.retryOrFail(ctx, job, &domain.TransientDeliveryError{Stage: "dispatch", Err: err}, start)
	}

	sentAt := uc.now()
	job.Attempts++
	job.Status = domain.JobSent
	job.SentAt = &sentAt
	job.Address = msg.Address
	job.RenderedMessage = msg.Text
	job.DeliveryURL = msg.URL
	job.ProcessingMs = uc.Now().Sub(start).Milliseconds()
	job.LastError = ""
	if err := uc.Jobs.MarkSent(ctx, job); err != nil {
		return job.Status, err
	}

	uc.logDelivery(ctx, job, domain.DeliverySent, "")
	uc.observe(job, "sent", start)
	uc.Logger.Info("notification sent", "job_id", job.ID, "order_id", job.OrderID, "type", job.Type, "attempt", job.Attempts)
	return job.Status, nil
}

func (uc *DefaultNotificationUsecase) retryOrFail(ctx context.Context, job *domain.NotificationJob, cause error, start time.Time) (domain.JobStatus, error) {
	if job.Attempts+1 >= uc.Config.MaxAttempts {
		return uc.fail(ctx, job, cause, start)
	}

	job.Attempts++
	job.Status = domain.JobPending
	job.LastError = cause.Error()
	job.NotBefore = uc.now().Add(uc.Config.RetryBackoff)
	job.ClaimedAt = nil

	err := uc.Jobs.MarkRetry(ctx, job)
	if errors.Is(err, domain.ErrDuplicatePending) {
		// a newer job for the same event is already waiting
		job.Attempts--
		return uc.fail(ctx, job, errors.New("superseded by a newer pending notification"), start)
	}
	if err != nil {
		return job.Status, err
	}

	uc.observe(job, "retry", start)
	uc.Logger.Warn("notification attempt failed, retry scheduled",
		"job_id", job.ID, "order_id", job.OrderID, "type", job.Type,
		"attempt", job.Attempts, "not_before", job.NotBefore, "error", cause)
	return job.Status, nil
}

func (uc *DefaultNotificationUsecase) fail(ctx context.Context, job *domain.NotificationJob, cause error, start time.Time) (domain.JobStatus, error) {
	failedAt := uc.now()
	job.Attempts++
	job.Status = domain.JobFailed
	job.FailedAt = &failedAt
	job.LastError = cause.Error()
	job.ClaimedAt = nil
	if err := uc.Jobs.MarkFailed(ctx, job); err != nil {
		return job.Status, err
	}

	uc.logDelivery(ctx, job, domain.DeliveryFailed, cause.Error())
	uc.observe(job, "failed", start)
	uc.Logger.Error("notification failed permanently",
		"job_id", job.ID, "order_id", job.OrderID, "type", job.Type,
		"attempts", job.Attempts, "error", cause)
	return job.Status, nil
}

func (uc *DefaultNotificationUsecase) logDelivery(ctx context.Context, job *domain.NotificationJob, outcome domain.DeliveryOutcome, errMsg string) {
	if uc.DeliveryLog == nil {
		return
	}
	err := uc.DeliveryLog.LogDelivery(ctx, domain.DeliveryRecord{
		JobID:     job.ID,
		OrderID:   job.OrderID,
		Type:      job.Type,
		Address:   job.Address,
		Outcome:   outcome,
		Message:   job.RenderedMessage,
		URL:       job.DeliveryURL,
		Attempt:   job.Attempts,
		Error:     errMsg,
		CreatedAt: uc.now(),
	})
	if err != nil {
		uc.Logger.Warn("failed to write delivery record", "job_id", job.ID, "error", err)
	}
}

func (uc *DefaultNotificationUsecase) observe(job *domain.NotificationJob, outcome string, start time.Time) {
	if uc.Metrics != nil {
		uc.Metrics.RecordAttempt(string(job.Type), outcome, uc.Now().Sub(start))
	}
}

// ProcessDue runs one delivery pass: stale claims are released, a batch is
// claimed and every claimed job is processed.
func (uc *DefaultNotificationUsecase) ProcessDue(ctx context.Context) (*ProcessReport, error) {
	report := &ProcessReport{}

	released, err := uc.Jobs.ReleaseStaleClaims(ctx, uc.now().Add(-uc.Config.ClaimTTL))
	if err != nil {
		return report, err
	}
	report.Released = released

	jobs, err := uc.ClaimDueBatch(ctx, uc.Config.BatchSize)
	if err != nil {
		return report, err
	}
	report.Claimed = len(jobs)

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		status, err := uc.ProcessOne(ctx, job)
		if err != nil {
			uc.Logger.Error("failed to record notification outcome", "job_id", job.ID, "error", err)
			continue
		}
		switch status {
		case domain.JobSent:
			report.Sent++
		case domain.JobPending:
			report.Retried++
		case domain.JobFailed:
			report.Failed++
		}
	}
	return report, nil
}

func (uc *DefaultNotificationUsecase) StartWorker(ctx context.Context) {
	ticker := time.NewTicker(uc.Config.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := uc.ProcessDue(ctx)
			if err != nil {
				if ctx.Err() == nil {
					uc.Logger.Error("notification pass failed", "error", err)
				}
				continue
			}
			if report.Claimed > 0 || report.Released > 0 {
				uc.Logger.Info("notification pass finished",
					"claimed", report.Claimed, "sent", report.Sent,
					"retried", report.Retried, "failed", report.Failed, "released", report.Released)
			}
		}
	}
}
