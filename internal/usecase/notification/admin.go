package notification

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

type PurgeReport struct {
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

// Resend revives a failed job: attempts go back to zero and it becomes
// due immediately.
func (uc *DefaultNotificationUsecase) Resend(ctx context.Context, jobID string) (*domain.NotificationJob, error) {
	err := uc.Jobs.Reset(ctx, jobID, uc.now())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicatePending):
		return nil, &domain.StateError{
			Code:    domain.CodeDuplicatePending,
			Message: "another pending notification for this order and type already exists",
		}
	case domain.IsNotFound(err):
		job, getErr := uc.Jobs.GetJobByID(ctx, jobID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &domain.StateError{
			Code:    domain.CodeInvalidState,
			Message: "only failed notifications can be resent, this one is " + string(job.Status),
		}
	default:
		return nil, err
	}

	job, err := uc.Jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	uc.Logger.Info("notification re-queued", "job_id", jobID, "order_id", job.OrderID, "type", job.Type)
	return job, nil
}

// PurgeOld deletes sent jobs past the sent retention and failed jobs past
// the failed retention.
func (uc *DefaultNotificationUsecase) PurgeOld(ctx context.Context) (*PurgeReport, error) {
	now := uc.now()
	report := &PurgeReport{}

	sent, err := uc.Jobs.PurgeSent(ctx, now.Add(-uc.Config.SentRetention))
	if err != nil {
		return report, err
	}
	report.Sent = sent

	failed, err := uc.Jobs.PurgeFailed(ctx, now.Add(-uc.Config.FailedRetention))
	if err != nil {
		return report, err
	}
	report.Failed = failed

	if uc.Metrics != nil {
		uc.Metrics.PurgedTotal.WithLabelValues(string(domain.JobSent)).Add(float64(sent))
		uc.Metrics.PurgedTotal.WithLabelValues(string(domain.JobFailed)).Add(float64(failed))
	}
	if sent > 0 || failed > 0 {
		uc.Logger.Info("old notifications purged", "sent", sent, "failed", failed)
	}
	return report, nil
}

func (uc *DefaultNotificationUsecase) ListJobs(ctx context.Context, filter domain.JobFilter) ([]*domain.NotificationJob, int64, error) {
	return uc.Jobs.ListJobs(ctx, filter)
}

func (uc *DefaultNotificationUsecase) Deliveries(ctx context.Context, jobID string) ([]domain.DeliveryRecord, error) {
	if _, err := uc.Jobs.GetJobByID(ctx, jobID); err != nil {
		return nil, err
	}
	if uc.DeliveryLog == nil {
		return nil, nil
	}
	return uc.DeliveryLog.ListDeliveries(ctx, jobID)
}
