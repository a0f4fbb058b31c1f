package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

// Enqueue inserts a pending job unless one already exists for the same
// order and type, in which case the existing job is returned unchanged.
func (uc *DefaultNotificationUsecase) Enqueue(ctx context.Context, req domain.NotificationRequest) (*domain.NotificationJob, bool, error) {
	if !req.Type.Valid() {
		return nil, false, domain.NewValidationError(domain.CodeValidation, "type",
			fmt.Sprintf("unknown notification type %q", req.Type))
	}
	if req.OrderID == "" {
		return nil, false, domain.NewValidationError(domain.CodeValidation, "order_id", "order id is required")
	}

	existing, err := uc.Jobs.FindPending(ctx, req.OrderID, req.Type)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		uc.dedup(req.Type)
		return existing, false, nil
	}

	now := uc.now()
	job := &domain.NotificationJob{
		ID:        uc.newID(),
		OrderID:   req.OrderID,
		Address:   req.Address,
		Type:      req.Type,
		Priority:  req.Priority,
		Status:    domain.JobPending,
		NotBefore: req.NotBefore.UTC(),
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if job.Priority == 0 {
		job.Priority = domain.PriorityMedium
	}
	if req.NotBefore.IsZero() {
		job.NotBefore = now
	}

	if err := uc.Jobs.CreateJob(ctx, job); err != nil {
		if !errors.Is(err, domain.ErrDuplicatePending) {
			return nil, false, err
		}
		// a concurrent enqueue won the insert
		winner, findErr := uc.Jobs.FindPending(ctx, req.OrderID, req.Type)
		if findErr != nil {
			return nil, false, findErr
		}
		if winner == nil {
			return nil, false, err
		}
		uc.dedup(req.Type)
		return winner, false, nil
	}

	if uc.Metrics != nil {
		uc.Metrics.EnqueuedTotal.WithLabelValues(string(req.Type)).Inc()
	}
	uc.Logger.Debug("notification enqueued", "job_id", job.ID, "order_id", job.OrderID, "type", job.Type)
	return job, true, nil
}

func (uc *DefaultNotificationUsecase) dedup(t domain.NotificationType) {
	if uc.Metrics != nil {
		uc.Metrics.DedupedTotal.WithLabelValues(string(t)).Inc()
	}
}
