package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultNotificationJobRepository struct {
	DB *gorm.DB
}

func NewDefaultNotificationJobRepository(db *gorm.DB) *DefaultNotificationJobRepository {
	return &DefaultNotificationJobRepository{DB: db}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func (r *DefaultNotificationJobRepository) CreateJob(ctx context.Context, job *domain.NotificationJob) error {
	if err := r.DB.WithContext(ctx).Create(mappers.ToGORMNotificationJob(job)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePending
		}
		return fmt.Errorf("insert notification job: %w", err)
	}
	return nil
}

func (r *DefaultNotificationJobRepository) FindPending(ctx context.Context, orderID string, t domain.NotificationType) (*domain.NotificationJob, error) {
	var row models.NotificationJobModel
	err := r.DB.WithContext(ctx).
		Where("order_id = ? AND type = ? AND status = ?", orderID, string(t), string(domain.JobPending)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending notification: %w", err)
	}
	return mappers.ToDomainNotificationJob(&row), nil
}

func (r *DefaultNotificationJobRepository) GetJobByID(ctx context.Context, jobID string) (*domain.NotificationJob, error) {
	var row models.NotificationJobModel
	if err := r.DB.WithContext(ctx).Where("id = ?", jobID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "notification job", ID: jobID, Err: domain.ErrJobNotFound}
		}
		return nil, fmt.Errorf("get notification job: %w", err)
	}
	return mappers.ToDomainNotificationJob(&row), nil
}

func (r *DefaultNotificationJobRepository) ListJobs(ctx context.Context, filter domain.JobFilter) ([]*domain.NotificationJob, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)

	query := r.DB.WithContext(ctx).Model(&models.NotificationJobModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notification jobs: %w", err)
	}

	var rows []models.NotificationJobModel
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list notification jobs: %w", err)
	}
	return toDomainJobs(rows), total, nil
}

func (r *DefaultNotificationJobRepository) ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.NotificationJob, error) {
	var rows []models.NotificationJobModel
	err := r.DB.WithContext(ctx).
		Where("status = ?", string(domain.JobPending)).
		Where("not_before <= ?", now.UTC()).
		Where("attempts < ?", maxAttempts).
		Order("priority DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	return toDomainJobs(rows), nil
}

func (r *DefaultNotificationJobRepository) Claim(ctx context.Context, jobID string, now time.Time) (bool, error) {
	now = now.UTC()
	res := r.DB.WithContext(ctx).
		Model(&models.NotificationJobModel{}).
		Where("id = ? AND status = ?", jobID, string(domain.JobPending)).
		Updates(map[string]any{
			"status":     string(domain.JobProcessing),
			"claimed_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim notification job: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReleaseStaleClaims returns jobs stuck in processing to pending. A job
// whose pair already has a newer pending job is failed as superseded.
func (r *DefaultNotificationJobRepository) ReleaseStaleClaims(ctx context.Context, claimedBefore time.Time) (int64, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&models.NotificationJobModel{}).
		Where("status = ? AND claimed_at < ?", string(domain.JobProcessing), claimedBefore.UTC()).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("find stale claims: %w", err)
	}

	var released int64
	for _, id := range ids {
		res := r.DB.WithContext(ctx).
			Model(&models.NotificationJobModel{}).
			Where("id = ? AND status = ?", id, string(domain.JobProcessing)).
			Updates(map[string]any{
				"status":     string(domain.JobPending),
				"claimed_at": nil,
			})
		if res.Error == nil {
			released += res.RowsAffected
			continue
		}
		if !isUniqueViolation(res.Error) {
			return released, fmt.Errorf("release stale claim %s: %w", id, res.Error)
		}
		now := time.Now().UTC()
		if err := r.updateJob(ctx, id, map[string]any{
			"status":     string(domain.JobFailed),
			"failed_at":  now,
			"last_error": "superseded by a newer pending notification",
			"claimed_at": nil,
			"updated_at": now,
		}); err != nil {
			return released, err
		}
	}
	return released, nil
}

func (r *DefaultNotificationJobRepository) MarkSent(ctx context.Context, job *domain.NotificationJob) error {
	return r.updateJob(ctx, job.ID, map[string]any{
		"status":           string(domain.JobSent),
		"attempts":         job.Attempts,
		"sent_at":          job.SentAt,
		"rendered_message": job.RenderedMessage,
		"delivery_url":     job.DeliveryURL,
		"processing_ms":    job.ProcessingMs,
		"last_error":       "",
		"claimed_at":       nil,
		"updated_at":       time.Now().UTC(),
	})
}

func (r *DefaultNotificationJobRepository) MarkRetry(ctx context.Context, job *domain.NotificationJob) error {
	err := r.updateJob(ctx, job.ID, map[string]any{
		"status":     string(domain.JobPending),
		"attempts":   job.Attempts,
		"not_before": job.NotBefore.UTC(),
		"last_error": job.LastError,
		"claimed_at": nil,
		"updated_at": time.Now().UTC(),
	})
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicatePending
	}
	return err
}

func (r *DefaultNotificationJobRepository) MarkFailed(ctx context.Context, job *domain.NotificationJob) error {
	return r.updateJob(ctx, job.ID, map[string]any{
		"status":     string(domain.JobFailed),
		"attempts":   job.Attempts,
		"failed_at":  job.FailedAt,
		"last_error": job.LastError,
		"claimed_at": nil,
		"updated_at": time.Now().UTC(),
	})
}

func (r *DefaultNotificationJobRepository) Reset(ctx context.Context, jobID string, now time.Time) error {
	res := r.DB.WithContext(ctx).
		Model(&models.NotificationJobModel{}).
		Where("id = ? AND status = ?", jobID, string(domain.JobFailed)).
		Updates(map[string]any{
			"status":     string(domain.JobPending),
			"attempts":   0,
			"not_before": now.UTC(),
			"last_error": "",
			"failed_at":  nil,
			"claimed_at": nil,
			"updated_at": now.UTC(),
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ErrDuplicatePending
		}
		return fmt.Errorf("reset notification job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "failed notification job", ID: jobID, Err: domain.ErrJobNotFound}
	}
	return nil
}

func (r *DefaultNotificationJobRepository) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("status = ? AND sent_at < ?", string(domain.JobSent), before.UTC()).
		Delete(&models.NotificationJobModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge sent notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *DefaultNotificationJobRepository) PurgeFailed(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("status = ? AND failed_at < ?", string(domain.JobFailed), before.UTC()).
		Delete(&models.NotificationJobModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge failed notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *DefaultNotificationJobRepository) updateJob(ctx context.Context, jobID string, updates map[string]any) error {
	res := r.DB.WithContext(ctx).
		Model(&models.NotificationJobModel{}).
		Where("id = ?", jobID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update notification job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "notification job", ID: jobID, Err: domain.ErrJobNotFound}
	}
	return nil
}

func toDomainJobs(rows []models.NotificationJobModel) []*domain.NotificationJob {
	jobs := make([]*domain.NotificationJob, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, mappers.ToDomainNotificationJob(&rows[i]))
	}
	return jobs
}
