package mappers

import (
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
	"gorm.io/datatypes"
)

func ToDomainNotificationJob(model *models.NotificationJobModel) *domain.NotificationJob {
	return &domain.NotificationJob{
		ID:              model.ID,
		OrderID:         model.OrderID,
		Address:         model.Address,
		Type:            domain.NotificationType(model.Type),
		Priority:        domain.NotificationPriority(model.Priority),
		Status:          domain.JobStatus(model.Status),
		Attempts:        model.Attempts,
		NotBefore:       model.NotBefore,
		Metadata:        map[string]any(model.Metadata),
		LastError:       model.LastError,
		ClaimedAt:       model.ClaimedAt,
		SentAt:          model.SentAt,
		FailedAt:        model.FailedAt,
		RenderedMessage: model.RenderedMessage,
		DeliveryURL:     model.DeliveryURL,
		ProcessingMs:    model.ProcessingMs,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func ToGORMNotificationJob(job *domain.NotificationJob) *models.NotificationJobModel {
	return &models.NotificationJobModel{
		ID:              job.ID,
		OrderID:         job.OrderID,
		Address:         job.Address,
		Type:            string(job.Type),
		Priority:        int(job.Priority),
		Status:          string(job.Status),
		Attempts:        job.Attempts,
		NotBefore:       job.NotBefore,
		Metadata:        datatypes.JSONMap(job.Metadata),
		LastError:       job.LastError,
		ClaimedAt:       job.ClaimedAt,
		SentAt:          job.SentAt,
		FailedAt:        job.FailedAt,
		RenderedMessage: job.RenderedMessage,
		DeliveryURL:     job.DeliveryURL,
		ProcessingMs:    job.ProcessingMs,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}
