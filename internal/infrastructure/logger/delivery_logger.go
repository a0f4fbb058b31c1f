package logger

import (
	"context"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryLogger keeps the immutable trail of notification outcomes.
type DeliveryLogger interface {
	LogDelivery(ctx context.Context, record domain.DeliveryRecord) error
	ListDeliveries(ctx context.Context, jobID string) ([]domain.DeliveryRecord, error)
}

type PGDeliveryLogger struct {
	db *gorm.DB
}

func NewPGDeliveryLogger(db *gorm.DB) *PGDeliveryLogger {
	return &PGDeliveryLogger{db: db}
}

func (l *PGDeliveryLogger) LogDelivery(ctx context.Context, record domain.DeliveryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	model := models.NotificationDeliveryModel{
		ID:        record.ID,
		JobID:     record.JobID,
		OrderID:   record.OrderID,
		Type:      string(record.Type),
		Address:   record.Address,
		Outcome:   string(record.Outcome),
		Message:   record.Message,
		URL:       record.URL,
		Attempt:   record.Attempt,
		Error:     record.Error,
		CreatedAt: record.CreatedAt,
	}
	return l.db.WithContext(ctx).Create(&model).Error
}

func (l *PGDeliveryLogger) ListDeliveries(ctx context.Context, jobID string) ([]domain.DeliveryRecord, error) {
	var rows []models.NotificationDeliveryModel
	if err := l.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.DeliveryRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.DeliveryRecord{
			ID:        r.ID,
			JobID:     r.JobID,
			OrderID:   r.OrderID,
			Type:      domain.NotificationType(r.Type),
			Address:   r.Address,
			Outcome:   domain.DeliveryOutcome(r.Outcome),
			Message:   r.Message,
			URL:       r.URL,
			Attempt:   r.Attempt,
			Error:     r.Error,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
