package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultHistoryRepository only inserts and reads; history rows are immutable.
type DefaultHistoryRepository struct {
	DB *gorm.DB
}

func NewDefaultHistoryRepository(db *gorm.DB) *DefaultHistoryRepository {
	return &DefaultHistoryRepository{DB: db}
}

func (r *DefaultHistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := r.DB.WithContext(ctx).Create(mappers.ToGORMHistoryEntry(entry)).Error; err != nil {
		return fmt.Errorf("append order history: %w", err)
	}
	return nil
}

func (r *DefaultHistoryRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.HistoryEntry, error) {
	var rows []models.OrderHistoryModel
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}

	entries := make([]*domain.HistoryEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, mappers.ToDomainHistoryEntry(&rows[i]))
	}
	return entries, nil
}
