package mappers

import (
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
	"gorm.io/datatypes"
)

func ToDomainHistoryEntry(model *models.OrderHistoryModel) *domain.HistoryEntry {
	return &domain.HistoryEntry{
		ID:             model.ID,
		OrderID:        model.OrderID,
		PreviousStatus: domain.OrderStatus(model.PreviousStatus),
		NewStatus:      domain.OrderStatus(model.NewStatus),
		Actor:          domain.ActorKind(model.ActorKind),
		ActorID:        model.ActorID,
		Note:           model.Note,
		Metadata:       map[string]any(model.Metadata),
		CreatedAt:      model.CreatedAt,
	}
}

func ToGORMHistoryEntry(entry *domain.HistoryEntry) *models.OrderHistoryModel {
	return &models.OrderHistoryModel{
		ID:             entry.ID,
		OrderID:        entry.OrderID,
		PreviousStatus: string(entry.PreviousStatus),
		NewStatus:      string(entry.NewStatus),
		ActorKind:      string(entry.Actor),
		ActorID:        entry.ActorID,
		Note:           entry.Note,
		Metadata:       datatypes.JSONMap(entry.Metadata),
		CreatedAt:      entry.CreatedAt,
	}
}
