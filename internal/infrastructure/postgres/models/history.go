package models

import (
	"time"

	"gorm.io/datatypes"
)

type OrderHistoryModel struct {
	ID             string            `gorm:"primaryKey;type:uuid"`
	OrderID        string            `gorm:"type:uuid;index:idx_order_history_order;not null"`
	PreviousStatus string            `gorm:"not null"`
	NewStatus      string            `gorm:"not null"`
	ActorKind      string            `gorm:"not null"`
	ActorID        string
	Note           string
	Metadata       datatypes.JSONMap
	CreatedAt      time.Time         `gorm:"index:idx_order_history_order"`
}

func (OrderHistoryModel) TableName() string { return "order_history" }
