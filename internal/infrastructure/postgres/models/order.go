package models

import (
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

type OrderModel struct {
	ID                     string                  `gorm:"primaryKey;type:uuid"`
	Number                 string                  `gorm:"uniqueIndex;not null"`
	Status                 string                  `gorm:"index:idx_orders_status_created;not null"`
	PaymentStatus          string                  `gorm:"index;not null"`
	CustomerName           string                  `gorm:"not null"`
	CustomerWhatsApp       string                  `gorm:"column:customer_whatsapp;index"`
	CustomerEmail          string
	Subtotal               float64                 `gorm:"type:numeric(12,2);not null"`
	Tax                    float64                 `gorm:"type:numeric(12,2);not null"`
	ShippingCost           float64                 `gorm:"type:numeric(12,2);not null"`
	Total                  float64                 `gorm:"type:numeric(12,2);not null"`
	Editable               bool                    `gorm:"not null"`
	RequiresShipping       bool                    `gorm:"not null"`
	RequiresInvoice        bool                    `gorm:"not null"`
	PaymentMethod          string
	PaymentProofURL        string                  `gorm:"column:payment_proof_url"`
	AwaitingValidation     bool                    `gorm:"index"`
	PaymentRejectionReason string
	ValidatedBy            string
	ShippingAddress        *domain.ShippingAddress `gorm:"serializer:json;type:jsonb"`
	Shipment               *domain.Shipment        `gorm:"serializer:json;type:jsonb"`
	Notes                  string
	CancellationReason     string
	ConfirmedAt            *time.Time
	PaidAt                 *time.Time
	PreparingAt            *time.Time
	ShippedAt              *time.Time
	ReceivedAt             *time.Time
	DeliveredAt            *time.Time
	CancelledAt            *time.Time
	Version                int64                   `gorm:"not null;default:1"`
	CreatedAt              time.Time               `gorm:"index:idx_orders_status_created"`
	UpdatedAt              time.Time
	Items                  []OrderItemModel        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderModel) TableName() string { return "orders" }

type OrderItemModel struct {
	ID        string  `gorm:"primaryKey;type:uuid"`
	OrderID   string  `gorm:"type:uuid;index;not null"`
	Position  int     `gorm:"not null"`
	ProductID string  `gorm:"not null"`
	Name      string  `gorm:"not null"`
	SKU       string  `gorm:"column:sku"`
	ImageURL  string  `gorm:"column:image_url"`
	Quantity  int     `gorm:"not null"`
	UnitPrice float64 `gorm:"type:numeric(12,2);not null"`
	LineTotal float64 `gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time
}

func (OrderItemModel) TableName() string { return "order_items" }
