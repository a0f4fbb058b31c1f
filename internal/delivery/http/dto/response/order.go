package response

import (
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

type LineItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type Payment struct {
	Method             string `json:"method,omitempty"`
	Status             string `json:"status"`
	ProofURL           string `json:"proof_url,omitempty"`
	AwaitingValidation bool   `json:"awaiting_validation"`
	RejectionReason    string `json:"rejection_reason,omitempty"`
	ValidatedBy        string `json:"validated_by,omitempty"`
}

type Timestamps struct {
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	PreparingAt *time.Time `json:"preparing_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Order struct {
	ID                 string                  `json:"id"`
	Number             string                  `json:"number"`
	Status             string                  `json:"status"`
	CustomerName       string                  `json:"customer_name"`
	CustomerWhatsApp   string                  `json:"customer_whatsapp"`
	CustomerEmail      string                  `json:"customer_email,omitempty"`
	Items              []LineItem              `json:"items"`
	Subtotal           float64                 `json:"subtotal"`
	Tax                float64                 `json:"tax"`
	ShippingCost       float64                 `json:"shipping_cost"`
	Total              float64                 `json:"total"`
	Payment            Payment                 `json:"payment"`
	Editable           bool                    `json:"editable"`
	RequiresShipping   bool                    `json:"requires_shipping"`
	RequiresInvoice    bool                    `json:"requires_invoice"`
	ShippingAddress    *domain.ShippingAddress `json:"shipping_address,omitempty"`
	Shipment           *domain.Shipment        `json:"shipment,omitempty"`
	Notes              string                  `json:"notes,omitempty"`
	CancellationReason string                  `json:"cancellation_reason,omitempty"`
	Timestamps         Timestamps              `json:"timestamps"`
	Version            int64                   `json:"version"`
}

func FromOrder(o *domain.Order) Order {
	items := make([]LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			ImageURL:  it.ImageURL,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return Order{
		ID:               o.ID,
		Number:           o.Number,
		Status:           string(o.Status),
		CustomerName:     o.Customer.Name,
		CustomerWhatsApp: o.Customer.WhatsApp,
		CustomerEmail:    o.Customer.Email,
		Items:            items,
		Subtotal:         o.Financials.Subtotal,
		Tax:              o.Financials.Tax,
		ShippingCost:     o.Financials.ShippingCost,
		Total:            o.Financials.Total,
		Payment: Payment{
			Method:             o.Payment.Method,
			Status:             string(o.Payment.Status),
			ProofURL:           o.Payment.ProofURL,
			AwaitingValidation: o.Payment.AwaitingReview,
			RejectionReason:    o.Payment.RejectionReason,
			ValidatedBy:        o.Payment.ValidatedBy,
		},
		Editable:           o.IsEditable(),
		RequiresShipping:   o.RequiresShipping,
		RequiresInvoice:    o.RequiresInvoice,
		ShippingAddress:    o.ShippingAddress,
		Shipment:           o.Shipment,
		Notes:              o.Notes,
		CancellationReason: o.CancellationReason,
		Timestamps: Timestamps{
			ConfirmedAt: o.Timestamps.ConfirmedAt,
			PaidAt:      o.Timestamps.PaidAt,
			PreparingAt: o.Timestamps.PreparingAt,
			ShippedAt:   o.Timestamps.ShippedAt,
			ReceivedAt:  o.Timestamps.ReceivedAt,
			DeliveredAt: o.Timestamps.DeliveredAt,
			CancelledAt: o.Timestamps.CancelledAt,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
		},
		Version: o.Version,
	}
}

func FromOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromOrder(o))
	}
	return out
}

type HistoryEntry struct {
	ID             string         `json:"id"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	NewStatus      string         `json:"new_status"`
	Actor          string         `json:"actor"`
	ActorID        string         `json:"actor_id,omitempty"`
	Note           string         `json:"note,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func FromHistory(entries []*domain.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:             e.ID,
			PreviousStatus: string(e.PreviousStatus),
			NewStatus:      string(e.NewStatus),
			Actor:          string(e.Actor),
			ActorID:        e.ActorID,
			Note:           e.Note,
			Metadata:       e.Metadata,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}

type Message struct {
	Text    string `json:"text"`
	Address string `json:"address"`
	URL     string `json:"url"`
}
