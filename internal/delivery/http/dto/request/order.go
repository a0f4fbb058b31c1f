package request

import (
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
)

type Customer struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
	Email    string `json:"email"`
}

func (c Customer) toDomain() domain.Customer {
	return domain.Customer{Name: c.Name, WhatsApp: c.WhatsApp, Email: c.Email}
}

type LineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	ImageURL  string  `json:"image_url"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func toDomainItems(items []LineItem) []domain.LineItem {
	if items == nil {
		return nil
	}
	out := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			ImageURL:  it.ImageURL,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}

type CreateOrderRequest struct {
	Customer         Customer                `json:"customer"`
	Items            []LineItem              `json:"items"`
	Subtotal         float64                 `json:"subtotal"`
	Tax              float64                 `json:"tax"`
	ShippingCost     float64                 `json:"shipping_cost"`
	Total            float64                 `json:"total"`
	RequiresShipping bool                    `json:"requires_shipping"`
	RequiresInvoice  bool                    `json:"requires_invoice"`
	ShippingAddress  *domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod    string                  `json:"payment_method"`
	Notes            string                  `json:"notes"`
}

func (r *CreateOrderRequest) ToInput(actor orderdto.Actor) *orderdto.CreateOrderInput {
	return &orderdto.CreateOrderInput{
		NewOrderInput: domain.NewOrderInput{
			Customer: r.Customer.toDomain(),
			Items:    toDomainItems(r.Items),
			Financials: domain.Financials{
				Subtotal:     r.Subtotal,
				Tax:          r.Tax,
				ShippingCost: r.ShippingCost,
				Total:        r.Total,
			},
			RequiresShipping: r.RequiresShipping,
			RequiresInvoice:  r.RequiresInvoice,
			ShippingAddress:  r.ShippingAddress,
			PaymentMethod:    r.PaymentMethod,
			Notes:            r.Notes,
		},
		Actor: actor,
	}
}

type EditOrderRequest struct {
	Customer         *Customer               `json:"customer"`
	Items            []LineItem              `json:"items"`
	ShippingAddress  *domain.ShippingAddress `json:"shipping_address"`
	ShippingCost     *float64                `json:"shipping_cost"`
	RequiresInvoice  *bool                   `json:"requires_invoice"`
	RequiresShipping *bool                   `json:"requires_shipping"`
	Notes            *string                 `json:"notes"`
}

func (r *EditOrderRequest) ToInput(actor orderdto.Actor) *orderdto.EditOrderInput {
	in := &orderdto.EditOrderInput{
		Items:            toDomainItems(r.Items),
		ShippingAddress:  r.ShippingAddress,
		ShippingCost:     r.ShippingCost,
		RequiresInvoice:  r.RequiresInvoice,
		RequiresShipping: r.RequiresShipping,
		Notes:            r.Notes,
		Actor:            actor,
	}
	if r.Customer != nil {
		c := r.Customer.toDomain()
		in.Customer = &c
	}
	return in
}

type TransitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type ConfirmOrderRequest struct {
	ShippingCost  *float64 `json:"shipping_cost"`
	PaymentMethod string   `json:"payment_method"`
	Note          string   `json:"note"`
}

type PaymentProofRequest struct {
	ProofURL string `json:"proof_url"`
}

type PaymentReviewRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
	Note     string `json:"note"`
}

type ShipOrderRequest struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	Local          bool   `json:"local"`
	Note           string `json:"note"`
}

type ReceiveOrderRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}
