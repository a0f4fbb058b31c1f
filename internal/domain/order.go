package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPaid      OrderStatus = "paid"
	StatusPreparing OrderStatus = "preparing"
	StatusShipped   OrderStatus = "shipped"
	StatusReceived  OrderStatus = "received"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	_, ok := transitionTable[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitionTable[s]) == 0
}

type PaymentStatus string

const (
	PaymentNone                PaymentStatus = "none"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentPaid                PaymentStatus = "paid"
	PaymentRejected            PaymentStatus = "rejected"
)

type Customer struct {
	Name     string
	WhatsApp string
	Email    string
}

type ShippingAddress struct {
	RecipientName  string `json:"recipient_name"`
	Phone          string `json:"phone"`
	Street         string `json:"street"`
	ExteriorNumber string `json:"exterior_number"`
	InteriorNumber string `json:"interior_number,omitempty"`
	Neighborhood   string `json:"neighborhood"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	State          string `json:"state"`
	References     string `json:"references"`
	ResidenceType  string `json:"residence_type"`
}

// MissingFields lists the required address fields that are blank.
func (a *ShippingAddress) MissingFields() []string {
	if a == nil {
		return []string{"shipping_address"}
	}
	required := []struct {
		name  string
		value string
	}{
		{"recipient_name", a.RecipientName},
		{"phone", a.Phone},
		{"street", a.Street},
		{"exterior_number", a.ExteriorNumber},
		{"neighborhood", a.Neighborhood},
		{"postal_code", a.PostalCode},
		{"city", a.City},
		{"state", a.State},
		{"references", a.References},
		{"residence_type", a.ResidenceType},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (a *ShippingAddress) Complete() bool {
	return len(a.MissingFields()) == 0
}

type Shipment struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url,omitempty"`
	Local          bool   `json:"local"`
}

type LineItem struct {
	ID        string
	ProductID string
	Name      string
	SKU       string
	ImageURL  string
	Quantity  int
	UnitPrice float64
	LineTotal float64
}

type PaymentInfo struct {
	Method          string
	Status          PaymentStatus
	ProofURL        string
	AwaitingReview  bool
	RejectionReason string
	ValidatedBy     string
}

// StatusTimestamps holds the moment each state was entered.
type StatusTimestamps struct {
	ConfirmedAt *time.Time
	PaidAt      *time.Time
	PreparingAt *time.Time
	ShippedAt   *time.Time
	ReceivedAt  *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

func (t *StatusTimestamps) stamp(status OrderStatus, at time.Time) {
	at = at.UTC()
	switch status {
	case StatusConfirmed:
		t.ConfirmedAt = &at
	case StatusPaid:
		t.PaidAt = &at
	case StatusPreparing:
		t.PreparingAt = &at
	case StatusShipped:
		t.ShippedAt = &at
	case StatusReceived:
		t.ReceivedAt = &at
	case StatusDelivered:
		t.DeliveredAt = &at
	case StatusCancelled:
		t.CancelledAt = &at
	}
}

type Order struct {
	ID                 string
	Number             string
	Status             OrderStatus
	Customer           Customer
	Items              []LineItem
	Financials         Financials
	Payment            PaymentInfo
	Editable           bool
	RequiresShipping   bool
	RequiresInvoice    bool
	ShippingAddress    *ShippingAddress
	Shipment           *Shipment
	Notes              string
	CancellationReason string
	Timestamps         StatusTimestamps
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsEditable reports whether line items and monetary fields may change.
func (o *Order) IsEditable() bool {
	return o.Editable &&
		o.Payment.Status != PaymentPaid &&
		(o.Status == StatusPending || o.Status == StatusConfirmed)
}

// EnsureEditable returns a StateError when IsEditable is false.
func (o *Order) EnsureEditable() error {
	if o.IsEditable() {
		return nil
	}
	if o.Payment.Status == PaymentPaid {
		return &StateError{
			Code:    CodePaymentValidated,
			Message: "order payment was already validated, it can no longer be edited",
			From:    o.Status,
		}
	}
	return &StateError{
		Code:    CodeNotEditable,
		Message: "order is not editable in its current state",
		From:    o.Status,
	}
}

// Clone returns a deep copy; transitions and edits work on clones so the
// loaded value stays intact when validation fails.
func (o *Order) Clone() *Order {
	c := *o
	if o.Items != nil {
		c.Items = make([]LineItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	if o.ShippingAddress != nil {
		a := *o.ShippingAddress
		c.ShippingAddress = &a
	}
	if o.Shipment != nil {
		s := *o.Shipment
		c.Shipment = &s
	}
	c.Timestamps = StatusTimestamps{
		ConfirmedAt: cloneTime(o.Timestamps.ConfirmedAt),
		PaidAt:      cloneTime(o.Timestamps.PaidAt),
		PreparingAt: cloneTime(o.Timestamps.PreparingAt),
		ShippedAt:   cloneTime(o.Timestamps.ShippedAt),
		ReceivedAt:  cloneTime(o.Timestamps.ReceivedAt),
		DeliveredAt: cloneTime(o.Timestamps.DeliveredAt),
		CancelledAt: cloneTime(o.Timestamps.CancelledAt),
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
