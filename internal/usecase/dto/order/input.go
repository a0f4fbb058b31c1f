package orderdto

import "github.com/LavaJover/shvark-storefront-orders/internal/domain"

// Actor identifies who asked for a change.
type Actor struct {
	Kind domain.ActorKind
	ID   string
}

func (a Actor) Context(note string) domain.TransitionContext {
	return domain.TransitionContext{Actor: a.Kind, ActorID: a.ID, Note: note}
}

type CreateOrderInput struct {
	domain.NewOrderInput
	Actor Actor
}

// EditOrderInput carries the fields to change; nil means unchanged.
type EditOrderInput struct {
	Customer         *domain.Customer
	Items            []domain.LineItem
	ShippingAddress  *domain.ShippingAddress
	ShippingCost     *float64
	RequiresInvoice  *bool
	RequiresShipping *bool
	Notes            *string
	Actor            Actor
}

func (in EditOrderInput) Empty() bool {
	return in.Customer == nil && in.Items == nil && in.ShippingAddress == nil &&
		in.ShippingCost == nil && in.RequiresInvoice == nil && in.RequiresShipping == nil && in.Notes == nil
}

type TransitionInput struct {
	Status domain.OrderStatus
	Note   string
	Actor  Actor
}

type ConfirmOrderInput struct {
	ShippingCost  *float64
	PaymentMethod string
	Note          string
	Actor         Actor
}

type PaymentReviewInput struct {
	Approved bool
	Reason   string
	Note     string
	Actor    Actor
}

type ShipOrderInput struct {
	Shipment domain.Shipment
	Note     string
	Actor    Actor
}

type ReceiveOrderInput struct {
	Rating  int
	Comment string
	Actor   Actor
}

type CancelOrderInput struct {
	Reason string
	Actor  Actor
}
