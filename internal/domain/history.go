package domain

import "time"

type ActorKind string

const (
	ActorCustomer ActorKind = "customer"
	ActorSeller   ActorKind = "seller"
	ActorSystem   ActorKind = "system"
)

func (a ActorKind) Valid() bool {
	return a == ActorCustomer || a == ActorSeller || a == ActorSystem
}

// HistoryEntry is an append-only audit row. Side-channel edits write an
// entry whose previous and new status are equal.
type HistoryEntry struct {
	ID             string
	OrderID        string
	PreviousStatus OrderStatus
	NewStatus      OrderStatus
	Actor          ActorKind
	ActorID        string
	Note           string
	Metadata       map[string]any
	CreatedAt      time.Time
}

func NewHistoryEntry(orderID string, prev, next OrderStatus, tc TransitionContext) *HistoryEntry {
	actor := tc.Actor
	if !actor.Valid() {
		actor = ActorSystem
	}
	return &HistoryEntry{
		OrderID:        orderID,
		PreviousStatus: prev,
		NewStatus:      next,
		Actor:          actor,
		ActorID:        tc.ActorID,
		Note:           SanitizeText(tc.Note),
		Metadata:       tc.Metadata,
	}
}
