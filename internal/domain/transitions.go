package domain

import (
	"fmt"
	"strings"
	"time"
)

// transitionTable is the single source of truth for structural legality.
var transitionTable = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPaid, StatusCancelled, StatusPending},
	StatusPaid:      {StatusPreparing, StatusShipped, StatusCancelled},
	StatusPreparing: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusReceived, StatusDelivered},
	StatusReceived:  {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

func AllowedTargets(from OrderStatus) []OrderStatus {
	targets := transitionTable[from]
	out := make([]OrderStatus, len(targets))
	copy(out, targets)
	return out
}

func CanTransition(from, to OrderStatus) bool {
	for _, t := range transitionTable[from] {
		if t == to {
			return true
		}
	}
	return false
}

type TransitionContext struct {
	Actor       ActorKind
	ActorID     string
	Note        string
	Metadata    map[string]any
	Shipment    *Shipment
	Reason      string
	ValidatedBy string
	Now         time.Time
}

// ValidateTransition runs the structural check and then the contextual
// preconditions of the target state.
func ValidateTransition(o *Order, to OrderStatus) error {
	if !to.Valid() {
		return NewValidationError(CodeInvalidStatus, "status", fmt.Sprintf("unknown status %q", to))
	}
	if to == o.Status {
		return &StateError{
			Code:    CodeSameStatus,
			Message: "order is already in the requested status",
			From:    o.Status,
			To:      to,
		}
	}
	if !CanTransition(o.Status, to) {
		return &StateError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("cannot move an order from %s to %s", o.Status, to),
			From:    o.Status,
			To:      to,
		}
	}
	return checkPreconditions(o, to)
}

func checkPreconditions(o *Order, to OrderStatus) error {
	reject := func(code, msg string) error {
		return &StateError{Code: code, Message: msg, From: o.Status, To: to}
	}

	switch to {
	case StatusPreparing:
		if o.Payment.Status != PaymentPaid {
			return reject(CodePaymentNotPaid, "payment must be validated before preparing the order")
		}
		if o.RequiresShipping {
			if missing := o.ShippingAddress.MissingFields(); len(missing) > 0 {
				return reject(CodeAddressIncomplete,
					"shipping address is incomplete: "+strings.Join(missing, ", "))
			}
		}
	case StatusShipped:
		if o.RequiresShipping {
			s := o.Shipment
			if s == nil || (!s.Local && (strings.TrimSpace(s.Carrier) == "" || strings.TrimSpace(s.TrackingNumber) == "")) {
				return reject(CodeShipmentRequired, "carrier and tracking number are required to ship")
			}
		}
	case StatusPaid:
		if strings.TrimSpace(o.Payment.ProofURL) == "" {
			return reject(CodeProofRequired, "a payment proof is required before marking the order paid")
		}
	case StatusPending:
		if o.Payment.Status == PaymentPaid {
			return reject(CodePaymentValidated, "a paid order cannot return to pending")
		}
	}
	return nil
}

// ApplyTransition validates and applies a status change on a copy of the
// order. The returned history entry must be persisted with the order.
func ApplyTransition(o *Order, to OrderStatus, tc TransitionContext) (*Order, *HistoryEntry, error) {
	now := tc.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	next := o.Clone()
	if to == StatusShipped && tc.Shipment != nil {
		s := *tc.Shipment
		s.Carrier = SanitizeText(s.Carrier)
		s.TrackingNumber = SanitizeText(s.TrackingNumber)
		s.TrackingURL = strings.TrimSpace(s.TrackingURL)
		next.Shipment = &s
	}

	if err := ValidateTransition(next, to); err != nil {
		return nil, nil, err
	}

	prev := next.Status
	next.Status = to
	next.Timestamps.stamp(to, now)

	switch to {
	case StatusPaid:
		next.Payment.Status = PaymentPaid
		next.Payment.AwaitingReview = false
		next.Payment.RejectionReason = ""
		if tc.ValidatedBy != "" {
			next.Payment.ValidatedBy = tc.ValidatedBy
		}
	case StatusPending:
		next.Editable = true
	case StatusCancelled:
		next.CancellationReason = SanitizeText(tc.Reason)
	}
	if to != StatusPending && to != StatusConfirmed {
		next.Editable = false
	}
	next.UpdatedAt = now

	entry := NewHistoryEntry(next.ID, prev, to, tc)
	entry.CreatedAt = now
	return next, entry, nil
}

type TransitionOption struct {
	Status  OrderStatus `json:"status"`
	Allowed bool        `json:"allowed"`
	Code    string      `json:"code,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// AvailableTransitions lists every structural target of the current status
// and whether its preconditions currently hold.
func AvailableTransitions(o *Order) []TransitionOption {
	targets := transitionTable[o.Status]
	out := make([]TransitionOption, 0, len(targets))
	for _, to := range targets {
		opt := TransitionOption{Status: to, Allowed: true}
		if err := checkPreconditions(o, to); err != nil {
			opt.Allowed = false
			if se, ok := err.(*StateError); ok {
				opt.Code = se.Code
				opt.Reason = se.Message
			}
		}
		out = append(out, opt)
	}
	return out
}

// AutoFinalizeDue reports whether the order may be moved to delivered by
// the system: received for longer than receivedGrace, or shipped for
// longer than shippedGrace without a receipt confirmation.
func AutoFinalizeDue(o *Order, now time.Time, receivedGrace, shippedGrace time.Duration) (bool, string) {
	switch o.Status {
	case StatusReceived:
		if at := o.Timestamps.ReceivedAt; at != nil && now.Sub(*at) >= receivedGrace {
			return true, fmt.Sprintf("automatically delivered %s after receipt confirmation", receivedGrace)
		}
	case StatusShipped:
		if o.Timestamps.ReceivedAt != nil {
			return false, ""
		}
		if at := o.Timestamps.ShippedAt; at != nil && now.Sub(*at) >= shippedGrace {
			return true, fmt.Sprintf("automatically delivered %s after shipping", shippedGrace)
		}
	}
	return false, ""
}
