package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPaid, StatusPreparing,
	StatusShipped, StatusReceived, StatusDelivered, StatusCancelled,
}

func completeAddress() *ShippingAddress {
	return &ShippingAddress{
		RecipientName:  "Ana Lopez",
		Phone:          "5512345678",
		Street:         "Av. Reforma",
		ExteriorNumber: "100",
		Neighborhood:   "Centro",
		PostalCode:     "06000",
		City:           "CDMX",
		State:          "CDMX",
		References:     "Blue door",
		ResidenceType:  "house",
	}
}

// readyOrder returns an order whose preconditions for every target hold,
// so only the structural layer can reject.
func readyOrder(status OrderStatus) *Order {
	return &Order{
		ID:               "o-1",
		Status:           status,
		Editable:         true,
		RequiresShipping: true,
		ShippingAddress:  completeAddress(),
		Shipment:         &Shipment{Carrier: "DHL", TrackingNumber: "123"},
		Payment:          PaymentInfo{Status: PaymentPendingVerification, ProofURL: "https://cdn.example.com/p.jpg"},
		Financials:       Financials{Subtotal: 10, Total: 10},
		Version:          3,
	}
}

func TestApplyTransition_RejectsPairsOutsideTable(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if CanTransition(from, to) {
				continue
			}
			order := readyOrder(from)
			before := order.Clone()

			next, entry, err := ApplyTransition(order, to, TransitionContext{Actor: ActorSeller})

			require.Error(t, err, "%s -> %s", from, to)
			assert.Nil(t, next)
			assert.Nil(t, entry)
			assert.Equal(t, before, order, "order mutated on rejected %s -> %s", from, to)

			var se *StateError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, from, se.From)
			assert.Equal(t, to, se.To)
			if from == to {
				assert.Equal(t, CodeSameStatus, se.Code)
			} else {
				assert.Equal(t, CodeInvalidTransition, se.Code)
			}
		}
	}
}

func TestApplyTransition_TerminalStates(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusShipped.Terminal())
	assert.Empty(t, AllowedTargets(StatusDelivered))
	assert.NotContains(t, AllowedTargets(StatusShipped), StatusCancelled)
	assert.NotContains(t, AllowedTargets(StatusReceived), StatusCancelled)
}

func TestApplyTransition_Preconditions(t *testing.T) {
	tests := []struct {
		name   string
		order  func() *Order
		target OrderStatus
		code   string
	}{
		{
			name: "preparing without payment",
			order: func() *Order {
				o := readyOrder(StatusPaid)
				o.Payment.Status = PaymentNone
				return o
			},
			target: StatusPreparing,
			code:   CodePaymentNotPaid,
		},
		{
			name: "preparing with incomplete address",
			order: func() *Order {
				o := readyOrder(StatusPaid)
				o.Payment.Status = PaymentPaid
				o.ShippingAddress.References = "  "
				return o
			},
			target: StatusPreparing,
			code:   CodeAddressIncomplete,
		},
		{
			name: "shipped without tracking",
			order: func() *Order {
				o := readyOrder(StatusPreparing)
				o.Shipment = &Shipment{Carrier: "DHL"}
				return o
			},
			target: StatusShipped,
			code:   CodeShipmentRequired,
		},
		{
			name: "paid without proof",
			order: func() *Order {
				o := readyOrder(StatusConfirmed)
				o.Payment.ProofURL = ""
				return o
			},
			target: StatusPaid,
			code:   CodeProofRequired,
		},
		{
			name: "rollback of paid order",
			order: func() *Order {
				o := readyOrder(StatusConfirmed)
				o.Payment.Status = PaymentPaid
				return o
			},
			target: StatusPending,
			code:   CodePaymentValidated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := tt.order()
			_, _, err := ApplyTransition(order, tt.target, TransitionContext{})

			var se *StateError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.target, se.To)
		})
	}
}

func TestApplyTransition_PendingToPreparingRejected(t *testing.T) {
	order := readyOrder(StatusPending)
	order.Payment = PaymentInfo{Status: PaymentNone}
	before := order.Clone()

	_, _, err := ApplyTransition(order, StatusPreparing, TransitionContext{})

	var se *StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, before, order)
}

func TestApplyTransition_LocalDeliveryNeedsNoTracking(t *testing.T) {
	order := readyOrder(StatusPreparing)
	order.Shipment = nil

	next, _, err := ApplyTransition(order, StatusShipped, TransitionContext{
		Shipment: &Shipment{Local: true},
	})

	require.NoError(t, err)
	assert.True(t, next.Shipment.Local)
	assert.Nil(t, order.Shipment)
}

func TestApplyTransition_StampsAndDerivesFlags(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := readyOrder(StatusConfirmed)

	next, entry, err := ApplyTransition(order, StatusPaid, TransitionContext{
		Actor:       ActorSeller,
		ActorID:     "seller-1",
		Note:        "  proof checked  ",
		ValidatedBy: "seller-1",
		Now:         now,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, next.Status)
	assert.Equal(t, PaymentPaid, next.Payment.Status)
	assert.Equal(t, "seller-1", next.Payment.ValidatedBy)
	assert.False(t, next.Editable)
	require.NotNil(t, next.Timestamps.PaidAt)
	assert.Equal(t, now, *next.Timestamps.PaidAt)

	assert.Equal(t, StatusConfirmed, entry.PreviousStatus)
	assert.Equal(t, StatusPaid, entry.NewStatus)
	assert.Equal(t, ActorSeller, entry.Actor)
	assert.Equal(t, "proof checked", entry.Note)

	assert.Equal(t, StatusConfirmed, order.Status, "source order must stay untouched")
}

func TestApplyTransition_CancelRecordsReason(t *testing.T) {
	order := readyOrder(StatusPending)

	next, _, err := ApplyTransition(order, StatusCancelled, TransitionContext{Reason: "Customer changed their mind"})

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, next.Status)
	assert.False(t, next.Editable)
	assert.Equal(t, "Customer changed their mind", next.CancellationReason)
	assert.NotNil(t, next.Timestamps.CancelledAt)
}

func TestAvailableTransitions(t *testing.T) {
	order := readyOrder(StatusConfirmed)
	order.Payment.ProofURL = ""

	opts := AvailableTransitions(order)

	require.Len(t, opts, 3)
	byStatus := map[OrderStatus]TransitionOption{}
	for _, o := range opts {
		byStatus[o.Status] = o
	}
	assert.False(t, byStatus[StatusPaid].Allowed)
	assert.Equal(t, CodeProofRequired, byStatus[StatusPaid].Code)
	assert.True(t, byStatus[StatusCancelled].Allowed)
	assert.True(t, byStatus[StatusPending].Allowed)
}

func TestAutoFinalizeDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time { v := now.Add(-d); return &v }

	received := readyOrder(StatusReceived)
	received.Timestamps.ReceivedAt = ago(25 * time.Hour)
	due, _ := AutoFinalizeDue(received, now, 24*time.Hour, 7*24*time.Hour)
	assert.True(t, due)

	fresh := readyOrder(StatusReceived)
	fresh.Timestamps.ReceivedAt = ago(2 * time.Hour)
	due, _ = AutoFinalizeDue(fresh, now, 24*time.Hour, 7*24*time.Hour)
	assert.False(t, due)

	shipped := readyOrder(StatusShipped)
	shipped.Timestamps.ShippedAt = ago(8 * 24 * time.Hour)
	due, _ = AutoFinalizeDue(shipped, now, 24*time.Hour, 7*24*time.Hour)
	assert.True(t, due)

	shipped.Timestamps.ReceivedAt = ago(time.Hour)
	due, _ = AutoFinalizeDue(shipped, now, 24*time.Hour, 7*24*time.Hour)
	assert.False(t, due)
}
