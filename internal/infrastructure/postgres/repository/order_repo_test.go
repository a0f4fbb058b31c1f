package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, number string, createdAt time.Time) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(uuid.NewString(), number, domain.NewOrderInput{
		Customer: domain.Customer{Name: "Ana Lopez", WhatsApp: "5512345678"},
		Items: []domain.LineItem{
			{ProductID: "p1", Name: "Mug", Quantity: 2, UnitPrice: 10},
			{ProductID: "p2", Name: "Sticker", Quantity: 1, UnitPrice: 5},
		},
		Financials:       domain.Financials{Subtotal: 25, ShippingCost: 5, Total: 30},
		RequiresShipping: true,
		ShippingAddress:  &domain.ShippingAddress{City: "CDMX", Street: "Reforma"},
	}, createdAt)
	require.NoError(t, err)
	return order
}

func storeOrder(t *testing.T, repo *DefaultOrderRepository, order *domain.Order) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NoError(t, repo.CreateItems(ctx, order.ID, order.Items))
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewDefaultOrderRepository(testutil.NewTestDB(t))
	order := newOrder(t, "ORD-000001", time.Now())
	storeOrder(t, repo, order)

	got, err := repo.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, "ORD-000001", got.Number)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, domain.PaymentNone, got.Payment.Status)
	assert.Equal(t, int64(1), got.Version)
	assert.InDelta(t, 30.0, got.Financials.Total, 0.001)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Mug", got.Items[0].Name)
	assert.InDelta(t, 20.0, got.Items[0].LineTotal, 0.001)
	require.NotNil(t, got.ShippingAddress)
	assert.Equal(t, "CDMX", got.ShippingAddress.City)
	assert.Nil(t, got.Shipment)
}

func TestOrderRepository_GetMissing(t *testing.T) {
	repo := NewDefaultOrderRepository(testutil.NewTestDB(t))

	_, err := repo.GetOrderByID(context.Background(), uuid.NewString())

	assert.True(t, domain.IsNotFound(err))
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
}

func TestOrderRepository_UpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultOrderRepository(testutil.NewTestDB(t))
	order := newOrder(t, "ORD-000002", time.Now())
	storeOrder(t, repo, order)

	first, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	stale, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)

	first.Status = domain.StatusConfirmed
	first.Editable = false
	first.Shipment = &domain.Shipment{Carrier: "DHL", TrackingNumber: "X1"}
	require.NoError(t, repo.UpdateOrder(ctx, first, first.Version))
	assert.Equal(t, int64(2), first.Version)

	stale.Status = domain.StatusCancelled
	err = repo.UpdateOrder(ctx, stale, stale.Version)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	got, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.False(t, got.Editable, "false must be written, not skipped as a zero value")
	assert.Equal(t, "DHL", got.Shipment.Carrier)
	assert.Equal(t, "ORD-000002", got.Number)

	missing := newOrder(t, "ORD-999999", time.Now())
	err = repo.UpdateOrder(ctx, missing, 1)
	assert.True(t, domain.IsNotFound(err))
}

func TestOrderRepository_ReplaceItems(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultOrderRepository(testutil.NewTestDB(t))
	order := newOrder(t, "ORD-000003", time.Now())
	storeOrder(t, repo, order)

	require.NoError(t, repo.DeleteItems(ctx, order.ID))
	require.NoError(t, repo.CreateItems(ctx, order.ID, []domain.LineItem{
		{ProductID: "p9", Name: "Poster", Quantity: 1, UnitPrice: 20, LineTotal: 20},
	}))

	got, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p9", got.Items[0].ProductID)
}

func TestOrderRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultOrderRepository(testutil.NewTestDB(t))
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	a := newOrder(t, "ORD-000010", base)
	b := newOrder(t, "ORD-000011", base.Add(time.Minute))
	b.Customer.Name = "Luis Perez"
	b.Customer.WhatsApp = "5598765432"
	b.Status = domain.StatusConfirmed
	b.Payment.Status = domain.PaymentPendingVerification
	b.Payment.AwaitingReview = true
	c := newOrder(t, "ORD-000012", base.Add(2*time.Minute))
	for _, o := range []*domain.Order{a, b, c} {
		storeOrder(t, repo, o)
	}

	all, total, err := repo.ListOrders(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID, "newest first")

	awaiting := true
	got, total, err := repo.ListOrders(ctx, domain.OrderFilter{AwaitingValidation: &awaiting})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b.ID, got[0].ID)

	got, _, err = repo.ListOrders(ctx, domain.OrderFilter{Search: "perez"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, _, err = repo.ListOrders(ctx, domain.OrderFilter{Status: domain.StatusPending, PaymentStatus: domain.PaymentNone})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	page2, total, err := repo.ListOrders(ctx, domain.OrderFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page2, 1)
	assert.Equal(t, a.ID, page2[0].ID)
}

func TestOrderRepository_ScheduledScans(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultOrderRepository(testutil.NewTestDB(t))
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { v := now.Add(-d); return &v }

	received := newOrder(t, "ORD-000020", now.Add(-72*time.Hour))
	received.Status = domain.StatusReceived
	received.Timestamps.ReceivedAt = at(30 * time.Hour)

	shipped := newOrder(t, "ORD-000021", now.Add(-240*time.Hour))
	shipped.Status = domain.StatusShipped
	shipped.Timestamps.ShippedAt = at(8 * 24 * time.Hour)

	recentShip := newOrder(t, "ORD-000022", now.Add(-48*time.Hour))
	recentShip.Status = domain.StatusShipped
	recentShip.Timestamps.ShippedAt = at(24 * time.Hour)

	unpaid := newOrder(t, "ORD-000023", now.Add(-96*time.Hour))
	unpaid.Status = domain.StatusConfirmed
	unpaid.Timestamps.ConfirmedAt = at(50 * time.Hour)

	for _, o := range []*domain.Order{received, shipped, recentShip, unpaid} {
		storeOrder(t, repo, o)
	}

	due, err := repo.FindAutoFinalizeCandidates(ctx, now.Add(-24*time.Hour), now.Add(-7*24*time.Hour), 10)
	require.NoError(t, err)
	ids := []string{}
	for _, o := range due {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []string{received.ID, shipped.ID}, ids)

	awaiting, err := repo.FindAwaitingPayment(ctx, now.Add(-48*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Equal(t, unpaid.ID, awaiting[0].ID)
}

func TestOrderRepository_DeleteOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultOrderRepository(testutil.NewTestDB(t))
	order := newOrder(t, "ORD-000030", time.Now())
	storeOrder(t, repo, order)

	require.NoError(t, repo.DeleteItems(ctx, order.ID))
	require.NoError(t, repo.DeleteOrder(ctx, order.ID))

	_, err := repo.GetOrderByID(ctx, order.ID)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(repo.DeleteOrder(ctx, order.ID)))
}

func TestOrderRepository_DeletePendingOrderIsGuarded(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewDefaultOrderRepository(db)

	stale := newOrder(t, "ORD-000040", time.Now())
	storeOrder(t, repo, stale)
	loaded, err := repo.GetOrderByID(ctx, stale.ID)
	require.NoError(t, err)

	moved, err := repo.GetOrderByID(ctx, stale.ID)
	require.NoError(t, err)
	moved.Notes = "gift wrap"
	require.NoError(t, repo.UpdateOrder(ctx, moved, moved.Version))
	assert.ErrorIs(t, repo.DeletePendingOrder(ctx, stale.ID, loaded.Version), domain.ErrVersionConflict)

	moved.Status = domain.StatusConfirmed
	require.NoError(t, repo.UpdateOrder(ctx, moved, moved.Version))
	err = repo.DeletePendingOrder(ctx, stale.ID, moved.Version)
	var se *domain.StateError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, domain.CodeCannotDelete, se.Code)

	got, err := repo.GetOrderByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	pending := newOrder(t, "ORD-000041", time.Now())
	storeOrder(t, repo, pending)
	current, err := repo.GetOrderByID(ctx, pending.ID)
	require.NoError(t, err)
	require.NoError(t, repo.DeletePendingOrder(ctx, pending.ID, current.Version))

	_, err = repo.GetOrderByID(ctx, pending.ID)
	assert.True(t, domain.IsNotFound(err))
	var items int64
	require.NoError(t, db.Table("order_items").Where("order_id = ?", pending.ID).Count(&items).Error)
	assert.Zero(t, items)
	assert.True(t, domain.IsNotFound(repo.DeletePendingOrder(ctx, pending.ID, current.Version)))
}
