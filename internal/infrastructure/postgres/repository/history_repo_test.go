package repository

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultHistoryRepository(testutil.NewTestDB(t))
	orderID := "6f1c1f3e-5d0b-4a8e-9a3c-0d7b9c1e2f10"
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, &domain.HistoryEntry{
		OrderID: orderID, PreviousStatus: domain.StatusPending, NewStatus: domain.StatusConfirmed,
		Actor: domain.ActorSeller, Note: "confirmed", CreatedAt: base,
	}))
	require.NoError(t, repo.Append(ctx, &domain.HistoryEntry{
		OrderID: orderID, PreviousStatus: domain.StatusConfirmed, NewStatus: domain.StatusConfirmed,
		Actor: domain.ActorCustomer, Note: "proof uploaded",
		Metadata: map[string]any{"proof_url": "https://cdn.example.com/a.png"}, CreatedAt: base.Add(time.Minute),
	}))

	entries, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.StatusConfirmed, entries[0].NewStatus)
	assert.Equal(t, domain.ActorSeller, entries[0].Actor)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "proof uploaded", entries[1].Note)
	assert.Equal(t, "https://cdn.example.com/a.png", entries[1].Metadata["proof_url"])

	empty, err := repo.ListByOrder(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
