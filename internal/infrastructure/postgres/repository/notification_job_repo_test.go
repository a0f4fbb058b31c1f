package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrderID = "0b6a3b0e-8f0e-4c55-a8f3-5a4c2d1e9b77"

var jobSeq int

func pendingJob(orderID string, t domain.NotificationType, p domain.NotificationPriority, createdAt time.Time) *domain.NotificationJob {
	jobSeq++
	return &domain.NotificationJob{
		ID:        fmt.Sprintf("job-%03d", jobSeq),
		OrderID:   orderID,
		Address:   "5512345678",
		Type:      t,
		Priority:  p,
		Status:    domain.JobPending,
		NotBefore: createdAt,
		CreatedAt: createdAt,
		Metadata:  map[string]any{"k": "v"},
	}
}

func TestNotificationJobRepository_UniquePendingPerType(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultNotificationJobRepository(testutil.NewTestDB(t))
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	first := pendingJob(testOrderID, domain.NotifyOrderConfirmed, domain.PriorityMedium, now)
	require.NoError(t, repo.CreateJob(ctx, first))

	dup := pendingJob(testOrderID, domain.NotifyOrderConfirmed, domain.PriorityMedium, now)
	assert.ErrorIs(t, repo.CreateJob(ctx, dup), domain.ErrDuplicatePending)

	other := pendingJob(testOrderID, domain.NotifyOrderShipped, domain.PriorityMedium, now)
	assert.NoError(t, repo.CreateJob(ctx, other))

	found, err := repo.FindPending(ctx, testOrderID, domain.NotifyOrderConfirmed)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "v", found.Metadata["k"])

	// once the first job leaves pending, a new pending job for the pair is allowed
	ok, err := repo.Claim(ctx, first.ID, now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NoError(t, repo.CreateJob(ctx, pendingJob(testOrderID, domain.NotifyOrderConfirmed, domain.PriorityMedium, now)))
}

func TestNotificationJobRepository_ListDueOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultNotificationJobRepository(testutil.NewTestDB(t))
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	now := base.Add(time.Hour)

	lowOld := pendingJob("a0000000-0000-0000-0000-000000000001", domain.NotifyPaymentReminder, domain.PriorityLow, base)
	medOld := pendingJob("a0000000-0000-0000-0000-000000000002", domain.NotifyOrderConfirmed, domain.PriorityMedium, base)
	medNew := pendingJob("a0000000-0000-0000-0000-000000000003", domain.NotifyOrderConfirmed, domain.PriorityMedium, base.Add(time.Minute))
	high := pendingJob("a0000000-0000-0000-0000-000000000004", domain.NotifyPaymentApproved, domain.PriorityHigh, base.Add(2*time.Minute))
	future := pendingJob("a0000000-0000-0000-0000-000000000005", domain.NotifyOrderShipped, domain.PriorityHigh, base)
	future.NotBefore = now.Add(time.Minute)
	exhausted := pendingJob("a0000000-0000-0000-0000-000000000006", domain.NotifyOrderShipped, domain.PriorityHigh, base)
	exhausted.Attempts = 3

	for _, j := range []*domain.NotificationJob{lowOld, medNew, medOld, high, future, exhausted} {
		require.NoError(t, repo.CreateJob(ctx, j))
	}

	due, err := repo.ListDue(ctx, now, 3, 50)
	require.NoError(t, err)
	ids := []string{}
	for _, j := range due {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{high.ID, medOld.ID, medNew.ID, lowOld.ID}, ids)

	limited, err := repo.ListDue(ctx, now, 3, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestNotificationJobRepository_ClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultNotificationJobRepository(testutil.NewTestDB(t))
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	job := pendingJob(testOrderID, domain.NotifyOrderShipped, domain.PriorityMedium, now)
	require.NoError(t, repo.CreateJob(ctx, job))

	ok, err := repo.Claim(ctx, job.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(ctx, job.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	due, err := repo.ListDue(ctx, now, 3, 50)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestNotificationJobRepository_ReleaseStaleClaims(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultNotificationJobRepository(testutil.NewTestDB(t))
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	stale := pendingJob(testOrderID, domain.NotifyOrderShipped, domain.PriorityMedium, now)
	superseded := pendingJob(testOrderID, domain.NotifyOrderConfirmed, domain.PriorityMedium, now)
	require.NoError(t, repo.CreateJob(ctx, stale))
	require.NoError(t, repo.CreateJob(ctx, superseded))
	for _, id := range []string{stale.ID, superseded.ID} {
		ok, err := repo.Claim(ctx, id, now)
		require.NoError(t, err)
		require.True(t, ok)
	}
	newer := pendingJob(testOrderID, domain.NotifyOrderConfirmed, domain.PriorityMedium, now.Add(time.Minute))
	require.NoError(t, repo.CreateJob(ctx, newer))

	released, err := repo.ReleaseStaleClaims(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	got, err := repo.GetJobByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, got.Status)
	assert.Nil(t, got.ClaimedAt)

	got, err = repo.GetJobByID(ctx, superseded.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, got.Status)
}

func TestNotificationJobRepository_MarkAndReset(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultNotificationJobRepository(testutil.NewTestDB(t))
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	job := pendingJob(testOrderID, domain.NotifyOrderCancelled, domain.PriorityMedium, now)
	require.NoError(t, repo.CreateJob(ctx, job))

	job.Attempts = 1
	job.NotBefore = now.Add(5 * time.Minute)
	job.LastError = "render failed"
	require.NoError(t, repo.MarkRetry(ctx, job))

	got, err := repo.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, "render failed", got.LastError)
	assert.True(t, got.NotBefore.Equal(now.Add(5*time.Minute)))

	failedAt := now.Add(time.Hour)
	job.Attempts = 3
	job.FailedAt = &failedAt
	require.NoError(t, repo.MarkFailed(ctx, job))

	require.NoError(t, repo.Reset(ctx, job.ID, now.Add(2*time.Hour)))
	got, err = repo.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, got.Status)
	assert.Equal(t, 0, got.Attempts)
	assert.Nil(t, got.FailedAt)
	assert.Empty(t, got.LastError)

	assert.True(t, domain.IsNotFound(repo.Reset(ctx, job.ID, now)), "only failed jobs can be reset")
}

func TestNotificationJobRepository_Purge(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultNotificationJobRepository(testutil.NewTestDB(t))
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time { v := now.Add(-d); return &v }

	mk := func(orderID string, status domain.JobStatus, sentAt, failedAt *time.Time) *domain.NotificationJob {
		j := pendingJob(orderID, domain.NotifyOrderShipped, domain.PriorityLow, now.Add(-60*24*time.Hour))
		require.NoError(t, repo.CreateJob(ctx, j))
		j.SentAt = sentAt
		j.FailedAt = failedAt
		switch status {
		case domain.JobSent:
			require.NoError(t, repo.MarkSent(ctx, j))
		case domain.JobFailed:
			require.NoError(t, repo.MarkFailed(ctx, j))
		}
		return j
	}

	oldSent := mk("b0000000-0000-0000-0000-000000000001", domain.JobSent, ago(8*24*time.Hour), nil)
	newSent := mk("b0000000-0000-0000-0000-000000000002", domain.JobSent, ago(6*24*time.Hour), nil)
	oldFailed := mk("b0000000-0000-0000-0000-000000000003", domain.JobFailed, nil, ago(31*24*time.Hour))
	newFailed := mk("b0000000-0000-0000-0000-000000000004", domain.JobFailed, nil, ago(10*24*time.Hour))
	pending := mk("b0000000-0000-0000-0000-000000000005", domain.JobPending, nil, nil)

	sent, err := repo.PurgeSent(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), sent)

	failed, err := repo.PurgeFailed(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed)

	for _, gone := range []string{oldSent.ID, oldFailed.ID} {
		_, err := repo.GetJobByID(ctx, gone)
		assert.True(t, domain.IsNotFound(err))
	}
	for _, kept := range []string{newSent.ID, newFailed.ID, pending.ID} {
		_, err := repo.GetJobByID(ctx, kept)
		assert.NoError(t, err)
	}

	jobs, total, err := repo.ListJobs(ctx, domain.JobFilter{Status: domain.JobFailed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, newFailed.ID, jobs[0].ID)
}
