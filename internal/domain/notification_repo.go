package domain

import (
	"context"
	"time"
)

type JobFilter struct {
	Status  JobStatus
	OrderID string
	Type    NotificationType
	Page    int
	Limit   int
}

type NotificationJobRepository interface {
	// CreateJob inserts a pending job; ErrDuplicatePending when another
	// pending job for the same order and type wins the race.
	CreateJob(ctx context.Context, job *NotificationJob) error
	FindPending(ctx context.Context, orderID string, t NotificationType) (*NotificationJob, error)
	GetJobByID(ctx context.Context, jobID string) (*NotificationJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*NotificationJob, int64, error)

	ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*NotificationJob, error)
	// Claim flips a pending job to processing; false when another worker got it first.
	Claim(ctx context.Context, jobID string, now time.Time) (bool, error)
	ReleaseStaleClaims(ctx context.Context, claimedBefore time.Time) (int64, error)

	MarkSent(ctx context.Context, job *NotificationJob) error
	MarkRetry(ctx context.Context, job *NotificationJob) error
	MarkFailed(ctx context.Context, job *NotificationJob) error
	Reset(ctx context.Context, jobID string, now time.Time) error

	PurgeSent(ctx context.Context, before time.Time) (int64, error)
	PurgeFailed(ctx context.Context, before time.Time) (int64, error)
}

type DeliveryOutcome string

const (
	DeliverySent   DeliveryOutcome = "sent"
	DeliveryFailed DeliveryOutcome = "failed"
)

// DeliveryRecord is the immutable trail of a job's terminal outcome.
type DeliveryRecord struct {
	ID        string
	JobID     string
	OrderID   string
	Type      NotificationType
	Address   string
	Outcome   DeliveryOutcome
	Message   string
	URL       string
	Attempt   int
	Error     string
	CreatedAt time.Time
}
