package domain

import (
	"context"
	"time"
)

type NotificationType string

const (
	NotifyOrderReceived    NotificationType = "order_received"
	NotifyOrderConfirmed   NotificationType = "order_confirmed"
	NotifyProofReceived    NotificationType = "proof_received"
	NotifyPaymentApproved  NotificationType = "payment_approved"
	NotifyPaymentRejected  NotificationType = "payment_rejected"
	NotifyOrderPreparing   NotificationType = "order_preparing"
	NotifyOrderShipped     NotificationType = "order_shipped"
	NotifyReceiptConfirmed NotificationType = "receipt_confirmed"
	NotifyOrderDelivered   NotificationType = "order_delivered"
	NotifyOrderCancelled   NotificationType = "order_cancelled"
	NotifyPaymentReminder  NotificationType = "payment_reminder"
)

var notificationTypes = map[NotificationType]struct{}{
	NotifyOrderReceived:    {},
	NotifyOrderConfirmed:   {},
	NotifyProofReceived:    {},
	NotifyPaymentApproved:  {},
	NotifyPaymentRejected:  {},
	NotifyOrderPreparing:   {},
	NotifyOrderShipped:     {},
	NotifyReceiptConfirmed: {},
	NotifyOrderDelivered:   {},
	NotifyOrderCancelled:   {},
	NotifyPaymentReminder:  {},
}

func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// NotificationForStatus maps a newly entered status to the message sent
// to the customer. Returns false when the status has no message.
func NotificationForStatus(s OrderStatus) (NotificationType, bool) {
	switch s {
	case StatusConfirmed:
		return NotifyOrderConfirmed, true
	case StatusPaid:
		return NotifyPaymentApproved, true
	case StatusPreparing:
		return NotifyOrderPreparing, true
	case StatusShipped:
		return NotifyOrderShipped, true
	case StatusReceived:
		return NotifyReceiptConfirmed, true
	case StatusDelivered:
		return NotifyOrderDelivered, true
	case StatusCancelled:
		return NotifyOrderCancelled, true
	}
	return "", false
}

type NotificationPriority int

const (
	PriorityLow    NotificationPriority = 1
	PriorityMedium NotificationPriority = 2
	PriorityHigh   NotificationPriority = 3
)

type JobStatus string

const (
	JobPending JobStatus = "pending"
	// JobProcessing marks a job claimed by a delivery worker.
	JobProcessing JobStatus = "processing"
	JobSent       JobStatus = "sent"
	JobFailed     JobStatus = "failed"
)

type NotificationJob struct {
	ID              string
	OrderID         string
	Address         string
	Type            NotificationType
	Priority        NotificationPriority
	Status          JobStatus
	Attempts        int
	NotBefore       time.Time
	Metadata        map[string]any
	LastError       string
	ClaimedAt       *time.Time
	SentAt          *time.Time
	FailedAt        *time.Time
	RenderedMessage string
	DeliveryURL     string
	ProcessingMs    int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RenderedMessage is the handoff artifact for the chat channel.
type RenderedMessage struct {
	Text    string
	Address string
	URL     string
}

type MessageRenderer interface {
	Render(ctx context.Context, order *Order, t NotificationType, metadata map[string]any) (*RenderedMessage, error)
}

type NotificationMessage struct {
	JobID     string           `json:"job_id"`
	OrderID   string           `json:"order_id"`
	Number    string           `json:"number"`
	Type      NotificationType `json:"type"`
	Address   string           `json:"address"`
	Text      string           `json:"text"`
	URL       string           `json:"url"`
	CreatedAt time.Time        `json:"created_at"`
}

type MessageDispatcher interface {
	Dispatch(ctx context.Context, msg NotificationMessage) error
}

// NotificationRequest asks the queue for one message about one event.
// A zero NotBefore means now; a zero Priority means medium.
type NotificationRequest struct {
	OrderID   string
	Address   string
	Type      NotificationType
	Priority  NotificationPriority
	Metadata  map[string]any
	NotBefore time.Time
}

// NotificationEnqueuer is the order side's view of the queue. created is
// false when a pending job for the same order and type already existed.
type NotificationEnqueuer interface {
	Enqueue(ctx context.Context, req NotificationRequest) (job *NotificationJob, created bool, err error)
}
