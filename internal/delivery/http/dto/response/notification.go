package response

import (
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

type NotificationJob struct {
	ID           string         `json:"id"`
	OrderID      string         `json:"order_id"`
	Type         string         `json:"type"`
	Priority     int            `json:"priority"`
	Status       string         `json:"status"`
	Attempts     int            `json:"attempts"`
	NotBefore    time.Time      `json:"not_before"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	LastError    string         `json:"last_error,omitempty"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	FailedAt     *time.Time     `json:"failed_at,omitempty"`
	DeliveryURL  string         `json:"delivery_url,omitempty"`
	ProcessingMs int64          `json:"processing_ms,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func FromJob(j *domain.NotificationJob) NotificationJob {
	return NotificationJob{
		ID:           j.ID,
		OrderID:      j.OrderID,
		Type:         string(j.Type),
		Priority:     int(j.Priority),
		Status:       string(j.Status),
		Attempts:     j.Attempts,
		NotBefore:    j.NotBefore,
		Metadata:     j.Metadata,
		LastError:    j.LastError,
		SentAt:       j.SentAt,
		FailedAt:     j.FailedAt,
		DeliveryURL:  j.DeliveryURL,
		ProcessingMs: j.ProcessingMs,
		CreatedAt:    j.CreatedAt,
	}
}

func FromJobs(jobs []*domain.NotificationJob) []NotificationJob {
	out := make([]NotificationJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, FromJob(j))
	}
	return out
}

type Delivery struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	OrderID   string    `json:"order_id"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	Outcome   string    `json:"outcome"`
	Message   string    `json:"message,omitempty"`
	URL       string    `json:"url,omitempty"`
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FromDeliveries(records []domain.DeliveryRecord) []Delivery {
	out := make([]Delivery, 0, len(records))
	for _, r := range records {
		out = append(out, Delivery{
			ID:        r.ID,
			JobID:     r.JobID,
			OrderID:   r.OrderID,
			Type:      string(r.Type),
			Address:   r.Address,
			Outcome:   string(r.Outcome),
			Message:   r.Message,
			URL:       r.URL,
			Attempt:   r.Attempt,
			Error:     r.Error,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}
