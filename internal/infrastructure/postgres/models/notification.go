package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationJobModel struct {
	ID              string `gorm:"primaryKey;size:32"`
	OrderID         string `gorm:"type:uuid;not null;index;uniqueIndex:uq_notification_jobs_pending,where:status = 'pending'"`
	Type            string `gorm:"not null;uniqueIndex:uq_notification_jobs_pending,where:status = 'pending'"`
	Address         string
	Priority        int       `gorm:"not null;index:idx_notification_jobs_due,priority:2"`
	Status          string    `gorm:"not null;index:idx_notification_jobs_due,priority:1"`
	Attempts        int       `gorm:"not null;default:0"`
	NotBefore       time.Time `gorm:"not null;index:idx_notification_jobs_due,priority:3"`
	Metadata        datatypes.JSONMap
	LastError       string
	ClaimedAt       *time.Time
	SentAt          *time.Time `gorm:"index"`
	FailedAt        *time.Time `gorm:"index"`
	RenderedMessage string
	DeliveryURL     string
	ProcessingMs    int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (NotificationJobModel) TableName() string { return "notification_jobs" }

type NotificationDeliveryModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	JobID     string `gorm:"size:32;index;not null"`
	OrderID   string `gorm:"type:uuid;index;not null"`
	Type      string `gorm:"not null"`
	Address   string
	Outcome   string `gorm:"not null"`
	Message   string
	URL       string `gorm:"column:url"`
	Attempt   int
	Error     string
	CreatedAt time.Time
}

func (NotificationDeliveryModel) TableName() string { return "notification_deliveries" }
