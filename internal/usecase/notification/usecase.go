// Package notification implements the customer notification queue:
// dedup-on-enqueue, priority claiming, retry with constant backoff and
// retention purging.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/metrics"
	nanoid "github.com/jaevor/go-nanoid"
)

type NotificationUsecase interface {
	Enqueue(ctx context.Context, req domain.NotificationRequest) (*domain.NotificationJob, bool, error)
	ClaimDueBatch(ctx context.Context, limit int) ([]*domain.NotificationJob, error)
	ProcessOne(ctx context.Context, job *domain.NotificationJob) (domain.JobStatus, error)
	ProcessDue(ctx context.Context) (*ProcessReport, error)
	Resend(ctx context.Context, jobID string) (*domain.NotificationJob, error)
	PurgeOld(ctx context.Context) (*PurgeReport, error)
	ListJobs(ctx context.Context, filter domain.JobFilter) ([]*domain.NotificationJob, int64, error)
	Deliveries(ctx context.Context, jobID string) ([]domain.DeliveryRecord, error)
	StartWorker(ctx context.Context)
}

// OrderReader loads the order a job refers to at render time.
type OrderReader interface {
	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
}

type DefaultNotificationUsecase struct {
	Jobs        domain.NotificationJobRepository
	Orders      OrderReader
	Renderer    domain.MessageRenderer
	Dispatcher  domain.MessageDispatcher
	DeliveryLog logger.DeliveryLogger
	Metrics     *metrics.NotificationMetrics
	Logger      *slog.Logger
	Config      config.Notifications
	Now         func() time.Time

	newID func() string
}

func NewDefaultNotificationUsecase(
	jobs domain.NotificationJobRepository,
	orders OrderReader,
	renderer domain.MessageRenderer,
	dispatcher domain.MessageDispatcher,
	deliveries logger.DeliveryLogger,
	notificationMetrics *metrics.NotificationMetrics,
	log *slog.Logger,
	cfg config.Notifications,
) (*DefaultNotificationUsecase, error) {
	newID, err := nanoid.Standard(15)
	if err != nil {
		return nil, fmt.Errorf("job id generator: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &DefaultNotificationUsecase{
		Jobs:        jobs,
		Orders:      orders,
		Renderer:    renderer,
		Dispatcher:  dispatcher,
		DeliveryLog: deliveries,
		Metrics:     notificationMetrics,
		Logger:      log.With("component", "notifications"),
		Config:      withDefaults(cfg),
		Now:         time.Now,
		newID:       newID,
	}, nil
}

func withDefaults(cfg config.Notifications) config.Notifications {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Minute
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 15 * time.Second
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 10 * time.Minute
	}
	if cfg.SentRetention <= 0 {
		cfg.SentRetention = 7 * 24 * time.Hour
	}
	if cfg.FailedRetention <= 0 {
		cfg.FailedRetention = 30 * 24 * time.Hour
	}
	if cfg.WorkerInterval <= 0 {
		cfg.WorkerInterval = 30 * time.Second
	}
	return cfg
}

func (uc *DefaultNotificationUsecase) now() time.Time {
	return uc.Now().UTC()
}
