package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/notification"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/order"
)

type BackgroundTasks struct {
	OrderUsecase        order.OrderUsecase
	NotificationUsecase notification.NotificationUsecase
	Lifecycle           config.Lifecycle
	Notifications       config.Notifications
	Logger              *slog.Logger

	wg sync.WaitGroup
}

func NewBackgroundTasks(
	orderUC order.OrderUsecase,
	notificationUC notification.NotificationUsecase,
	lifecycle config.Lifecycle,
	notifications config.Notifications,
	logger *slog.Logger,
) *BackgroundTasks {
	return &BackgroundTasks{
		OrderUsecase:        orderUC,
		NotificationUsecase: notificationUC,
		Lifecycle:           lifecycle,
		Notifications:       notifications,
		Logger:              logger.With("component", "background"),
	}
}

// StartAll launches every periodic task; they stop when ctx is cancelled.
func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	bt.run(ctx, "notification worker", func(ctx context.Context) {
		bt.NotificationUsecase.StartWorker(ctx)
	})
	bt.run(ctx, "auto-finalize", func(ctx context.Context) {
		bt.every(ctx, bt.Lifecycle.AutoFinalizeInterval, bt.autoFinalize)
	})
	bt.run(ctx, "payment reminders", func(ctx context.Context) {
		bt.every(ctx, bt.Lifecycle.ReminderInterval, bt.paymentReminders)
	})
	bt.run(ctx, "notification purge", func(ctx context.Context) {
		bt.every(ctx, bt.Notifications.PurgeInterval, bt.purge)
	})
}

// Wait blocks until every task has returned.
func (bt *BackgroundTasks) Wait() {
	bt.wg.Wait()
}

func (bt *BackgroundTasks) run(ctx context.Context, name string, task func(ctx context.Context)) {
	bt.wg.Add(1)
	go func() {
		defer bt.wg.Done()
		bt.Logger.Info("background task started", "task", name)
		task(ctx)
		bt.Logger.Info("background task stopped", "task", name)
	}()
}

func (bt *BackgroundTasks) every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (bt *BackgroundTasks) autoFinalize(ctx context.Context) {
	if _, err := bt.OrderUsecase.AutoFinalizeOrders(ctx); err != nil && ctx.Err() == nil {
		bt.Logger.Error("auto-finalize error", "error", err)
	}
}

func (bt *BackgroundTasks) paymentReminders(ctx context.Context) {
	out, err := bt.OrderUsecase.SendPaymentReminders(ctx)
	if err != nil {
		if ctx.Err() == nil {
			bt.Logger.Error("payment reminders error", "error", err)
		}
		return
	}
	if out.Enqueued > 0 {
		bt.Logger.Info("payment reminders queued", "checked", out.Checked, "enqueued", out.Enqueued)
	}
}

func (bt *BackgroundTasks) purge(ctx context.Context) {
	report, err := bt.NotificationUsecase.PurgeOld(ctx)
	if err != nil {
		if ctx.Err() == nil {
			bt.Logger.Error("notification purge error", "error", err)
		}
		return
	}
	bt.Logger.Info("notification history purged", "sent", report.Sent, "failed", report.Failed)
}
