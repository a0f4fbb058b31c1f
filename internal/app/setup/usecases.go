package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/admission"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/notification"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/order"
)

type UseCases struct {
	OrderUsecase        *order.DefaultOrderUsecase
	NotificationUsecase *notification.DefaultNotificationUsecase
	Admission           *admission.Controller
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config
	renderer := notifier.NewRenderer(cfg.Store)

	notificationUsecase, err := notification.NewDefaultNotificationUsecase(
		deps.Repositories.JobRepo,
		deps.Repositories.OrderRepo,
		renderer,
		deps.Dispatcher,
		deps.DeliveryLog,
		metrics.NewNotificationMetrics(deps.Registry),
		deps.Logger,
		cfg.Notifications,
	)
	if err != nil {
		return nil, fmt.Errorf("notification usecase: %w", err)
	}

	orderUsecase := order.NewDefaultOrderUsecase(
		deps.Repositories.OrderRepo,
		deps.Repositories.HistoryRepo,
		deps.Repositories.SequenceRepo,
		notificationUsecase,
		deps.EventPublisher,
		renderer,
		metrics.NewOrderMetrics(deps.Registry),
		deps.Logger,
		cfg.Store,
		cfg.Lifecycle,
	)

	var ctrl *admission.Controller
	if cfg.Admission.Enabled {
		ctrl, err = admission.NewController(cfg.Admission, admission.WithMetrics(metrics.NewAdmissionMetrics(deps.Registry)))
		if err != nil {
			return nil, fmt.Errorf("admission controller: %w", err)
		}
	}

	return &UseCases{
		OrderUsecase:        orderUsecase,
		NotificationUsecase: notificationUsecase,
		Admission:           ctrl,
	}, nil
}
