package order

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/metrics"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/txn"
)

const orderNumberSequence = "order_number_seq"

type OrderUsecase interface {
	CreateOrder(ctx context.Context, in *orderdto.CreateOrderInput) (*domain.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) (*orderdto.ListOrdersOutput, error)
	GetHistory(ctx context.Context, orderID string) ([]*domain.HistoryEntry, error)
	AvailableTransitions(ctx context.Context, orderID string) ([]domain.TransitionOption, error)
	PreviewMessage(ctx context.Context, orderID string, t domain.NotificationType) (*domain.RenderedMessage, error)

	RequestTransition(ctx context.Context, orderID string, in *orderdto.TransitionInput) (*domain.Order, error)
	EditOrder(ctx context.Context, orderID string, in *orderdto.EditOrderInput) (*domain.Order, error)
	UpdateShippingAddress(ctx context.Context, orderID string, addr *domain.ShippingAddress, actor orderdto.Actor) (*domain.Order, error)
	ConfirmOrder(ctx context.Context, orderID string, in *orderdto.ConfirmOrderInput) (*domain.Order, error)
	SubmitPaymentProof(ctx context.Context, orderID, proofURL string, actor orderdto.Actor) (*domain.Order, error)
	ReviewPayment(ctx context.Context, orderID string, in *orderdto.PaymentReviewInput) (*domain.Order, error)
	ReopenEditing(ctx context.Context, orderID string, actor orderdto.Actor) (*domain.Order, error)
	MarkShipped(ctx context.Context, orderID string, in *orderdto.ShipOrderInput) (*domain.Order, error)
	MarkReceived(ctx context.Context, orderID string, in *orderdto.ReceiveOrderInput) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string, in *orderdto.CancelOrderInput) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string, actor orderdto.Actor) error

	AutoFinalizeOrders(ctx context.Context) (*orderdto.AutoFinalizeOutput, error)
	SendPaymentReminders(ctx context.Context) (*orderdto.RemindersOutput, error)
}

type DefaultOrderUsecase struct {
	OrderRepo    domain.OrderRepository
	HistoryRepo  domain.HistoryRepository
	SequenceRepo domain.SequenceRepository
	Notifier     domain.NotificationEnqueuer
	Publisher    domain.OrderEventPublisher
	Renderer     domain.MessageRenderer
	Writer       *txn.Writer
	Metrics      *metrics.OrderMetrics
	Logger       *slog.Logger
	Store        config.Store
	Lifecycle    config.Lifecycle
	Now          func() time.Time
}

func NewDefaultOrderUsecase(
	orderRepo domain.OrderRepository,
	historyRepo domain.HistoryRepository,
	sequenceRepo domain.SequenceRepository,
	notifier domain.NotificationEnqueuer,
	publisher domain.OrderEventPublisher,
	renderer domain.MessageRenderer,
	orderMetrics *metrics.OrderMetrics,
	logger *slog.Logger,
	store config.Store,
	lifecycle config.Lifecycle,
) *DefaultOrderUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "orders")
	return &DefaultOrderUsecase{
		OrderRepo:    orderRepo,
		HistoryRepo:  historyRepo,
		SequenceRepo: sequenceRepo,
		Notifier:     notifier,
		Publisher:    publisher,
		Renderer:     renderer,
		Writer:       txn.NewWriter(logger),
		Metrics:      orderMetrics,
		Logger:       logger,
		Store:        store,
		Lifecycle:    lifecycleDefaults(lifecycle),
		Now:          time.Now,
	}
}

func lifecycleDefaults(l config.Lifecycle) config.Lifecycle {
	if l.ReceivedGrace <= 0 {
		l.ReceivedGrace = 24 * time.Hour
	}
	if l.ShippedGrace <= 0 {
		l.ShippedGrace = 7 * 24 * time.Hour
	}
	if l.ReminderAfter <= 0 {
		l.ReminderAfter = 48 * time.Hour
	}
	if l.ReminderInterval <= 0 {
		l.ReminderInterval = time.Hour
	}
	if l.ScanLimit <= 0 {
		l.ScanLimit = 200
	}
	return l
}

func (uc *DefaultOrderUsecase) now() time.Time {
	return uc.Now().UTC()
}
