package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-storefront-orders/internal/testutil"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type stubRenderer struct {
	mu       sync.Mutex
	failures int
}

func (r *stubRenderer) Render(_ context.Context, o *domain.Order, t domain.NotificationType, _ map[string]any) (*domain.RenderedMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("template store unavailable")
	}
	text := string(t) + " " + o.Number
	return &domain.RenderedMessage{Text: text, Address: "52" + o.Customer.WhatsApp, URL: "https://wa.me/52" + o.Customer.WhatsApp}, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []domain.NotificationMessage
	wait bool
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, msg domain.NotificationMessage) error {
	if d.wait {
		<-ctx.Done()
		return ctx.Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return nil
}

type fixture struct {
	uc         *DefaultNotificationUsecase
	orders     *repository.DefaultOrderRepository
	renderer   *stubRenderer
	dispatcher *recordingDispatcher
	clock      *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		orders:     repository.NewDefaultOrderRepository(db),
		renderer:   &stubRenderer{},
		dispatcher: &recordingDispatcher{},
		clock:      &clock{t: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)},
	}
	uc, err := NewDefaultNotificationUsecase(
		repository.NewDefaultNotificationJobRepository(db),
		f.orders,
		f.renderer,
		f.dispatcher,
		logger.NewPGDeliveryLogger(db),
		metrics.NewNotificationMetrics(prometheus.NewRegistry()),
		nil,
		config.Notifications{AttemptTimeout: time.Second},
	)
	require.NoError(t, err)
	uc.Now = f.clock.Now
	f.uc = uc
	return f
}

func (f *fixture) createOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(uuid.NewString(), domain.FormatOrderNumber(int64(time.Now().UnixNano()%1000000)), domain.NewOrderInput{
		Customer:   domain.Customer{Name: "Ana Lopez", WhatsApp: "5512345678"},
		Items:      []domain.LineItem{{ProductID: "p1", Name: "Mug", Quantity: 1, UnitPrice: 10}},
		Financials: domain.Financials{Subtotal: 10, Total: 10},
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.orders.CreateOrder(context.Background(), order))
	return order
}

func (f *fixture) enqueue(t *testing.T, orderID string, typ domain.NotificationType, p domain.NotificationPriority) *domain.NotificationJob {
	t.Helper()
	job, _, err := f.uc.Enqueue(context.Background(), domain.NotificationRequest{OrderID: orderID, Type: typ, Priority: p})
	require.NoError(t, err)
	return job
}

func TestEnqueue_DeduplicatesPendingPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	first, created, err := f.uc.Enqueue(ctx, domain.NotificationRequest{OrderID: order.ID, Type: domain.NotifyOrderConfirmed})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.PriorityMedium, first.Priority)
	assert.True(t, first.NotBefore.Equal(f.clock.Now()))

	second, created, err := f.uc.Enqueue(ctx, domain.NotificationRequest{
		OrderID:  order.ID,
		Type:     domain.NotifyOrderConfirmed,
		Priority: domain.PriorityHigh,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.PriorityMedium, second.Priority, "existing job is returned unchanged")

	_, total, err := f.uc.ListJobs(ctx, domain.JobFilter{OrderID: order.ID, Type: domain.NotifyOrderConfirmed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestEnqueue_RejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.uc.Enqueue(context.Background(), domain.NotificationRequest{OrderID: "x", Type: "birthday"})
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestProcessDue_ThreeFailuresAreTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	job := f.enqueue(t, order.ID, domain.NotifyOrderShipped, domain.PriorityMedium)
	f.renderer.failures = 3

	report, err := f.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Retried)

	got, err := f.uc.Jobs.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.True(t, got.NotBefore.Equal(f.clock.Now().Add(5*time.Minute)))
	assert.Contains(t, got.LastError, "template store unavailable")

	// not due before the backoff elapses
	claimed, err := f.uc.ClaimDueBatch(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	f.clock.Advance(5 * time.Minute)
	_, err = f.uc.ProcessDue(ctx)
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	report, err = f.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	got, err = f.uc.Jobs.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, got.Status)
	assert.Equal(t, 3, got.Attempts)
	require.NotNil(t, got.FailedAt)

	f.clock.Advance(24 * time.Hour)
	claimed, err = f.uc.ClaimDueBatch(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, claimed, "failed jobs are never claimed again")

	records, err := f.uc.Deliveries(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.DeliveryFailed, records[0].Outcome)

	// an explicit resend revives it
	revived, err := f.uc.Resend(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, revived.Status)
	assert.Zero(t, revived.Attempts)

	report, err = f.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, order.Number, f.dispatcher.sent[0].Number)
}

func TestProcessDue_PriorityThenFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	f.enqueue(t, order.ID, domain.NotifyPaymentReminder, domain.PriorityLow)
	f.clock.Advance(time.Second)
	f.enqueue(t, order.ID, domain.NotifyOrderConfirmed, domain.PriorityMedium)
	f.clock.Advance(time.Second)
	f.enqueue(t, order.ID, domain.NotifyOrderPreparing, domain.PriorityMedium)
	f.clock.Advance(time.Second)
	f.enqueue(t, order.ID, domain.NotifyPaymentApproved, domain.PriorityHigh)

	report, err := f.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Sent)

	var types []domain.NotificationType
	for _, m := range f.dispatcher.sent {
		types = append(types, m.Type)
	}
	assert.Equal(t, []domain.NotificationType{
		domain.NotifyPaymentApproved,
		domain.NotifyOrderConfirmed,
		domain.NotifyOrderPreparing,
		domain.NotifyPaymentReminder,
	}, types)
}

func TestProcessOne_MissingOrderFailsImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.enqueue(t, uuid.NewString(), domain.NotifyOrderCancelled, domain.PriorityMedium)

	claimed, err := f.uc.ClaimDueBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, domain.JobProcessing, claimed[0].Status)

	status, err := f.uc.ProcessOne(ctx, claimed[0])
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, status)

	got, err := f.uc.Jobs.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, got.Status)
	assert.Equal(t, 1, got.Attempts)
}

func TestProcessOne_TimeoutCountsAsAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.uc.Config.AttemptTimeout = 20 * time.Millisecond
	f.dispatcher.wait = true
	order := f.createOrder(t)
	job := f.enqueue(t, order.ID, domain.NotifyOrderShipped, domain.PriorityMedium)

	report, err := f.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Retried)

	got, err := f.uc.Jobs.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
	assert.Contains(t, got.LastError, "dispatch")
}

func TestResend_OnlyFailedJobs(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	job := f.enqueue(t, order.ID, domain.NotifyOrderShipped, domain.PriorityMedium)

	_, err := f.uc.Resend(context.Background(), job.ID)
	var se *domain.StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.CodeInvalidState, se.Code)

	_, err = f.uc.Resend(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestPurgeOld_RetentionWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	f.enqueue(t, order.ID, domain.NotifyOrderConfirmed, domain.PriorityMedium)
	_, err := f.uc.ProcessDue(ctx)
	require.NoError(t, err)

	f.clock.Advance(6 * 24 * time.Hour)
	report, err := f.uc.PurgeOld(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Sent)

	f.clock.Advance(2 * 24 * time.Hour)
	report, err = f.uc.PurgeOld(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Sent)
	assert.Zero(t, report.Failed)
}
