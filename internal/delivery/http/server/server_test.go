package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/admission"
	publisher "github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-storefront-orders/internal/testutil"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/notification"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/order"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
	RetryAfter int             `json:"retry_after"`
}

func newTestServer(t *testing.T, admissionCfg *config.Admission) http.Handler {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	store := config.Store{Name: "Tienda Luna", TaxRate: 0.16, CountryCode: "52"}

	orderRepo := repository.NewDefaultOrderRepository(db)
	renderer := notifier.NewRenderer(store)
	notifications, err := notification.NewDefaultNotificationUsecase(
		repository.NewDefaultNotificationJobRepository(db),
		orderRepo,
		renderer,
		publisher.NewLogDispatcher(log),
		logger.NewPGDeliveryLogger(db),
		metrics.NewNotificationMetrics(reg),
		log,
		config.Notifications{},
	)
	require.NoError(t, err)

	orders := order.NewDefaultOrderUsecase(
		orderRepo,
		repository.NewDefaultHistoryRepository(db),
		repository.NewDefaultSequenceRepository(db),
		notifications,
		publisher.NopEventPublisher{},
		renderer,
		metrics.NewOrderMetrics(reg),
		log,
		store,
		config.Lifecycle{},
	)

	var ctrl *admission.Controller
	if admissionCfg != nil {
		ctrl, err = admission.NewController(*admissionCfg, admission.WithMetrics(metrics.NewAdmissionMetrics(reg)))
		require.NoError(t, err)
	}
	return NewServer(config.HTTPServer{BodyLimit: "1M"}, orders, notifications, ctrl, reg, log).Handler()
}

func do(t *testing.T, h http.Handler, method, path, kind string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "server-test")
	if kind != "" {
		req.Header.Set("X-Actor-Kind", kind)
		req.Header.Set("X-Actor-ID", kind+"-1")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") != "" && rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func checkoutBody() map[string]any {
	return map[string]any{
		"customer": map[string]any{"name": "Ana Lopez", "whatsapp": "5512345678"},
		"items": []map[string]any{
			{"product_id": "p1", "name": "Mug", "quantity": 2, "unit_price": 10},
			{"product_id": "p2", "name": "Sticker", "quantity": 1, "unit_price": 5},
		},
		"subtotal":      25,
		"shipping_cost": 5,
		"total":         30,
	}
}

func createOrder(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/orders", "customer", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var o struct {
		ID     string `json:"id"`
		Number string `json:"number"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &o))
	return o.ID
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	h := newTestServer(t, nil)
	id := createOrder(t, h)

	rec, env := do(t, h, http.MethodGet, "/api/orders/"+id, "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = do(t, h, http.MethodPost, "/api/orders/"+id+"/confirm", "seller", map[string]any{"payment_method": "transfer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = do(t, h, http.MethodPost, "/api/orders/"+id+"/payment-proof", "customer",
		map[string]any{"proof_url": "https://cdn.example.com/receipt.jpg"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = do(t, h, http.MethodPost, "/api/orders/"+id+"/payment-review", "seller", map[string]any{"approved": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &paid))
	assert.Equal(t, string(domain.StatusPreparing), paid.Status, "approval advances when nothing blocks preparing")

	rec, env = do(t, h, http.MethodGet, "/api/orders/"+id+"/history", "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.GreaterOrEqual(t, len(history), 4)

	rec, env = do(t, h, http.MethodGet, "/api/notifications?order_id="+id, "seller", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = do(t, h, http.MethodPost, "/api/notifications/process", "seller", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report notification.ProcessReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, report.Claimed, report.Sent)
	assert.Positive(t, report.Sent)

	rec, env = do(t, h, http.MethodGet, "/api/notifications?status=sent&order_id="+id, "seller", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sent struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	require.NotEmpty(t, sent.Items)

	rec, env = do(t, h, http.MethodGet, "/api/notifications/"+sent.Items[0].ID+"/deliveries", "seller", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var deliveries []struct {
		JobID   string `json:"job_id"`
		Outcome string `json:"outcome"`
		URL     string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deliveries))
	require.Len(t, deliveries, 1)
	assert.Equal(t, sent.Items[0].ID, deliveries[0].JobID)
	assert.Equal(t, string(domain.DeliverySent), deliveries[0].Outcome)
	assert.Contains(t, deliveries[0].URL, "https://wa.me/")
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t, nil)
	id := createOrder(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		kind   string
		body   any
		status int
		code   string
	}{
		{"seller route as customer", http.MethodGet, "/api/orders", "customer", nil, http.StatusForbidden, domain.CodeForbidden},
		{"unknown actor kind", http.MethodGet, "/api/orders/" + id, "system", nil, http.StatusBadRequest, domain.CodeValidation},
		{"not found", http.MethodGet, "/api/orders/missing", "customer", nil, http.StatusNotFound, domain.CodeNotFound},
		{"short cancellation reason", http.MethodPost, "/api/orders/" + id + "/cancel", "customer",
			map[string]any{"reason": "no"}, http.StatusBadRequest, domain.CodeInvalidCancellation},
		{"illegal transition", http.MethodPost, "/api/orders/" + id + "/transitions", "seller",
			map[string]any{"status": "shipped"}, http.StatusConflict, domain.CodeInvalidTransition},
		{"proof before confirmation", http.MethodPost, "/api/orders/" + id + "/payment-proof", "customer",
			map[string]any{"proof_url": "https://cdn.example.com/receipt.png"}, http.StatusConflict, domain.CodeInvalidState},
		{"bad totals", http.MethodPost, "/api/orders", "customer", func() any {
			b := checkoutBody()
			b["total"] = 29.99
			return b
		}(), http.StatusBadRequest, domain.CodeTotalMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, tt.method, tt.path, tt.kind, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestAdmissionOverHTTP(t *testing.T) {
	h := newTestServer(t, &config.Admission{
		Enabled:       true,
		BlockDuration: time.Hour,
		Defaults:      config.DefaultMethodLimits(),
		Routes: map[string]config.RateLimit{
			"GET /api/orders/:id": {Window: time.Minute, Max: 2},
		},
	})
	id := createOrder(t, h)

	for i := 0; i < 2; i++ {
		rec, _ := do(t, h, http.MethodGet, "/api/orders/"+id, "customer", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}

	rec, env := do(t, h, http.MethodGet, "/api/orders/"+id, "customer", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, domain.CodeRateLimitExceeded, env.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Positive(t, env.RetryAfter)

	// another order id shares the route window
	rec, _ = do(t, h, http.MethodGet, "/api/orders/other", "customer", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/orders/"+id, "customer", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// past twice the limit the client is blocked everywhere
	rec, env = do(t, h, http.MethodGet, "/api/orders/"+id+"/history", "customer", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.CodeBlocked, env.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	createOrder(t, h)

	rec, _ := do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orders_created_total")
}
