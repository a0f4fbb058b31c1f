package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/admission"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/notification"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/order"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	echo                *echo.Echo
	cfg                 config.HTTPServer
	logger              *slog.Logger
	orderHandler        *handlers.OrderHandler
	notificationHandler *handlers.NotificationHandler
}

// NewServer builds the HTTP API. A nil admission controller disables rate
// limiting.
func NewServer(
	cfg config.HTTPServer,
	orders order.OrderUsecase,
	notifications notification.NotificationUsecase,
	ctrl *admission.Controller,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if cfg.BodyLimit != "" {
		e.Use(echomw.BodyLimit(cfg.BodyLimit))
	}
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Debug("http request",
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "request_id", v.RequestID)
			return nil
		},
	}))
	if ctrl != nil {
		e.Use(middleware.Admission(ctrl, logger))
	}

	s := &Server{
		echo:                e,
		cfg:                 cfg,
		logger:              logger,
		orderHandler:        handlers.NewOrderHandler(orders, logger),
		notificationHandler: handlers.NewNotificationHandler(notifications, logger),
	}
	s.setupRoutes(gatherer)
	return s
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api", middleware.Actor())
	seller := middleware.RequireSeller()

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- orders --------
	orders := api.Group("/orders")
	orders.POST("", s.orderHandler.CreateOrder)
	orders.GET("", s.orderHandler.ListOrders, seller)
	orders.GET("/:id", s.orderHandler.GetOrder)
	orders.PUT("/:id", s.orderHandler.EditOrder)
	orders.DELETE("/:id", s.orderHandler.DeleteOrder, seller)
	orders.GET("/:id/history", s.orderHandler.GetHistory)
	orders.GET("/:id/transitions", s.orderHandler.AvailableTransitions)
	orders.POST("/:id/transitions", s.orderHandler.RequestTransition, seller)
	orders.POST("/:id/confirm", s.orderHandler.ConfirmOrder, seller)
	orders.PUT("/:id/address", s.orderHandler.UpdateAddress)
	orders.POST("/:id/payment-proof", s.orderHandler.SubmitPaymentProof)
	orders.POST("/:id/payment-review", s.orderHandler.ReviewPayment, seller)
	orders.POST("/:id/reopen", s.orderHandler.ReopenEditing)
	orders.POST("/:id/ship", s.orderHandler.MarkShipped, seller)
	orders.POST("/:id/receive", s.orderHandler.MarkReceived)
	orders.POST("/:id/cancel", s.orderHandler.CancelOrder)
	orders.GET("/:id/message", s.orderHandler.PreviewMessage, seller)

	// -------- notification queue --------
	jobs := api.Group("/notifications", seller)
	jobs.GET("", s.notificationHandler.ListJobs)
	jobs.GET("/:id/deliveries", s.notificationHandler.Deliveries)
	jobs.POST("/:id/resend", s.notificationHandler.Resend)
	jobs.POST("/process", s.notificationHandler.Process)
	jobs.POST("/purge", s.notificationHandler.Purge)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	s.logger.Info("http server started", "address", address)
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
