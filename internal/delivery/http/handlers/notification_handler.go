package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/notification"
	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc     notification.NotificationUsecase
	logger *slog.Logger
}

func NewNotificationHandler(uc notification.NotificationUsecase, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{uc: uc, logger: logger}
}

func (h *NotificationHandler) ListJobs(c echo.Context) error {
	filter := domain.JobFilter{
		Status:  domain.JobStatus(c.QueryParam("status")),
		OrderID: c.QueryParam("order_id"),
		Type:    domain.NotificationType(c.QueryParam("type")),
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	jobs, total, err := h.uc.ListJobs(c.Request().Context(), filter)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, response.Page{
		Items:      response.FromJobs(jobs),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	})
}

func (h *NotificationHandler) Resend(c echo.Context) error {
	job, err := h.uc.Resend(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, response.FromJob(job))
}

func (h *NotificationHandler) Deliveries(c echo.Context) error {
	records, err := h.uc.Deliveries(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, response.FromDeliveries(records))
}

func (h *NotificationHandler) Process(c echo.Context) error {
	report, err := h.uc.ProcessDue(c.Request().Context())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, report)
}

func (h *NotificationHandler) Purge(c echo.Context) error {
	report, err := h.uc.PurgeOld(c.Request().Context())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, report)
}
