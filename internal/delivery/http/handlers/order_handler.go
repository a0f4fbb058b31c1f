package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/order"
	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc     order.OrderUsecase
	logger *slog.Logger
}

func NewOrderHandler(uc order.OrderUsecase, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: logger}
}

func (h *OrderHandler) orderResult(c echo.Context, status int, o *domain.Order, err error) error {
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, status, response.FromOrder(o))
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req request.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.CreateOrder(c.Request().Context(), req.ToInput(middleware.ActorFrom(c)))
	return h.orderResult(c, http.StatusCreated, o, err)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	o, err := h.uc.GetOrderByID(c.Request().Context(), c.Param("id"))
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	filter := domain.OrderFilter{
		Status:        domain.OrderStatus(c.QueryParam("status")),
		PaymentStatus: domain.PaymentStatus(c.QueryParam("payment_status")),
		Search:        c.QueryParam("search"),
	}
	if v := c.QueryParam("awaiting_validation"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "awaiting_validation must be true or false")
		}
		filter.AwaitingValidation = &b
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	out, err := h.uc.ListOrders(c.Request().Context(), filter)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, response.Page{
		Items:      response.FromOrders(out.Orders),
		Total:      out.Total,
		Page:       out.Page,
		Limit:      out.Limit,
		TotalPages: out.TotalPages,
	})
}

func (h *OrderHandler) EditOrder(c echo.Context) error {
	var req request.EditOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.EditOrder(c.Request().Context(), c.Param("id"), req.ToInput(middleware.ActorFrom(c)))
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	if err := h.uc.DeleteOrder(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c)); err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, map[string]string{"id": c.Param("id")})
}

func (h *OrderHandler) GetHistory(c echo.Context) error {
	entries, err := h.uc.GetHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, response.FromHistory(entries))
}

func (h *OrderHandler) AvailableTransitions(c echo.Context) error {
	opts, err := h.uc.AvailableTransitions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, opts)
}

func (h *OrderHandler) RequestTransition(c echo.Context) error {
	var req request.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.RequestTransition(c.Request().Context(), c.Param("id"), &orderdto.TransitionInput{
		Status: domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		Note:   req.Note,
		Actor:  middleware.ActorFrom(c),
	})
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) ConfirmOrder(c echo.Context) error {
	var req request.ConfirmOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.ConfirmOrder(c.Request().Context(), c.Param("id"), &orderdto.ConfirmOrderInput{
		ShippingCost:  req.ShippingCost,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
		Actor:         middleware.ActorFrom(c),
	})
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) UpdateAddress(c echo.Context) error {
	var addr domain.ShippingAddress
	if err := c.Bind(&addr); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.UpdateShippingAddress(c.Request().Context(), c.Param("id"), &addr, middleware.ActorFrom(c))
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) SubmitPaymentProof(c echo.Context) error {
	var req request.PaymentProofRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.SubmitPaymentProof(c.Request().Context(), c.Param("id"), req.ProofURL, middleware.ActorFrom(c))
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) ReviewPayment(c echo.Context) error {
	var req request.PaymentReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.ReviewPayment(c.Request().Context(), c.Param("id"), &orderdto.PaymentReviewInput{
		Approved: req.Approved,
		Reason:   req.Reason,
		Note:     req.Note,
		Actor:    middleware.ActorFrom(c),
	})
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) ReopenEditing(c echo.Context) error {
	o, err := h.uc.ReopenEditing(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) MarkShipped(c echo.Context) error {
	var req request.ShipOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.MarkShipped(c.Request().Context(), c.Param("id"), &orderdto.ShipOrderInput{
		Shipment: domain.Shipment{
			Carrier:        req.Carrier,
			TrackingNumber: req.TrackingNumber,
			TrackingURL:    req.TrackingURL,
			Local:          req.Local,
		},
		Note:  req.Note,
		Actor: middleware.ActorFrom(c),
	})
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) MarkReceived(c echo.Context) error {
	var req request.ReceiveOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.MarkReceived(c.Request().Context(), c.Param("id"), &orderdto.ReceiveOrderInput{
		Rating:  req.Rating,
		Comment: req.Comment,
		Actor:   middleware.ActorFrom(c),
	})
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	var req request.CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	o, err := h.uc.CancelOrder(c.Request().Context(), c.Param("id"), &orderdto.CancelOrderInput{
		Reason: req.Reason,
		Actor:  middleware.ActorFrom(c),
	})
	return h.orderResult(c, http.StatusOK, o, err)
}

func (h *OrderHandler) PreviewMessage(c echo.Context) error {
	t := domain.NotificationType(c.QueryParam("type"))
	msg, err := h.uc.PreviewMessage(c.Request().Context(), c.Param("id"), t)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return ok(c, http.StatusOK, response.Message{Text: msg.Text, Address: msg.Address, URL: msg.URL})
}
