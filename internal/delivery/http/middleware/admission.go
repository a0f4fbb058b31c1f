package middleware

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/admission"
	"github.com/labstack/echo/v4"
)

// Admission rate limits requests per client fingerprint and route. The
// route is echo's path pattern, so /api/orders/1 and /api/orders/2 share a
// window.
func Admission(ctrl *admission.Controller, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			fingerprint := admission.Fingerprint(req)
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}

			decision, err := ctrl.Allow(fingerprint, req.Method, route)
			if err != nil {
				var ae *domain.AdmissionError
				if !errors.As(err, &ae) {
					return err
				}
				retryAfter := int(math.Ceil(ae.RetryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))

				status := http.StatusTooManyRequests
				if ae.Code == domain.CodeBlocked {
					status = http.StatusForbidden
				}
				logger.Warn("request rejected by admission control",
					"fingerprint", fingerprint, "method", req.Method, "route", route, "code", ae.Code)
				return c.JSON(status, response.Envelope{
					Error:      ae.Message,
					Code:       ae.Code,
					RetryAfter: retryAfter,
				})
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))
			return next(c)
		}
	}
}
