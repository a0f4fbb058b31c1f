package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/labstack/echo/v4"
)

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, response.OK(data))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, response.Envelope{Error: msg, Code: domain.CodeValidation})
}

// fail maps a usecase error to its status code and envelope. Unexpected
// errors are logged and hidden from the caller.
func fail(c echo.Context, logger *slog.Logger, err error) error {
	var (
		ve *domain.ValidationError
		se *domain.StateError
		nf *domain.NotFoundError
		ae *domain.AdmissionError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, response.Envelope{Error: ve.Message, Code: ve.Code, Field: ve.Field})
	case errors.As(err, &se):
		return c.JSON(http.StatusConflict, response.Envelope{Error: se.Message, Code: se.Code})
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, response.Envelope{Error: nf.Error(), Code: domain.CodeNotFound})
	case errors.Is(err, domain.ErrVersionConflict):
		return c.JSON(http.StatusConflict, response.Envelope{Error: err.Error(), Code: domain.CodeVersionConflict})
	case errors.As(err, &ae):
		status := http.StatusTooManyRequests
		if ae.Code == domain.CodeBlocked {
			status = http.StatusForbidden
		}
		return c.JSON(status, response.Envelope{Error: ae.Message, Code: ae.Code})
	}

	logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, response.Envelope{Error: "internal server error", Code: domain.CodeInternal})
}
