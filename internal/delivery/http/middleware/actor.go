package middleware

import (
	"net/http"
	"strings"

	"github.com/LavaJover/shvark-storefront-orders/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
	"github.com/labstack/echo/v4"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorKind = "X-Actor-Kind"

	actorKey = "actor"
)

// Actor reads the caller identity set by the upstream gateway. Requests
// without a kind are treated as customers; callers cannot claim to be the
// system.
func Actor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			kind := domain.ActorKind(strings.ToLower(strings.TrimSpace(c.Request().Header.Get(HeaderActorKind))))
			if kind == "" {
				kind = domain.ActorCustomer
			}
			if kind != domain.ActorCustomer && kind != domain.ActorSeller {
				return c.JSON(http.StatusBadRequest, response.Envelope{
					Error: "unknown actor kind",
					Code:  domain.CodeValidation,
					Field: HeaderActorKind,
				})
			}
			c.Set(actorKey, orderdto.Actor{
				Kind: kind,
				ID:   strings.TrimSpace(c.Request().Header.Get(HeaderActorID)),
			})
			return next(c)
		}
	}
}

// ActorFrom returns the actor stored by Actor, a customer when absent.
func ActorFrom(c echo.Context) orderdto.Actor {
	if a, ok := c.Get(actorKey).(orderdto.Actor); ok {
		return a
	}
	return orderdto.Actor{Kind: domain.ActorCustomer}
}

func RequireSeller() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ActorFrom(c).Kind != domain.ActorSeller {
				return c.JSON(http.StatusForbidden, response.Envelope{
					Error: "seller access required",
					Code:  domain.CodeForbidden,
				})
			}
			return next(c)
		}
	}
}
