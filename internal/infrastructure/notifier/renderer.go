package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

var (
	ErrUnknownNotificationType = errors.New("unknown notification type")
	ErrMissingAddress          = errors.New("customer has no chat address")
	ErrMissingStoreConfig      = errors.New("store configuration is incomplete")
)

// Metadata keys understood by the templates.
const (
	MetaReason          = "reason"
	MetaCarrier         = "carrier"
	MetaTrackingNumber  = "tracking_number"
	MetaTrackingURL     = "tracking_url"
	MetaHoursElapsed    = "hours_elapsed"
	MetaPaymentAccounts = "payment_accounts"
)

// Renderer turns an order event into a chat message and a wa.me deep link.
type Renderer struct {
	store config.Store
}

func NewRenderer(store config.Store) *Renderer {
	return &Renderer{store: store}
}

func (r *Renderer) Render(ctx context.Context, order *domain.Order, t domain.NotificationType, metadata map[string]any) (*domain.RenderedMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tpl, ok := templates[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNotificationType, t)
	}
	if strings.TrimSpace(r.store.Name) == "" {
		return nil, ErrMissingStoreConfig
	}
	if order == nil {
		return nil, fmt.Errorf("render %s: nil order", t)
	}
	address := NormalizePhone(order.Customer.WhatsApp, r.store.CountryCode)
	if address == "" {
		return nil, ErrMissingAddress
	}

	text := tpl(order, messageContext{store: r.store, meta: metadata})
	return &domain.RenderedMessage{
		Text:    text,
		Address: address,
		URL:     DeepLink(address, text),
	}, nil
}

// NormalizePhone keeps digits only, replaces a trunk prefix 0 with the
// country code and prefixes bare 10-digit numbers with it.
func NormalizePhone(raw, countryCode string) string {
	digits := domain.DigitsOnly(raw)
	if digits == "" {
		return ""
	}
	if countryCode == "" {
		countryCode = "52"
	}
	if strings.HasPrefix(digits, "0") {
		digits = countryCode + digits[1:]
	}
	if len(digits) == 10 {
		digits = countryCode + digits
	}
	return digits
}

// DeepLink builds a wa.me link with the message percent-encoded.
func DeepLink(address, text string) string {
	return "https://wa.me/" + address + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
