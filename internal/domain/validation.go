package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	MaxTextLength   = 500
	MinReasonLength = 10
	PhoneDigits     = 10
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	receiptURLPattern = regexp.MustCompile(`(?i)^https?://.+\.(jpg|jpeg|png|pdf)$`)
)

// SanitizeText trims and truncates free text.
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > MaxTextLength {
		return string(r[:MaxTextLength])
	}
	return s
}

func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func ValidateCustomer(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError(CodeInvalidClientData, "customer.name", "customer name is required")
	}
	if strings.TrimSpace(c.WhatsApp) == "" {
		return NewValidationError(CodeInvalidClientData, "customer.whatsapp", "whatsapp number is required")
	}
	if len(DigitsOnly(c.WhatsApp)) != PhoneDigits {
		return NewValidationError(CodeInvalidClientData, "customer.whatsapp",
			fmt.Sprintf("whatsapp number must have %d digits", PhoneDigits))
	}
	if email := strings.TrimSpace(c.Email); email != "" && !emailPattern.MatchString(email) {
		return NewValidationError(CodeInvalidClientData, "customer.email", "email address is not valid")
	}
	return nil
}

func ValidateItems(items []LineItem) error {
	if len(items) == 0 {
		return NewValidationError(CodeInvalidItems, "items", "order must contain at least one item")
	}
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case strings.TrimSpace(it.ProductID) == "":
			return NewValidationError(CodeInvalidItems, field+".product_id", "product reference is required")
		case strings.TrimSpace(it.Name) == "":
			return NewValidationError(CodeInvalidItems, field+".name", "product name is required")
		case it.Quantity <= 0:
			return NewValidationError(CodeInvalidItems, field+".quantity", "quantity must be greater than zero")
		case it.UnitPrice <= 0:
			return NewValidationError(CodeInvalidItems, field+".unit_price", "unit price must be greater than zero")
		}
	}
	return nil
}

// ValidateAddress checks the fields that are present; completeness is a
// transition precondition, not an input rule.
func ValidateAddress(a *ShippingAddress) error {
	if a == nil {
		return nil
	}
	if a.Phone != "" && len(DigitsOnly(a.Phone)) != PhoneDigits {
		return NewValidationError(CodeInvalidAddress, "shipping_address.phone",
			fmt.Sprintf("phone must have %d digits", PhoneDigits))
	}
	return nil
}

func ValidateReceiptURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return NewValidationError(CodeInvalidReceiptURL, "proof_url", "payment proof url is required")
	}
	if !receiptURLPattern.MatchString(url) {
		return NewValidationError(CodeInvalidReceiptURL, "proof_url",
			"payment proof must be an http(s) link to a jpg, jpeg, png or pdf file")
	}
	return nil
}

// ValidateReason sanitizes a cancellation or rejection reason and enforces
// its minimum length.
func ValidateReason(reason, code, field string) (string, error) {
	reason = SanitizeText(reason)
	if len([]rune(reason)) < MinReasonLength {
		return "", NewValidationError(code, field,
			fmt.Sprintf("reason must be at least %d characters long", MinReasonLength))
	}
	return reason, nil
}

func ValidateRating(rating int) error {
	if rating < 0 || rating > 5 {
		return NewValidationError(CodeInvalidRating, "rating", "rating must be between 1 and 5")
	}
	return nil
}

type NewOrderInput struct {
	Customer         Customer
	Items            []LineItem
	Financials       Financials
	RequiresShipping bool
	RequiresInvoice  bool
	ShippingAddress  *ShippingAddress
	PaymentMethod    string
	Notes            string
}

// NewOrder validates checkout input and builds a pending order. Totals are
// verified, never corrected.
func NewOrder(id, number string, in NewOrderInput, now time.Time) (*Order, error) {
	if err := ValidateCustomer(in.Customer); err != nil {
		return nil, err
	}
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}
	if err := in.Financials.Check(); err != nil {
		return nil, err
	}
	if err := in.Financials.CheckItems(in.Items); err != nil {
		return nil, err
	}
	if err := ValidateAddress(in.ShippingAddress); err != nil {
		return nil, err
	}

	items := make([]LineItem, len(in.Items))
	for i, it := range in.Items {
		it.Name = SanitizeText(it.Name)
		it.LineTotal = LineTotal(it.Quantity, it.UnitPrice)
		items[i] = it
	}

	now = now.UTC()
	order := &Order{
		ID:     id,
		Number: number,
		Status: StatusPending,
		Customer: Customer{
			Name:     SanitizeText(in.Customer.Name),
			WhatsApp: DigitsOnly(in.Customer.WhatsApp),
			Email:    strings.TrimSpace(in.Customer.Email),
		},
		Items:            items,
		Financials:       in.Financials,
		Payment:          PaymentInfo{Method: in.PaymentMethod, Status: PaymentNone},
		Editable:         true,
		RequiresShipping: in.RequiresShipping,
		RequiresInvoice:  in.RequiresInvoice,
		ShippingAddress:  in.ShippingAddress,
		Notes:            SanitizeText(in.Notes),
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return order, nil
}

// FormatOrderNumber renders a sequence value as the public order number.
func FormatOrderNumber(seq int64) string {
	return fmt.Sprintf("ORD-%06d", seq)
}
