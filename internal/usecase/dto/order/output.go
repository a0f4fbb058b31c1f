package orderdto

import "github.com/LavaJover/shvark-storefront-orders/internal/domain"

type ListOrdersOutput struct {
	Orders     []*domain.Order
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type AutoFinalizeOutput struct {
	Checked   int `json:"checked"`
	Finalized int `json:"finalized"`
	Failed    int `json:"failed"`
}

type RemindersOutput struct {
	Checked  int `json:"checked"`
	Enqueued int `json:"enqueued"`
}
