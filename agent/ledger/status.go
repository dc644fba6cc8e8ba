package ledger

import (
	"strings"

	contractx "github.com/ordino-ai/ordino/agent/contract"
)

// MapStatus folds the free-form status strings the external service emits
// onto the internal lifecycle set. Matching is substring-based because the
// upstream wording drifts ("Cancelled by restaurant", "Order delivered").
func MapStatus(raw string) contractx.OrderStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return contractx.StatusUnknown
	case strings.Contains(s, "deliver"):
		return contractx.StatusDelivered
	case strings.Contains(s, "cancel"), strings.Contains(s, "reject"):
		return contractx.StatusCancelled
	case strings.Contains(s, "pending_payment"), strings.Contains(s, "pending payment"), strings.Contains(s, "awaiting payment"):
		return contractx.StatusPendingPayment
	case strings.Contains(s, "cart_created"), s == "created":
		return contractx.StatusCreated
	case strings.Contains(s, "prepar"), strings.Contains(s, "confirm"),
		strings.Contains(s, "placed"), strings.Contains(s, "on the way"),
		strings.Contains(s, "picked"), strings.Contains(s, "progress"),
		strings.Contains(s, "dispatch"):
		return contractx.StatusInProgress
	default:
		return contractx.StatusUnknown
	}
}

// IsTerminal reports whether an order in this status will never change again.
func IsTerminal(status contractx.OrderStatus) bool {
	return status == contractx.StatusDelivered || status == contractx.StatusCancelled
}
