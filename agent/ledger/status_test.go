package ledger

import (
	"testing"

	contractx "github.com/ordino-ai/ordino/agent/contract"
)

func TestMapStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want contractx.OrderStatus
	}{
		{"Order Delivered", contractx.StatusDelivered},
		{"delivered", contractx.StatusDelivered},
		{"Cancelled by restaurant", contractx.StatusCancelled},
		{"order rejected", contractx.StatusCancelled},
		{"pending_payment", contractx.StatusPendingPayment},
		{"Pending Payment", contractx.StatusPendingPayment},
		{"awaiting payment from user", contractx.StatusPendingPayment},
		{"cart_created", contractx.StatusCreated},
		{"created", contractx.StatusCreated},
		{"Preparing your order", contractx.StatusInProgress},
		{"order confirmed", contractx.StatusInProgress},
		{"Order placed", contractx.StatusInProgress},
		{"rider is on the way", contractx.StatusInProgress},
		{"picked up", contractx.StatusInProgress},
		{"in progress", contractx.StatusInProgress},
		{"dispatched", contractx.StatusInProgress},
		{"", contractx.StatusUnknown},
		{"  ", contractx.StatusUnknown},
		{"something else entirely", contractx.StatusUnknown},
	}
	for _, tc := range cases {
		if got := MapStatus(tc.raw); got != tc.want {
			t.Errorf("MapStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestMapStatusDeliveredWinsOverProgressWords(t *testing.T) {
	t.Parallel()

	// Upstream sometimes says "delivered to your doorstep, enjoy" alongside
	// wording that would otherwise match the in-progress bucket.
	if got := MapStatus("delivered after being picked up"); got != contractx.StatusDelivered {
		t.Fatalf("delivered must take precedence, got %q", got)
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []contractx.OrderStatus{contractx.StatusDelivered, contractx.StatusCancelled}
	for _, s := range terminal {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}
	open := []contractx.OrderStatus{
		contractx.StatusCreated,
		contractx.StatusPendingPayment,
		contractx.StatusInProgress,
		contractx.StatusUnknown,
	}
	for _, s := range open {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}
