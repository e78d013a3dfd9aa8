package model

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCanceled, true},
		{OrderStatusPaid, OrderStatusCanceled, false}, // refund path only
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusCanceled, OrderStatusPaid, false},
		{OrderStatusCanceled, OrderStatusPending, false},
		{"unknown", OrderStatusPaid, false},
		{OrderStatusPending, "unknown", false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransitionViaRefund(t *testing.T) {
	if !CanTransitionViaRefund(OrderStatusPaid, OrderStatusCanceled) {
		t.Fatal("refund path paid -> canceled must be allowed")
	}
	if CanTransitionViaRefund(OrderStatusPending, OrderStatusCanceled) {
		t.Fatal("refund path must not apply to pending orders")
	}
	if CanTransitionViaRefund(OrderStatusPaid, OrderStatusPending) {
		t.Fatal("refund path must only lead to canceled")
	}
}
