package entity

import (
	"strings"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPendingApproval, StatusApproved, true},
		{StatusPendingApproval, StatusRejected, true},
		{StatusPendingApproval, StatusCancelled, true},
		{StatusPendingApproval, StatusPreparing, false},
		{StatusApproved, StatusPaymentPending, true},
		{StatusApproved, StatusRejected, false},
		{StatusPaymentPending, StatusPaymentCompleted, true},
		{StatusPaymentPending, StatusPaymentFailed, true},
		{StatusPaymentFailed, StatusPaymentPending, true},
		{StatusPaymentFailed, StatusPreparing, false},
		{StatusPaymentCompleted, StatusPreparing, true},
		{StatusPreparing, StatusReady, true},
		{StatusPreparing, StatusFulfilled, false},
		{StatusReady, StatusFulfilled, true},
		{StatusFulfilled, StatusCancelled, false},
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusPendingApproval, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []Status{StatusRejected, StatusFulfilled, StatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	active := []Status{
		StatusPendingApproval, StatusApproved, StatusPaymentPending,
		StatusPaymentFailed, StatusPaymentCompleted, StatusPreparing, StatusReady,
	}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
		if !s.CanTransition(StatusCancelled) {
			t.Errorf("%s should allow cancellation", s)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusPendingApproval, StatusApproved, StatusRejected,
		StatusPaymentPending, StatusPaymentCompleted, StatusPaymentFailed,
		StatusPreparing, StatusReady, StatusFulfilled, StatusCancelled,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("shipped").Valid() {
		t.Error("unknown status passed validation")
	}
}

func TestTotal(t *testing.T) {
	items := []OrderItem{
		{MenuItemID: "m1", Quantity: 2, UnitPrice: 5.00},
		{MenuItemID: "m2", Quantity: 1, UnitPrice: 3.00},
	}
	if got := Total(items); got != 13.00 {
		t.Fatalf("Total = %v, want 13.00", got)
	}
	if got := Total(nil); got != 0 {
		t.Fatalf("Total(nil) = %v, want 0", got)
	}
}

func TestResolveRejectionReason(t *testing.T) {
	text, ok := ResolveRejectionReason(ReasonFoodUnavailable, "")
	if !ok || text != "Food Unavailable" {
		t.Fatalf("got (%q, %v)", text, ok)
	}

	text, ok = ResolveRejectionReason(ReasonOther, "  ran out of gas cylinders  ")
	if !ok || text != "ran out of gas cylinders" {
		t.Fatalf("other reason not trimmed: (%q, %v)", text, ok)
	}

	if _, ok := ResolveRejectionReason(ReasonOther, "   "); ok {
		t.Error("blank other text accepted")
	}
	if _, ok := ResolveRejectionReason(ReasonOther, strings.Repeat("x", 101)); ok {
		t.Error("overlong other text accepted")
	}
	if _, ok := ResolveRejectionReason(RejectionReason("bad_mood"), ""); ok {
		t.Error("unknown reason accepted")
	}
}

func TestValidPreparationMinutes(t *testing.T) {
	for _, minutes := range []int{5, 10, 15, 20, 25, 30, 45, 60} {
		if !ValidPreparationMinutes(minutes) {
			t.Errorf("%d minutes should be allowed", minutes)
		}
	}
	for _, minutes := range []int{0, 7, 35, 90, -5} {
		if ValidPreparationMinutes(minutes) {
			t.Errorf("%d minutes should be rejected", minutes)
		}
	}
}
