package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/campuscode/canteen/internal/config"
	"github.com/campuscode/canteen/internal/entity"
	"github.com/campuscode/canteen/internal/payment"
	"github.com/campuscode/canteen/internal/repository/catalog"
	repo "github.com/campuscode/canteen/internal/repository/order"
	"github.com/campuscode/canteen/internal/store"
	"github.com/campuscode/canteen/pkg/errorbank"
)

// scriptedProcessor replays a fixed sequence of payment outcomes.
type scriptedProcessor struct {
	results []payment.Result
	calls   int
}

func (p *scriptedProcessor) Process(_ context.Context, _ payment.Request) (payment.Result, error) {
	if p.calls >= len(p.results) {
		return payment.Result{Success: true, TransactionID: "txn_overflow"}, nil
	}
	result := p.results[p.calls]
	p.calls++
	return result, nil
}

var testClock = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, processor payment.Processor) (*Service, *catalog.Repository) {
	t.Helper()

	st := store.New(store.NewMemoryBackend(0), zap.NewNop())
	catalogRepo := catalog.NewRepository(st)

	cfg := config.Config{}
	cfg.Payment.Currency = "INR"

	svc := NewService(Params{
		Repository: repo.NewRepository(st),
		Catalog:    catalogRepo,
		Processor:  processor,
		Config:     cfg,
		Logger:     zap.NewNop(),
	})
	svc.tokenFn = func() int { return 123 }
	svc.nowFn = func() time.Time { return testClock }
	return svc, catalogRepo
}

func priceDraft() Draft {
	return Draft{
		UserID: "u1",
		ShopID: "s1",
		Items: []DraftItem{
			{MenuItemID: "m1", Quantity: 2, UnitPrice: 5.00},
			{MenuItemID: "m2", Quantity: 1, UnitPrice: 3.00},
		},
	}
}

func kindOf(err error) errorbank.Kind {
	return errorbank.From(err).Kind()
}

func TestSubmitComputesTotalAndToken(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})

	order, err := svc.Submit(context.Background(), priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if order.TotalAmount != 13.00 {
		t.Fatalf("total = %v, want 13.00", order.TotalAmount)
	}
	if order.Status != entity.StatusPendingApproval {
		t.Fatalf("status = %s, want pending_approval", order.Status)
	}
	if order.TokenNumber != 123 {
		t.Fatalf("token = %d", order.TokenNumber)
	}
	if order.Items[0].UnitPrice != 5.00 {
		t.Fatalf("captured price = %v", order.Items[0].UnitPrice)
	}
}

func TestSubmitResolvesPricesFromMenu(t *testing.T) {
	svc, catalogRepo := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	if _, _, err := catalogRepo.SaveMenuItem(ctx, entity.MenuItem{
		ID: "menu_dosa", ShopID: "s1", Name: "Masala Dosa", Price: 12.50, Available: true,
	}); err != nil {
		t.Fatalf("seed menu item: %v", err)
	}

	order, err := svc.Submit(ctx, Draft{
		UserID: "u1",
		ShopID: "s1",
		Items:  []DraftItem{{MenuItemID: "menu_dosa", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if order.Items[0].UnitPrice != 12.50 {
		t.Fatalf("price not resolved from menu: %v", order.Items[0].UnitPrice)
	}
	if order.TotalAmount != 25.00 {
		t.Fatalf("total = %v, want 25.00", order.TotalAmount)
	}
}

func TestSubmitRejectsUnknownOrUnavailableItems(t *testing.T) {
	svc, catalogRepo := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	if _, _, err := catalogRepo.SaveMenuItem(ctx, entity.MenuItem{
		ID: "menu_off", ShopID: "s1", Name: "Off Menu", Price: 9.00, Available: false,
	}); err != nil {
		t.Fatalf("seed menu item: %v", err)
	}

	_, err := svc.Submit(ctx, Draft{
		UserID: "u1", ShopID: "s1",
		Items: []DraftItem{{MenuItemID: "menu_missing", Quantity: 1}},
	})
	if kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("unknown item: got %v", err)
	}

	_, err = svc.Submit(ctx, Draft{
		UserID: "u1", ShopID: "s1",
		Items: []DraftItem{{MenuItemID: "menu_off", Quantity: 1}},
	})
	if kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("unavailable item: got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	if _, err := svc.Submit(ctx, Draft{ShopID: "s1", Items: priceDraft().Items}); kindOf(err) != errorbank.KindBadRequest {
		t.Fatalf("missing user: got %v", err)
	}
	if _, err := svc.Submit(ctx, Draft{UserID: "u1", ShopID: "s1"}); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("empty cart: got %v", err)
	}

	draft := priceDraft()
	draft.Items[0].Quantity = 0
	if _, err := svc.Submit(ctx, draft); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("zero quantity: got %v", err)
	}
}

func TestApproveSetsPickupEstimate(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	approved, err := svc.Approve(ctx, order.ID, 15)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != entity.StatusApproved {
		t.Fatalf("status = %s", approved.Status)
	}
	if approved.EstimatedPickupTime == nil {
		t.Fatal("estimated pickup time not set")
	}
	if want := testClock.Add(15 * time.Minute); !approved.EstimatedPickupTime.Equal(want) {
		t.Fatalf("eta = %v, want %v", approved.EstimatedPickupTime, want)
	}
}

func TestApproveRejectsBadPreparationTime(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.Approve(ctx, order.ID, 12); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("got %v", err)
	}

	reloaded, err := svc.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != entity.StatusPendingApproval {
		t.Fatalf("failed approval mutated status to %s", reloaded.Status)
	}
}

func TestRejectStoresReasonLabel(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	rejected, err := svc.Reject(ctx, order.ID, entity.ReasonFoodUnavailable, "")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != entity.StatusRejected {
		t.Fatalf("status = %s", rejected.Status)
	}
	if rejected.RejectionReason != "Food Unavailable" {
		t.Fatalf("reason = %q", rejected.RejectionReason)
	}
}

func TestRejectRequiresOtherText(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.Reject(ctx, order.ID, entity.ReasonOther, "   "); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("got %v", err)
	}

	reloaded, err := svc.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != entity.StatusPendingApproval {
		t.Fatalf("failed rejection mutated status to %s", reloaded.Status)
	}
}

func TestPaymentSuccessPath(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{
		results: []payment.Result{{Success: true, TransactionID: "txn_ok"}},
	})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(ctx, order.ID, 15); err != nil {
		t.Fatalf("approve: %v", err)
	}

	paid, err := svc.InitiatePayment(ctx, order.ID, "upi")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if paid.Status != entity.StatusPaymentCompleted {
		t.Fatalf("status = %s", paid.Status)
	}
	if paid.PaymentStatus != entity.PaymentStatusCompleted {
		t.Fatalf("payment status = %s", paid.PaymentStatus)
	}
	if paid.TransactionID != "txn_ok" {
		t.Fatalf("transaction id = %q", paid.TransactionID)
	}
	if paid.PaymentMethod != "upi" {
		t.Fatalf("payment method = %q", paid.PaymentMethod)
	}
}

func TestPaymentDeclineAndRetry(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{
		results: []payment.Result{
			{Declined: "payment declined by issuer"},
			{Success: true, TransactionID: "txn_retry"},
		},
	})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(ctx, order.ID, 15); err != nil {
		t.Fatalf("approve: %v", err)
	}

	failed, err := svc.InitiatePayment(ctx, order.ID, "upi")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if failed.Status != entity.StatusPaymentFailed {
		t.Fatalf("status = %s", failed.Status)
	}
	if failed.TransactionID != "" {
		t.Fatalf("declined payment carried transaction id %q", failed.TransactionID)
	}

	// A retry is a fresh attempt through payment_pending.
	retried, err := svc.InitiatePayment(ctx, order.ID, "")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried.Status != entity.StatusPaymentCompleted {
		t.Fatalf("retry status = %s", retried.Status)
	}
	if retried.TransactionID != "txn_retry" {
		t.Fatalf("retry transaction id = %q", retried.TransactionID)
	}
}

func TestPaymentRequiresApproval(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.InitiatePayment(ctx, order.ID, "upi"); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("got %v", err)
	}
}

func TestFulfillmentProgression(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{
		results: []payment.Result{{Success: true, TransactionID: "txn_ok"}},
	})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(ctx, order.ID, 15); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.InitiatePayment(ctx, order.ID, "upi"); err != nil {
		t.Fatalf("payment: %v", err)
	}

	// Skipping preparing is not allowed.
	if _, err := svc.AdvanceStatus(ctx, order.ID, entity.StatusReady); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("skip to ready: got %v", err)
	}

	for _, next := range []entity.Status{entity.StatusPreparing, entity.StatusReady} {
		if _, err := svc.AdvanceStatus(ctx, order.ID, next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}

	fulfilled, err := svc.AdvanceStatus(ctx, order.ID, entity.StatusFulfilled)
	if err != nil {
		t.Fatalf("advance to fulfilled: %v", err)
	}
	if fulfilled.ActualPickupTime == nil || !fulfilled.ActualPickupTime.Equal(testClock) {
		t.Fatalf("actual pickup time = %v", fulfilled.ActualPickupTime)
	}

	// Fulfilled is terminal.
	if _, err := svc.Cancel(ctx, order.ID); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("cancel after fulfilment: got %v", err)
	}
}

func TestAdvanceStatusRejectsOffProgressionTargets(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.AdvanceStatus(ctx, order.ID, entity.StatusApproved); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("got %v", err)
	}
}

func TestCancelPendingOrder(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != entity.StatusCancelled {
		t.Fatalf("status = %s", cancelled.Status)
	}

	// No transition leaves cancelled.
	if _, err := svc.Approve(ctx, order.ID, 15); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("approve after cancel: got %v", err)
	}
}

func TestSubmitReview(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{
		results: []payment.Result{{Success: true, TransactionID: "txn_ok"}},
	})
	ctx := context.Background()

	order, err := svc.Submit(ctx, priceDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.SubmitReview(ctx, order.ID, 5, "great"); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("review before fulfilment: got %v", err)
	}

	if _, err := svc.Approve(ctx, order.ID, 15); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.InitiatePayment(ctx, order.ID, "upi"); err != nil {
		t.Fatalf("payment: %v", err)
	}
	for _, next := range []entity.Status{entity.StatusPreparing, entity.StatusReady, entity.StatusFulfilled} {
		if _, err := svc.AdvanceStatus(ctx, order.ID, next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}

	if _, err := svc.SubmitReview(ctx, order.ID, 6, ""); kindOf(err) != errorbank.KindUnprocessableEntity {
		t.Fatalf("out of range rating: got %v", err)
	}

	reviewed, err := svc.SubmitReview(ctx, order.ID, 5, "quick and hot")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Rating != 5 || reviewed.Review != "quick and hot" {
		t.Fatalf("review not stored: %+v", reviewed)
	}
}

func TestMissingOrderIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); kindOf(err) != errorbank.KindNotFound {
		t.Fatalf("get: %v", err)
	}
	if _, err := svc.Approve(ctx, "nope", 15); kindOf(err) != errorbank.KindNotFound {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Cancel(ctx, "nope"); kindOf(err) != errorbank.KindNotFound {
		t.Fatalf("cancel: %v", err)
	}
}

func TestPersistenceErrorsPassThrough(t *testing.T) {
	// A 1-byte cap makes every write fail at the backend.
	st := store.New(store.NewMemoryBackend(1), zap.NewNop())
	svc := NewService(Params{
		Repository: repo.NewRepository(st),
		Catalog:    catalog.NewRepository(st),
		Processor:  &scriptedProcessor{},
		Config:     config.Config{},
		Logger:     zap.NewNop(),
	})

	_, err := svc.Submit(context.Background(), priceDraft())
	var persistErr *store.PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError to pass through, got %v", err)
	}
}

func TestResetClearsQueue(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProcessor{})
	ctx := context.Background()

	if _, err := svc.Submit(ctx, priceDraft()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	pending, err := svc.PendingForShop(ctx, "s1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %d", len(pending))
	}
}
