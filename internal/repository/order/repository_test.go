package order

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/campuscode/canteen/internal/entity"
	"github.com/campuscode/canteen/internal/store"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(store.New(store.NewMemoryBackend(0), zap.NewNop()))
}

func testOrder(userID, shopID string) *entity.Order {
	return &entity.Order{
		UserID: userID,
		ShopID: shopID,
		Status: entity.StatusPendingApproval,
		Items: []entity.OrderItem{
			{MenuItemID: "m1", Quantity: 2, UnitPrice: 5.00},
		},
		TotalAmount: 10.00,
		TokenNumber: 7,
	}
}

func TestSubmitAssignsIdentity(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	stored, err := repo.Submit(ctx, testOrder("u1", "s1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("stored order has no id")
	}
	if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Fatal("timestamps not stamped")
	}
	if stored.Status != entity.StatusPendingApproval {
		t.Fatalf("status = %s", stored.Status)
	}
	if len(stored.Items) != 1 || stored.Items[0].UnitPrice != 5.00 {
		t.Fatalf("items lost in round trip: %+v", stored.Items)
	}
}

func TestFindByIDMissing(t *testing.T) {
	repo := newTestRepository(t)

	if _, err := repo.FindByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPendingQueueIsFIFO(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	var ids []string
	for _, user := range []string{"u1", "u2", "u3"} {
		stored, err := repo.Submit(ctx, testOrder(user, "s1"))
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		ids = append(ids, stored.ID)
	}
	// An order for another shop must not leak into the queue.
	if _, err := repo.Submit(ctx, testOrder("u4", "s2")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	pending, err := repo.FindPendingForShop(ctx, "s1")
	if err != nil {
		t.Fatalf("findPending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(pending))
	}
	for i, order := range pending {
		if order.ID != ids[i] {
			t.Fatalf("queue out of order at %d: got %s, want %s", i, order.ID, ids[i])
		}
	}
}

func TestFindByStatusFiltersBoth(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	stored, err := repo.Submit(ctx, testOrder("u1", "s1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := repo.Submit(ctx, testOrder("u2", "s1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := repo.Update(ctx, stored.ID, store.Document{"status": string(entity.StatusApproved)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	approved, err := repo.FindByStatus(ctx, "s1", entity.StatusApproved)
	if err != nil {
		t.Fatalf("findByStatus: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != stored.ID {
		t.Fatalf("unexpected approved set: %+v", approved)
	}

	pending, err := repo.FindPendingForShop(ctx, "s1")
	if err != nil {
		t.Fatalf("findPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending after approval, got %d", len(pending))
	}
}

func TestFindByUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Submit(ctx, testOrder("u1", "s1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := repo.Submit(ctx, testOrder("u1", "s2")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := repo.Submit(ctx, testOrder("u2", "s1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	orders, err := repo.FindByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("findByUser: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders for u1, got %d", len(orders))
	}
}

func TestUpdateMissingOrder(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Update(context.Background(), "nope", store.Document{"status": "approved"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetEmptiesQueue(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Submit(ctx, testOrder("u1", "s1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	pending, err := repo.FindPendingForShop(ctx, "s1")
	if err != nil {
		t.Fatalf("findPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %d", len(pending))
	}
}
