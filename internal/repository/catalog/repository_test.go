package catalog

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

func TestSaveShopIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	shop := entity.Shop{ID: "shop_main", Name: "Main Canteen", OwnerID: "owner_1", Open: true}
	stored, existed, err := repo.SaveShop(ctx, shop)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if existed {
		t.Fatal("first save reported existing")
	}
	if stored.ID != "shop_main" {
		t.Fatalf("id = %q", stored.ID)
	}

	again, existed, err := repo.SaveShop(ctx, entity.Shop{ID: "shop_main", Name: "Renamed"})
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if !existed {
		t.Fatal("second save not reported as existing")
	}
	if again.Name != "Main Canteen" {
		t.Fatalf("existing shop overwritten: %q", again.Name)
	}
}

func TestMenuForShop(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, item := range []entity.MenuItem{
		{ID: "menu_dosa", ShopID: "shop_main", Name: "Masala Dosa", Price: 12.50, Available: true},
		{ID: "menu_tea", ShopID: "shop_main", Name: "Tea", Price: 2.00, Available: true},
		{ID: "menu_juice", ShopID: "shop_juice", Name: "Orange Juice", Price: 4.00, Available: true},
	} {
		if _, _, err := repo.SaveMenuItem(ctx, item); err != nil {
			t.Fatalf("save %s: %v", item.ID, err)
		}
	}

	menu, err := repo.MenuForShop(ctx, "shop_main")
	if err != nil {
		t.Fatalf("menuForShop: %v", err)
	}
	if len(menu) != 2 {
		t.Fatalf("expected 2 items, got %d", len(menu))
	}

	item, err := repo.FindMenuItem(ctx, "menu_dosa")
	if err != nil {
		t.Fatalf("findMenuItem: %v", err)
	}
	if item.Price != 12.50 {
		t.Fatalf("price = %v", item.Price)
	}
}

func TestFindUserMissing(t *testing.T) {
	repo := newTestRepository(t)

	if _, err := repo.FindUser(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
