package seeder

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/campuscode/canteen/internal/entity"
	"github.com/campuscode/canteen/internal/repository/catalog"
)

// Seeder loads demo catalog data into the record store for local setups.
// Records use fixed ids, so re-running is a no-op: the store keeps the
// existing record when an id is already taken.
type Seeder struct {
	catalog *catalog.Repository
	logger  *zap.Logger
}

// New constructs a Seeder backed by the catalog repository.
func New(repo *catalog.Repository, logger *zap.Logger) *Seeder {
	return &Seeder{catalog: repo, logger: logger}
}

// Catalog seeds demo shops, menu items, and users.
func (s *Seeder) Catalog(ctx context.Context) error {
	shops := []entity.Shop{
		{ID: "shop_canteen_main", Name: "Main Canteen", OwnerID: "user_keeper_main", Location: "Block A", Open: true},
		{ID: "shop_juice_corner", Name: "Juice Corner", OwnerID: "user_keeper_juice", Location: "Block C", Open: true},
	}
	items := []entity.MenuItem{
		{ID: "menu_masala_dosa", ShopID: "shop_canteen_main", Name: "Masala Dosa", Price: 45, PreparationTime: 15, Available: true, Category: "breakfast"},
		{ID: "menu_veg_thali", ShopID: "shop_canteen_main", Name: "Veg Thali", Price: 80, PreparationTime: 20, Available: true, Category: "lunch"},
		{ID: "menu_filter_coffee", ShopID: "shop_canteen_main", Name: "Filter Coffee", Price: 15, PreparationTime: 5, Available: true, Category: "beverages"},
		{ID: "menu_mango_shake", ShopID: "shop_juice_corner", Name: "Mango Shake", Price: 50, PreparationTime: 10, Available: true, Category: "beverages"},
		{ID: "menu_fruit_bowl", ShopID: "shop_juice_corner", Name: "Fruit Bowl", Price: 60, PreparationTime: 10, Available: false, Category: "snacks"},
	}
	users := []entity.User{
		{ID: "user_keeper_main", Name: "Ravi", Email: "ravi@campus.test", Role: "shopkeeper"},
		{ID: "user_keeper_juice", Name: "Meena", Email: "meena@campus.test", Role: "shopkeeper"},
		{ID: "user_student_demo", Name: "Arjun", Email: "arjun@campus.test", Role: "student"},
	}

	created := 0
	for _, shop := range shops {
		_, exists, err := s.catalog.SaveShop(ctx, shop)
		if err != nil {
			return err
		}
		if !exists {
			created++
		}
	}
	for _, item := range items {
		_, exists, err := s.catalog.SaveMenuItem(ctx, item)
		if err != nil {
			return err
		}
		if !exists {
			created++
		}
	}
	for _, user := range users {
		_, exists, err := s.catalog.SaveUser(ctx, user)
		if err != nil {
			return err
		}
		if !exists {
			created++
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded catalog", zap.Int("created", created))
	}
	return nil
}

// Module provides the seeder to Fx.
var Module = fx.Provide(New)
