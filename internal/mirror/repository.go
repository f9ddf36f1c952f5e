package mirror

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/campuscode/canteen/internal/database"
)

// ErrNotFound is returned when a mirrored record is missing.
var ErrNotFound = errors.New("mirror record not found")

// Repository persists mirrored records over SQL.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by the configured connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// UpsertOrder inserts or refreshes a mirrored order keyed by external id.
func (r *Repository) UpsertOrder(ctx context.Context, order *Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	_, err := r.writer.NewInsert().Model(order).
		On("CONFLICT (external_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("total_amount = EXCLUDED.total_amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// GetOrder fetches a mirrored order by external id.
func (r *Repository) GetOrder(ctx context.Context, externalID string) (*Order, error) {
	order := new(Order)
	err := r.reader.NewSelect().Model(order).Where("external_id = ?", externalID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns mirrored orders for a shop, oldest first.
func (r *Repository) ListOrders(ctx context.Context, shopID string) ([]Order, error) {
	var orders []Order
	err := r.reader.NewSelect().Model(&orders).
		Where("shop_id = ?", shopID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpsertShop inserts or refreshes a mirrored shop keyed by external id.
func (r *Repository) UpsertShop(ctx context.Context, shop *Shop) error {
	if shop == nil {
		return errors.New("nil shop")
	}
	_, err := r.writer.NewInsert().Model(shop).
		On("CONFLICT (external_id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("open = EXCLUDED.open").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ListShops returns all mirrored shops.
func (r *Repository) ListShops(ctx context.Context) ([]Shop, error) {
	var shops []Shop
	if err := r.reader.NewSelect().Model(&shops).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return shops, nil
}
