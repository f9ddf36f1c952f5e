package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/campuscode/canteen/internal/entity"
	"github.com/campuscode/canteen/internal/store"
)

var repoTracer = otel.Tracer("github.com/campuscode/canteen/repository/catalog")

// Collection names for catalog entities.
const (
	ShopsCollection     = "shops"
	MenuItemsCollection = "menu_items"
	UsersCollection     = "users"
)

// ErrNotFound is returned when a catalog record is missing.
var ErrNotFound = errors.New("catalog record not found")

// Repository reads shops, menu items and users from the record store. The
// lifecycle engine treats these as read-only inputs; writes exist only for
// seeding.
type Repository struct {
	store *store.Store
}

// NewRepository wires a catalog repository backed by the record store.
func NewRepository(st *store.Store) *Repository {
	return &Repository{store: st}
}

// FindShop fetches a shop by id.
func (r *Repository) FindShop(ctx context.Context, id string) (*entity.Shop, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.FindShop", trace.WithAttributes(attribute.String("shop.id", id)))
	defer span.End()

	var shop entity.Shop
	if err := r.findByID(ctx, ShopsCollection, id, &shop); err != nil {
		return nil, err
	}
	return &shop, nil
}

// ListShops returns every shop, oldest first.
func (r *Repository) ListShops(ctx context.Context) ([]entity.Shop, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ListShops")
	defer span.End()

	docs, err := r.store.FindMany(ctx, ShopsCollection, nil)
	if err != nil {
		return nil, err
	}
	shops := make([]entity.Shop, 0, len(docs))
	for _, doc := range docs {
		var shop entity.Shop
		if err := remarshal(doc, &shop); err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}
	return shops, nil
}

// FindMenuItem fetches a menu item by id.
func (r *Repository) FindMenuItem(ctx context.Context, id string) (*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.FindMenuItem", trace.WithAttributes(attribute.String("menu_item.id", id)))
	defer span.End()

	var item entity.MenuItem
	if err := r.findByID(ctx, MenuItemsCollection, id, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// MenuForShop returns a shop's menu items.
func (r *Repository) MenuForShop(ctx context.Context, shopID string) ([]entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.MenuForShop", trace.WithAttributes(attribute.String("shop.id", shopID)))
	defer span.End()

	docs, err := r.store.FindMany(ctx, MenuItemsCollection, store.Document{"shopId": shopID})
	if err != nil {
		return nil, err
	}
	items := make([]entity.MenuItem, 0, len(docs))
	for _, doc := range docs {
		var item entity.MenuItem
		if err := remarshal(doc, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// FindUser fetches a user by id.
func (r *Repository) FindUser(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.FindUser", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	var user entity.User
	if err := r.findByID(ctx, UsersCollection, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveShop inserts a shop with a caller-supplied id. Seeding helper: when the
// id is already taken the existing record wins and is returned unchanged.
func (r *Repository) SaveShop(ctx context.Context, shop entity.Shop) (*entity.Shop, bool, error) {
	result, err := r.create(ctx, ShopsCollection, shop)
	if err != nil {
		return nil, false, err
	}
	var stored entity.Shop
	if err := remarshal(result.Record, &stored); err != nil {
		return nil, false, err
	}
	return &stored, result.AlreadyExists, nil
}

// SaveMenuItem inserts a menu item with a caller-supplied id.
func (r *Repository) SaveMenuItem(ctx context.Context, item entity.MenuItem) (*entity.MenuItem, bool, error) {
	result, err := r.create(ctx, MenuItemsCollection, item)
	if err != nil {
		return nil, false, err
	}
	var stored entity.MenuItem
	if err := remarshal(result.Record, &stored); err != nil {
		return nil, false, err
	}
	return &stored, result.AlreadyExists, nil
}

// SaveUser inserts a user with a caller-supplied id.
func (r *Repository) SaveUser(ctx context.Context, user entity.User) (*entity.User, bool, error) {
	result, err := r.create(ctx, UsersCollection, user)
	if err != nil {
		return nil, false, err
	}
	var stored entity.User
	if err := remarshal(result.Record, &stored); err != nil {
		return nil, false, err
	}
	return &stored, result.AlreadyExists, nil
}

func (r *Repository) findByID(ctx context.Context, collection, id string, out any) error {
	doc, err := r.store.FindByID(ctx, collection, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return remarshal(doc, out)
}

func (r *Repository) create(ctx context.Context, collection string, record any) (store.CreateResult, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return store.CreateResult{}, fmt.Errorf("encode %s: %w", collection, err)
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return store.CreateResult{}, fmt.Errorf("encode %s: %w", collection, err)
	}
	delete(doc, "createdAt")
	delete(doc, "updatedAt")
	return r.store.Create(ctx, collection, doc)
}

func remarshal(doc store.Document, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
