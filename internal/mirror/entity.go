package mirror

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is the relational rendition of an order for the mirror backend.
// The mirror replicates schema only; it shares no runtime state with the
// lifecycle engine.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID          int64     `bun:",pk,autoincrement"`
	ExternalID  string    `bun:"external_id,unique"`
	UserID      string    `bun:"user_id"`
	ShopID      string    `bun:"shop_id"`
	TotalAmount float64   `bun:"total_amount"`
	Status      string    `bun:"status"`
	TokenNumber int       `bun:"token_number"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}

// Shop is the relational rendition of a shop.
type Shop struct {
	bun.BaseModel `bun:"table:shops"`

	ID         int64     `bun:",pk,autoincrement"`
	ExternalID string    `bun:"external_id,unique"`
	Name       string    `bun:"name"`
	OwnerID    string    `bun:"owner_id"`
	Location   string    `bun:"location"`
	Open       bool      `bun:"open"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero"`
}

// MenuItem is the relational rendition of a menu item.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID              int64     `bun:",pk,autoincrement"`
	ExternalID      string    `bun:"external_id,unique"`
	ShopID          string    `bun:"shop_id"`
	Name            string    `bun:"name"`
	Price           float64   `bun:"price"`
	PreparationTime int       `bun:"preparation_time"`
	Available       bool      `bun:"available"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero"`
}
