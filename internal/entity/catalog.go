package entity

import "time"

// Shop is a campus food outlet. The lifecycle engine reads OwnerID only and
// never mutates shop records.
type Shop struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Location  string    `json:"location,omitempty"`
	Open      bool      `json:"open"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MenuItem is a purchasable item. Price and PreparationTime are read-only
// inputs consumed when constructing or approving an order.
type MenuItem struct {
	ID              string    `json:"id"`
	ShopID          string    `json:"shopId"`
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	PreparationTime int       `json:"preparationTime"`
	Available       bool      `json:"available"`
	Category        string    `json:"category,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// User is a customer or shopkeeper account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Notification is written by the background worker when it consumes a
// lifecycle event. It lives in its own collection; no ordering is guaranteed
// between an order write and its notification write.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	OrderID   string    `json:"orderId"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
