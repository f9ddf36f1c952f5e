package dto

import (
	"time"

	"github.com/campuscode/canteen/internal/entity"
)

// OrderItemResponse is a cart line as exposed via transport layers.
type OrderItemResponse struct {
	MenuItemID string  `json:"menuItemId"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPriceAtOrderTime"`
	Notes      string  `json:"notes,omitempty"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                  string              `json:"id"`
	UserID              string              `json:"userId"`
	ShopID              string              `json:"shopId"`
	Items               []OrderItemResponse `json:"items"`
	TotalAmount         float64             `json:"totalAmount"`
	Status              string              `json:"status"`
	TokenNumber         int                 `json:"tokenNumber"`
	EstimatedPickupTime *time.Time          `json:"estimatedPickupTime,omitempty"`
	ActualPickupTime    *time.Time          `json:"actualPickupTime,omitempty"`
	PaymentStatus       string              `json:"paymentStatus,omitempty"`
	PaymentMethod       string              `json:"paymentMethod,omitempty"`
	TransactionID       string              `json:"transactionId,omitempty"`
	RejectionReason     string              `json:"rejectionReason,omitempty"`
	Notes               string              `json:"notes,omitempty"`
	Rating              int                 `json:"rating,omitempty"`
	Review              string              `json:"review,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// FromOrder maps a domain order onto its transport shape.
func FromOrder(order *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Notes:      item.Notes,
		})
	}
	return OrderResponse{
		ID:                  order.ID,
		UserID:              order.UserID,
		ShopID:              order.ShopID,
		Items:               items,
		TotalAmount:         order.TotalAmount,
		Status:              string(order.Status),
		TokenNumber:         order.TokenNumber,
		EstimatedPickupTime: order.EstimatedPickupTime,
		ActualPickupTime:    order.ActualPickupTime,
		PaymentStatus:       string(order.PaymentStatus),
		PaymentMethod:       order.PaymentMethod,
		TransactionID:       order.TransactionID,
		RejectionReason:     order.RejectionReason,
		Notes:               order.Notes,
		Rating:              order.Rating,
		Review:              order.Review,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}

// FromOrders maps a slice of domain orders.
func FromOrders(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, FromOrder(&orders[i]))
	}
	return out
}

// ShopResponse represents a shop as exposed via transport layers.
type ShopResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Open     bool   `json:"open"`
}

// MenuItemResponse represents a menu item as exposed via transport layers.
type MenuItemResponse struct {
	ID              string  `json:"id"`
	ShopID          string  `json:"shopId"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	PreparationTime int     `json:"preparationTime"`
	Available       bool    `json:"available"`
	Category        string  `json:"category,omitempty"`
}
