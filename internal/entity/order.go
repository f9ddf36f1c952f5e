package entity

import (
	"strings"
	"time"
)

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusPendingApproval  Status = "pending_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusPaymentPending   Status = "payment_pending"
	StatusPaymentCompleted Status = "payment_completed"
	StatusPaymentFailed    Status = "payment_failed"
	StatusPreparing        Status = "preparing"
	StatusReady            Status = "ready"
	StatusFulfilled        Status = "fulfilled"
	StatusCancelled        Status = "cancelled"
)

// transitions maps each status to the set of statuses it may move to.
// The payment_failed -> payment_pending edge models a fresh payment attempt.
var transitions = map[Status][]Status{
	StatusPendingApproval:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:         {StatusPaymentPending, StatusCancelled},
	StatusPaymentPending:   {StatusPaymentCompleted, StatusPaymentFailed, StatusCancelled},
	StatusPaymentFailed:    {StatusPaymentPending, StatusCancelled},
	StatusPaymentCompleted: {StatusPreparing, StatusCancelled},
	StatusPreparing:        {StatusReady, StatusCancelled},
	StatusReady:            {StatusFulfilled, StatusCancelled},
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	if s == StatusRejected || s == StatusFulfilled || s == StatusCancelled {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether an order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the payment sub-state carried alongside Status.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// OrderItem is a single cart line. UnitPrice is captured at order time and
// never recomputed from the live menu.
type OrderItem struct {
	MenuItemID string  `json:"menuItemId"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPriceAtOrderTime"`
	Notes      string  `json:"notes,omitempty"`
}

// Order is the central lifecycle entity.
type Order struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"userId"`
	ShopID              string        `json:"shopId"`
	Items               []OrderItem   `json:"items"`
	TotalAmount         float64       `json:"totalAmount"`
	Status              Status        `json:"status"`
	TokenNumber         int           `json:"tokenNumber"`
	EstimatedPickupTime *time.Time    `json:"estimatedPickupTime,omitempty"`
	ActualPickupTime    *time.Time    `json:"actualPickupTime,omitempty"`
	PaymentStatus       PaymentStatus `json:"paymentStatus,omitempty"`
	PaymentMethod       string        `json:"paymentMethod,omitempty"`
	TransactionID       string        `json:"transactionId,omitempty"`
	RejectionReason     string        `json:"rejectionReason,omitempty"`
	Notes               string        `json:"notes,omitempty"`
	Rating              int           `json:"rating,omitempty"`
	Review              string        `json:"review,omitempty"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// Total sums quantity times unit price over the order items.
func Total(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}

// RejectionReason enumerates the fixed shopkeeper rejection reasons.
type RejectionReason string

const (
	ReasonFoodUnavailable  RejectionReason = "food_unavailable"
	ReasonKitchenClosing   RejectionReason = "kitchen_closing"
	ReasonOutOfIngredients RejectionReason = "out_of_ingredients"
	ReasonEquipmentIssue   RejectionReason = "equipment_issue"
	ReasonStaffShortage    RejectionReason = "staff_shortage"
	ReasonTooManyOrders    RejectionReason = "too_many_orders"
	ReasonOther            RejectionReason = "other"
)

// rejectionLabels holds the human-readable text stored on the order.
var rejectionLabels = map[RejectionReason]string{
	ReasonFoodUnavailable:  "Food Unavailable",
	ReasonKitchenClosing:   "Kitchen Closing",
	ReasonOutOfIngredients: "Out of Ingredients",
	ReasonEquipmentIssue:   "Equipment Issue",
	ReasonStaffShortage:    "Staff Shortage",
	ReasonTooManyOrders:    "Too Many Orders",
}

// maxOtherReasonLen bounds the free-text rejection reason.
const maxOtherReasonLen = 100

// ResolveRejectionReason validates a rejection input and returns the text to
// store on the order. For ReasonOther the trimmed free text must be non-empty
// and at most 100 characters.
func ResolveRejectionReason(reason RejectionReason, otherText string) (string, bool) {
	if label, ok := rejectionLabels[reason]; ok {
		return label, true
	}
	if reason != ReasonOther {
		return "", false
	}
	trimmed := strings.TrimSpace(otherText)
	if trimmed == "" || len(trimmed) > maxOtherReasonLen {
		return "", false
	}
	return trimmed, true
}

// preparationMinutes is the enumerated set a shopkeeper may pick at approval.
var preparationMinutes = map[int]struct{}{
	5: {}, 10: {}, 15: {}, 20: {}, 25: {}, 30: {}, 45: {}, 60: {},
}

// ValidPreparationMinutes reports whether minutes is an allowed selection.
func ValidPreparationMinutes(minutes int) bool {
	_, ok := preparationMinutes[minutes]
	return ok
}

const (
	// TokenMin and TokenMax bound the customer-facing pickup token. Tokens
	// are drawn at random with no uniqueness check across active orders.
	TokenMin = 1
	TokenMax = 999
)
