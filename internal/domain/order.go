package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
	OrderStatusReturned   OrderStatus = "RETURNED"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusPaid: true, OrderStatusProcessing: true, OrderStatusCancelled: true},
	OrderStatusPaid:       {OrderStatusProcessing: true, OrderStatusCancelled: true, OrderStatusRefunded: true},
	OrderStatusProcessing: {OrderStatusShipped: true, OrderStatusCancelled: true, OrderStatusRefunded: true},
	OrderStatusShipped:    {OrderStatusDelivered: true, OrderStatusReturned: true},
	OrderStatusDelivered:  {OrderStatusCompleted: true, OrderStatusReturned: true},
	OrderStatusCompleted:  {OrderStatusReturned: true},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
	OrderStatusReturned:   {},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// Cancelling a COMPLETED or DELIVERED order is rejected explicitly so the
// rule holds even for callers that build transitions dynamically.
func CanTransition(from, to OrderStatus) bool {
	if to == OrderStatusCancelled && (from == OrderStatusCompleted || from == OrderStatusDelivered) {
		return false
	}
	return orderTransitions[from][to]
}

// ValidOrderStatus reports whether s is a member of the closed status set.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderTransitions[s]
	return ok
}

// Order is created once by the assembly transaction and mutated only by the
// state machine.
type Order struct {
	ID                string
	OrderNumber       string
	UserID            string
	Status            OrderStatus
	Subtotal          decimal.Decimal
	DiscountAmount    decimal.Decimal
	TotalPrice        decimal.Decimal
	CouponID          string
	PaymentMethod     string
	ShippingAddressID string
	BillingAddressID  string
	AdminNotes        string
	TrackingNumber    string
	Items             []OrderItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem snapshots the price at order-creation time; it is never
// recalculated from the catalog.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	VariantID string // empty when the item was priced at product level
	Quantity  int
	Price     decimal.Decimal
}
