package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPacked    OrderStatus = "packed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPacked, OrderStatusCancelled},
	OrderStatusPacked:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID         string          `json:"id"`
	UserID     int64           `json:"user"`
	AddressID  int64           `json:"address_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     OrderStatus     `json:"status"`
	Items      []OrderItem     `json:"items"`
	Payment    *Payment        `json:"payment,omitempty"`
	CreatedAt  time.Time       `json:"created_on"`
	UpdatedAt  time.Time       `json:"last_edited"`
}

// ItemsTotal sums price × quantity over the order's items.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Total())
	}
	return total
}

// OrderItem snapshots the unit price of a product at checkout time.
type OrderItem struct {
	ID       int64           `json:"id"`
	OrderID  string          `json:"-"`
	Product  ProductRef      `json:"product"`
	Name     string          `json:"name,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Total is Price multiplied by Quantity.
func (i OrderItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PlaceOrderRequest converts cart lines into an order.
type PlaceOrderRequest struct {
	AddressID   int64   `json:"address_id" binding:"required"`
	CartIDs     []int64 `json:"cart_ids"`
	PaymentType string  `json:"payment_type" binding:"required"`
}

// PlaceOrderResult is returned after a successful checkout.
type PlaceOrderResult struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total_price"`
	Detail  string          `json:"detail"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}
