package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Settled reports whether the payment has reached a terminal status.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash on delivery"
	PaymentMethodUPI            PaymentMethod = "upi"
)

// ParsePaymentMethod accepts the recognised method tags.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(s); m {
	case PaymentMethodCashOnDelivery, PaymentMethodUPI:
		return m, true
	}
	return "", false
}

// Payment is the settlement record of an order, one per order.
type Payment struct {
	ID        int64           `json:"id"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PaymentStatus   `json:"status"`
	Method    PaymentMethod   `json:"type"`
	CreatedAt time.Time       `json:"created_on"`
	UpdatedAt time.Time       `json:"last_edited"`
}
