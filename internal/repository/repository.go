package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// Ensure PostgresStore implements every store interface.
var (
	_ CheckoutStore     = (*PostgresStore)(nil)
	_ CartRepository    = (*PostgresStore)(nil)
	_ AddressRepository = (*PostgresStore)(nil)
	_ OrderRepository   = (*PostgresStore)(nil)
	_ RevenueRepository = (*PostgresStore)(nil)
)

// CheckoutTx is the unit of work used while placing an order. All calls made
// through one CheckoutTx commit or roll back together.
type CheckoutTx interface {
	// GetAddressForUser returns ErrNotFound if the address is absent or owned by another user.
	GetAddressForUser(ctx context.Context, userID, addressID int64) (*models.Address, error)

	// LockCartLines loads the user's cart lines with the given ids, locking them
	// until the transaction ends. Unknown ids are ignored.
	LockCartLines(ctx context.Context, userID int64, ids []int64) ([]*models.CartLine, error)

	// InsertOrder assigns order.ID and persists the order.
	InsertOrder(ctx context.Context, order *models.Order) error

	InsertOrderItem(ctx context.Context, item *models.OrderItem) error
	UpdateOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error
	InsertPayment(ctx context.Context, payment *models.Payment) error
	DeleteCartLines(ctx context.Context, userID int64, ids []int64) error
}

// CheckoutStore runs fn inside a database transaction.
type CheckoutStore interface {
	WithCheckoutTx(ctx context.Context, fn func(tx CheckoutTx) error) error
}

// CartRepository manages cart lines and the catalog lookups they need.
type CartRepository interface {
	GetProduct(ctx context.Context, ref models.ProductRef) (models.Product, error)
	GetCartLine(ctx context.Context, userID int64, ref models.ProductRef) (*models.CartLine, error)
	ListCartLines(ctx context.Context, userID int64) ([]*models.CartLine, error)

	// AddToCart inserts a line or increments the existing one; created reports which happened.
	AddToCart(ctx context.Context, userID int64, ref models.ProductRef, quantity int) (lineID int64, created bool, err error)

	SetCartLineQuantity(ctx context.Context, userID, lineID int64, quantity int) error
	DeleteCartLine(ctx context.Context, userID, lineID int64) error
}

type AddressRepository interface {
	// CreateAddress persists addr; when addr.IsDefault the user's other addresses lose the flag.
	CreateAddress(ctx context.Context, addr *models.Address) error
	ListAddresses(ctx context.Context, userID int64) ([]*models.Address, error)
	GetAddress(ctx context.Context, userID, addressID int64) (*models.Address, error)
}

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error)

	// UpdateOrderStatus moves an order from one status to another. It returns
	// ErrConflict if the order is no longer in status from.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus) error

	// SettlePayment moves the pending payment of an order to a terminal status.
	SettlePayment(ctx context.Context, orderID string, status models.PaymentStatus) (*models.Payment, error)
}

// PaymentAmount is a completed payment as seen by revenue reporting.
type PaymentAmount struct {
	Amount      decimal.Decimal
	CompletedAt time.Time
}

type RevenueRepository interface {
	SumCompletedPayments(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	ListCompletedPayments(ctx context.Context, from, to time.Time) ([]PaymentAmount, error)
}

// OrderCache defines caching operations for orders.
type OrderCache interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) error
	GetByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	SetByUserID(ctx context.Context, userID int64, orders []*models.Order) error
	InvalidateByUserID(ctx context.Context, userID int64) error
}

// IdempotencyStore guards against duplicate submissions of the same request.
type IdempotencyStore interface {
	// Acquire returns false if key was already acquired and has not expired.
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
