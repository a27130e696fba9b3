package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

const maxOrderIDAttempts = 5

// WithCheckoutTx runs fn in a transaction; any error returned by fn rolls back
// every write made through the CheckoutTx.
func (s *PostgresStore) WithCheckoutTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return fn(&checkoutTx{tx: tx, store: s})
	})
}

type checkoutTx struct {
	tx    *sql.Tx
	store *PostgresStore
}

func (c *checkoutTx) GetAddressForUser(ctx context.Context, userID, addressID int64) (*models.Address, error) {
	return getAddressForUser(ctx, c.tx, userID, addressID)
}

func (c *checkoutTx) LockCartLines(ctx context.Context, userID int64, ids []int64) ([]*models.CartLine, error) {
	if len(ids) == 0 {
		return []*models.CartLine{}, nil
	}

	query := cartLineSelect + `
	WHERE c.user_id = $1 AND c.id = ANY($2)
	ORDER BY c.id
	FOR UPDATE OF c
	`

	lines, err := queryCartLines(ctx, c.tx, query, userID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
	}
	return lines, nil
}

func (c *checkoutTx) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, user_id, address_id, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO NOTHING
	`

	now := time.Now().UTC()
	for attempt := 1; attempt <= maxOrderIDAttempts; attempt++ {
		id := c.store.newOrderID()

		result, err := c.tx.ExecContext(ctx, query,
			id,
			order.UserID,
			order.AddressID,
			order.TotalPrice,
			order.Status,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if n, _ := result.RowsAffected(); n == 1 {
			order.ID = id
			order.CreatedAt = now
			order.UpdatedAt = now
			return nil
		}

		c.store.logger.Warn("Order ID collision, regenerating", logging.Fields{
			"order_id": id,
			"attempt":  attempt,
		})
	}

	return fmt.Errorf("insert order: no free order id after %d attempts", maxOrderIDAttempts)
}

func (c *checkoutTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	bookID, materialID, err := productColumns(item.Product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO order_items (order_id, book_id, material_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err = c.tx.QueryRowContext(ctx, query,
		item.OrderID,
		bookID,
		materialID,
		item.Quantity,
		item.Price,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (c *checkoutTx) UpdateOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	result, err := c.tx.ExecContext(ctx,
		`UPDATE orders SET total_price = $2, updated_at = NOW() WHERE id = $1`,
		orderID, total,
	)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("order %s", orderID)
	}
	return nil
}

func (c *checkoutTx) InsertPayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, amount, status, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := c.tx.QueryRowContext(ctx, query,
		payment.OrderID,
		payment.Amount,
		payment.Status,
		payment.Method,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (c *checkoutTx) DeleteCartLines(ctx context.Context, userID int64, ids []int64) error {
	_, err := c.tx.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE user_id = $1 AND id = ANY($2)`,
		userID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}
	return nil
}
