package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

const orderColumns = `id, user_id, address_id, total_price, status, created_at, updated_at`

const paymentColumns = `id, order_id, amount, status, type, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.AddressID,
		&o.TotalPrice,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&p.Status,
		&p.Method,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrder loads an order with its items and payment.
func (s *PostgresStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(s.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("order %s", orderID)
	}
	if err != nil {
		s.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("query order: %w", err)
	}

	if err := s.attachOrderDetails(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (s *PostgresStore) ListOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachOrderDetails(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachOrderDetails loads items and payments for all orders in two queries.
func (s *PostgresStore) attachOrderDetails(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*models.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.book_id, oi.material_id, oi.quantity, oi.price,
		       COALESCE(b.name, m.name, '')
		FROM order_items oi
		LEFT JOIN books b ON b.id = oi.book_id
		LEFT JOIN materials m ON m.id = oi.material_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.OrderItem
		var bookID, materialID sql.NullInt64
		if err := itemRows.Scan(&item.ID, &item.OrderID, &bookID, &materialID, &item.Quantity, &item.Price, &item.Name); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if item.Product, err = productRef(bookID, materialID); err != nil {
			return fmt.Errorf("order item %d: %w", item.ID, err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	paymentRows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query payments: %w", err)
	}
	defer paymentRows.Close()

	for paymentRows.Next() {
		p, err := scanPayment(paymentRows)
		if err != nil {
			return fmt.Errorf("scan payment: %w", err)
		}
		if o, ok := byID[p.OrderID]; ok {
			o.Payment = p
		}
	}
	return paymentRows.Err()
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	s.logger.Info("Updating order status", logging.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
	})

	result, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		orderID, from, to,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return apperrors.NotFoundf("order %s", orderID)
	}
	return fmt.Errorf("order %s is no longer %s: %w", orderID, from, apperrors.ErrConflict)
}

func (s *PostgresStore) SettlePayment(ctx context.Context, orderID string, status models.PaymentStatus) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $2,
		    completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
		    updated_at = NOW()
		WHERE order_id = $1 AND status = 'pending'
		RETURNING ` + paymentColumns

	payment, err := scanPayment(s.db.QueryRowContext(ctx, query, orderID, string(status)))
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settle payment: %w", err)
	}

	// No pending payment: distinguish a missing payment from one already settled.
	existing, err := scanPayment(s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("payment for order %s", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return existing, fmt.Errorf("payment for order %s already %s: %w", orderID, existing.Status, apperrors.ErrConflict)
}
