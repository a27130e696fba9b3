package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SumCompletedPayments totals completed payments with completed_at in [from, to).
func (s *PostgresStore) SumCompletedPayments(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE status = 'completed' AND completed_at >= $1 AND completed_at < $2`,
		from, to,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

// ListCompletedPayments returns completed payments with completed_at in [from, to).
func (s *PostgresStore) ListCompletedPayments(ctx context.Context, from, to time.Time) ([]PaymentAmount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount, completed_at
		FROM payments
		WHERE status = 'completed' AND completed_at >= $1 AND completed_at < $2
		ORDER BY completed_at`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]PaymentAmount, 0)
	for rows.Next() {
		var p PaymentAmount
		if err := rows.Scan(&p.Amount, &p.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
