package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// CreateAddress inserts addr and fills in its ID and CreatedAt.
func (s *PostgresStore) CreateAddress(ctx context.Context, addr *models.Address) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if addr.IsDefault {
			_, err := tx.ExecContext(ctx,
				`UPDATE addresses SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default`,
				addr.UserID,
			)
			if err != nil {
				return fmt.Errorf("clear default address: %w", err)
			}
		}

		query := `
			INSERT INTO addresses (user_id, type, name, phone_no, pincode, city, state, street, flat_no, landmark, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at
		`

		landmark := sql.NullString{String: addr.Landmark, Valid: addr.Landmark != ""}

		err := tx.QueryRowContext(ctx, query,
			addr.UserID,
			addr.Type,
			addr.Name,
			addr.PhoneNo,
			addr.Pincode,
			addr.City,
			addr.State,
			addr.Street,
			addr.FlatNo,
			landmark,
			addr.IsDefault,
		).Scan(&addr.ID, &addr.CreatedAt)
		if err != nil {
			s.logger.Error("Failed to create address", logging.Fields{
				"user_id": addr.UserID,
				"error":   err.Error(),
			})
			return fmt.Errorf("insert address: %w", err)
		}

		return nil
	})
}

// ListAddresses returns the user's addresses, default first.
func (s *PostgresStore) ListAddresses(ctx context.Context, userID int64) ([]*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]*models.Address, 0)
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

func (s *PostgresStore) GetAddress(ctx context.Context, userID, addressID int64) (*models.Address, error) {
	return getAddressForUser(ctx, s.db, userID, addressID)
}
