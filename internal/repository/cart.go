package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// GetProduct loads a book or material by reference.
func (s *PostgresStore) GetProduct(ctx context.Context, ref models.ProductRef) (models.Product, error) {
	var (
		product models.Product
		err     error
	)

	switch ref.Kind {
	case models.ProductKindBook:
		var b models.Book
		err = s.db.QueryRowContext(ctx, `
			SELECT id, name, price, discount_percentage, description, additional_details, availability, created_at
			FROM books WHERE id = $1`, ref.ID,
		).Scan(&b.ID, &b.Name, &b.Price, &b.Discount, &b.Description, &b.AdditionalDetails, &b.Availability, &b.CreatedAt)
		product = &b
	case models.ProductKindMaterial:
		var m models.Material
		err = s.db.QueryRowContext(ctx, `
			SELECT id, name, type, supplier_name, title, price, discount_percentage, description, availability, created_at
			FROM materials WHERE id = $1`, ref.ID,
		).Scan(&m.ID, &m.Name, &m.Type, &m.SupplierName, &m.Title, &m.Price, &m.Discount, &m.Description, &m.Availability, &m.CreatedAt)
		product = &m
	default:
		return nil, apperrors.NewValidationError("type", "invalid item type")
	}

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("%s %d", ref.Kind, ref.ID)
	}
	if err != nil {
		s.logger.Error("Failed to fetch product", logging.Fields{
			"type":    ref.Kind,
			"item_id": ref.ID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("query %s: %w", ref.Kind, err)
	}

	return product, nil
}

// GetCartLine returns the user's line for a product, or ErrNotFound.
func (s *PostgresStore) GetCartLine(ctx context.Context, userID int64, ref models.ProductRef) (*models.CartLine, error) {
	var column string
	switch ref.Kind {
	case models.ProductKindBook:
		column = "c.book_id"
	case models.ProductKindMaterial:
		column = "c.material_id"
	default:
		return nil, apperrors.NewValidationError("type", "invalid item type")
	}

	query := cartLineSelect + ` WHERE c.user_id = $1 AND ` + column + ` = $2`

	line, err := scanCartLine(s.db.QueryRowContext(ctx, query, userID, ref.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("cart item %s %d", ref.Kind, ref.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line: %w", err)
	}
	return line, nil
}

// ListCartLines returns the user's cart, oldest line first.
func (s *PostgresStore) ListCartLines(ctx context.Context, userID int64) ([]*models.CartLine, error) {
	s.logger.Debug("Listing cart lines", logging.Fields{"user_id": userID})

	lines, err := queryCartLines(ctx, s.db, cartLineSelect+` WHERE c.user_id = $1 ORDER BY c.created_at, c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	return lines, nil
}

// AddToCart upserts a cart line, adding quantity to an existing line for the same product.
func (s *PostgresStore) AddToCart(ctx context.Context, userID int64, ref models.ProductRef, quantity int) (int64, bool, error) {
	bookID, materialID, err := productColumns(ref)
	if err != nil {
		return 0, false, err
	}

	conflictTarget := "(user_id, book_id) WHERE book_id IS NOT NULL"
	if ref.Kind == models.ProductKindMaterial {
		conflictTarget = "(user_id, material_id) WHERE material_id IS NOT NULL"
	}

	// xmax is zero only for a freshly inserted row version.
	query := `
		INSERT INTO cart_lines (user_id, book_id, material_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ` + conflictTarget + `
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = NOW()
		WHERE cart_lines.quantity + EXCLUDED.quantity <= $5
		RETURNING id, (xmax = 0) AS inserted
	`

	var lineID int64
	var created bool
	err = s.db.QueryRowContext(ctx, query, userID, bookID, materialID, quantity, models.MaxCartQuantity).Scan(&lineID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, apperrors.NewValidationError("quantity", fmt.Sprintf("quantity may not exceed %d per item", models.MaxCartQuantity))
	}
	if err != nil {
		s.logger.Error("Failed to add to cart", logging.Fields{
			"user_id": userID,
			"type":    ref.Kind,
			"item_id": ref.ID,
			"error":   err.Error(),
		})
		return 0, false, fmt.Errorf("upsert cart line: %w", err)
	}

	s.logger.Info("Cart updated", logging.Fields{
		"user_id": userID,
		"line_id": lineID,
		"created": created,
	})

	return lineID, created, nil
}

func (s *PostgresStore) SetCartLineQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE cart_lines SET quantity = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		lineID, userID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("cart line %d", lineID)
	}
	return nil
}

func (s *PostgresStore) DeleteCartLine(ctx context.Context, userID, lineID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`,
		lineID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.NotFoundf("cart line %d", lineID)
	}
	return nil
}
