package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// ErrInvalidCartLine is returned when a stored cart line does not reference
// exactly one product.
var ErrInvalidCartLine = errors.New("cart line references neither or both of book and material")

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// PostgresStore implements the repository interfaces using PostgreSQL.
type PostgresStore struct {
	db         *sql.DB
	logger     *logging.LoggerV2
	newOrderID func() string
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(db *sql.DB, logger *logging.LoggerV2) *PostgresStore {
	return &PostgresStore{
		db:         db,
		logger:     logger,
		newOrderID: generateOrderID,
	}
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// generateOrderID returns 8 lowercase hex characters.
func generateOrderID() string {
	return uuid.NewString()[:8]
}

// productColumns splits a product reference into the nullable book_id and
// material_id column values.
func productColumns(ref models.ProductRef) (bookID, materialID sql.NullInt64, err error) {
	switch ref.Kind {
	case models.ProductKindBook:
		bookID = sql.NullInt64{Int64: ref.ID, Valid: true}
	case models.ProductKindMaterial:
		materialID = sql.NullInt64{Int64: ref.ID, Valid: true}
	default:
		err = fmt.Errorf("unknown product kind %q", ref.Kind)
	}
	return bookID, materialID, err
}

// productRef is the inverse of productColumns.
func productRef(bookID, materialID sql.NullInt64) (models.ProductRef, error) {
	switch {
	case bookID.Valid && !materialID.Valid:
		return models.ProductRef{Kind: models.ProductKindBook, ID: bookID.Int64}, nil
	case materialID.Valid && !bookID.Valid:
		return models.ProductRef{Kind: models.ProductKindMaterial, ID: materialID.Int64}, nil
	default:
		return models.ProductRef{}, ErrInvalidCartLine
	}
}

const cartLineSelect = `
	SELECT c.id, c.user_id, c.quantity, c.created_at, c.updated_at,
	       b.id, b.name, b.price, b.discount_percentage, b.availability,
	       m.id, m.name, m.supplier_name, m.price, m.discount_percentage, m.availability
	FROM cart_lines c
	LEFT JOIN books b ON b.id = c.book_id
	LEFT JOIN materials m ON m.id = c.material_id
`

func scanCartLine(row rowScanner) (*models.CartLine, error) {
	var line models.CartLine
	var bookID, materialID sql.NullInt64
	var bookName, bookAvailability sql.NullString
	var materialName, materialSupplier, materialAvailability sql.NullString
	var bookPrice, bookDiscount, materialPrice, materialDiscount decimal.NullDecimal

	err := row.Scan(
		&line.ID,
		&line.UserID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
		&bookID,
		&bookName,
		&bookPrice,
		&bookDiscount,
		&bookAvailability,
		&materialID,
		&materialName,
		&materialSupplier,
		&materialPrice,
		&materialDiscount,
		&materialAvailability,
	)
	if err != nil {
		return nil, err
	}

	ref, err := productRef(bookID, materialID)
	if err != nil {
		return nil, fmt.Errorf("cart line %d: %w", line.ID, err)
	}

	switch ref.Kind {
	case models.ProductKindBook:
		line.Product = &models.Book{
			ID:           bookID.Int64,
			Name:         bookName.String,
			Price:        bookPrice.Decimal,
			Discount:     bookDiscount.Decimal,
			Availability: models.Availability(bookAvailability.String),
		}
	case models.ProductKindMaterial:
		line.Product = &models.Material{
			ID:           materialID.Int64,
			Name:         materialName.String,
			SupplierName: materialSupplier.String,
			Price:        materialPrice.Decimal,
			Discount:     materialDiscount.Decimal,
			Availability: models.Availability(materialAvailability.String),
		}
	}

	return &line, nil
}

func queryCartLines(ctx context.Context, q queryer, query string, args ...interface{}) ([]*models.CartLine, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]*models.CartLine, 0)
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

const addressColumns = `
	id, user_id, type, name, phone_no, pincode, city, state, street, flat_no,
	landmark, is_default, created_at
`

func scanAddress(row rowScanner) (*models.Address, error) {
	var addr models.Address
	var landmark sql.NullString

	err := row.Scan(
		&addr.ID,
		&addr.UserID,
		&addr.Type,
		&addr.Name,
		&addr.PhoneNo,
		&addr.Pincode,
		&addr.City,
		&addr.State,
		&addr.Street,
		&addr.FlatNo,
		&landmark,
		&addr.IsDefault,
		&addr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if landmark.Valid {
		addr.Landmark = landmark.String
	}
	return &addr, nil
}

func getAddressForUser(ctx context.Context, q queryer, userID, addressID int64) (*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`

	addr, err := scanAddress(q.QueryRowContext(ctx, query, addressID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("address %d", addressID)
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return addr, nil
}
