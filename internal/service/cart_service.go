package service

import (
	"context"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/repository"
)

// CartService manages the caller's cart lines.
type CartService struct {
	repo   repository.CartRepository
	logger *logging.LoggerV2
}

func NewCartService(repo repository.CartRepository) *CartService {
	return &CartService{
		repo:   repo,
		logger: logging.NewLoggerV2("cart-service"),
	}
}

// AddToCart adds quantity units of a product, merging with an existing line.
// It reports whether a new line was created.
func (s *CartService) AddToCart(ctx context.Context, userID int64, req *models.AddToCartRequest) (bool, error) {
	ref, err := ValidateProductRef(req.Type, req.ItemID)
	if err != nil {
		return false, err
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return false, apperrors.NewValidationError("quantity", "quantity must be positive")
	}
	if quantity > models.MaxCartQuantity {
		return false, quantityTooLarge()
	}

	if _, err := s.repo.GetProduct(ctx, ref); err != nil {
		return false, err
	}

	existing, err := s.repo.GetCartLine(ctx, userID, ref)
	switch {
	case err == nil:
		if existing.Quantity+quantity > models.MaxCartQuantity {
			return false, quantityTooLarge()
		}
	case !apperrors.IsNotFound(err):
		return false, err
	}

	_, created, err := s.repo.AddToCart(ctx, userID, ref, quantity)
	if err != nil {
		return false, err
	}

	return created, nil
}

// GetCart returns the user's cart with prices and subtotal.
func (s *CartService) GetCart(ctx context.Context, userID int64) (models.CartView, error) {
	lines, err := s.repo.ListCartLines(ctx, userID)
	if err != nil {
		return models.CartView{}, err
	}
	return models.ViewCart(lines), nil
}

// UpdateQuantity sets the quantity of a line. Zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID int64, req *models.UpdateCartQuantityRequest) error {
	ref, err := ValidateProductRef(req.Type, req.ItemID)
	if err != nil {
		return err
	}

	if req.Quantity == nil {
		return apperrors.NewValidationError("quantity", "quantity is required")
	}
	quantity := *req.Quantity
	if quantity > models.MaxCartQuantity {
		return quantityTooLarge()
	}

	line, err := s.repo.GetCartLine(ctx, userID, ref)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		s.logger.Debug("Removing cart line on zero quantity", logging.Fields{
			"user_id": userID,
			"line_id": line.ID,
		})
		return s.repo.DeleteCartLine(ctx, userID, line.ID)
	}

	return s.repo.SetCartLineQuantity(ctx, userID, line.ID, quantity)
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID int64, req *models.RemoveFromCartRequest) error {
	ref, err := ValidateProductRef(req.Type, req.ItemID)
	if err != nil {
		return err
	}

	line, err := s.repo.GetCartLine(ctx, userID, ref)
	if err != nil {
		return err
	}

	return s.repo.DeleteCartLine(ctx, userID, line.ID)
}

func quantityTooLarge() error {
	return apperrors.NewValidationError("quantity", fmt.Sprintf("quantity may not exceed %d per item", models.MaxCartQuantity))
}
