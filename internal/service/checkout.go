package service

import (
	"context"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/repository"
)

const orderPlacedDetail = "Order placed successfully"

// CheckoutService turns cart lines into orders.
type CheckoutService struct {
	store          repository.CheckoutStore
	orderCache     repository.OrderCache
	idempotency    repository.IdempotencyStore
	eventPublisher OrderEventPublisher
	metrics        *metrics.Metrics
	config         *config.Config
	logger         *logging.LoggerV2
}

// NewCheckoutService creates a checkout service. orderCache and idempotency
// may be nil when the corresponding features are disabled.
func NewCheckoutService(
	store repository.CheckoutStore,
	orderCache repository.OrderCache,
	idempotency repository.IdempotencyStore,
	eventPublisher OrderEventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
) *CheckoutService {
	return &CheckoutService{
		store:          store,
		orderCache:     orderCache,
		idempotency:    idempotency,
		eventPublisher: eventPublisher,
		metrics:        m,
		config:         cfg,
		logger:         logging.NewLoggerV2("checkout-service"),
	}
}

// PlaceOrder converts the given cart lines of userID into one order with its
// items and a pending payment, and removes those lines from the cart. Either
// everything is persisted or nothing is.
//
// idempotencyKey is optional; a repeated non-empty key returns ErrConflict.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID int64, req *models.PlaceOrderRequest, idempotencyKey string) (*models.PlaceOrderResult, error) {
	s.logger.Info("Placing order", logging.Fields{
		"user_id":    userID,
		"address_id": req.AddressID,
		"cart_ids":   req.CartIDs,
	})

	method, err := ValidatePlaceOrderRequest(req)
	if err != nil {
		s.metrics.CheckoutFailed("validation")
		return nil, err
	}

	release, err := s.acquire(ctx, userID, idempotencyKey)
	if err != nil {
		return nil, err
	}

	order, err := s.placeOrder(ctx, userID, req.AddressID, uniqueIDs(req.CartIDs), method)
	if err != nil {
		release()
		s.metrics.CheckoutFailed(failureReason(err))
		s.logger.Warn("Order placement failed", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	s.metrics.OrderPlaced(string(method), order.TotalPrice)
	s.afterPlace(ctx, order)

	s.logger.Info("Order placed", logging.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.TotalPrice.StringFixed(2),
		"items":    len(order.Items),
	})

	return &models.PlaceOrderResult{
		OrderID: order.ID,
		Total:   order.TotalPrice,
		Detail:  orderPlacedDetail,
	}, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, userID, addressID int64, cartIDs []int64, method models.PaymentMethod) (*models.Order, error) {
	var order *models.Order

	err := s.store.WithCheckoutTx(ctx, func(tx repository.CheckoutTx) error {
		if _, err := tx.GetAddressForUser(ctx, userID, addressID); err != nil {
			return err
		}

		lines, err := tx.LockCartLines(ctx, userID, cartIDs)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperrors.NewValidationError("cart_ids", "cart contains none of the specified items")
		}

		o := &models.Order{
			UserID:    userID,
			AddressID: addressID,
			Status:    models.OrderStatusPending,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}

		priced := PriceCartLines(lines)
		for i := range priced.Items {
			priced.Items[i].OrderID = o.ID
			if err := tx.InsertOrderItem(ctx, &priced.Items[i]); err != nil {
				return err
			}
		}
		o.Items = priced.Items

		if err := tx.UpdateOrderTotal(ctx, o.ID, priced.Total); err != nil {
			return err
		}
		o.TotalPrice = priced.Total

		payment := &models.Payment{
			OrderID: o.ID,
			Amount:  priced.Total,
			Status:  models.PaymentStatusPending,
			Method:  method,
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}
		o.Payment = payment

		consumed := make([]int64, 0, len(lines))
		for _, line := range lines {
			consumed = append(consumed, line.ID)
		}
		if err := tx.DeleteCartLines(ctx, userID, consumed); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// acquire claims idempotencyKey for userID. Keys are scoped per user so two
// buyers sending the same key never collide. The returned func releases it so
// a failed attempt can be retried with the same key.
func (s *CheckoutService) acquire(ctx context.Context, userID int64, idempotencyKey string) (func(), error) {
	noop := func() {}
	if idempotencyKey == "" || s.idempotency == nil || !s.config.Features.EnableIdempotencyKey {
		return noop, nil
	}

	key := fmt.Sprintf("%d:%s", userID, idempotencyKey)
	ok, err := s.idempotency.Acquire(ctx, key)
	if err != nil {
		// Redis being down must not block checkout.
		s.logger.Warn("Idempotency store unavailable, continuing without it", logging.Fields{
			"error": err.Error(),
		})
		return noop, nil
	}
	if !ok {
		s.metrics.CheckoutFailed("duplicate")
		return nil, fmt.Errorf("request with idempotency key %q already submitted: %w", idempotencyKey, apperrors.ErrConflict)
	}

	return func() {
		if err := s.idempotency.Release(context.Background(), key); err != nil {
			s.logger.Error("Failed to release idempotency key", logging.Fields{
				"key":   key,
				"error": err.Error(),
			})
		}
	}, nil
}

func (s *CheckoutService) afterPlace(ctx context.Context, order *models.Order) {
	if s.config.Features.EnableOrderCaching && s.orderCache != nil {
		if err := s.orderCache.InvalidateByUserID(ctx, order.UserID); err != nil {
			s.logger.Error("Failed to invalidate user orders cache", logging.Fields{
				"user_id": order.UserID,
				"error":   err.Error(),
			})
		}
	}

	if s.config.Features.EnableOrderEvents && s.eventPublisher != nil {
		if err := s.eventPublisher.PublishOrderPlaced(ctx, order); err != nil {
			// Log but don't fail
			s.logger.Error("Failed to publish order placed event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}
}

func failureReason(err error) string {
	switch {
	case apperrors.IsNotFound(err):
		return "not_found"
	case apperrors.IsConflict(err):
		return "conflict"
	}
	if _, ok := apperrors.AsValidation(err); ok {
		return "validation"
	}
	return "internal"
}
