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

// OrderService handles order reads, status changes and payment settlement.
type OrderService struct {
	orderRepo      repository.OrderRepository
	orderCache     repository.OrderCache
	eventPublisher OrderEventPublisher
	metrics        *metrics.Metrics
	config         *config.Config
	logger         *logging.LoggerV2
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	orderCache repository.OrderCache,
	eventPublisher OrderEventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		orderCache:     orderCache,
		eventPublisher: eventPublisher,
		metrics:        m,
		config:         cfg,
		logger:         logging.NewLoggerV2("order-service"),
	}
}

func (s *OrderService) cachingEnabled() bool {
	return s.config.Features.EnableOrderCaching && s.orderCache != nil
}

// GetOrder returns an order owned by userID. Orders of other users are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID int64, id string) (*models.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, apperrors.NotFoundf("order %s", id)
	}
	return order, nil
}

func (s *OrderService) getOrder(ctx context.Context, id string) (*models.Order, error) {
	s.logger.Debug("Getting order", logging.Fields{"order_id": id})

	// Check cache first
	if s.cachingEnabled() {
		order, err := s.orderCache.Get(ctx, id)
		if err == nil && order != nil {
			s.metrics.CacheLookup(true)
			return order, nil
		}
		s.metrics.CacheLookup(false)
	}

	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cachingEnabled() {
		if err := s.orderCache.Set(ctx, order); err != nil {
			s.logger.Warn("Failed to cache order", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}

	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	if s.cachingEnabled() {
		orders, err := s.orderCache.GetByUserID(ctx, userID)
		if err == nil && orders != nil {
			s.metrics.CacheLookup(true)
			return orders, nil
		}
		s.metrics.CacheLookup(false)
	}

	orders, err := s.orderRepo.ListOrdersByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list orders", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	if s.cachingEnabled() {
		if err := s.orderCache.SetByUserID(ctx, userID, orders); err != nil {
			s.logger.Warn("Failed to cache user orders", logging.Fields{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	return orders, nil
}

// UpdateOrderStatus moves an order along its fulfilment lifecycle.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	s.logger.Info("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": req.Status,
	})

	if err := ValidateUpdateOrderStatusRequest(req); err != nil {
		return nil, err
	}

	// Read from the database; the transition check must not use a stale cached status.
	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	previousStatus := order.Status
	if !previousStatus.CanTransitionTo(req.Status) {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf(
			"invalid status transition from %s to %s",
			previousStatus,
			req.Status,
		))
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, previousStatus, req.Status); err != nil {
		return nil, err
	}
	order.Status = req.Status

	s.invalidate(ctx, order)

	if s.config.Features.EnableOrderEvents && s.eventPublisher != nil {
		if err := s.eventPublisher.PublishOrderStatusChanged(ctx, order, previousStatus); err != nil {
			// Log but don't fail
			s.logger.Error("Failed to publish order status changed event", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}

	s.logger.Info("Order status updated", logging.Fields{
		"order_id":        id,
		"previous_status": previousStatus,
		"new_status":      order.Status,
	})

	return order, nil
}

// SettlePayment records the outcome reported by the payment provider.
func (s *OrderService) SettlePayment(ctx context.Context, orderID string, status models.PaymentStatus) (*models.Payment, error) {
	if !status.Settled() {
		return nil, apperrors.NewValidationError("status", "payment can only settle as completed or failed")
	}

	payment, err := s.orderRepo.SettlePayment(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	if s.cachingEnabled() {
		order, err := s.orderRepo.GetOrder(ctx, orderID)
		if err != nil {
			s.logger.Warn("Failed to reload settled order", logging.Fields{
				"order_id": orderID,
				"error":    err.Error(),
			})
			_ = s.orderCache.Delete(ctx, orderID)
		} else {
			s.invalidate(ctx, order)
		}
	}

	s.logger.Info("Payment settled", logging.Fields{
		"order_id": orderID,
		"status":   payment.Status,
		"amount":   payment.Amount.StringFixed(2),
	})

	return payment, nil
}

func (s *OrderService) invalidate(ctx context.Context, order *models.Order) {
	if !s.cachingEnabled() {
		return
	}

	if err := s.orderCache.Delete(ctx, order.ID); err != nil {
		s.logger.Warn("Failed to evict order", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
	if err := s.orderCache.InvalidateByUserID(ctx, order.UserID); err != nil {
		s.logger.Warn("Failed to invalidate user orders cache", logging.Fields{
			"user_id": order.UserID,
			"error":   err.Error(),
		})
	}
}
