package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// OrderEventPublisher announces order lifecycle changes to other services.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error
}
