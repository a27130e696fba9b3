package handlers

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// CheckoutService places orders from cart lines.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, userID int64, req *models.PlaceOrderRequest, idempotencyKey string) (*models.PlaceOrderResult, error)
}

type OrderService interface {
	GetOrder(ctx context.Context, userID int64, id string) (*models.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error)
}

type CartService interface {
	AddToCart(ctx context.Context, userID int64, req *models.AddToCartRequest) (bool, error)
	GetCart(ctx context.Context, userID int64) (models.CartView, error)
	UpdateQuantity(ctx context.Context, userID int64, req *models.UpdateCartQuantityRequest) error
	RemoveFromCart(ctx context.Context, userID int64, req *models.RemoveFromCartRequest) error
}

type AddressService interface {
	CreateAddress(ctx context.Context, userID int64, req *models.CreateAddressRequest) (*models.Address, error)
	ListAddresses(ctx context.Context, userID int64) ([]*models.Address, error)
	GetAddress(ctx context.Context, userID, addressID int64) (*models.Address, error)
}

type RevenueService interface {
	Report(ctx context.Context, period models.RevenuePeriod) (*models.RevenueReport, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers for the marketplace service.
type Handlers struct {
	checkoutService CheckoutService
	orderService    OrderService
	cartService     CartService
	addressService  AddressService
	revenueService  RevenueService
	db              Pinger
	config          *config.Config
	logger          *logging.LoggerV2
}

// Services groups the dependencies of NewHandlers.
type Services struct {
	Checkout CheckoutService
	Orders   OrderService
	Cart     CartService
	Address  AddressService
	Revenue  RevenueService
}

// NewHandlers creates a new handlers instance.
func NewHandlers(svc Services, db Pinger, cfg *config.Config) *Handlers {
	return &Handlers{
		checkoutService: svc.Checkout,
		orderService:    svc.Orders,
		cartService:     svc.Cart,
		addressService:  svc.Address,
		revenueService:  svc.Revenue,
		db:              db,
		config:          cfg,
		logger:          logging.NewLoggerV2("handlers"),
	}
}
