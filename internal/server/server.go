package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/middleware"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	metrics  *metrics.Metrics
	http     *http.Server
	logger   *logging.LoggerV2
}

func New(h *handlers.Handlers, cfg *config.Config, m *metrics.Metrics) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), m.Middleware())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		metrics:  m,
		logger:   logging.NewLoggerV2("server"),
	}

	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/api/v1", middleware.Identity())
	{
		v1.POST("/orders", s.handlers.PlaceOrder)
		v1.GET("/orders", s.handlers.ListOrders)
		v1.GET("/orders/:id", s.handlers.GetOrder)

		v1.POST("/cart", s.handlers.AddToCart)
		v1.GET("/cart", s.handlers.GetCart)
		v1.PATCH("/cart", s.handlers.UpdateCartQuantity)
		v1.DELETE("/cart", s.handlers.RemoveFromCart)

		v1.POST("/addresses", s.handlers.CreateAddress)
		v1.GET("/addresses", s.handlers.ListAddresses)
		v1.GET("/addresses/:id", s.handlers.GetAddress)
	}

	admin := s.router.Group("/api/admin", middleware.Identity(), middleware.RequireAdmin())
	{
		admin.PATCH("/orders/:id/status", s.handlers.UpdateOrderStatus)
		admin.GET("/revenue", s.handlers.RevenueReport)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", logging.Fields{"addr": s.http.Addr})
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
