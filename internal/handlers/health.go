package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
)

const serviceName = "marketplace-service"

const readyTimeout = 2 * time.Second

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"service": serviceName,
	}
	if h.config != nil {
		resp["features"] = gin.H{
			"order_caching":   h.config.Features.EnableOrderCaching,
			"order_events":    h.config.Features.EnableOrderEvents,
			"payment_events":  h.config.Features.EnablePaymentEvents,
			"idempotency_key": h.config.Features.EnableIdempotencyKey,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Ready handles GET /ready
func (h *Handlers) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", logging.Fields{"error": err.Error()})
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"service": serviceName,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": serviceName,
	})
}

// Live handles GET /live
func (h *Handlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
