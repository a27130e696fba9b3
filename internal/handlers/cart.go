package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// AddToCart handles POST /api/v1/cart
func (h *Handlers) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.cartService.AddToCart(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"detail": "Item added to cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Cart item quantity updated"})
}

// GetCart handles GET /api/v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	cart, err := h.cartService.GetCart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// UpdateCartQuantity handles PATCH /api/v1/cart
func (h *Handlers) UpdateCartQuantity(c *gin.Context) {
	var req models.UpdateCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.cartService.UpdateQuantity(c.Request.Context(), middleware.UserID(c), &req); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "Cart updated"})
}

// RemoveFromCart handles DELETE /api/v1/cart
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	var req models.RemoveFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.cartService.RemoveFromCart(c.Request.Context(), middleware.UserID(c), &req); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
