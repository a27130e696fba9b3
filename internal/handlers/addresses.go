package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// CreateAddress handles POST /api/v1/addresses
func (h *Handlers) CreateAddress(c *gin.Context) {
	var req models.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	addr, err := h.addressService.CreateAddress(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, addr)
}

// ListAddresses handles GET /api/v1/addresses
func (h *Handlers) ListAddresses(c *gin.Context) {
	addresses, err := h.addressService.ListAddresses(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// GetAddress handles GET /api/v1/addresses/:id
func (h *Handlers) GetAddress(c *gin.Context) {
	addressID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address ID"})
		return
	}

	addr, err := h.addressService.GetAddress(c.Request.Context(), middleware.UserID(c), addressID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, addr)
}
