package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// RevenueReport handles GET /api/admin/revenue?periods=weekly|monthly|yearly
func (h *Handlers) RevenueReport(c *gin.Context) {
	period := models.RevenuePeriod(c.DefaultQuery("periods", string(models.RevenuePeriodWeekly)))

	report, err := h.revenueService.Report(c.Request.Context(), period)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
