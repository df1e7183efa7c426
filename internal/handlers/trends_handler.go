package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/services"
)

// TrendsHandler exposes route trend and stability analysis.
type TrendsHandler struct {
	trends *services.TrendService
	logger *logrus.Logger
}

// NewTrendsHandler creates a new TrendsHandler
func NewTrendsHandler(trends *services.TrendService, logger *logrus.Logger) *TrendsHandler {
	return &TrendsHandler{trends: trends, logger: logger}
}

// GetTrends returns a route's time series with its stability analysis
// GET /api/v1/trends?route_no=&days=30
func (h *TrendsHandler) GetTrends(c *gin.Context) {
	routeNo := strings.ToUpper(c.Query("route_no"))
	if routeNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "route_no parameter is required"})
		return
	}

	days := 30
	if value := c.Query("days"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	trends, err := h.trends.RouteTrends(routeNo, days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch route trends")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch route trends"})
		return
	}

	stability, err := h.trends.AnalyzeStability(routeNo, days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to analyze route stability")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to analyze route stability"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"route_no":           routeNo,
			"trends":             trends,
			"stability_analysis": stability,
			"period_days":        days,
		},
	})
}
