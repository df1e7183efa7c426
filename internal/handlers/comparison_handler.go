package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/services"
)

// ComparisonHandler exposes the daily route comparison snapshot.
type ComparisonHandler struct {
	comparison *services.ComparisonService
	logger     *logrus.Logger
}

// NewComparisonHandler creates a new ComparisonHandler
func NewComparisonHandler(comparison *services.ComparisonService, logger *logrus.Logger) *ComparisonHandler {
	return &ComparisonHandler{comparison: comparison, logger: logger}
}

// GetComparison regenerates and returns the snapshot for a date
// GET /api/v1/comparison?date=YYYY-MM-DD
func (h *ComparisonHandler) GetComparison(c *gin.Context) {
	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if value := c.Query("date"); value != "" {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid date format, use YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	comparison, err := h.comparison.ComparisonForDate(date)
	if err != nil {
		if err == services.ErrNoData {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No data available for the specified date"})
			return
		}
		h.logger.WithError(err).Error("Failed to generate comparison")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate comparison"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"comparison_date":         comparison.ComparisonDate.Format("2006-01-02"),
			"best_performing_routes":  comparison.BestPerformingRoutes,
			"underperforming_routes":  comparison.UnderperformingRoutes,
			"total_routes_analyzed":   comparison.TotalRoutesAnalyzed,
			"industry_avg_epkm":       comparison.IndustryAvgEPKM,
		},
	})
}
