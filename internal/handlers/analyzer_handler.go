package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"github.com/smarttransit/route-analytics-backend/internal/services"
)

// AnalyzerHandler exposes the bus overlap analysis endpoints.
type AnalyzerHandler struct {
	overlap *services.OverlapService
	logger  *logrus.Logger
}

// NewAnalyzerHandler creates a new AnalyzerHandler
func NewAnalyzerHandler(overlap *services.OverlapService, logger *logrus.Logger) *AnalyzerHandler {
	return &AnalyzerHandler{overlap: overlap, logger: logger}
}

// AnalyzeOverlap runs an overlap analysis for a route, date and window
// POST /api/v1/analyzer/overlap
func (h *AnalyzerHandler) AnalyzeOverlap(c *gin.Context) {
	var req models.AnalyzeOverlapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	if _, _, _, err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.overlap.AnalyzeRouteOverlap(&req)
	if err != nil {
		if err == services.ErrNoData {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No trips or schedules found for the route and date"})
			return
		}
		h.logger.WithError(err).Error("Overlap analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Overlap analysis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// GetHistory returns the last ten analysis summaries, newest first
// GET /api/v1/analyzer/history
func (h *AnalyzerHandler) GetHistory(c *gin.Context) {
	analyses, err := h.overlap.AnalysisHistory()
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch analysis history")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch analysis history"})
		return
	}

	history := make([]gin.H, len(analyses))
	for i, analysis := range analyses {
		start, _ := models.ParseClockTime(analysis.TimePeriodStart)
		end, _ := models.ParseClockTime(analysis.TimePeriodEnd)
		history[i] = gin.H{
			"route_no":      analysis.RouteNo,
			"selected_date": analysis.SelectedDate.Format("2006-01-02"),
			"analysis_date": analysis.AnalysisDate.Format("2006-01-02 15:04"),
			"time_period":   start.String() + " - " + end.String(),
			"total_buses":   analysis.TotalBuses,
			"overlap_score": analysis.OverlapScore,
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"history": history}})
}

// GetRoutes lists the route numbers available for analysis
// GET /api/v1/analyzer/routes
func (h *AnalyzerHandler) GetRoutes(c *gin.Context) {
	routes, err := h.overlap.RouteNumbers()
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch routes")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch routes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"routes": routes}})
}
