package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/config"
	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"github.com/smarttransit/route-analytics-backend/internal/services"
)

// PerformanceHandler exposes route performance aggregation endpoints.
type PerformanceHandler struct {
	performance *services.PerformanceService
	trends      *services.TrendService
	trips       *database.TripRepository
	cfg         config.AnalyticsConfig
	logger      *logrus.Logger
}

// NewPerformanceHandler creates a new PerformanceHandler
func NewPerformanceHandler(
	performance *services.PerformanceService,
	trends *services.TrendService,
	trips *database.TripRepository,
	cfg config.AnalyticsConfig,
	logger *logrus.Logger,
) *PerformanceHandler {
	return &PerformanceHandler{
		performance: performance,
		trends:      trends,
		trips:       trips,
		cfg:         cfg,
		logger:      logger,
	}
}

// GetPerformance returns ranked route summaries with benchmarks
// GET /api/v1/performance?route_no=&start_date=&end_date=
func (h *PerformanceHandler) GetPerformance(c *gin.Context) {
	startDate, endDate, err := dateRangeFromQuery(c, h.cfg.DefaultWindowDays, h.cfg.MaxWindowDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	routeNo := strings.ToUpper(c.Query("route_no"))

	routes, err := h.performance.RoutePerformance(routeNo, startDate, endDate)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute route performance")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to compute route performance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"routes":     routes,
			"benchmarks": h.performance.Benchmarks(routes),
			"date_range": gin.H{
				"start": startDate.Format("2006-01-02"),
				"end":   endDate.Format("2006-01-02"),
			},
		},
	})
}

// GetTopPerformers returns the best routes by average EPKM
// GET /api/v1/performance/top?limit=&start_date=&end_date=
func (h *PerformanceHandler) GetTopPerformers(c *gin.Context) {
	h.rankedSubset(c, "top_performers", h.performance.TopPerformers)
}

// GetUnderperformers returns the worst routes by average EPKM
// GET /api/v1/performance/bottom?limit=&start_date=&end_date=
func (h *PerformanceHandler) GetUnderperformers(c *gin.Context) {
	h.rankedSubset(c, "underperformers", h.performance.Underperformers)
}

func (h *PerformanceHandler) rankedSubset(c *gin.Context, key string, fetch func(int, time.Time, time.Time) ([]models.RouteSummary, error)) {
	startDate, endDate, err := dateRangeFromQuery(c, 7, h.cfg.MaxWindowDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	limit := h.cfg.ComparisonListSize
	if value := c.Query("limit"); value != "" {
		limit, err = strconv.Atoi(value)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be a positive integer"})
			return
		}
	}

	routes, err := fetch(limit, startDate, endDate)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute ranked routes")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to compute ranked routes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			key:     routes,
			"count": len(routes),
		},
	})
}

// GetRouteDetail returns a single route's summary, trends, stability
// and most recent trips
// GET /api/v1/performance/routes/:route_no
func (h *PerformanceHandler) GetRouteDetail(c *gin.Context) {
	routeNo := strings.ToUpper(c.Param("route_no"))

	now := time.Now().UTC()
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startDate := endDate.AddDate(0, 0, -h.cfg.DefaultWindowDays)

	routes, err := h.performance.RoutePerformance(routeNo, startDate, endDate)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute route performance")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to compute route performance"})
		return
	}
	if len(routes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No data found for route " + routeNo})
		return
	}

	trends, err := h.trends.RouteTrends(routeNo, h.cfg.DefaultWindowDays)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch route trends")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch route trends"})
		return
	}

	stability, err := h.trends.AnalyzeStability(routeNo, h.cfg.DefaultWindowDays)
	if err != nil {
		h.logger.WithError(err).Error("Failed to analyze route stability")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to analyze route stability"})
		return
	}

	recentTrips, err := h.trips.GetRecentRevenueTrips(routeNo, startDate, endDate, 10)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch recent trips")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch recent trips"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"route_no":            routeNo,
			"performance_summary": routes[0],
			"trends":              trends,
			"stability_analysis":  stability,
			"recent_trips":        recentTrips,
		},
	})
}

// BulkCalculate recalculates metrics for all routes in a window
// POST /api/v1/performance/bulk-calculate
func (h *PerformanceHandler) BulkCalculate(c *gin.Context) {
	var req models.BulkCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	startDate, endDate, periodType, err := req.Validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	processed, err := h.performance.BulkCalculatePerformance(startDate, endDate, periodType)
	if err != nil {
		h.logger.WithError(err).Error("Bulk calculation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Bulk calculation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          strconv.Itoa(processed) + " routes processed",
		"routes_processed": processed,
	})
}
