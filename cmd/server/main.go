package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/config"
	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/smarttransit/route-analytics-backend/internal/handlers"
	"github.com/smarttransit/route-analytics-backend/internal/middleware"
	"github.com/smarttransit/route-analytics-backend/internal/services"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit Route Analytics Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}

	// Initialize repositories
	tripRepo := database.NewTripRepository(db)
	performanceRepo := database.NewPerformanceRepository(db)
	comparisonRepo := database.NewComparisonRepository(db)
	trendRepo := database.NewTrendRepository(db)
	overlapRepo := database.NewOverlapRepository(db)
	analysisRepo := database.NewAnalysisRepository(db)
	passengerRepo := database.NewPassengerRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	comparisonSvc := services.NewComparisonService(performanceRepo, comparisonRepo, logger)
	performanceSvc := services.NewPerformanceService(tripRepo, performanceRepo, trendRepo, comparisonSvc, logger)
	trendSvc := services.NewTrendService(trendRepo)
	estimator := services.NewHistoricalEstimator(
		tripRepo, passengerRepo,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		logger,
	)
	overlapSvc := services.NewOverlapService(tripRepo, overlapRepo, analysisRepo, estimator, logger)

	// Initialize handlers
	performanceHandler := handlers.NewPerformanceHandler(performanceSvc, trendSvc, tripRepo, cfg.Analytics, logger)
	comparisonHandler := handlers.NewComparisonHandler(comparisonSvc, logger)
	trendsHandler := handlers.NewTrendsHandler(trendSvc, logger)
	analyzerHandler := handlers.NewAnalyzerHandler(overlapSvc, logger)

	// Setup router
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "version": version})
	})

	v1 := router.Group("/api/v1")
	{
		performance := v1.Group("/performance")
		{
			performance.GET("", performanceHandler.GetPerformance)
			performance.GET("/top", performanceHandler.GetTopPerformers)
			performance.GET("/bottom", performanceHandler.GetUnderperformers)
			performance.GET("/routes/:route_no", performanceHandler.GetRouteDetail)
			performance.POST("/bulk-calculate", performanceHandler.BulkCalculate)
		}

		v1.GET("/comparison", comparisonHandler.GetComparison)
		v1.GET("/trends", trendsHandler.GetTrends)

		analyzer := v1.Group("/analyzer")
		{
			analyzer.POST("/overlap", analyzerHandler.AnalyzeOverlap)
			analyzer.GET("/history", analyzerHandler.GetHistory)
			analyzer.GET("/routes", analyzerHandler.GetRoutes)
		}
	}

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
