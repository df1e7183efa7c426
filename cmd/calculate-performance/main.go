package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/config"
	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"github.com/smarttransit/route-analytics-backend/internal/services"
)

// calculate-performance runs the bulk metric calculation for a date
// range and prints the top and bottom performers. Intended for cron.
func main() {
	startFlag := flag.String("start-date", "", "Start date in YYYY-MM-DD format (default: 30 days ago)")
	endFlag := flag.String("end-date", "", "End date in YYYY-MM-DD format (default: today)")
	periodFlag := flag.String("period", "daily", "Period type: daily, weekly or monthly")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	now := time.Now().UTC()
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startDate := endDate.AddDate(0, 0, -30)

	var err error
	if *startFlag != "" {
		startDate, err = time.Parse("2006-01-02", *startFlag)
		if err != nil {
			logger.Fatalf("Invalid start date: %v", err)
		}
	}
	if *endFlag != "" {
		endDate, err = time.Parse("2006-01-02", *endFlag)
		if err != nil {
			logger.Fatalf("Invalid end date: %v", err)
		}
	}

	periodType := models.PeriodType(*periodFlag)
	if !periodType.Valid() {
		logger.Fatalf("Invalid period type %q: must be daily, weekly or monthly", *periodFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}

	tripRepo := database.NewTripRepository(db)
	performanceRepo := database.NewPerformanceRepository(db)
	comparisonRepo := database.NewComparisonRepository(db)
	trendRepo := database.NewTrendRepository(db)

	comparisonSvc := services.NewComparisonService(performanceRepo, comparisonRepo, logger)
	performanceSvc := services.NewPerformanceService(tripRepo, performanceRepo, trendRepo, comparisonSvc, logger)

	logger.Infof("Starting performance calculation from %s to %s (%s)",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), periodType)

	processed, err := performanceSvc.BulkCalculatePerformance(startDate, endDate, periodType)
	if err != nil {
		logger.Fatalf("Error calculating performance: %v", err)
	}
	logger.Infof("Successfully processed %d routes", processed)

	top, err := performanceSvc.TopPerformers(5, startDate, endDate)
	if err != nil {
		logger.Fatalf("Failed to fetch top performers: %v", err)
	}
	bottom, err := performanceSvc.Underperformers(5, startDate, endDate)
	if err != nil {
		logger.Fatalf("Failed to fetch underperformers: %v", err)
	}

	fmt.Println("\nTop 5 Performers:")
	printSummaries(top)
	fmt.Println("\nBottom 5 Performers:")
	printSummaries(bottom)

	os.Exit(0)
}

func printSummaries(summaries []models.RouteSummary) {
	for i, route := range summaries {
		fmt.Printf("%d. Route %s: %.2f EPKM (%.2f revenue, %d trips)\n",
			i+1, route.RouteNo, route.AvgEPKM, route.TotalRevenue, route.TripCount)
	}
}
