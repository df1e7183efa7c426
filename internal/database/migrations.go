package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// migrations are idempotent DDL statements for the tables owned by the
// analytics service. The trip/schedule/passenger-count tables belong to
// the scheduling system and are never created here.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS route_performance_metrics (
		id UUID PRIMARY KEY,
		route_no VARCHAR(20) NOT NULL,
		period_type VARCHAR(10) NOT NULL,
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		avg_epkm NUMERIC(10,2),
		total_revenue NUMERIC(12,2) NOT NULL DEFAULT 0,
		total_km NUMERIC(10,2) NOT NULL DEFAULT 0,
		trip_count INTEGER NOT NULL DEFAULT 0,
		performance_rank INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (route_no, period_type, period_start, period_end)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_performance_route_period
		ON route_performance_metrics (route_no, period_type)`,
	`CREATE INDEX IF NOT EXISTS idx_performance_avg_epkm
		ON route_performance_metrics (avg_epkm)`,
	`CREATE TABLE IF NOT EXISTS route_comparisons (
		id UUID PRIMARY KEY,
		comparison_date DATE NOT NULL UNIQUE,
		best_performing_routes JSONB NOT NULL DEFAULT '[]',
		underperforming_routes JSONB NOT NULL DEFAULT '[]',
		total_routes_analyzed INTEGER NOT NULL DEFAULT 0,
		industry_avg_epkm NUMERIC(10,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS route_performance_trends (
		route_no VARCHAR(20) NOT NULL,
		trend_date DATE NOT NULL,
		epkm NUMERIC(10,2) NOT NULL,
		revenue NUMERIC(12,2) NOT NULL,
		trip_count INTEGER NOT NULL,
		epkm_trend VARCHAR(20),
		performance_category VARCHAR(20),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (route_no, trend_date)
	)`,
	`CREATE TABLE IF NOT EXISTS bus_overlap_data (
		route_no VARCHAR(20) NOT NULL,
		schedule_no VARCHAR(20) NOT NULL,
		trip_no INTEGER NOT NULL,
		selected_date DATE NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NOT NULL,
		service_type VARCHAR(50) NOT NULL,
		estimated_passengers INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (route_no, schedule_no, trip_no, selected_date)
	)`,
	`CREATE TABLE IF NOT EXISTS route_analyses (
		id UUID PRIMARY KEY,
		route_no VARCHAR(20) NOT NULL,
		selected_date DATE NOT NULL,
		time_period_start TIME NOT NULL,
		time_period_end TIME NOT NULL,
		total_buses INTEGER NOT NULL DEFAULT 0,
		overlap_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		analysis_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (route_no, selected_date, time_period_start, time_period_end)
	)`,
}

// RunMigrations applies the schema for the analytics-owned tables.
func RunMigrations(db DB, logger *logrus.Logger) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	logger.Infof("Applied %d schema migrations", len(migrations))
	return nil
}
