package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ComparisonEntry is one route's line in a comparison snapshot.
type ComparisonEntry struct {
	RouteNo      string  `json:"route_no"`
	AvgEPKM      float64 `json:"avg_epkm"`
	TotalRevenue float64 `json:"total_revenue"`
	TripCount    int     `json:"trip_count"`
}

// ComparisonEntryList is stored as a JSONB column.
type ComparisonEntryList []ComparisonEntry

// Value implements driver.Valuer.
func (l ComparisonEntryList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *ComparisonEntryList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, l)
	case string:
		return json.Unmarshal([]byte(data), l)
	default:
		return fmt.Errorf("cannot scan %T into ComparisonEntryList", value)
	}
}

// RouteComparison is the daily ranking snapshot, one row per date.
type RouteComparison struct {
	ID                    string              `json:"id" db:"id"`
	ComparisonDate        time.Time           `json:"comparison_date" db:"comparison_date"`
	BestPerformingRoutes  ComparisonEntryList `json:"best_performing_routes" db:"best_performing_routes"`
	UnderperformingRoutes ComparisonEntryList `json:"underperforming_routes" db:"underperforming_routes"`
	TotalRoutesAnalyzed   int                 `json:"total_routes_analyzed" db:"total_routes_analyzed"`
	IndustryAvgEPKM       *float64            `json:"industry_avg_epkm" db:"industry_avg_epkm"`
	CreatedAt             time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at" db:"updated_at"`
}
