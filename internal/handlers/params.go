package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// dateRangeFromQuery reads start_date/end_date query parameters,
// defaulting to the trailing defaultDays window ending today. Ranges
// wider than maxDays are clamped to bound query cost.
func dateRangeFromQuery(c *gin.Context, defaultDays, maxDays int) (start, end time.Time, err error) {
	now := time.Now().UTC()
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, 0, -defaultDays)

	if value := c.Query("start_date"); value != "" {
		start, err = time.Parse("2006-01-02", value)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date format, use YYYY-MM-DD")
		}
	}
	if value := c.Query("end_date"); value != "" {
		end, err = time.Parse("2006-01-02", value)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date format, use YYYY-MM-DD")
		}
	}

	if end.Before(start) {
		return start, end, fmt.Errorf("end_date must not be before start_date")
	}

	if maxDays > 0 && end.Sub(start) > time.Duration(maxDays)*24*time.Hour {
		start = end.AddDate(0, 0, -maxDays)
	}

	return start, end, nil
}
