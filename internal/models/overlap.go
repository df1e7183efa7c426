package models

import (
	"fmt"
	"strings"
	"time"
)

// defaultIntervalMinutes is the bucket size used when a request does
// not specify one.
const defaultIntervalMinutes = 30

// OverlapRecord is one bus operating on a route on a date, as
// materialized for overlap analysis. Keyed by
// (route_no, schedule_no, trip_no, selected_date); each analysis run
// replaces the full set for its route and date.
type OverlapRecord struct {
	RouteNo             string    `json:"route_no" db:"route_no"`
	ScheduleNo          string    `json:"schedule_no" db:"schedule_no"`
	TripNo              int       `json:"trip_no" db:"trip_no"`
	SelectedDate        time.Time `json:"selected_date" db:"selected_date"`
	StartTime           string    `json:"start_time" db:"start_time"`
	EndTime             string    `json:"end_time" db:"end_time"`
	ServiceType         string    `json:"service_type" db:"service_type"`
	EstimatedPassengers int       `json:"estimated_passengers" db:"estimated_passengers"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// Interval parses the record's operating interval.
func (r *OverlapRecord) Interval() (ClockTime, ClockTime, error) {
	start, err := ParseClockTime(r.StartTime)
	if err != nil {
		return ClockTime{}, ClockTime{}, err
	}
	end, err := ParseClockTime(r.EndTime)
	if err != nil {
		return ClockTime{}, ClockTime{}, err
	}
	return start, end, nil
}

// RouteAnalysis is one persisted overlap analysis run, keyed by
// (route_no, selected_date, time_period_start, time_period_end).
type RouteAnalysis struct {
	ID              string    `json:"id" db:"id"`
	RouteNo         string    `json:"route_no" db:"route_no"`
	SelectedDate    time.Time `json:"selected_date" db:"selected_date"`
	TimePeriodStart string    `json:"time_period_start" db:"time_period_start"`
	TimePeriodEnd   string    `json:"time_period_end" db:"time_period_end"`
	TotalBuses      int       `json:"total_buses" db:"total_buses"`
	OverlapScore    float64   `json:"overlap_score" db:"overlap_score"`
	AnalysisDate    time.Time `json:"analysis_date" db:"analysis_date"`
}

// OverlapInterval is one fixed-size bucket of the operating day with
// its concurrent bus count.
type OverlapInterval struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BusCount  int    `json:"bus_count"`
}

// BusDetail is one bus overlapping the requested window.
type BusDetail struct {
	ScheduleNo          string `json:"schedule_no"`
	TripNo              int    `json:"trip_no"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	ServiceType         string `json:"service_type"`
	EstimatedPassengers int    `json:"estimated_passengers"`
}

// OverlapSummary carries the derived statistics of one analysis run.
type OverlapSummary struct {
	PeakOverlap            int     `json:"peak_overlap"`
	AverageOverlap         float64 `json:"average_overlap"`
	PassengerOverlapImpact int     `json:"passenger_overlap_impact"`
	AvgPassengersPerBus    int     `json:"avg_passengers_per_bus"`
}

// OverlapAnalysisResult is the full response of an analysis run.
type OverlapAnalysisResult struct {
	RouteNo          string            `json:"route_no"`
	SelectedDate     string            `json:"selected_date"`
	TimePeriod       string            `json:"time_period"`
	TotalBuses       int               `json:"total_buses"`
	TotalPassengers  int               `json:"total_passengers"`
	OverlapIntervals []OverlapInterval `json:"overlap_intervals"`
	BusDetails       []BusDetail       `json:"bus_details"`
	AnalysisSummary  OverlapSummary    `json:"analysis_summary"`
}

// AnalyzeOverlapRequest is the body of the overlap analysis endpoint.
type AnalyzeOverlapRequest struct {
	RouteNo         string `json:"route_no"`
	SelectedDate    string `json:"selected_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	IntervalMinutes int    `json:"interval_minutes"`
}

// Validate checks the request, normalizes the route number to upper
// case, applies the default interval size and returns the parsed date
// and window.
func (r *AnalyzeOverlapRequest) Validate() (time.Time, ClockTime, ClockTime, error) {
	if r.RouteNo == "" || r.SelectedDate == "" || r.StartTime == "" || r.EndTime == "" {
		return time.Time{}, ClockTime{}, ClockTime{}, fmt.Errorf("route_no, selected_date, start_time and end_time are required")
	}

	r.RouteNo = strings.ToUpper(r.RouteNo)

	date, err := time.Parse("2006-01-02", r.SelectedDate)
	if err != nil {
		return time.Time{}, ClockTime{}, ClockTime{}, fmt.Errorf("invalid selected_date: use YYYY-MM-DD")
	}

	start, err := ParseClockTime(r.StartTime)
	if err != nil {
		return time.Time{}, ClockTime{}, ClockTime{}, fmt.Errorf("invalid start_time: %v", err)
	}
	end, err := ParseClockTime(r.EndTime)
	if err != nil {
		return time.Time{}, ClockTime{}, ClockTime{}, fmt.Errorf("invalid end_time: %v", err)
	}
	if !end.After(start) {
		return time.Time{}, ClockTime{}, ClockTime{}, fmt.Errorf("end_time must be after start_time")
	}

	if r.IntervalMinutes <= 0 {
		r.IntervalMinutes = defaultIntervalMinutes
	}

	return date, start, end, nil
}
