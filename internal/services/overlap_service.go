package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-analytics-backend/internal/database"
	"github.com/smarttransit/route-analytics-backend/internal/models"
	"gonum.org/v1/gonum/stat"
)

// analysisHistorySize is how many prior analysis runs the history
// endpoint reports.
const analysisHistorySize = 10

// OverlapService computes time-bucketed counts of concurrently
// operating buses on a route and persists the per-run summaries.
type OverlapService struct {
	trips     *database.TripRepository
	overlaps  *database.OverlapRepository
	analyses  *database.AnalysisRepository
	estimator PassengerEstimator
	logger    *logrus.Logger
}

// NewOverlapService creates a new OverlapService
func NewOverlapService(
	trips *database.TripRepository,
	overlaps *database.OverlapRepository,
	analyses *database.AnalysisRepository,
	estimator PassengerEstimator,
	logger *logrus.Logger,
) *OverlapService {
	return &OverlapService{
		trips:     trips,
		overlaps:  overlaps,
		analyses:  analyses,
		estimator: estimator,
		logger:    logger,
	}
}

// AnalyzeRouteOverlap runs a full overlap analysis: it materializes the
// buses operating on the route and date, buckets the day into
// fixed-size sub-intervals, counts concurrent buses per bucket, and
// upserts the summary for the requested window.
func (s *OverlapService) AnalyzeRouteOverlap(req *models.AnalyzeOverlapRequest) (*models.OverlapAnalysisResult, error) {
	date, windowStart, windowEnd, err := req.Validate()
	if err != nil {
		return nil, err
	}

	records, err := s.resolveBuses(req.RouteNo, date)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	if err := s.overlaps.ReplaceForRouteDate(req.RouteNo, date, records); err != nil {
		return nil, err
	}

	stored, err := s.overlaps.GetByRouteDate(req.RouteNo, date)
	if err != nil {
		return nil, err
	}

	intervals, err := OverlapIntensity(stored, req.IntervalMinutes)
	if err != nil {
		return nil, err
	}

	filtered := filterIntervals(intervals, windowStart, windowEnd)

	busDetails, totalPassengers, err := overlappingBuses(stored, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	score := 0.0
	if len(filtered) > 0 {
		counts := make([]float64, len(filtered))
		for i, interval := range filtered {
			counts[i] = float64(interval.BusCount)
		}
		score = stat.Mean(counts, nil)
	}

	analysis := &models.RouteAnalysis{
		RouteNo:         req.RouteNo,
		SelectedDate:    date,
		TimePeriodStart: windowStart.DBString(),
		TimePeriodEnd:   windowEnd.DBString(),
		TotalBuses:      len(busDetails),
		OverlapScore:    score,
	}
	if err := s.analyses.Upsert(analysis); err != nil {
		return nil, err
	}

	return &models.OverlapAnalysisResult{
		RouteNo:          req.RouteNo,
		SelectedDate:     req.SelectedDate,
		TimePeriod:       fmt.Sprintf("%s - %s", windowStart, windowEnd),
		TotalBuses:       len(busDetails),
		TotalPassengers:  totalPassengers,
		OverlapIntervals: filtered,
		BusDetails:       busDetails,
		AnalysisSummary:  buildSummary(filtered, busDetails, totalPassengers),
	}, nil
}

// AnalysisHistory returns the most recent analysis summaries,
// newest first.
func (s *OverlapService) AnalysisHistory() ([]models.RouteAnalysis, error) {
	return s.analyses.GetRecent(analysisHistorySize)
}

// RouteNumbers lists the routes available for analysis.
func (s *OverlapService) RouteNumbers() ([]string, error) {
	return s.trips.GetRouteNumbers()
}

// resolveBuses builds the overlap records for a route and date.
// Recorded trips are preferred; when none exist for the date the raw
// schedule table stands in, which keeps the analysis usable before
// trip data is recorded. Entries without both start and end times are
// skipped.
func (s *OverlapService) resolveBuses(routeNo string, date time.Time) ([]models.OverlapRecord, error) {
	trips, err := s.trips.GetTripsForRouteAndDate(routeNo, date)
	if err != nil {
		return nil, err
	}

	records := []models.OverlapRecord{}

	if len(trips) > 0 {
		for _, trip := range trips {
			if trip.StartTime == nil || trip.EndTime == nil {
				continue
			}
			record, err := s.buildRecord(routeNo, date, trip.ScheduleNo, trip.TripNo,
				*trip.StartTime, *trip.EndTime, trip.ServiceType)
			if err != nil {
				s.logger.WithError(err).WithField("schedule_no", trip.ScheduleNo).
					Warn("Skipping trip with unparsable times")
				continue
			}
			records = append(records, record)
		}
		return records, nil
	}

	schedules, err := s.trips.GetSchedulesByRoute(routeNo)
	if err != nil {
		return nil, err
	}
	for _, schedule := range schedules {
		if schedule.StartTime == nil || schedule.EndTime == nil {
			continue
		}
		record, err := s.buildRecord(routeNo, date, schedule.ScheduleNo, schedule.TripNo,
			*schedule.StartTime, *schedule.EndTime, schedule.ServiceType)
		if err != nil {
			s.logger.WithError(err).WithField("schedule_no", schedule.ScheduleNo).
				Warn("Skipping schedule with unparsable times")
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func (s *OverlapService) buildRecord(routeNo string, date time.Time, scheduleNo string, tripNo int, startRaw, endRaw, serviceType string) (models.OverlapRecord, error) {
	start, err := models.ParseClockTime(startRaw)
	if err != nil {
		return models.OverlapRecord{}, err
	}
	end, err := models.ParseClockTime(endRaw)
	if err != nil {
		return models.OverlapRecord{}, err
	}

	passengers := s.estimator.Estimate(routeNo, date, start, end)

	return models.OverlapRecord{
		RouteNo:             routeNo,
		ScheduleNo:          scheduleNo,
		TripNo:              tripNo,
		SelectedDate:        date,
		StartTime:           start.DBString(),
		EndTime:             end.DBString(),
		ServiceType:         serviceType,
		EstimatedPassengers: passengers,
	}, nil
}

// OverlapIntensity partitions the operating span of the day (earliest
// start to latest end across all buses) into fixed-size sub-intervals
// and counts, per sub-interval, the buses whose operating interval
// strictly overlaps it. Intervals are half-open: buses touching only
// at an endpoint do not overlap.
func OverlapIntensity(records []models.OverlapRecord, intervalMinutes int) ([]models.OverlapInterval, error) {
	if len(records) == 0 {
		return []models.OverlapInterval{}, nil
	}

	type span struct {
		start, end models.ClockTime
	}
	spans := make([]span, 0, len(records))

	first := true
	var earliest, latest models.ClockTime
	for i := range records {
		start, end, err := records[i].Interval()
		if err != nil {
			return nil, err
		}
		spans = append(spans, span{start: start, end: end})
		if first || start.Before(earliest) {
			earliest = start
		}
		if first || end.After(latest) {
			latest = end
		}
		first = false
	}

	intervals := []models.OverlapInterval{}
	for current := earliest; current.Before(latest); current = current.Add(intervalMinutes) {
		intervalEnd := current.Add(intervalMinutes)

		count := 0
		for _, sp := range spans {
			if sp.start.Overlaps(sp.end, current, intervalEnd) {
				count++
			}
		}

		intervals = append(intervals, models.OverlapInterval{
			StartTime: current.String(),
			EndTime:   intervalEnd.String(),
			BusCount:  count,
		})
	}

	return intervals, nil
}

// filterIntervals keeps sub-intervals fully contained within the
// requested window.
func filterIntervals(intervals []models.OverlapInterval, windowStart, windowEnd models.ClockTime) []models.OverlapInterval {
	filtered := []models.OverlapInterval{}
	for _, interval := range intervals {
		start, err := models.ParseClockTime(interval.StartTime)
		if err != nil {
			continue
		}
		end, err := models.ParseClockTime(interval.EndTime)
		if err != nil {
			continue
		}
		if !start.Before(windowStart) && !end.After(windowEnd) {
			filtered = append(filtered, interval)
		}
	}
	return filtered
}

// overlappingBuses returns the buses whose operating interval overlaps
// the requested window, ordered by start time, plus their total
// estimated passengers.
func overlappingBuses(records []models.OverlapRecord, windowStart, windowEnd models.ClockTime) ([]models.BusDetail, int, error) {
	details := []models.BusDetail{}
	total := 0

	for i := range records {
		start, end, err := records[i].Interval()
		if err != nil {
			return nil, 0, err
		}
		if !start.Overlaps(end, windowStart, windowEnd) {
			continue
		}
		details = append(details, models.BusDetail{
			ScheduleNo:          records[i].ScheduleNo,
			TripNo:              records[i].TripNo,
			StartTime:           start.String(),
			EndTime:             end.String(),
			ServiceType:         records[i].ServiceType,
			EstimatedPassengers: records[i].EstimatedPassengers,
		})
		total += records[i].EstimatedPassengers
	}

	return details, total, nil
}

// buildSummary derives the run statistics. passenger_overlap_impact is
// the excess passenger load beyond what the single largest bus could
// have carried alone; it is zero whenever at most one bus overlaps.
func buildSummary(intervals []models.OverlapInterval, buses []models.BusDetail, totalPassengers int) models.OverlapSummary {
	summary := models.OverlapSummary{}

	if len(intervals) > 0 {
		sum := 0
		for _, interval := range intervals {
			if interval.BusCount > summary.PeakOverlap {
				summary.PeakOverlap = interval.BusCount
			}
			sum += interval.BusCount
		}
		summary.AverageOverlap = float64(sum) / float64(len(intervals))
	}

	if len(buses) > 1 {
		maxPassengers := 0
		for _, bus := range buses {
			if bus.EstimatedPassengers > maxPassengers {
				maxPassengers = bus.EstimatedPassengers
			}
		}
		summary.PassengerOverlapImpact = totalPassengers - maxPassengers
	}

	if len(buses) > 0 {
		summary.AvgPassengersPerBus = totalPassengers / len(buses)
	}

	return summary
}
