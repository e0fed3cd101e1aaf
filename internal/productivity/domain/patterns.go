package productivity

import "time"

// WeeklyUtilization is the billable ratio of one Monday-anchored week.
type WeeklyUtilization struct {
	WeekStart   time.Time `json:"week_start"`
	Utilization float64   `json:"utilization"`
}

// WorkingPatternAnalysis summarizes a set of working days.
type WorkingPatternAnalysis struct {
	TotalDays             float64             `json:"total_days"`
	AverageHoursPerDay    float64             `json:"average_hours_per_day"`
	AverageBillableRatio  float64             `json:"average_billable_ratio"`
	PeakProductivityDay   *time.Time          `json:"peak_productivity_day,omitempty"`
	TotalRevenueCents     int64               `json:"total_revenue_cents"`
	AverageDailyRateCents int64               `json:"average_daily_rate_cents"`
	UtilizationTrends     []WeeklyUtilization `json:"utilization_trends"`
}

// AnalyzeWorkingPatterns computes averages, the peak day and weekly trends.
// Weeks are grouped while walking days in input order, so callers pass days
// sorted by date. Among equal ratios the last day wins the peak.
func AnalyzeWorkingPatterns(days []WorkingDay) WorkingPatternAnalysis {
	if len(days) == 0 {
		return WorkingPatternAnalysis{UtilizationTrends: []WeeklyUtilization{}}
	}

	var totalHours, totalBillable float64
	var revenue int64
	peak := 0
	for i, d := range days {
		totalHours += d.HoursWorked
		totalBillable += d.BillableHours
		revenue += d.RevenueCents()
		if d.BillableRatio() >= days[peak].BillableRatio() {
			peak = i
		}
	}
	count := float64(len(days))
	analysis := WorkingPatternAnalysis{
		TotalDays:             count,
		AverageHoursPerDay:    totalHours / count,
		TotalRevenueCents:     revenue,
		AverageDailyRateCents: int64(float64(revenue) / count),
		UtilizationTrends:     weeklyTrend(days),
	}
	if totalHours > 0 {
		analysis.AverageBillableRatio = totalBillable / totalHours
	}
	peakDate := days[peak].Date
	analysis.PeakProductivityDay = &peakDate
	return analysis
}

func weeklyTrend(days []WorkingDay) []WeeklyUtilization {
	trend := []WeeklyUtilization{}
	var week time.Time
	var hours, billable float64
	open := false
	flush := func() {
		if !open {
			return
		}
		var util float64
		if hours > 0 {
			util = billable / hours
		}
		trend = append(trend, WeeklyUtilization{WeekStart: week, Utilization: util})
	}
	for _, d := range days {
		start := WeekStart(d.Date)
		if !open || !start.Equal(week) {
			flush()
			week, hours, billable, open = start, 0, 0, true
		}
		hours += d.HoursWorked
		billable += d.BillableHours
	}
	flush()
	return trend
}

// WorkingDaysStats totals a date range of working days.
type WorkingDaysStats struct {
	From                   time.Time `json:"from"`
	To                     time.Time `json:"to"`
	Days                   int       `json:"days"`
	TotalHours             float64   `json:"total_hours"`
	BillableHours          float64   `json:"billable_hours"`
	TotalRevenueCents      int64     `json:"total_revenue_cents"`
	AverageHourlyRateCents int64     `json:"average_hourly_rate_cents"`
	UtilizationRate        float64   `json:"utilization_rate"`
}

// ComputeWorkingDaysStats aggregates the days falling within [from, to].
func ComputeWorkingDaysStats(days []WorkingDay, from, to time.Time) WorkingDaysStats {
	stats := WorkingDaysStats{From: from, To: to}
	for _, d := range days {
		if d.Date.Before(from) || d.Date.After(to) {
			continue
		}
		stats.Days++
		stats.TotalHours += d.HoursWorked
		stats.BillableHours += d.BillableHours
		stats.TotalRevenueCents += d.RevenueCents()
	}
	if stats.BillableHours > 0 {
		stats.AverageHourlyRateCents = int64(float64(stats.TotalRevenueCents) / stats.BillableHours)
	}
	if stats.TotalHours > 0 {
		stats.UtilizationRate = stats.BillableHours / stats.TotalHours
	}
	return stats
}
