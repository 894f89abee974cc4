package analytics

import "github.com/penwyp/go-sleep-monitor/internal/core/model"

// Summarize computes window statistics. Days without sleep are excluded from
// every average. Clock times are averaged arithmetically, so bedtimes that
// straddle midnight (23:00 and 01:00) average to midday.
func Summarize(series []model.ChartDataPoint) model.StatisticsSummary {
	var summary model.StatisticsSummary

	var durationSum, sleepSum, wakeSum float64
	var sleepCount, wakeCount int

	for _, p := range series {
		if !p.HasData() {
			continue
		}
		summary.TotalSleepDays++
		durationSum += p.TotalDurationHours

		if p.SleepHour != nil {
			sleepSum += *p.SleepHour
			sleepCount++
		}
		if p.WakeHour != nil {
			wakeSum += *p.WakeHour
			wakeCount++
		}
	}

	if summary.TotalSleepDays == 0 {
		return summary
	}

	summary.AverageDurationHours = durationSum / float64(summary.TotalSleepDays)
	if sleepCount > 0 {
		avg := sleepSum / float64(sleepCount)
		summary.AverageSleepHour = &avg
	}
	if wakeCount > 0 {
		avg := wakeSum / float64(wakeCount)
		summary.AverageWakeHour = &avg
	}
	return summary
}
