package ranking

import (
	"github.com/shopspring/decimal"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
)

// FillMissingDays returns exactly one record per day of [start, end] in ascending order.
// Days without input are synthesized with zero steps and distance. When several records
// share a day the last one in input order wins. Records outside the range are dropped.
func FillMissingDays(start, end calendar.Date, records []activity.StatisticRecord) ([]activity.StatisticRecord, error) {
	r, err := calendar.NewRange(start, end)
	if err != nil {
		return nil, err
	}
	var employeeID int64
	byDay := make(map[calendar.Date]activity.StatisticRecord, len(records))
	for _, rec := range records {
		if employeeID == 0 {
			employeeID = rec.EmployeeID
		}
		if !r.Contains(rec.Date) {
			continue
		}
		byDay[rec.Date] = rec
	}

	out := make([]activity.StatisticRecord, 0, r.Len())
	for _, day := range r.Dates() {
		if rec, ok := byDay[day]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, activity.StatisticRecord{
			EmployeeID: employeeID,
			Steps:      0,
			DistanceKm: decimal.Zero,
			Date:       day,
		})
	}
	return out, nil
}

// Summary is the aggregate of a daily series.
type Summary struct {
	TotalSteps      int64           `json:"gesamt_schritte"`
	TotalDistanceKm decimal.Decimal `json:"gesamt_strecke"`
	AverageSteps    float64         `json:"durchschnitt_schritte"`
	Days            int             `json:"tage"`
}

// Summarize totals a series; the average is taken over the number of records given.
func Summarize(records []activity.StatisticRecord) Summary {
	s := Summary{TotalDistanceKm: decimal.Zero, Days: len(records)}
	for _, rec := range records {
		s.TotalSteps += rec.Steps
		s.TotalDistanceKm = s.TotalDistanceKm.Add(rec.DistanceKm)
	}
	if len(records) > 0 {
		s.AverageSteps = float64(s.TotalSteps) / float64(len(records))
	}
	return s
}
