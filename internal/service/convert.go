package service

import (
	"time"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/models"
)

// dbDate maps a calendar day onto the UTC midnight stored in date columns.
func dbDate(d calendar.Date) time.Time {
	return d.Time(time.UTC)
}

func fromDBDate(t time.Time) calendar.Date {
	return calendar.FromTime(t.UTC())
}

func toRecord(st models.Statistic, name string) activity.StatisticRecord {
	id := st.ID
	return activity.StatisticRecord{
		ID:         &id,
		EmployeeID: int64(st.EmployeeID),
		Steps:      st.Steps,
		DistanceKm: st.DistanceKm,
		Date:       fromDBDate(st.Date),
		Name:       name,
	}
}

func toWindow(t models.TournamentInfo) activity.TournamentWindow {
	return activity.TournamentWindow{
		Title:       t.Title,
		Description: t.Description,
		Start:       fromDBDate(t.StartDate),
		End:         fromDBDate(t.EndDate),
	}
}

func clockOrNow(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
