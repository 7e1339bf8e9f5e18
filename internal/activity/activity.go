package activity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"run4recht/internal/calendar"
)

// DefaultStepLengthKm is used when an employee has not configured a step length (80 cm).
var DefaultStepLengthKm = decimal.NewFromFloat(0.0008)

// StatisticRecord is one employee's activity for one calendar day.
type StatisticRecord struct {
	ID         *uint64         `json:"id"`
	EmployeeID int64           `json:"mitarbeiter_id"`
	Steps      int64           `json:"schritte"`
	DistanceKm decimal.Decimal `json:"strecke"`
	Date       calendar.Date   `json:"datum"`
	Name       string          `json:"name,omitempty"`
}

// PeriodStatistic assigns a step count to a whole period (manual entry).
type PeriodStatistic struct {
	EmployeeID int64           `json:"mitarbeiter_id"`
	Steps      int64           `json:"schritte"`
	DistanceKm decimal.Decimal `json:"strecke"`
	Start      calendar.Date   `json:"von_datum"`
	End        calendar.Date   `json:"bis_datum"`
}

func (p PeriodStatistic) Range() (calendar.Range, error) {
	return calendar.NewRange(p.Start, p.End)
}

// Distance converts a step count to kilometres. A non-positive step length falls back to the default.
func Distance(steps int64, stepLengthKm decimal.Decimal) decimal.Decimal {
	if !stepLengthKm.IsPositive() {
		stepLengthKm = DefaultStepLengthKm
	}
	if steps <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(steps).Mul(stepLengthKm)
}

// StepLengthKm converts a step length in centimetres to kilometres.
func StepLengthKm(cm int) decimal.Decimal {
	if cm <= 0 {
		return DefaultStepLengthKm
	}
	return decimal.NewFromInt(int64(cm)).Div(decimal.NewFromInt(100000))
}

type Trend string

const (
	TrendUnchanged Trend = "GLEICH"
	TrendImproved  Trend = "VERBESSERT"
	TrendWorsened  Trend = "VERSCHLECHTERT"
)

// TrendOf compares a current rank with the rank of a prior period. A missing prior rank (0) is unchanged.
func TrendOf(current, previous int) Trend {
	switch {
	case previous == 0 || current == previous:
		return TrendUnchanged
	case current < previous:
		return TrendImproved
	default:
		return TrendWorsened
	}
}

// RankingEntry is one subject (usually a department) in a ranking window.
type RankingEntry struct {
	SubjectID  int64         `json:"dienstelle_id"`
	Name       string        `json:"dienstelle_name"`
	TotalSteps int64         `json:"gesamt"`
	Rank       int           `json:"rang"`
	Date       calendar.Date `json:"datum"`
	Trend      Trend         `json:"trend"`
}

// TournamentWindow is the configured tournament period.
type TournamentWindow struct {
	Title       string        `json:"titel"`
	Description string        `json:"beschreibung"`
	Start       calendar.Date `json:"datum_beginn"`
	End         calendar.Date `json:"datum_ende"`
}

func (w TournamentWindow) Range() calendar.Range {
	return calendar.Range{Start: w.Start, End: w.End}
}

func (w TournamentWindow) Validate() error {
	if err := w.Range().Validate(); err != nil {
		return fmt.Errorf("tournament window: %w", err)
	}
	return nil
}
