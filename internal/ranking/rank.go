package ranking

import (
	"errors"
	"sort"

	"run4recht/internal/activity"
)

var ErrNotFound = errors.New("subject has no ranking in this window")

// Total is one cohort member's step count over a window.
type Total struct {
	SubjectID int64 `json:"id"`
	Steps     int64 `json:"schritte"`
}

// Ranked is a Total with its 1-based position.
type Ranked struct {
	Total
	Rank int `json:"rang"`
}

// Position describes where a subject sits in a ranking. GapAhead is the number of steps
// missing to the member directly above, GapBehind the lead over the member directly below.
type Position struct {
	Rank       int   `json:"platz"`
	GapAhead   int64 `json:"abstand_nach_vorne"`
	GapBehind  int64 `json:"vorsprung_nach_hinten"`
	CohortSize int   `json:"teilnehmer"`
}

// Totals sums steps per employee, keeping the order in which employees first appear.
func Totals(records []activity.StatisticRecord) []Total {
	index := map[int64]int{}
	var out []Total
	for _, rec := range records {
		i, ok := index[rec.EmployeeID]
		if !ok {
			i = len(out)
			index[rec.EmployeeID] = i
			out = append(out, Total{SubjectID: rec.EmployeeID})
		}
		out[i].Steps += rec.Steps
	}
	return out
}

// Rank sorts a copy of totals by steps descending. Ties keep their input order.
func Rank(totals []Total) []Ranked {
	sorted := make([]Total, len(totals))
	copy(sorted, totals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Steps > sorted[j].Steps
	})
	out := make([]Ranked, len(sorted))
	for i, t := range sorted {
		out[i] = Ranked{Total: t, Rank: i + 1}
	}
	return out
}

// RankAndGapTo locates subjectID in the ranking of totals.
func RankAndGapTo(totals []Total, subjectID int64) (Position, error) {
	ranked := Rank(totals)
	idx := -1
	for i, r := range ranked {
		if r.SubjectID == subjectID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Position{}, ErrNotFound
	}
	pos := Position{Rank: idx + 1, CohortSize: len(ranked)}
	if idx > 0 {
		pos.GapAhead = ranked[idx-1].Steps - ranked[idx].Steps
	}
	if idx < len(ranked)-1 {
		pos.GapBehind = ranked[idx].Steps - ranked[idx+1].Steps
	}
	return pos, nil
}
