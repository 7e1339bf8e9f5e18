package calendar

import (
	"errors"
	"fmt"
)

var ErrInvalidRange = errors.New("invalid date range")

// Range is an inclusive span of calendar days. The JSON shape matches the
// {"von_datum", "bis_datum"} period bodies used by the API.
type Range struct {
	Start Date `json:"von_datum"`
	End   Date `json:"bis_datum"`
}

func NewRange(start, end Date) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

func Day(d Date) Range {
	return Range{Start: d, End: d}
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: missing bound", ErrInvalidRange)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s after %s", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Len is the number of days in r, 0 for an invalid range.
func (r Range) Len() int {
	if r.Validate() != nil {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Dates lists every day of r in ascending order.
func (r Range) Dates() []Date {
	n := r.Len()
	out := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.Start.AddDays(i))
	}
	return out
}

// Previous is the window of equal length that ends the day before r starts.
func (r Range) Previous() Range {
	n := r.Len()
	if n == 0 {
		return Range{}
	}
	return Range{Start: r.Start.AddDays(-n), End: r.Start.AddDays(-1)}
}

// Clip intersects r with o. ok is false when they do not overlap.
func (r Range) Clip(o Range) (Range, bool) {
	out := Range{Start: Max(r.Start, o.Start), End: Min(r.End, o.End)}
	if out.End.Before(out.Start) {
		return Range{}, false
	}
	return out, true
}

// Month returns the calendar month containing d.
func Month(d Date) Range {
	first := New(d.Year, d.Month, 1)
	return Range{Start: first, End: New(d.Year, d.Month+1, 1).AddDays(-1)}
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
