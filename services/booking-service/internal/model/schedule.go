package model

type Service struct {
	ID              string
	Slug            string
	Name            string
	Description     string
	Price           string
	DurationMinutes int
	Active          bool
}

// WorkingHours for one weekday, 0 = Sunday.
type WorkingHours struct {
	Weekday int
	Open    string
	Close   string
	Active  bool
}

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}
