package profile

const (
	ScheduleAllTheTime = "all_the_time"
	ScheduleCustom     = "custom"

	maxIntervalsPerDay = 3
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays is the closed set of valid schedule_days keys, in display order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

type TimeInterval struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type DaySchedule struct {
	Enabled   bool           `json:"enabled"`
	Intervals []TimeInterval `json:"intervals"`
}

// WeekSchedule always carries exactly the seven weekday keys. Any other key
// is dropped on normalization.
type WeekSchedule map[Weekday]DaySchedule

// defaultDay is the canonical disabled day: one disabled full-day interval.
func defaultDay() DaySchedule {
	return DaySchedule{
		Enabled:   false,
		Intervals: []TimeInterval{{Enabled: false, Start: "00:00", End: "23:59"}},
	}
}

func DefaultWeekSchedule() WeekSchedule {
	w := make(WeekSchedule, len(Weekdays))
	for _, day := range Weekdays {
		w[day] = defaultDay()
	}
	return w
}

// Normalize returns a copy restricted to the seven weekday keys, with missing
// days filled in disabled and interval lists capped at three entries.
func (w WeekSchedule) Normalize() WeekSchedule {
	out := make(WeekSchedule, len(Weekdays))
	for _, day := range Weekdays {
		d, ok := w[day]
		if !ok {
			out[day] = defaultDay()
			continue
		}
		intervals := d.Intervals
		if len(intervals) > maxIntervalsPerDay {
			intervals = intervals[:maxIntervalsPerDay]
		}
		copied := make([]TimeInterval, len(intervals))
		copy(copied, intervals)
		out[day] = DaySchedule{Enabled: d.Enabled, Intervals: copied}
	}
	return out
}

func (w WeekSchedule) clone() WeekSchedule {
	if w == nil {
		return nil
	}
	out := make(WeekSchedule, len(w))
	for day, d := range w {
		copied := make([]TimeInterval, len(d.Intervals))
		copy(copied, d.Intervals)
		out[day] = DaySchedule{Enabled: d.Enabled, Intervals: copied}
	}
	return out
}
