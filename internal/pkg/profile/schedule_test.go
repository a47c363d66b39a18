package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DefaultWeekSchedule(t *testing.T) {
	w := DefaultWeekSchedule()
	require.Len(t, w, 7)
	for _, day := range Weekdays {
		d, ok := w[day]
		require.True(t, ok)
		assert.False(t, d.Enabled)
		require.Len(t, d.Intervals, 1)
		assert.Equal(t, "00:00", d.Intervals[0].Start)
		assert.Equal(t, "23:59", d.Intervals[0].End)
	}
}

func Test_Normalize_FillsMissingDays(t *testing.T) {
	w := WeekSchedule{
		Monday: DaySchedule{Enabled: true, Intervals: []TimeInterval{{Enabled: true, Start: "08:00", End: "17:00"}}},
	}

	out := w.Normalize()
	require.Len(t, out, 7)
	assert.True(t, out[Monday].Enabled)
	assert.False(t, out[Tuesday].Enabled)
	// a filled-in day matches the default week's shape
	assert.Equal(t, DefaultWeekSchedule()[Tuesday], out[Tuesday])
}

func Test_Normalize_EmptyWeekMatchesDefault(t *testing.T) {
	assert.Equal(t, DefaultWeekSchedule(), WeekSchedule{}.Normalize())
}

func Test_Normalize_DropsUnknownKeysAndCapsIntervals(t *testing.T) {
	w := WeekSchedule{
		Friday: DaySchedule{Enabled: true, Intervals: []TimeInterval{
			{Start: "00:00", End: "06:00"},
			{Start: "06:00", End: "12:00"},
			{Start: "12:00", End: "18:00"},
			{Start: "18:00", End: "23:59"},
		}},
		Weekday("someday"): DaySchedule{Enabled: true},
	}

	out := w.Normalize()
	require.Len(t, out, 7)
	_, ok := out[Weekday("someday")]
	assert.False(t, ok)
	assert.Len(t, out[Friday].Intervals, 3)
}

func Test_SetTierSchedule(t *testing.T) {
	d := NewDraft()
	require.NoError(t, Apply(d, AddTierTarget{Category: CategoryThreshold, Level: 1, Target: &UserTarget{Username: "jdoe", Email: "j@x.com", Schedule: ScheduleAllTheTime}}))

	require.NoError(t, Apply(d, SetTierSchedule{Category: CategoryThreshold, Level: 1, Index: 0, Schedule: ScheduleCustom}))
	target := d.Threshold.Ladder[0].Targets[0].(*UserTarget)
	assert.Equal(t, ScheduleCustom, target.Schedule)
	require.Len(t, target.ScheduleDays, 7)

	require.NoError(t, Apply(d, SetTierSchedule{Category: CategoryThreshold, Level: 1, Index: 0, Schedule: ScheduleAllTheTime}))
	target = d.Threshold.Ladder[0].Targets[0].(*UserTarget)
	assert.Nil(t, target.ScheduleDays)

	assert.Error(t, Apply(d, SetTierSchedule{Category: CategoryThreshold, Level: 1, Index: 5, Schedule: ScheduleCustom}))
	assert.Error(t, Apply(d, SetTierSchedule{Category: CategoryThreshold, Level: 1, Index: 0, Schedule: "sometimes"}))
}

func Test_SetTierSchedule_RelayRejected(t *testing.T) {
	d := NewDraft()
	require.NoError(t, Apply(d, AddTierTarget{Category: CategoryBattery, Level: 2, Target: &RelayTarget{SensorID: "s-1"}}))

	err := Apply(d, SetTierSchedule{Category: CategoryBattery, Level: 2, Index: 0, Schedule: ScheduleCustom})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func Test_DecodeAction_SetSchedule(t *testing.T) {
	raw := `{"action":"set_schedule","category":"threshold","level":1,"index":0,"schedule":"custom","schedule_days":{"monday":{"enabled":true,"intervals":[{"enabled":true,"start":"08:00","end":"17:00"}]}}}`
	a, err := DecodeAction([]byte(raw))
	require.NoError(t, err)
	sched, ok := a.(*SetTierSchedule)
	require.True(t, ok)
	assert.Equal(t, ScheduleCustom, sched.Schedule)
	assert.True(t, sched.ScheduleDays[Monday].Enabled)
}

func Test_ReceiverSummaries(t *testing.T) {
	d := NewDraft()
	require.NoError(t, Apply(d, AddTierTarget{Category: CategoryThreshold, Level: 1, Target: &UserTarget{Username: "jdoe", Email: "j@x.com"}}))

	s := d.ReceiverSummaries()
	require.Len(t, s, 4)
	require.Len(t, s[CategoryThreshold], 4)
	require.Len(t, s[CategoryThreshold][0], 1)
	assert.Equal(t, "jdoe", s[CategoryThreshold][0][0].Label)
	assert.Empty(t, s[CategoryThreshold][1])
	assert.Empty(t, s[CategoryBattery][0])
}

func Test_Normalize_CopiesIntervals(t *testing.T) {
	w := WeekSchedule{
		Monday: DaySchedule{Enabled: true, Intervals: []TimeInterval{{Start: "08:00", End: "17:00"}}},
	}

	out := w.Normalize()
	out[Monday].Intervals[0].Start = "09:00"
	assert.Equal(t, "08:00", w[Monday].Intervals[0].Start)
}
