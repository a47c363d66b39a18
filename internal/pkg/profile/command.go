package profile

import (
	"encoding/json"
	"fmt"
)

// Action is a single synchronous draft transition. User input maps onto one
// action each; network side effects are dispatched by the caller after the
// transition, never interleaved with it.
type Action interface {
	apply(d *Draft) error
}

func Apply(d *Draft, a Action) error {
	return a.apply(d)
}

type SetName struct {
	Name string `json:"name"`
}

func (a SetName) apply(d *Draft) error {
	d.Name = a.Name
	return nil
}

type SetPlacement struct {
	Coalition *OrgRef `json:"coalition"`
	Group     *OrgRef `json:"group"`
}

func (a SetPlacement) apply(d *Draft) error {
	d.Coalition = a.Coalition
	d.Group = a.Group
	return nil
}

type SetSensors struct {
	Sensors []SensorRef `json:"sensors"`
}

func (a SetSensors) apply(d *Draft) error {
	sensors := make([]SensorRef, len(a.Sensors))
	copy(sensors, a.Sensors)
	d.AssignedSensors = sensors
	return nil
}

type SetGeneral struct {
	Settings GeneralSettings `json:"settings"`
}

func (a SetGeneral) apply(d *Draft) error {
	d.General = a.Settings
	return nil
}

type SetSlotThreshold struct {
	Slot  int      `json:"slot"`
	Upper *float64 `json:"upper_threshold"`
	Lower *float64 `json:"lower_threshold"`
}

func (a SetSlotThreshold) apply(d *Draft) error {
	if a.Slot < 1 || a.Slot > NumThresholdSlots {
		return fmt.Errorf("measurement slot must be 1 through %d, got %d", NumThresholdSlots, a.Slot)
	}
	d.Threshold.Slots[a.Slot-1] = SlotThreshold{Upper: clonePtr(a.Upper), Lower: clonePtr(a.Lower)}
	return nil
}

type SetBatteryLevel struct {
	MinimumBatteryLevel *float64 `json:"minimum_battery_level"`
}

func (a SetBatteryLevel) apply(d *Draft) error {
	d.Battery.MinimumBatteryLevel = clonePtr(a.MinimumBatteryLevel)
	return nil
}

type SetOfflineTime struct {
	MaximumOfflineTime *float64 `json:"maximum_offline_time"`
}

func (a SetOfflineTime) apply(d *Draft) error {
	d.Connectivity.MaximumOfflineTime = clonePtr(a.MaximumOfflineTime)
	return nil
}

type SetDowntime struct {
	MaximumDowntime *float64 `json:"maximum_downtime"`
}

func (a SetDowntime) apply(d *Draft) error {
	d.NotReading.MaximumDowntime = clonePtr(a.MaximumDowntime)
	return nil
}

type AddTierTarget struct {
	Category Category `json:"category"`
	Level    int      `json:"level"`
	Target   Target   `json:"-"`
}

func (a AddTierTarget) apply(d *Draft) error {
	if a.Target == nil {
		return fmt.Errorf("no target supplied")
	}
	t, err := d.tier(a.Category, a.Level)
	if err != nil {
		return err
	}
	t.AddTarget(a.Target)
	return nil
}

type RemoveTierTarget struct {
	Category Category `json:"category"`
	Level    int      `json:"level"`
	Index    int      `json:"index"`
}

func (a RemoveTierTarget) apply(d *Draft) error {
	t, err := d.tier(a.Category, a.Level)
	if err != nil {
		return err
	}
	t.RemoveTarget(a.Index)
	return nil
}

type SetTierDelay struct {
	Category Category `json:"category"`
	Level    int      `json:"level"`
	Delay    string   `json:"delay"`
}

func (a SetTierDelay) apply(d *Draft) error {
	t, err := d.tier(a.Category, a.Level)
	if err != nil {
		return err
	}
	t.SetDelay(a.Delay)
	return nil
}

type ToggleTierChannel struct {
	Category Category `json:"category"`
	Level    int      `json:"level"`
	Index    int      `json:"index"`
	Channel  Channel  `json:"channel"`
}

func (a ToggleTierChannel) apply(d *Draft) error {
	t, err := d.tier(a.Category, a.Level)
	if err != nil {
		return err
	}
	if a.Index < 0 || a.Index >= len(t.Targets) {
		return fmt.Errorf("target index %d out of range", a.Index)
	}
	toggled, err := ToggleChannel(t.Targets[a.Index], a.Channel)
	if err != nil {
		return err
	}
	t.Targets[a.Index] = toggled
	return nil
}

type SetTierSchedule struct {
	Category     Category     `json:"category"`
	Level        int          `json:"level"`
	Index        int          `json:"index"`
	Schedule     string       `json:"schedule"`
	ScheduleDays WeekSchedule `json:"schedule_days"`
}

func (a SetTierSchedule) apply(d *Draft) error {
	t, err := d.tier(a.Category, a.Level)
	if err != nil {
		return err
	}
	if a.Index < 0 || a.Index >= len(t.Targets) {
		return fmt.Errorf("target index %d out of range", a.Index)
	}
	updated, err := setSchedule(t.Targets[a.Index], a.Schedule, a.ScheduleDays)
	if err != nil {
		return err
	}
	t.Targets[a.Index] = updated
	return nil
}

func setSchedule(target Target, schedule string, days WeekSchedule) (Target, error) {
	if schedule != ScheduleAllTheTime && schedule != ScheduleCustom {
		return nil, fmt.Errorf("unknown schedule %q", schedule)
	}
	c := target.clone()
	switch t := c.(type) {
	case *UserTarget:
		t.Schedule = schedule
		t.ScheduleDays = normalizedDays(schedule, days)
	case *IndividualTarget:
		t.Schedule = schedule
		t.ScheduleDays = normalizedDays(schedule, days)
	default:
		return nil, fmt.Errorf("schedules are not supported for %s targets", c.Kind())
	}
	return c, nil
}

func normalizedDays(schedule string, days WeekSchedule) WeekSchedule {
	if schedule != ScheduleCustom {
		return nil
	}
	if days == nil {
		return DefaultWeekSchedule()
	}
	return days.Normalize()
}

type NextStep struct{}

func (a NextStep) apply(d *Draft) error {
	if !d.IsValidForStep(d.Step) {
		return fmt.Errorf("step %d is not complete", d.Step)
	}
	if d.Step >= SubmitStep {
		return fmt.Errorf("already at the final step")
	}
	d.Step++
	return nil
}

type PrevStep struct{}

func (a PrevStep) apply(d *Draft) error {
	if d.Step <= FirstStep {
		return fmt.Errorf("already at the first step")
	}
	d.Step--
	return nil
}

const (
	actionSetName          = "set_name"
	actionSetPlacement     = "set_placement"
	actionSetSensors       = "set_sensors"
	actionSetGeneral       = "set_general"
	actionSetSlotThreshold = "set_slot_threshold"
	actionSetBatteryLevel  = "set_battery_level"
	actionSetOfflineTime   = "set_offline_time"
	actionSetDowntime      = "set_downtime"
	actionAddTarget        = "add_target"
	actionRemoveTarget     = "remove_target"
	actionSetDelay         = "set_delay"
	actionSetSchedule      = "set_schedule"
	actionToggleChannel    = "toggle_channel"
	actionNext             = "next"
	actionBack             = "back"
)

// DecodeAction turns a wire command {"action": ..., ...} into an Action.
func DecodeAction(data []byte) (Action, error) {
	var probe struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing command: %w", err)
	}

	switch probe.Action {
	case actionSetName:
		var a SetName
		return decodeInto(data, &a)
	case actionSetPlacement:
		var a SetPlacement
		return decodeInto(data, &a)
	case actionSetSensors:
		var a SetSensors
		return decodeInto(data, &a)
	case actionSetGeneral:
		var a SetGeneral
		return decodeInto(data, &a)
	case actionSetSlotThreshold:
		var a SetSlotThreshold
		return decodeInto(data, &a)
	case actionSetBatteryLevel:
		var a SetBatteryLevel
		return decodeInto(data, &a)
	case actionSetOfflineTime:
		var a SetOfflineTime
		return decodeInto(data, &a)
	case actionSetDowntime:
		var a SetDowntime
		return decodeInto(data, &a)
	case actionAddTarget:
		return decodeAddTarget(data)
	case actionRemoveTarget:
		var a RemoveTierTarget
		return decodeInto(data, &a)
	case actionSetDelay:
		var a SetTierDelay
		return decodeInto(data, &a)
	case actionSetSchedule:
		var a SetTierSchedule
		return decodeInto(data, &a)
	case actionToggleChannel:
		var a ToggleTierChannel
		return decodeInto(data, &a)
	case actionNext:
		return NextStep{}, nil
	case actionBack:
		return PrevStep{}, nil
	}
	return nil, fmt.Errorf("unknown action %q", probe.Action)
}

func decodeInto(data []byte, a Action) (Action, error) {
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("parsing %T: %w", a, err)
	}
	return a, nil
}

func decodeAddTarget(data []byte) (Action, error) {
	var wire struct {
		Category Category        `json:"category"`
		Level    int             `json:"level"`
		Target   json.RawMessage `json:"target"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parsing add_target: %w", err)
	}
	if len(wire.Target) == 0 {
		return nil, fmt.Errorf("add_target requires a target")
	}
	target, err := UnmarshalTarget(wire.Target)
	if err != nil {
		return nil, fmt.Errorf("parsing add_target target: %w", err)
	}
	if target.Kind() == KindList {
		return nil, fmt.Errorf("receiver lists cannot be added through this flow")
	}
	normalizeSchedule(target)
	return AddTierTarget{Category: wire.Category, Level: wire.Level, Target: target}, nil
}

// normalizeSchedule squares up custom schedules arriving over the wire before
// they enter the draft.
func normalizeSchedule(target Target) {
	switch t := target.(type) {
	case *UserTarget:
		t.ScheduleDays = normalizedDays(t.Schedule, t.ScheduleDays)
	case *IndividualTarget:
		t.ScheduleDays = normalizedDays(t.Schedule, t.ScheduleDays)
	}
}
