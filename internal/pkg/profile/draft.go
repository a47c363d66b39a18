package profile

import (
	"fmt"
	"strconv"
)

const (
	NumThresholdSlots = 25

	FirstStep  = 0
	SubmitStep = 6

	// DelayNever and DelayImmediately are the sentinel values of
	// delay_before_repeating; anything positive is minutes.
	DelayNever       = -1
	DelayImmediately = 0

	minNameLength = 4
)

type Category string

const (
	CategoryThreshold    Category = "threshold"
	CategoryBattery      Category = "battery"
	CategoryConnectivity Category = "connectivity"
	CategoryNotReading   Category = "not_reading"
)

var Categories = []Category{CategoryThreshold, CategoryBattery, CategoryConnectivity, CategoryNotReading}

type OrgRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SensorRef struct {
	SensorID   string `json:"sensor_id"`
	SensorName string `json:"sensor_name"`
	SensorType string `json:"sensor_type"`
}

type GeneralSettings struct {
	Enabled              bool `json:"enabled"`
	DelayBeforeRepeating int  `json:"delay_before_repeating"`
	SendAcknowledgment   bool `json:"send_acknowledgment"`
	RecoveryTime         int  `json:"recovery_time"`
	AutomaticallyClose   bool `json:"automatically_close"`
}

// SlotThreshold is one of the 25 measurement-slot threshold pairs. Nil means
// no bound configured on that side.
type SlotThreshold struct {
	Upper *float64 `json:"upper_threshold"`
	Lower *float64 `json:"lower_threshold"`
}

func (s SlotThreshold) clone() SlotThreshold {
	return SlotThreshold{Upper: clonePtr(s.Upper), Lower: clonePtr(s.Lower)}
}

type ThresholdBlock struct {
	Slots  [NumThresholdSlots]SlotThreshold `json:"slots"`
	Ladder Ladder                           `json:"escalations"`
}

type BatteryBlock struct {
	MinimumBatteryLevel *float64 `json:"minimum_battery_level"`
	Ladder              Ladder   `json:"escalations"`
}

type ConnectivityBlock struct {
	MaximumOfflineTime *float64 `json:"maximum_offline_time"`
	Ladder             Ladder   `json:"escalations"`
}

type NotReadingBlock struct {
	MaximumDowntime *float64 `json:"maximum_downtime"`
	Ladder          Ladder   `json:"escalations"`
}

// Draft is the in-progress alarm profile: the single source of truth for the
// wizard, created empty, optionally populated from a fetched profile in edit
// mode, mutated through Apply, and consumed once by the payload assembler.
type Draft struct {
	Step            int               `json:"step"`
	Name            string            `json:"name"`
	Coalition       *OrgRef           `json:"coalition"`
	Group           *OrgRef           `json:"group"`
	AssignedSensors []SensorRef       `json:"assigned_sensors"`
	General         GeneralSettings   `json:"general_settings"`
	Threshold       ThresholdBlock    `json:"threshold"`
	Battery         BatteryBlock      `json:"battery"`
	Connectivity    ConnectivityBlock `json:"connectivity"`
	NotReading      NotReadingBlock   `json:"not_reading"`
}

func NewDraft() *Draft {
	d := &Draft{}
	d.Reset()
	return d
}

// Reset restores every field to its default: step 0, no name, no org
// placement, no sensors, default general settings, four empty tiers per
// category. Called both for a fresh add flow and on entering edit mode.
func (d *Draft) Reset() {
	*d = Draft{
		Step:            FirstStep,
		Name:            "",
		Coalition:       nil,
		Group:           nil,
		AssignedSensors: []SensorRef{},
		General: GeneralSettings{
			Enabled:              true,
			DelayBeforeRepeating: DelayNever,
			SendAcknowledgment:   false,
			RecoveryTime:         0,
			AutomaticallyClose:   false,
		},
		Threshold:    ThresholdBlock{Ladder: emptyLadder()},
		Battery:      BatteryBlock{Ladder: emptyLadder()},
		Connectivity: ConnectivityBlock{Ladder: emptyLadder()},
		NotReading:   NotReadingBlock{Ladder: emptyLadder()},
	}
}

// ServerProfile is the alarm_profiles/details response shape.
type ServerProfile struct {
	ID                   int64            `json:"id"`
	Name                 string           `json:"name"`
	Enabled              bool             `json:"enabled"`
	DelayBeforeRepeating int              `json:"delay_before_repeating"`
	RecoveryTime         int              `json:"recovery_time"`
	SendAcknowledgment   bool             `json:"send_acknowledgment"`
	AutomaticallyClose   bool             `json:"automatically_close"`
	Group                *OrgRef          `json:"group"`
	Coalition            *OrgRef          `json:"coalition"`
	Sensors              []SensorRef      `json:"sensors"`
	Escalations          []*Tier          `json:"escalations"`
	Thresholds           ServerThresholds `json:"thresholds"`
}

type ServerThresholds struct {
	LowBattery     *float64              `json:"lowbattery"`
	Connectivity   *float64              `json:"connectivity"`
	NotReadingData *float64              `json:"notreadingdata"`
	Data           map[string]ServerSlot `json:"data"`
}

type ServerSlot struct {
	Upper *float64 `json:"upper"`
	Lower *float64 `json:"lower"`
}

// LoadFromServer maps a fetched profile into the draft. The server stores one
// flat escalation ladder per profile, so the resolved four tiers seed all four
// category blocks; each block receives its own deep copy so later edits to one
// category never leak into another.
func (d *Draft) LoadFromServer(sp ServerProfile) {
	d.Name = sp.Name
	d.Coalition = sp.Coalition
	d.Group = sp.Group

	d.AssignedSensors = make([]SensorRef, len(sp.Sensors))
	copy(d.AssignedSensors, sp.Sensors)

	d.General = GeneralSettings{
		Enabled:              sp.Enabled,
		DelayBeforeRepeating: sp.DelayBeforeRepeating,
		SendAcknowledgment:   sp.SendAcknowledgment,
		RecoveryTime:         sp.RecoveryTime,
		AutomaticallyClose:   sp.AutomaticallyClose,
	}

	ladder := resolveLadder(sp.Escalations)
	d.Threshold.Ladder = ladder.clone()
	d.Battery.Ladder = ladder.clone()
	d.Connectivity.Ladder = ladder.clone()
	d.NotReading.Ladder = ladder.clone()

	for i := 0; i < NumThresholdSlots; i++ {
		slot, ok := sp.Thresholds.Data[strconv.Itoa(i+1)]
		if !ok {
			d.Threshold.Slots[i] = SlotThreshold{}
			continue
		}
		d.Threshold.Slots[i] = SlotThreshold{Upper: clonePtr(slot.Upper), Lower: clonePtr(slot.Lower)}
	}

	d.Battery.MinimumBatteryLevel = clonePtr(sp.Thresholds.LowBattery)
	d.Connectivity.MaximumOfflineTime = clonePtr(sp.Thresholds.Connectivity)
	d.NotReading.MaximumDowntime = clonePtr(sp.Thresholds.NotReadingData)
}

// resolveLadder picks the server escalation for each level 1..4, substituting
// an inactive empty tier when the level is missing or null.
func resolveLadder(escalations []*Tier) Ladder {
	ladder := emptyLadder()
	for i := range ladder {
		level := i + 1
		for _, esc := range escalations {
			if esc == nil || esc.Level != level {
				continue
			}
			ladder[i] = Tier{
				Level:              level,
				DelayBeforeSending: esc.DelayBeforeSending,
				IsActive:           esc.IsActive,
				Targets:            esc.Targets.clone(),
			}
			break
		}
	}
	return ladder
}

// IsValidForStep gates the wizard's next/submit transitions. Only the name
// and sensor-assignment steps carry client-side validation.
func (d *Draft) IsValidForStep(step int) bool {
	switch step {
	case 0:
		return len(d.Name) >= minNameLength && d.Group != nil
	case 1:
		return len(d.AssignedSensors) > 0
	default:
		return true
	}
}

func (d *Draft) ladder(c Category) (*Ladder, error) {
	switch c {
	case CategoryThreshold:
		return &d.Threshold.Ladder, nil
	case CategoryBattery:
		return &d.Battery.Ladder, nil
	case CategoryConnectivity:
		return &d.Connectivity.Ladder, nil
	case CategoryNotReading:
		return &d.NotReading.Ladder, nil
	}
	return nil, fmt.Errorf("unknown alarm category %q", c)
}

// ReceiverSummaries returns the display receivers for every category ladder,
// one slice per level in order.
func (d *Draft) ReceiverSummaries() map[Category][][]DisplayReceiver {
	out := make(map[Category][][]DisplayReceiver, len(Categories))
	for _, c := range Categories {
		l, err := d.ladder(c)
		if err != nil {
			continue
		}
		levels := make([][]DisplayReceiver, 0, NumLevels)
		for _, t := range l {
			levels = append(levels, BuildReceiverSummary(t.Targets))
		}
		out[c] = levels
	}
	return out
}

func (d *Draft) tier(c Category, level int) (*Tier, error) {
	l, err := d.ladder(c)
	if err != nil {
		return nil, err
	}
	if level < 1 || level > NumLevels {
		return nil, fmt.Errorf("escalation level must be 1 through %d, got %d", NumLevels, level)
	}
	return &l[level-1], nil
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
