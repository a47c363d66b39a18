package profile

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftFixture() *Draft {
	d := NewDraft()
	d.Name = "Freezer A"
	d.Coalition = &OrgRef{ID: "2", Name: "Acme Cold"}
	d.Group = &OrgRef{ID: "7", Name: "Warehouse"}
	d.AssignedSensors = []SensorRef{
		{SensorID: "s-1", SensorName: "Freezer A", SensorType: "temperature"},
		{SensorID: "s-2", SensorName: "Freezer B", SensorType: "temperature"},
	}
	d.General = GeneralSettings{
		Enabled:              true,
		DelayBeforeRepeating: 30,
		SendAcknowledgment:   true,
		RecoveryTime:         5,
		AutomaticallyClose:   false,
	}
	d.Threshold.Slots[0] = SlotThreshold{Upper: f(8), Lower: f(-2)}
	d.Threshold.Ladder[0].AddTarget(&UserTarget{Username: "jdoe", Email: "j@x.com", EmailEnabled: true, Schedule: ScheduleAllTheTime})
	d.Threshold.Ladder[0].SetDelay("10")
	d.Battery.MinimumBatteryLevel = f(20)
	d.Battery.Ladder[1].AddTarget(&RelayTarget{SensorID: "siren-1", CallEnabled: true})
	return d
}

func Test_BuildGeneralSettingsPayload(t *testing.T) {
	d := draftFixture()
	p := BuildGeneralSettingsPayload(d)

	assert.Equal(t, GeneralSettingsPayload{
		Name:                 "Freezer A",
		Enabled:              true,
		AutomaticallyClose:   false,
		DelayBeforeRepeating: 30,
		RecoveryTime:         5,
		SendAcknowledgment:   true,
	}, p)
}

func Test_BuildFullCreatePayload_Idempotent(t *testing.T) {
	d := draftFixture()

	first := BuildFullCreatePayload(d)
	second := BuildFullCreatePayload(d)
	assert.Equal(t, first, second)

	// mutating a previous payload must not leak back into the draft
	first.EscalationLevels[0].Targets[0].(*UserTarget).Email = "tampered@x.com"
	third := BuildFullCreatePayload(d)
	assert.Equal(t, second, third)
}

func Test_BuildFullCreatePayload_Shape(t *testing.T) {
	d := draftFixture()
	p := BuildFullCreatePayload(d)

	assert.Equal(t, []string{"s-1", "s-2"}, p.SensorIDs)
	assert.Equal(t, int64(7), p.GroupID)
	assert.Equal(t, int64(2), p.CoalitionID)

	// only the threshold ladder is submitted, with is_active recomputed
	require.Len(t, p.EscalationLevels, NumLevels)
	assert.True(t, p.EscalationLevels[0].IsActive)
	assert.Equal(t, 10, p.EscalationLevels[0].DelayBeforeSending)
	for i := 1; i < NumLevels; i++ {
		assert.False(t, p.EscalationLevels[i].IsActive)
		assert.Empty(t, p.EscalationLevels[i].Targets)
	}
	// the battery ladder's relay target never reaches the payload
	for _, level := range p.EscalationLevels {
		for _, target := range level.Targets {
			assert.NotEqual(t, KindRelay, target.Kind())
		}
	}

	assert.True(t, p.TypeLowBatteryEnabled)
	assert.False(t, p.TypeConnectivityEnabled)
	assert.False(t, p.TypeNotReadingDataEnabled)
	assert.Equal(t, f(20), p.Thresholds.LowBattery)
	assert.Nil(t, p.Thresholds.Connectivity)

	// all 25 string keys always present
	require.Len(t, p.Thresholds.Data, NumThresholdSlots)
	for i := 1; i <= NumThresholdSlots; i++ {
		_, ok := p.Thresholds.Data[strconv.Itoa(i)]
		assert.True(t, ok, "missing threshold slot %d", i)
	}
	assert.Equal(t, f(8), p.Thresholds.Data["1"].Upper)
	assert.Equal(t, f(-2), p.Thresholds.Data["1"].Lower)
	assert.Nil(t, p.Thresholds.Data["2"].Upper)
}

func Test_TypeThresholdEnabled(t *testing.T) {
	d := NewDraft()

	p := BuildFullCreatePayload(d)
	assert.False(t, p.TypeThresholdEnabled)

	// any single bound on any slot flips the flag
	require.NoError(t, Apply(d, SetSlotThreshold{Slot: 25, Lower: f(0)}))
	p = BuildFullCreatePayload(d)
	assert.True(t, p.TypeThresholdEnabled)

	require.NoError(t, Apply(d, SetSlotThreshold{Slot: 25}))
	p = BuildFullCreatePayload(d)
	assert.False(t, p.TypeThresholdEnabled)
}

func Test_OrgID(t *testing.T) {
	assert.Equal(t, int64(0), orgID(nil))
	assert.Equal(t, int64(0), orgID(&OrgRef{ID: "abc"}))
	assert.Equal(t, int64(12), orgID(&OrgRef{ID: "12"}))
}
