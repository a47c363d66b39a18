package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AddOrReplaceTarget(t *testing.T) {
	targets := TargetList{
		&UserTarget{Email: "a@x.com", EmailEnabled: true, Schedule: ScheduleAllTheTime},
		&RelayTarget{SensorID: "siren-1", CallEnabled: true},
	}

	replacement := &UserTarget{Email: "a@x.com", EmailEnabled: false, Phone: "+15551234", CallEnabled: true, Schedule: ScheduleAllTheTime}
	targets = AddOrReplaceTarget(targets, replacement)

	assert.Len(t, targets, 2)
	// replaced target moves to the end and is fully replaced, not merged
	assert.Equal(t, "siren-1", targets[0].Label())
	assert.Equal(t, "a@x.com", targets[1].Label())
	got, ok := targets[1].(*UserTarget)
	require.True(t, ok)
	assert.False(t, got.EmailEnabled)
	assert.Equal(t, "+15551234", got.Phone)

	targets = AddOrReplaceTarget(targets, &IndividualTarget{Email: "b@x.com", Schedule: ScheduleAllTheTime})
	assert.Len(t, targets, 3)
	assert.Equal(t, "b@x.com", targets[2].Label())
}

func Test_AddOrReplaceTarget_UsernamePriority(t *testing.T) {
	targets := TargetList{}
	targets = AddOrReplaceTarget(targets, &UserTarget{Username: "jdoe", Email: "j@x.com"})
	// same email but no username: label differs, so both remain
	targets = AddOrReplaceTarget(targets, &IndividualTarget{Email: "j@x.com"})
	assert.Len(t, targets, 2)
}

func Test_ToggleChannel(t *testing.T) {
	original := &UserTarget{Username: "jdoe", Email: "j@x.com", Phone: "+15550000"}

	toggled, err := ToggleChannel(original, ChannelEmail)
	assert.NoError(t, err)
	assert.True(t, toggled.(*UserTarget).EmailEnabled)
	// input untouched
	assert.False(t, original.EmailEnabled)

	toggled, err = ToggleChannel(toggled, ChannelEmail)
	assert.NoError(t, err)
	assert.False(t, toggled.(*UserTarget).EmailEnabled)

	// no sms address configured
	_, err = ToggleChannel(original, ChannelSMS)
	assert.Error(t, err)

	_, err = ToggleChannel(original, Channel("pager"))
	assert.Error(t, err)
}

func Test_ToggleChannel_Relay(t *testing.T) {
	relay := &RelayTarget{SensorID: "siren-1"}

	toggled, err := ToggleChannel(relay, ChannelCall)
	assert.NoError(t, err)
	assert.True(t, toggled.(*RelayTarget).CallEnabled)

	_, err = ToggleChannel(relay, ChannelEmailToText)
	assert.Error(t, err)
}

func Test_BuildReceiverSummary(t *testing.T) {
	targets := TargetList{
		&RelayTarget{SensorID: "siren-1"},
		&IndividualTarget{Email: "zz@x.com"},
		&UserTarget{Username: "bob", Email: "bob@x.com"},
		&ListTarget{Name: "night-shift", Members: TargetList{
			&UserTarget{Username: "amy"},
			&UserTarget{Username: "cal"},
		}},
		&UserTarget{Username: "alice", Email: "alice@x.com"},
	}

	summary := BuildReceiverSummary(targets)
	require.Len(t, summary, 5)

	assert.Equal(t, DisplayReceiver{Label: "night-shift", ReceiverType: KindList, Count: 2}, summary[0])
	assert.Equal(t, DisplayReceiver{Label: "alice", ReceiverType: KindUser, Count: 1}, summary[1])
	assert.Equal(t, DisplayReceiver{Label: "bob", ReceiverType: KindUser, Count: 1}, summary[2])
	assert.Equal(t, DisplayReceiver{Label: "zz@x.com", ReceiverType: KindIndividual, Count: 1}, summary[3])
	assert.Equal(t, DisplayReceiver{Label: "siren-1", ReceiverType: KindRelay, Count: 1}, summary[4])
}

func Test_TargetList_RoundTrip(t *testing.T) {
	sched := DefaultWeekSchedule()
	monday := sched[Monday]
	monday.Enabled = true
	monday.Intervals = []TimeInterval{{Enabled: true, Start: "08:00", End: "17:00"}}
	sched[Monday] = monday

	targets := TargetList{
		&UserTarget{Username: "jdoe", Email: "j@x.com", EmailEnabled: true, Schedule: ScheduleCustom, ScheduleDays: sched},
		&IndividualTarget{Email: "ops@x.com", Phone: "+15550000", CallEnabled: true, Schedule: ScheduleAllTheTime},
		&RelayTarget{SensorID: "siren-1", SMSEnabled: true},
		&ListTarget{Name: "managers", Members: TargetList{&UserTarget{Username: "amy"}}},
	}

	b, err := json.Marshal(targets)
	require.NoError(t, err)

	var decoded TargetList
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, targets, decoded)
}

func Test_UnmarshalTarget_UnknownType(t *testing.T) {
	_, err := UnmarshalTarget([]byte(`{"type":"carrier_pigeon"}`))
	assert.Error(t, err)
}
