package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseDelayMinutes(t *testing.T) {
	assert.Equal(t, 0, ParseDelayMinutes(""))
	assert.Equal(t, 0, ParseDelayMinutes("-5"))
	assert.Equal(t, 3, ParseDelayMinutes("3.9"))
	assert.Equal(t, 15, ParseDelayMinutes("15"))
	assert.Equal(t, 0, ParseDelayMinutes("abc"))
	assert.Equal(t, 0, ParseDelayMinutes("-0.5"))
}

func Test_Tier_SetDelay(t *testing.T) {
	tier := Tier{Level: 1, Targets: TargetList{}}
	tier.SetDelay("12.7")
	assert.Equal(t, 12, tier.DelayBeforeSending)
	tier.SetDelay("")
	assert.Equal(t, 0, tier.DelayBeforeSending)
}

func Test_Tier_RemoveTarget(t *testing.T) {
	tier := Tier{Level: 1, Targets: TargetList{
		&UserTarget{Username: "a"},
		&UserTarget{Username: "b"},
		&UserTarget{Username: "c"},
	}}

	tier.RemoveTarget(1)
	assert.Len(t, tier.Targets, 2)
	assert.Equal(t, "a", tier.Targets[0].Label())
	assert.Equal(t, "c", tier.Targets[1].Label())

	// out of range is a no-op
	tier.RemoveTarget(5)
	tier.RemoveTarget(-1)
	assert.Len(t, tier.Targets, 2)
}

func Test_Tier_Active(t *testing.T) {
	tier := Tier{Level: 2, Targets: TargetList{}}
	assert.False(t, tier.Active())

	tier.AddTarget(&UserTarget{Username: "a"})
	assert.True(t, tier.Active())

	tier.RemoveTarget(0)
	assert.False(t, tier.Active())
}

func Test_EmptyLadder(t *testing.T) {
	l := emptyLadder()
	for i, tier := range l {
		assert.Equal(t, i+1, tier.Level)
		assert.Equal(t, 0, tier.DelayBeforeSending)
		assert.False(t, tier.IsActive)
		assert.NotNil(t, tier.Targets)
		assert.Empty(t, tier.Targets)
	}
}

func Test_Ladder_CloneIsIndependent(t *testing.T) {
	l := emptyLadder()
	l[0].AddTarget(&UserTarget{Username: "a", Email: "a@x.com"})

	c := l.clone()
	c[0].AddTarget(&UserTarget{Username: "b"})
	c[0].Targets[0].(*UserTarget).Email = "changed@x.com"

	assert.Len(t, l[0].Targets, 1)
	assert.Equal(t, "a@x.com", l[0].Targets[0].(*UserTarget).Email)
}
