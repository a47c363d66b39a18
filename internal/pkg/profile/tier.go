package profile

import (
	"math"
	"strconv"
)

const NumLevels = 4

// Tier is one step in a category's escalation ladder. Level is fixed at
// construction; IsActive holds whatever the server sent at load time and is
// only recomputed for the ladder that gets submitted (see payload.go).
type Tier struct {
	Level              int        `json:"level"`
	DelayBeforeSending int        `json:"delay_before_sending"`
	IsActive           bool       `json:"is_active"`
	Targets            TargetList `json:"targets"`
}

// Ladder is the complete four-level escalation configuration of one alarm
// category. Every category always carries exactly four tiers; an inactive
// tier is represented by an empty target list, never by absence.
type Ladder [NumLevels]Tier

func emptyLadder() Ladder {
	var l Ladder
	for i := range l {
		l[i] = Tier{Level: i + 1, DelayBeforeSending: 0, IsActive: false, Targets: TargetList{}}
	}
	return l
}

func (l Ladder) clone() Ladder {
	out := l
	for i := range out {
		out[i].Targets = l[i].Targets.clone()
	}
	return out
}

// ParseDelayMinutes maps raw form input to whole minutes: empty or
// unparsable input becomes 0, fractions are floored, negatives clamp to 0.
func ParseDelayMinutes(raw string) int {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	minutes := int(math.Floor(f))
	if minutes < 0 {
		return 0
	}
	return minutes
}

func (t *Tier) SetDelay(raw string) {
	t.DelayBeforeSending = ParseDelayMinutes(raw)
}

func (t *Tier) AddTarget(nt Target) {
	t.Targets = AddOrReplaceTarget(t.Targets, nt)
}

// RemoveTarget removes by position. Out-of-range indexes are a no-op.
func (t *Tier) RemoveTarget(index int) {
	if index < 0 || index >= len(t.Targets) {
		return
	}
	t.Targets = append(t.Targets[:index], t.Targets[index+1:]...)
}

// Active reports whether the tier has any targets. A tier moves between
// empty and configured solely through add/remove target actions.
func (t Tier) Active() bool {
	return len(t.Targets) > 0
}
