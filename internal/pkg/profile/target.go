package profile

import (
	"encoding/json"
	"fmt"
	"sort"
)

type TargetKind string

const (
	KindUser       TargetKind = "user"
	KindIndividual TargetKind = "individual"
	KindRelay      TargetKind = "relay"
	KindList       TargetKind = "list"
)

type Channel string

const (
	ChannelEmail       Channel = "email"
	ChannelCall        Channel = "call"
	ChannelSMS         Channel = "sms"
	ChannelEmailToText Channel = "email_to_text"
)

// Target is one escalation recipient. The concrete types form a closed set
// discriminated by Kind; relay targets carry no address fields because relay
// delivery is implicit in the sensor itself.
type Target interface {
	Kind() TargetKind
	// Label is the display identity used for de-duplication within a tier:
	// username, then email, then sensor id.
	Label() string
	toggle(ch Channel) error
	clone() Target
}

type UserTarget struct {
	Username           string       `json:"username"`
	Email              string       `json:"email"`
	EmailEnabled       bool         `json:"email_enabled"`
	Phone              string       `json:"phone,omitempty"`
	CallEnabled        bool         `json:"call_enabled"`
	SMS                string       `json:"sms,omitempty"`
	SMSEnabled         bool         `json:"sms_enabled"`
	EmailToText        string       `json:"email_to_text,omitempty"`
	EmailToTextEnabled bool         `json:"email_to_text_enabled"`
	Schedule           string       `json:"schedule"`
	ScheduleDays       WeekSchedule `json:"schedule_days,omitempty"`
}

func (t UserTarget) Kind() TargetKind { return KindUser }

func (t UserTarget) Label() string {
	if t.Username != "" {
		return t.Username
	}
	return t.Email
}

func (t *UserTarget) toggle(ch Channel) error {
	return toggleAddressed(ch, addressedChannels{
		email:       addr{&t.EmailEnabled, t.Email},
		call:        addr{&t.CallEnabled, t.Phone},
		sms:         addr{&t.SMSEnabled, t.SMS},
		emailToText: addr{&t.EmailToTextEnabled, t.EmailToText},
	})
}

func (t UserTarget) clone() Target {
	c := t
	c.ScheduleDays = t.ScheduleDays.clone()
	return &c
}

type IndividualTarget struct {
	Email              string       `json:"email"`
	EmailEnabled       bool         `json:"email_enabled"`
	Phone              string       `json:"phone,omitempty"`
	CallEnabled        bool         `json:"call_enabled"`
	SMS                string       `json:"sms,omitempty"`
	SMSEnabled         bool         `json:"sms_enabled"`
	EmailToText        string       `json:"email_to_text,omitempty"`
	EmailToTextEnabled bool         `json:"email_to_text_enabled"`
	Schedule           string       `json:"schedule"`
	ScheduleDays       WeekSchedule `json:"schedule_days,omitempty"`
}

func (t IndividualTarget) Kind() TargetKind { return KindIndividual }

func (t IndividualTarget) Label() string { return t.Email }

func (t *IndividualTarget) toggle(ch Channel) error {
	return toggleAddressed(ch, addressedChannels{
		email:       addr{&t.EmailEnabled, t.Email},
		call:        addr{&t.CallEnabled, t.Phone},
		sms:         addr{&t.SMSEnabled, t.SMS},
		emailToText: addr{&t.EmailToTextEnabled, t.EmailToText},
	})
}

func (t IndividualTarget) clone() Target {
	c := t
	c.ScheduleDays = t.ScheduleDays.clone()
	return &c
}

type RelayTarget struct {
	SensorID     string `json:"sensor_id"`
	CallEnabled  bool   `json:"call_enabled"`
	EmailEnabled bool   `json:"email_enabled"`
	SMSEnabled   bool   `json:"sms_enabled"`
}

func (t RelayTarget) Kind() TargetKind { return KindRelay }

func (t RelayTarget) Label() string { return t.SensorID }

func (t *RelayTarget) toggle(ch Channel) error {
	switch ch {
	case ChannelEmail:
		t.EmailEnabled = !t.EmailEnabled
	case ChannelCall:
		t.CallEnabled = !t.CallEnabled
	case ChannelSMS:
		t.SMSEnabled = !t.SMSEnabled
	default:
		return fmt.Errorf("channel %q not supported for relay targets", ch)
	}
	return nil
}

func (t RelayTarget) clone() Target {
	c := t
	return &c
}

// ListTarget is a named, reusable group of recipients. It is modeled and
// serialized but no draft action constructs one yet.
type ListTarget struct {
	Name    string     `json:"name"`
	Members TargetList `json:"members"`
}

func (t ListTarget) Kind() TargetKind { return KindList }

func (t ListTarget) Label() string { return t.Name }

func (t *ListTarget) toggle(ch Channel) error {
	return fmt.Errorf("channels cannot be toggled on a receiver list")
}

func (t ListTarget) clone() Target {
	c := ListTarget{Name: t.Name, Members: t.Members.clone()}
	return &c
}

type addr struct {
	enabled *bool
	address string
}

type addressedChannels struct {
	email, call, sms, emailToText addr
}

// toggleAddressed flips one channel flag. A channel with no address cannot be
// toggled; that invariant lives in the model, not just the UI.
func toggleAddressed(ch Channel, chans addressedChannels) error {
	var a addr
	switch ch {
	case ChannelEmail:
		a = chans.email
	case ChannelCall:
		a = chans.call
	case ChannelSMS:
		a = chans.sms
	case ChannelEmailToText:
		a = chans.emailToText
	default:
		return fmt.Errorf("unknown channel %q", ch)
	}
	if a.address == "" {
		return fmt.Errorf("cannot toggle %s: no address configured", ch)
	}
	*a.enabled = !*a.enabled
	return nil
}

// ToggleChannel returns a copy of target with the channel flag flipped. The
// input target is never mutated.
func ToggleChannel(target Target, ch Channel) (Target, error) {
	c := target.clone()
	if err := c.toggle(ch); err != nil {
		return nil, err
	}
	return c, nil
}

// AddOrReplaceTarget appends newTarget, first removing any existing target
// whose label matches. The result has no two targets sharing a label and
// preserves insertion order with the new target last.
func AddOrReplaceTarget(targets TargetList, newTarget Target) TargetList {
	label := newTarget.Label()
	out := make(TargetList, 0, len(targets)+1)
	for _, t := range targets {
		if t.Label() == label {
			continue
		}
		out = append(out, t)
	}
	return append(out, newTarget)
}

// DisplayReceiver is the list-rendering view of one target.
type DisplayReceiver struct {
	Label        string     `json:"label"`
	ReceiverType TargetKind `json:"receiver_type"`
	Count        int        `json:"count"`
}

var kindRank = map[TargetKind]int{
	KindList:       0,
	KindUser:       1,
	KindIndividual: 2,
	KindRelay:      3,
}

// BuildReceiverSummary maps targets into display records, sorted list < user
// < individual < relay, then alphabetically by label.
func BuildReceiverSummary(targets TargetList) []DisplayReceiver {
	out := make([]DisplayReceiver, 0, len(targets))
	for _, t := range targets {
		count := 1
		if l, ok := t.(*ListTarget); ok {
			count = len(l.Members)
		}
		out = append(out, DisplayReceiver{
			Label:        t.Label(),
			ReceiverType: t.Kind(),
			Count:        count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if kindRank[out[i].ReceiverType] != kindRank[out[j].ReceiverType] {
			return kindRank[out[i].ReceiverType] < kindRank[out[j].ReceiverType]
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// TargetList serializes targets with a "type" discriminator so the concrete
// kind survives redis persistence and the remote API payload.
type TargetList []Target

func (l TargetList) clone() TargetList {
	if l == nil {
		return TargetList{}
	}
	out := make(TargetList, len(l))
	for i, t := range l {
		out[i] = t.clone()
	}
	return out
}

func (l TargetList) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, len(l))
	for i, t := range l {
		b, err := marshalTarget(t)
		if err != nil {
			return nil, err
		}
		raws[i] = b
	}
	return json.Marshal(raws)
}

func (l *TargetList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(TargetList, 0, len(raws))
	for _, raw := range raws {
		t, err := UnmarshalTarget(raw)
		if err != nil {
			return err
		}
		out = append(out, t)
	}
	*l = out
	return nil
}

func marshalTarget(t Target) ([]byte, error) {
	switch v := t.(type) {
	case *UserTarget:
		type alias UserTarget
		return json.Marshal(struct {
			Type TargetKind `json:"type"`
			alias
		}{KindUser, alias(*v)})
	case *IndividualTarget:
		type alias IndividualTarget
		return json.Marshal(struct {
			Type TargetKind `json:"type"`
			alias
		}{KindIndividual, alias(*v)})
	case *RelayTarget:
		type alias RelayTarget
		return json.Marshal(struct {
			Type TargetKind `json:"type"`
			alias
		}{KindRelay, alias(*v)})
	case *ListTarget:
		type alias ListTarget
		return json.Marshal(struct {
			Type TargetKind `json:"type"`
			alias
		}{KindList, alias(*v)})
	}
	return nil, fmt.Errorf("unknown target type %T", t)
}

// UnmarshalTarget decodes one target envelope by its "type" discriminator.
func UnmarshalTarget(data []byte) (Target, error) {
	var probe struct {
		Type TargetKind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case KindUser:
		var t UserTarget
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case KindIndividual:
		var t IndividualTarget
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case KindRelay:
		var t RelayTarget
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case KindList:
		var t ListTarget
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	}
	return nil, fmt.Errorf("unknown target type %q", probe.Type)
}
