package profile

import "strconv"

// GeneralSettingsPayload is the edit_general_settings request body, also
// embedded in the create payload.
type GeneralSettingsPayload struct {
	Name                 string `json:"name"`
	Enabled              bool   `json:"enabled"`
	AutomaticallyClose   bool   `json:"automatically_close"`
	DelayBeforeRepeating int    `json:"delay_before_repeating"`
	RecoveryTime         int    `json:"recovery_time"`
	SendAcknowledgment   bool   `json:"send_acknowledgment"`
}

type ThresholdsPayload struct {
	Connectivity   *float64              `json:"connectivity"`
	NotReadingData *float64              `json:"notreadingdata"`
	LowBattery     *float64              `json:"lowbattery"`
	Data           map[string]ServerSlot `json:"data"`
}

// CreatePayload is the alarm_profiles/add request body.
type CreatePayload struct {
	GeneralSettingsPayload
	SensorIDs                 []string          `json:"sensor_ids"`
	EscalationLevels          []Tier            `json:"escalation_levels"`
	GroupID                   int64             `json:"group_id"`
	CoalitionID               int64             `json:"coalition_id"`
	TypeConnectivityEnabled   bool              `json:"type_connectivity_enabled"`
	TypeLowBatteryEnabled     bool              `json:"type_lowbattery_enabled"`
	TypeNotReadingDataEnabled bool              `json:"type_notreadingdata_enabled"`
	TypeThresholdEnabled      bool              `json:"type_threshold_enabled"`
	Thresholds                ThresholdsPayload `json:"thresholds"`
}

// BuildGeneralSettingsPayload extracts the standalone general-settings body.
// Pure function of the draft.
func BuildGeneralSettingsPayload(d *Draft) GeneralSettingsPayload {
	return GeneralSettingsPayload{
		Name:                 d.Name,
		Enabled:              d.General.Enabled,
		AutomaticallyClose:   d.General.AutomaticallyClose,
		DelayBeforeRepeating: d.General.DelayBeforeRepeating,
		RecoveryTime:         d.General.RecoveryTime,
		SendAcknowledgment:   d.General.SendAcknowledgment,
	}
}

// BuildFullCreatePayload flattens the draft into the create request. The
// submitted escalation_levels are the threshold category's four tiers with
// is_active recomputed from their target lists; the battery, connectivity and
// not-reading ladders stay in the draft and are not submitted — the server
// currently stores one flat ladder per profile. Pure function of the draft:
// repeated calls with no intervening mutation are deep-equal, so a failed
// submit can always be retried.
func BuildFullCreatePayload(d *Draft) CreatePayload {
	sensorIDs := make([]string, len(d.AssignedSensors))
	for i, s := range d.AssignedSensors {
		sensorIDs[i] = s.SensorID
	}

	levels := make([]Tier, 0, NumLevels)
	for _, t := range d.Threshold.Ladder {
		levels = append(levels, Tier{
			Level:              t.Level,
			DelayBeforeSending: t.DelayBeforeSending,
			IsActive:           t.Active(),
			Targets:            t.Targets.clone(),
		})
	}

	data := make(map[string]ServerSlot, NumThresholdSlots)
	thresholdEnabled := false
	for i, slot := range d.Threshold.Slots {
		data[strconv.Itoa(i+1)] = ServerSlot{Upper: clonePtr(slot.Upper), Lower: clonePtr(slot.Lower)}
		if slot.Upper != nil || slot.Lower != nil {
			thresholdEnabled = true
		}
	}

	return CreatePayload{
		GeneralSettingsPayload:    BuildGeneralSettingsPayload(d),
		SensorIDs:                 sensorIDs,
		EscalationLevels:          levels,
		GroupID:                   orgID(d.Group),
		CoalitionID:               orgID(d.Coalition),
		TypeConnectivityEnabled:   d.Connectivity.MaximumOfflineTime != nil,
		TypeLowBatteryEnabled:     d.Battery.MinimumBatteryLevel != nil,
		TypeNotReadingDataEnabled: d.NotReading.MaximumDowntime != nil,
		TypeThresholdEnabled:      thresholdEnabled,
		Thresholds: ThresholdsPayload{
			Connectivity:   clonePtr(d.Connectivity.MaximumOfflineTime),
			NotReadingData: clonePtr(d.NotReading.MaximumDowntime),
			LowBattery:     clonePtr(d.Battery.MinimumBatteryLevel),
			Data:           data,
		},
	}
}

func orgID(ref *OrgRef) int64 {
	if ref == nil {
		return 0
	}
	id, err := strconv.ParseInt(ref.ID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
