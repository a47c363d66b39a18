package config

import "time"

const (
	SensorTypeTemperature  = "temperature"
	SensorTypeHumidity     = "humidity"
	SensorTypeDoorContact  = "door_contact"
	SensorStatusOnline     = "ONLINE"
	SensorStatusOffline    = "OFFLINE"
	SensorStatusNotReading = "NOT_READING"

	AlarmCountPollFrequency = 1 * time.Minute
	ProfileBackupFrequency  = 12 * time.Hour

	DraftTTL = 24 * time.Hour
)

// Sensor is the list-view record the remote API returns for a sensor.
type Sensor struct {
	SensorID     string   `json:"sensor_id"`
	SensorName   string   `json:"sensor_name"`
	SensorType   string   `json:"sensor_type"`
	LastReading  *float64 `json:"last_reading"`
	BatteryLevel *float64 `json:"battery_level"`
	Status       string   `json:"status"`
}

// AlarmCounts holds the per-category open alarm totals for one coalition.
type AlarmCounts struct {
	Threshold    int `json:"threshold"`
	Battery      int `json:"battery"`
	Connectivity int `json:"connectivity"`
	NotReading   int `json:"not_reading"`
}

func (a AlarmCounts) Total() int {
	return a.Threshold + a.Battery + a.Connectivity + a.NotReading
}
