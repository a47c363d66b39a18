package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tempsentry/tempsentry/internal/pkg/config"
)

func f(v float64) *float64 {
	return &v
}

func Test_BuildSensorWorkbook(t *testing.T) {
	sensors := []config.Sensor{
		{
			SensorID:     "s-1",
			SensorName:   "Freezer A",
			SensorType:   config.SensorTypeTemperature,
			LastReading:  f(-4.5),
			BatteryLevel: f(80),
			Status:       config.SensorStatusOnline,
		},
		{
			SensorID:   "s-2",
			SensorName: "Door North",
			SensorType: config.SensorTypeDoorContact,
			Status:     config.SensorStatusOffline,
		},
	}

	data, err := BuildSensorWorkbook(sensors)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(sensorSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, sensorHeader, rows[0])
	assert.Equal(t, "Freezer A", rows[1][1])
	assert.Equal(t, "-4.5", rows[1][3])
	assert.Equal(t, "Door North", rows[2][1])
}

func Test_BuildSensorWorkbook_Empty(t *testing.T) {
	data, err := BuildSensorWorkbook(nil)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(sensorSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sensorHeader, rows[0])
}
