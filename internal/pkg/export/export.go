package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tempsentry/tempsentry/internal/pkg/config"
)

const sensorSheetName = "Sensors"

var sensorHeader = []string{
	"Sensor ID",
	"Sensor Name",
	"Type",
	"Last Reading",
	"Battery Level",
	"Status",
}

// BuildSensorWorkbook renders the sensor list as a single-sheet xlsx file.
func BuildSensorWorkbook(sensors []config.Sensor) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sensorSheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for col, header := range sensorHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sensorSheetName, cell, header); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(sensorSheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, sensor := range sensors {
		row := i + 2
		values := []interface{}{
			sensor.SensorID,
			sensor.SensorName,
			sensor.SensorType,
			floatCell(sensor.LastReading),
			floatCell(sensor.BatteryLevel),
			sensor.Status,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sensorSheetName, cell, value); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// floatCell leaves the cell empty when the upstream API omitted the value.
func floatCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
