package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/i474232898/fish-activity/internal/activity"
	"github.com/i474232898/fish-activity/internal/weather"
)

func sampleSeries() activity.Series {
	start := time.Date(2024, time.April, 2, 12, 0, 0, 0, time.UTC)
	var obs []weather.Observation
	for day := 0; day < 2; day++ {
		for h := 0; h < 3; h++ {
			obs = append(obs, weather.Observation{
				Timestamp:   start.AddDate(0, 0, day).Add(time.Duration(h) * time.Hour),
				Temperature: 15 + float64(h),
				Pressure:    1012,
				WindSpeed:   4,
				CloudCover:  40,
				Rain:        0.5,
			})
		}
	}
	obs[4].Temperature = math.NaN()
	return activity.ScoreSeries(obs, activity.Pike)
}

func TestGenerateActivityWorkbook(t *testing.T) {
	series := sampleSeries()
	require.Len(t, series.Failures, 1)

	data, err := GenerateActivityWorkbook(weather.Location{Latitude: 44.59, Longitude: 11.34, Name: "Bologna"}, series)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{dataSheet, chartSheet}, f.GetSheetList())

	header, err := f.GetCellValue(dataSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	date, err := f.GetCellValue(dataSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", date)

	hour, err := f.GetCellValue(dataSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "12", hour)

	// 5 scored rows, a blank row, then the failure section.
	label, err := f.GetCellValue(dataSheet, "A8")
	require.NoError(t, err)
	assert.Equal(t, "Hours not scored", label)

	failed, err := f.GetCellValue(dataSheet, "A9")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-03 13:00", failed)

	firstDay, err := f.GetCellValue(chartSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", firstDay)

	secondDay, err := f.GetCellValue(chartSheet, "C1")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-03", secondDay)

	// Hour 13 of the second day failed and is left blank.
	gap, err := f.GetCellValue(chartSheet, "C15")
	require.NoError(t, err)
	assert.Empty(t, gap)

	filled, err := f.GetCellValue(chartSheet, "B15")
	require.NoError(t, err)
	assert.NotEmpty(t, filled)
}

func TestGenerateActivityWorkbook_Empty(t *testing.T) {
	data, err := GenerateActivityWorkbook(weather.Location{Latitude: 1, Longitude: 2}, activity.Series{Species: activity.TroutPerch})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(dataSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
