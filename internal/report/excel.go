package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/fish-activity/internal/activity"
	"github.com/i474232898/fish-activity/internal/weather"
)

const (
	dataSheet  = "Activity"
	chartSheet = "Chart"
)

var dataHeaders = []string{
	"Date", "Hour", "Temperature (°C)", "Pressure (hPa)", "Wind (km/h)",
	"Cloud cover (%)", "Rain (mm)", "Lunar phase", "Season", "Activity",
}

// GenerateActivityWorkbook renders a scored series as an xlsx workbook: one row per hour,
// and a chart sheet with one activity line per day.
func GenerateActivityWorkbook(loc weather.Location, series activity.Series) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	name := loc.Name
	if name == "" {
		name = loc.Key()
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       fmt.Sprintf("Fish activity - %s", series.Species),
		Subject:     "Fish activity forecast",
		Creator:     "fish-activity",
		Description: fmt.Sprintf("Hourly activity of %s at %s", series.Species, name),
		Created:     time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeDataSheet(f, series); err != nil {
		return nil, fmt.Errorf("failed to create data sheet: %w", err)
	}
	if err := writeChartSheet(f, series); err != nil {
		return nil, fmt.Errorf("failed to create chart sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeDataSheet(f *excelize.File, series activity.Series) error {
	if err := f.SetSheetRow(dataSheet, "A1", &dataHeaders); err != nil {
		return err
	}

	row := 2
	for _, p := range series.Points {
		o := p.Observation
		values := []any{
			o.Timestamp.Format("2006-01-02"),
			o.Timestamp.Hour(),
			o.Temperature,
			o.Pressure,
			o.WindSpeed,
			o.CloudCover,
			o.Rain,
			p.Breakdown.LunarPhase,
			string(p.Breakdown.Season),
			p.Breakdown.Score,
		}
		if err := f.SetSheetRow(dataSheet, cell(1, row), &values); err != nil {
			return err
		}
		row++
	}

	if len(series.Failures) > 0 {
		row++
		if err := f.SetCellValue(dataSheet, cell(1, row), "Hours not scored"); err != nil {
			return err
		}
		row++
		for _, fl := range series.Failures {
			values := []any{fl.Observation.Timestamp.Format("2006-01-02 15:04"), fl.Err.Error()}
			if err := f.SetSheetRow(dataSheet, cell(1, row), &values); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SetColWidth(dataSheet, "A", "A", 12); err != nil {
		return err
	}
	return f.SetColWidth(dataSheet, "C", colLetter(len(dataHeaders)), 16)
}

// writeChartSheet lays out an hour x date table and draws a line per date over it.
func writeChartSheet(f *excelize.File, series activity.Series) error {
	if _, err := f.NewSheet(chartSheet); err != nil {
		return err
	}

	days := series.ByDate()
	if err := f.SetCellValue(chartSheet, "A1", "Hour"); err != nil {
		return err
	}
	for h := 0; h < 24; h++ {
		if err := f.SetCellValue(chartSheet, cell(1, h+2), h); err != nil {
			return err
		}
	}

	chartSeries := make([]excelize.ChartSeries, 0, len(days))
	for i, day := range days {
		col := i + 2
		if err := f.SetCellValue(chartSheet, cell(col, 1), day.Date); err != nil {
			return err
		}
		for _, p := range day.Points {
			if err := f.SetCellValue(chartSheet, cell(col, p.Hour+2), p.Score); err != nil {
				return err
			}
		}

		letter := colLetter(col)
		chartSeries = append(chartSeries, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", chartSheet, letter),
			Categories: fmt.Sprintf("%s!$A$2:$A$25", chartSheet),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$25", chartSheet, letter, letter),
		})
	}

	if len(chartSeries) == 0 {
		return nil
	}

	anchor := cell(len(days)+3, 2)
	return f.AddChart(chartSheet, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: chartSeries,
		Title:  []excelize.RichTextRun{{Text: fmt.Sprintf("Expected %s activity by hour", series.Species)}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{
			Width:  720,
			Height: 400,
		},
	})
}

func cell(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}

func colLetter(col int) string {
	letter, _ := excelize.ColumnNumberToName(col)
	return letter
}
