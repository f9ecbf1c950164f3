package export

import (
	"fmt"

	"github.com/lirany1/test-metrics-charts/pkg/models"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Timeseries"

// workbook lays the series out one date per row, one status per column,
// and adds a native line chart over the data.
func workbook(title string, report *models.Report) ([]byte, error) {
	if len(report.Series) == 0 || len(report.Series[0].Points) == 0 {
		return nil, fmt.Errorf("report has no data points")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	dates := report.Series[0].Dates()
	lastRow := len(dates) + 1

	if err := f.SetCellValue(sheetName, "A1", "date"); err != nil {
		return nil, err
	}
	for i, d := range dates {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(sheetName, cell, d.Format(models.DateLayout)); err != nil {
			return nil, err
		}
	}

	chartSeries := make([]excelize.ChartSeries, 0, len(report.Series))
	for col, s := range report.Series {
		colIdx := col + 2
		header, _ := excelize.CoordinatesToCellName(colIdx, 1)
		if err := f.SetCellValue(sheetName, header, s.Label); err != nil {
			return nil, err
		}
		for i, p := range s.Points {
			cell, _ := excelize.CoordinatesToCellName(colIdx, i+2)
			if err := f.SetCellValue(sheetName, cell, p.Count); err != nil {
				return nil, err
			}
		}

		first, _ := excelize.CoordinatesToCellName(colIdx, 2, true)
		last, _ := excelize.CoordinatesToCellName(colIdx, lastRow, true)
		absHeader, _ := excelize.CoordinatesToCellName(colIdx, 1, true)
		chartSeries = append(chartSeries, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!%s", sheetName, absHeader),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, lastRow),
			Values:     fmt.Sprintf("%s!%s:%s", sheetName, first, last),
		})
	}

	anchor, _ := excelize.CoordinatesToCellName(len(report.Series)+3, 2)
	if err := f.AddChart(sheetName, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: chartSeries,
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	}); err != nil {
		return nil, fmt.Errorf("failed to add chart: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
