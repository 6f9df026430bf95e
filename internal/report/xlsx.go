package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cleanshift/core/internal/service"
)

// WriteXLSX выгружает отчёт в xlsx: сводка, разрезы по сотрудникам и
// объектам, детализация по записям времени.
func WriteXLSX(rep *service.Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	f.SetCellValue(summary, "A1", "Period")
	f.SetCellValue(summary, "B1", fmt.Sprintf("%s — %s", rep.DateFrom, rep.DateTo))
	f.SetCellValue(summary, "A2", "Total minutes")
	f.SetCellValue(summary, "B2", rep.TotalMinutes)
	f.SetCellValue(summary, "A3", "Jobs")
	f.SetCellValue(summary, "B3", rep.JobsCount)

	if err := writeGroups(f, "Workers", rep.ByWorker); err != nil {
		return err
	}
	if err := writeGroups(f, "Sites", rep.BySite); err != nil {
		return err
	}
	if err := writeEntries(f, rep.Entries); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeGroups(f *excelize.File, sheet string, groups []service.ReportGroup) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}

	headers := []string{"Name", "Minutes", "Jobs", "Logged jobs"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, g := range groups {
		values := []any{g.Name, g.Minutes, g.JobsCount, g.LoggedJobs}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return nil
}

func writeEntries(f *excelize.File, entries []service.ReportEntry) error {
	const sheet = "Entries"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}

	headers := []string{"Worker", "Site", "Started at", "Stopped at", "Minutes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	const layout = "2006-01-02 15:04"
	for row, e := range entries {
		values := []any{
			e.WorkerName,
			e.SiteName,
			e.StartedAt.Format(layout),
			e.StoppedAt.Format(layout),
			e.Minutes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return nil
}
