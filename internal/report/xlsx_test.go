package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/cleanshift/core/internal/service"
)

func TestWriteXLSX(t *testing.T) {
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rep := &service.Report{
		DateFrom:     "2026-03-01",
		DateTo:       "2026-03-07",
		TotalMinutes: 195,
		JobsCount:    1,
		ByWorker: []service.ReportGroup{
			{ID: uuid.New(), Name: "Anna", Minutes: 195, JobsCount: 1, LoggedJobs: 1},
		},
		BySite: []service.ReportGroup{
			{ID: uuid.New(), Name: "Office Tower", Minutes: 195, JobsCount: 1, LoggedJobs: 1},
		},
		Entries: []service.ReportEntry{
			{
				LogID: uuid.New(), JobID: uuid.New(),
				SiteName: "Office Tower", WorkerName: "Anna",
				StartedAt: started, StoppedAt: started.Add(195 * time.Minute),
				Minutes: 195,
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(rep, &buf); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Summary", "Workers", "Sites", "Entries"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("sheet %s missing (idx=%d, err=%v)", sheet, idx, err)
		}
	}

	total, err := f.GetCellValue("Summary", "B2")
	if err != nil {
		t.Fatalf("read total cell: %v", err)
	}
	if total != "195" {
		t.Fatalf("Summary!B2 = %q, want 195", total)
	}

	name, err := f.GetCellValue("Workers", "A2")
	if err != nil {
		t.Fatalf("read worker cell: %v", err)
	}
	if name != "Anna" {
		t.Fatalf("Workers!A2 = %q, want Anna", name)
	}
}
