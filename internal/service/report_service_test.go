package service

import (
	"context"
	"testing"
	"time"

	"github.com/cleanshift/core/internal/apperr"
	"github.com/cleanshift/core/internal/model"
)

func TestReportPartitionInvariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	siteA := env.seedGeoSite(t, "Office Tower")
	siteB := env.seedGeoSite(t, "Warehouse")

	// Anna: 120 min at A, 60 min at B. Boris: 45 min at A.
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	j1 := env.seedJob(t, siteA.ID, &env.workerID, "2026-03-02", model.JobStatusDone)
	s1 := day.Add(2 * time.Hour)
	env.seedLog(t, j1.ID, env.workerID, day, &s1)

	j2 := env.seedJob(t, siteB.ID, &env.workerID, "2026-03-02", model.JobStatusDone)
	s2 := day.Add(4 * time.Hour)
	env.seedLog(t, j2.ID, env.workerID, day.Add(3*time.Hour), &s2)

	j3 := env.seedJob(t, siteA.ID, &env.worker2ID, "2026-03-02", model.JobStatusDone)
	s3 := day.Add(45 * time.Minute)
	env.seedLog(t, j3.ID, env.worker2ID, day, &s3)

	rep, err := env.reports.GetReport(ctx, adminCred, "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	if rep.TotalMinutes != 225 {
		t.Fatalf("total_minutes = %d, want 225", rep.TotalMinutes)
	}
	if rep.JobsCount != 3 {
		t.Fatalf("jobs_count = %d, want 3", rep.JobsCount)
	}

	// Both partitions sum back to the total.
	workerSum, siteSum := 0, 0
	for _, g := range rep.ByWorker {
		workerSum += g.Minutes
	}
	for _, g := range rep.BySite {
		siteSum += g.Minutes
	}
	if workerSum != rep.TotalMinutes {
		t.Fatalf("sum(by_worker) = %d, want %d", workerSum, rep.TotalMinutes)
	}
	if siteSum != rep.TotalMinutes {
		t.Fatalf("sum(by_site) = %d, want %d", siteSum, rep.TotalMinutes)
	}

	if len(rep.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(rep.Entries))
	}
	for i := 1; i < len(rep.Entries); i++ {
		if rep.Entries[i].StartedAt.Before(rep.Entries[i-1].StartedAt) {
			t.Fatal("entries not ordered by started_at")
		}
	}
}

func TestReportSortContract(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	siteA := env.seedGeoSite(t, "Zenith Plaza")
	siteB := env.seedGeoSite(t, "Atrium")
	siteC := env.seedGeoSite(t, "Market Hall")

	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	seed := func(site *model.Site, minutes int) {
		j := env.seedJob(t, site.ID, &env.workerID, "2026-03-02", model.JobStatusDone)
		stop := day.Add(time.Duration(minutes) * time.Minute)
		env.seedLog(t, j.ID, env.workerID, day, &stop)
	}
	seed(siteA, 60)  // Zenith Plaza: 60
	seed(siteB, 60)  // Atrium: 60
	seed(siteC, 120) // Market Hall: 120

	rep, err := env.reports.GetReport(ctx, adminCred, "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	// Minutes descending; equal minutes break the tie by name ascending.
	want := []string{"Market Hall", "Atrium", "Zenith Plaza"}
	if len(rep.BySite) != len(want) {
		t.Fatalf("by_site groups = %d, want %d", len(rep.BySite), len(want))
	}
	for i, name := range want {
		if rep.BySite[i].Name != name {
			t.Fatalf("by_site[%d] = %q, want %q", i, rep.BySite[i].Name, name)
		}
	}
}

func TestReportAfterCorrection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	site := env.seedGeoSite(t, "Office Tower")
	job := env.seedJob(t, site.ID, &env.workerID, "2026-03-02", model.JobStatusDone)
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	stopped := started.Add(8 * time.Hour)
	env.seedLog(t, job.ID, env.workerID, started, &stopped)

	if _, err := env.clock.CorrectActualMinutes(ctx, adminCred, job.ID, "3:15"); err != nil {
		t.Fatalf("CorrectActualMinutes: %v", err)
	}

	rep, err := env.reports.GetReport(ctx, adminCred, "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.TotalMinutes != 195 {
		t.Fatalf("total_minutes = %d, want 195 after correction", rep.TotalMinutes)
	}
}

func TestReportWindowAndOpenLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	site := env.seedGeoSite(t, "Office Tower")

	// Job dated inside the period, but its log started the day before:
	// the job counts, its minutes do not.
	outside := env.seedJob(t, site.ID, &env.workerID, "2026-03-02", model.JobStatusDone)
	before := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	beforeStop := before.Add(time.Hour)
	env.seedLog(t, outside.ID, env.workerID, before, &beforeStop)

	// Open log contributes zero minutes.
	open := env.seedJob(t, site.ID, &env.workerID, "2026-03-02", model.JobStatusInProgress)
	env.seedLog(t, open.ID, env.workerID, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), nil)

	rep, err := env.reports.GetReport(ctx, adminCred, "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.TotalMinutes != 0 {
		t.Fatalf("total_minutes = %d, want 0", rep.TotalMinutes)
	}
	if rep.JobsCount != 2 {
		t.Fatalf("jobs_count = %d, want 2", rep.JobsCount)
	}
	if len(rep.BySite) != 1 || rep.BySite[0].LoggedJobs != 0 {
		t.Fatalf("by_site = %+v, want one group with no logged jobs", rep.BySite)
	}
}

func TestReportWorkerScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	site := env.seedGeoSite(t, "Office Tower")
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mine := env.seedJob(t, site.ID, &env.workerID, "2026-03-02", model.JobStatusDone)
	myStop := day.Add(time.Hour)
	env.seedLog(t, mine.ID, env.workerID, day, &myStop)

	theirs := env.seedJob(t, site.ID, &env.worker2ID, "2026-03-02", model.JobStatusDone)
	theirStop := day.Add(3 * time.Hour)
	env.seedLog(t, theirs.ID, env.worker2ID, day, &theirStop)

	rep, err := env.reports.GetReport(ctx, workerCred, "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.TotalMinutes != 60 {
		t.Fatalf("total_minutes = %d, want only own 60", rep.TotalMinutes)
	}
	if len(rep.ByWorker) != 1 || rep.ByWorker[0].ID != env.workerID {
		t.Fatalf("by_worker = %+v, want only the caller", rep.ByWorker)
	}
}

func TestReportBadDates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.reports.GetReport(ctx, adminCred, "bad", "2026-03-02")
	wantKind(t, err, apperr.KindValidation)

	_, err = env.reports.GetReport(ctx, "no-such-token", "2026-03-01", "2026-03-02")
	wantKind(t, err, apperr.KindUnauthenticated)
}
