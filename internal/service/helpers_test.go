package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cleanshift/core/internal/apperr"
	"github.com/cleanshift/core/internal/identity"
	"github.com/cleanshift/core/internal/model"
	"github.com/cleanshift/core/internal/repository"
)

// fakeDirectory is a hand-written identity collaborator for tests.
type fakeDirectory struct {
	callers map[string]*identity.Caller
}

func (d *fakeDirectory) Authenticate(_ context.Context, credential string) (*identity.Caller, error) {
	c, ok := d.callers[credential]
	if !ok {
		return nil, apperr.Unauthenticated("must sign in again")
	}
	cp := *c
	return &cp, nil
}

const (
	adminCred    = "admin-token"
	workerCred   = "worker-token"
	worker2Cred  = "worker2-token"
	inactiveCred = "inactive-token"
)

type testEnv struct {
	db *gorm.DB

	shifts  *ShiftService
	clock   *ClockService
	sched   *ScheduleService
	reports *ReportService

	adminID   uuid.UUID
	workerID  uuid.UUID
	worker2ID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Minimal schema for the query/update logic (sqlite-friendly).
	schema := []string{
		`CREATE TABLE sites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT,
			lat REAL,
			lng REAL,
			radius_m INTEGER NOT NULL DEFAULT 150,
			category INTEGER,
			notes TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			archived_at DATETIME
		);`,
		`CREATE TABLE workers (
			id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			display_name TEXT NOT NULL,
			contact_phone TEXT,
			contact_email TEXT,
			note TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE assignments (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL,
			worker_id TEXT NOT NULL,
			note TEXT,
			created_at DATETIME,
			UNIQUE (site_id, worker_id)
		);`,
		`CREATE TABLE jobs (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL,
			worker_id TEXT,
			job_date DATE NOT NULL,
			scheduled_time TEXT,
			scheduled_end_time TEXT,
			planned_minutes INTEGER,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE time_logs (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			worker_id TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			start_lat REAL NOT NULL,
			start_lng REAL NOT NULL,
			start_accuracy REAL NOT NULL,
			stopped_at DATETIME,
			stop_lat REAL,
			stop_lng REAL,
			stop_accuracy REAL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE UNIQUE INDEX uniq_time_logs_open ON time_logs (job_id) WHERE stopped_at IS NULL;`,
		`CREATE TABLE events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			created_at DATETIME,
			job_id TEXT,
			worker_id TEXT,
			details TEXT
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	env := &testEnv{
		db:        db,
		adminID:   uuid.New(),
		workerID:  uuid.New(),
		worker2ID: uuid.New(),
	}

	dir := &fakeDirectory{callers: map[string]*identity.Caller{
		adminCred:    {UserID: env.adminID, Role: identity.RoleAdmin, Active: true},
		workerCred:   {UserID: env.workerID, Role: identity.RoleWorker, Active: true},
		worker2Cred:  {UserID: env.worker2ID, Role: identity.RoleWorker, Active: true},
		inactiveCred: {UserID: uuid.New(), Role: identity.RoleWorker, Active: false},
	}}

	// Seed worker profiles.
	seed := []model.Worker{
		{ID: env.adminID, Role: model.WorkerRoleAdmin, Active: true, DisplayName: "Admin"},
		{ID: env.workerID, Role: model.WorkerRoleWorker, Active: true, DisplayName: "Anna"},
		{ID: env.worker2ID, Role: model.WorkerRoleWorker, Active: true, DisplayName: "Boris"},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed worker: %v", err)
		}
	}

	logger := zap.NewNop()
	jobs := repository.NewGormJobRepository(db)
	sites := repository.NewGormSiteRepository(db)
	workers := repository.NewGormWorkerRepository(db)
	assignments := repository.NewGormAssignmentRepository(db)
	logs := repository.NewGormTimeLogRepository(db)
	events := repository.NewGormEventRepository(db)

	env.shifts = NewShiftService(dir, jobs, sites, workers, assignments, logs, events, logger)
	env.clock = NewClockService(dir, jobs, sites, logs, events, logger)
	env.sched = NewScheduleService(dir, jobs, sites, workers, assignments, logs, events, logger)
	env.reports = NewReportService(dir, jobs, sites, workers, logs, nil, logger)

	return env
}

// Site used across geofence tests: radius 150 m.
const (
	siteLat = 55.7000
	siteLng = 37.5000

	// ~120 m and ~200 m north of the site (1 deg latitude ~ 111.2 km).
	lat120m = siteLat + 0.0010792
	lat200m = siteLat + 0.0017987
)

func (e *testEnv) seedSite(t *testing.T, name string, lat, lng *float64, radius int) *model.Site {
	t.Helper()
	site := &model.Site{ID: uuid.New(), Name: name, Lat: lat, Lng: lng, RadiusM: radius}
	if err := e.db.Create(site).Error; err != nil {
		t.Fatalf("seed site: %v", err)
	}
	return site
}

func (e *testEnv) seedGeoSite(t *testing.T, name string) *model.Site {
	t.Helper()
	lat, lng := siteLat, siteLng
	return e.seedSite(t, name, &lat, &lng, 150)
}

func (e *testEnv) seedJob(t *testing.T, siteID uuid.UUID, workerID *uuid.UUID, date string, status model.JobStatus) *model.Job {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		t.Fatalf("bad seed date %q: %v", date, err)
	}
	job := &model.Job{
		ID:       uuid.New(),
		SiteID:   siteID,
		WorkerID: workerID,
		JobDate:  datatypes.Date(d),
		Status:   status,
	}
	if err := e.db.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func (e *testEnv) seedLog(t *testing.T, jobID, workerID uuid.UUID, startedAt time.Time, stoppedAt *time.Time) *model.TimeLog {
	t.Helper()
	l := &model.TimeLog{
		ID:        uuid.New(),
		JobID:     jobID,
		WorkerID:  workerID,
		StartedAt: startedAt,
		StartLat:  siteLat,
		StartLng:  siteLng,
		StoppedAt: stoppedAt,
	}
	if err := e.db.Create(l).Error; err != nil {
		t.Fatalf("seed time log: %v", err)
	}
	return l
}

func (e *testEnv) grant(t *testing.T, siteID, workerID uuid.UUID) {
	t.Helper()
	a := &model.Assignment{ID: uuid.New(), SiteID: siteID, WorkerID: workerID}
	if err := e.db.Create(a).Error; err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
}

func (e *testEnv) reloadJob(t *testing.T, id uuid.UUID) *model.Job {
	t.Helper()
	var j model.Job
	if err := e.db.First(&j, "id = ?", id).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	return &j
}

func jobDateString(j *model.Job) string {
	return time.Time(j.JobDate).Format("2006-01-02")
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, kind, err)
	}
}
