package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/cleanshift/core/internal/apperr"
	"github.com/cleanshift/core/internal/identity"
	"github.com/cleanshift/core/internal/model"
	"github.com/cleanshift/core/internal/repository"
	"github.com/cleanshift/core/internal/schedule"
)

// ShiftService владеет жизненным циклом смены: создание, самозахват,
// отмена, удаление и выдача допусков.
type ShiftService struct {
	dir         identity.Directory
	jobs        repository.JobRepository
	sites       repository.SiteRepository
	workers     repository.WorkerRepository
	assignments repository.AssignmentRepository
	logs        repository.TimeLogRepository
	events      repository.EventRepository
	logger      *zap.Logger
}

func NewShiftService(
	dir identity.Directory,
	jobs repository.JobRepository,
	sites repository.SiteRepository,
	workers repository.WorkerRepository,
	assignments repository.AssignmentRepository,
	logs repository.TimeLogRepository,
	events repository.EventRepository,
	logger *zap.Logger,
) *ShiftService {
	return &ShiftService{
		dir:         dir,
		jobs:        jobs,
		sites:       sites,
		workers:     workers,
		assignments: assignments,
		logs:        logs,
		events:      events,
		logger:      logger,
	}
}

// Параметры создания смены.
type CreateJobInput struct {
	SiteID           uuid.UUID
	WorkerID         *uuid.UUID
	JobDate          string // "YYYY-MM-DD"
	ScheduledTime    *string
	ScheduledEndTime *string
	PlannedMinutes   *int
}

// CreateJob создаёт запланированную смену. Только администратор.
// Если сотрудник указан сразу, ему выдаётся допуск на объект.
func (s *ShiftService) CreateJob(ctx context.Context, credential string, in CreateJobInput) (*model.Job, error) {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return nil, err
	}

	if in.SiteID == uuid.Nil {
		return nil, apperr.Validationf("site_id is required")
	}
	date, err := schedule.ParseDate(in.JobDate)
	if err != nil {
		return nil, apperr.Validationf("job_date: %v", err)
	}
	scheduledTime, scheduledEnd, err := normalizeTimes(in.ScheduledTime, in.ScheduledEndTime)
	if err != nil {
		return nil, err
	}
	if err := validatePlannedMinutes(in.PlannedMinutes); err != nil {
		return nil, err
	}

	site, err := s.sites.GetByID(ctx, in.SiteID)
	if err != nil {
		return nil, notFoundOr(err, "site %s", in.SiteID)
	}
	if site.Archived() {
		return nil, apperr.Validationf("site %q is archived", site.Name)
	}

	if in.WorkerID != nil {
		if _, err := s.workers.GetByID(ctx, *in.WorkerID); err != nil {
			return nil, notFoundOr(err, "worker %s", *in.WorkerID)
		}
	}

	job := &model.Job{
		SiteID:           in.SiteID,
		WorkerID:         in.WorkerID,
		JobDate:          datatypes.Date(date),
		ScheduledTime:    scheduledTime,
		ScheduledEndTime: scheduledEnd,
		PlannedMinutes:   in.PlannedMinutes,
		Status:           model.JobStatusPlanned,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, apperr.Storef(err, "create job")
	}

	// Расписание подразумевает допуск: назначенный сотрудник не должен
	// упереться в отсутствие гранта при старте.
	if in.WorkerID != nil {
		if err := s.assignments.Grant(ctx, in.SiteID, *in.WorkerID, ""); err != nil {
			return nil, apperr.Storef(err, "grant assignment")
		}
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeJobCreated,
		JobID:     &job.ID,
		WorkerID:  in.WorkerID,
		Details:   fmt.Sprintf("site=%s date=%s", in.SiteID, in.JobDate),
	})

	return job, nil
}

// AcceptJob — самозахват свободной запланированной смены сотрудником.
// Идемпотентен для уже захватившего; Conflict, если смена занята другим.
func (s *ShiftService) AcceptJob(ctx context.Context, credential string, jobID uuid.UUID) (*model.Job, error) {
	caller, err := authActive(ctx, s.dir, credential)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job %s", jobID)
	}
	if job.Status != model.JobStatusPlanned {
		return nil, apperr.Conflictf("job is %s and cannot be accepted", job.Status)
	}

	if job.WorkerID != nil {
		if *job.WorkerID == caller.UserID {
			return job, nil // повторный accept того же сотрудника — no-op
		}
		return nil, apperr.Conflictf("job already assigned")
	}

	ok, err := s.assignments.Has(ctx, job.SiteID, caller.UserID)
	if err != nil {
		return nil, apperr.Storef(err, "check assignment")
	}
	if !ok {
		return nil, apperr.Forbidden("not permitted")
	}

	// Захват условный: worker_id выставляется только если он всё ещё NULL.
	// При гонке двух сотрудников ровно один увидит claimed=true.
	claimed, err := s.jobs.ClaimWorker(ctx, jobID, caller.UserID)
	if err != nil {
		return nil, apperr.Storef(err, "claim job")
	}
	if !claimed {
		current, err := s.jobs.GetByID(ctx, jobID)
		if err != nil {
			return nil, notFoundOr(err, "job %s", jobID)
		}
		if current.WorkerID != nil && *current.WorkerID == caller.UserID {
			return current, nil
		}
		return nil, apperr.Conflictf("job already assigned")
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeJobAccepted,
		JobID:     &jobID,
		WorkerID:  &caller.UserID,
	})

	return s.jobs.GetByID(ctx, jobID)
}

// CancelJob переводит смену в cancelled из любого нетерминального статуса.
// Только администратор; геозона не проверяется.
func (s *ShiftService) CancelJob(ctx context.Context, credential string, jobID uuid.UUID) (*model.Job, error) {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job %s", jobID)
	}
	if job.Status.Terminal() {
		return nil, apperr.Conflictf("job is already %s", job.Status)
	}

	ok, err := s.jobs.UpdateStatusIf(ctx, jobID,
		[]model.JobStatus{model.JobStatusPlanned, model.JobStatusInProgress},
		model.JobStatusCancelled,
	)
	if err != nil {
		return nil, apperr.Storef(err, "cancel job")
	}
	if !ok {
		return nil, apperr.Conflictf("job state changed, refresh and retry")
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeJobCancelled,
		JobID:     &jobID,
		WorkerID:  job.WorkerID,
	})

	return s.jobs.GetByID(ctx, jobID)
}

// DeleteJob физически удаляет смену. Запрещено, пока по смене есть записи
// времени — такие смены отменяют, а не удаляют.
func (s *ShiftService) DeleteJob(ctx context.Context, credential string, jobID uuid.UUID) error {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return err
	}

	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return notFoundOr(err, "job %s", jobID)
	}

	count, err := s.logs.CountByJob(ctx, jobID)
	if err != nil {
		return apperr.Storef(err, "count time logs")
	}
	if count > 0 {
		return apperr.Conflictf("time logs exist, cancel the job instead")
	}

	if err := s.jobs.Delete(ctx, jobID); err != nil {
		return apperr.Storef(err, "delete job")
	}
	return nil
}

// GrantSite выдаёт сотруднику допуск на объект. Только администратор.
func (s *ShiftService) GrantSite(ctx context.Context, credential string, siteID, workerID uuid.UUID, note string) error {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return err
	}
	if _, err := s.sites.GetByID(ctx, siteID); err != nil {
		return notFoundOr(err, "site %s", siteID)
	}
	if _, err := s.workers.GetByID(ctx, workerID); err != nil {
		return notFoundOr(err, "worker %s", workerID)
	}
	if err := s.assignments.Grant(ctx, siteID, workerID, note); err != nil {
		return apperr.Storef(err, "grant assignment")
	}
	return nil
}

// RevokeSite отзывает допуск. Уже запланированные смены не трогает.
func (s *ShiftService) RevokeSite(ctx context.Context, credential string, siteID, workerID uuid.UUID) error {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return err
	}
	if err := s.assignments.Revoke(ctx, siteID, workerID); err != nil {
		return apperr.Storef(err, "revoke assignment")
	}
	return nil
}

// Параметры создания объекта.
type CreateSiteInput struct {
	Name     string
	Address  string
	Lat      *float64
	Lng      *float64
	RadiusM  int
	Category *int
	Notes    string
}

// CreateSite создаёт объект уборки. Радиус по умолчанию — 150 м.
func (s *ShiftService) CreateSite(ctx context.Context, credential string, in CreateSiteInput) (*model.Site, error) {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return nil, err
	}

	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if in.RadiusM < 0 {
		return nil, apperr.Validationf("radius must be positive")
	}
	if in.RadiusM == 0 {
		in.RadiusM = model.DefaultSiteRadiusM
	}
	if in.Category != nil && (*in.Category < 1 || *in.Category > 15) {
		return nil, apperr.Validationf("category must be in 1..15")
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return nil, apperr.Validationf("lat and lng must be set together")
	}

	site := &model.Site{
		Name:     in.Name,
		Address:  in.Address,
		Lat:      in.Lat,
		Lng:      in.Lng,
		RadiusM:  in.RadiusM,
		Category: in.Category,
		Notes:    in.Notes,
	}
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, apperr.Storef(err, "create site")
	}
	return site, nil
}

// ArchiveSite переводит объект в архив. Существующие смены не трогает.
func (s *ShiftService) ArchiveSite(ctx context.Context, credential string, siteID uuid.UUID) error {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return err
	}
	if _, err := s.sites.GetByID(ctx, siteID); err != nil {
		return notFoundOr(err, "site %s", siteID)
	}
	if err := s.sites.Archive(ctx, siteID, time.Now().UTC()); err != nil {
		return apperr.Storef(err, "archive site")
	}
	return nil
}

func normalizeTimes(scheduledTime, scheduledEnd *string) (*string, *string, error) {
	var startOut, endOut *string
	if scheduledTime != nil {
		v, err := schedule.ParseTimeOfDay(*scheduledTime)
		if err != nil {
			return nil, nil, apperr.Validationf("scheduled_time: %v", err)
		}
		startOut = &v
	}
	if scheduledEnd != nil {
		v, err := schedule.ParseTimeOfDay(*scheduledEnd)
		if err != nil {
			return nil, nil, apperr.Validationf("scheduled_end_time: %v", err)
		}
		endOut = &v
	}
	return startOut, endOut, nil
}

func validatePlannedMinutes(m *int) error {
	if m != nil && (*m < 1 || *m > 1440) {
		return apperr.Validationf("planned_minutes must be in 1..1440")
	}
	return nil
}
