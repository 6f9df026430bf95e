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

// ScheduleService — перестановки расписания: перенос одной смены,
// перенос дня целиком, передача дня другому сотруднику, просмотр расписания.
type ScheduleService struct {
	dir         identity.Directory
	jobs        repository.JobRepository
	sites       repository.SiteRepository
	workers     repository.WorkerRepository
	assignments repository.AssignmentRepository
	logs        repository.TimeLogRepository
	events      repository.EventRepository
	logger      *zap.Logger
}

func NewScheduleService(
	dir identity.Directory,
	jobs repository.JobRepository,
	sites repository.SiteRepository,
	workers repository.WorkerRepository,
	assignments repository.AssignmentRepository,
	logs repository.TimeLogRepository,
	events repository.EventRepository,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
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

// Патч смены. nil-поле означает "не менять".
type JobPatch struct {
	JobDate          *string
	ScheduledTime    *string
	ScheduledEndTime *string
	WorkerID         *uuid.UUID
	SiteID           *uuid.UUID
	Status           *model.JobStatus
	PlannedMinutes   *int
}

// lockedField возвращает имя первого задетого заблокированного поля.
// Поля идентичности смены (сотрудник, объект, дата, время) блокируются,
// как только по смене есть хоть одна запись времени; статус и плановые
// минуты остаются изменяемыми всегда.
func (p JobPatch) lockedField() string {
	switch {
	case p.WorkerID != nil:
		return "worker"
	case p.SiteID != nil:
		return "site"
	case p.JobDate != nil:
		return "date"
	case p.ScheduledTime != nil:
		return "scheduled time"
	case p.ScheduledEndTime != nil:
		return "scheduled end time"
	}
	return ""
}

// MoveJob применяет патч к смене с учётом правила блокировки полей.
// Только администратор.
func (s *ScheduleService) MoveJob(ctx context.Context, credential string, jobID uuid.UUID, patch JobPatch) (*model.Job, error) {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job %s", jobID)
	}

	logCount, err := s.logs.CountByJob(ctx, jobID)
	if err != nil {
		return nil, apperr.Storef(err, "count time logs")
	}
	if logCount > 0 {
		if field := patch.lockedField(); field != "" {
			return nil, apperr.Conflictf("cannot change %s: time logs exist", field)
		}
	}

	fields := map[string]any{}

	if patch.JobDate != nil {
		date, err := schedule.ParseDate(*patch.JobDate)
		if err != nil {
			return nil, apperr.Validationf("job_date: %v", err)
		}
		fields["job_date"] = datatypes.Date(date)
	}
	scheduledTime, scheduledEnd, err := normalizeTimes(patch.ScheduledTime, patch.ScheduledEndTime)
	if err != nil {
		return nil, err
	}
	if scheduledTime != nil {
		fields["scheduled_time"] = *scheduledTime
	}
	if scheduledEnd != nil {
		fields["scheduled_end_time"] = *scheduledEnd
	}
	if err := validatePlannedMinutes(patch.PlannedMinutes); err != nil {
		return nil, err
	}
	if patch.PlannedMinutes != nil {
		fields["planned_minutes"] = *patch.PlannedMinutes
	}

	if patch.SiteID != nil {
		site, err := s.sites.GetByID(ctx, *patch.SiteID)
		if err != nil {
			return nil, notFoundOr(err, "site %s", *patch.SiteID)
		}
		if site.Archived() {
			return nil, apperr.Validationf("site %q is archived", site.Name)
		}
		fields["site_id"] = *patch.SiteID
	}
	if patch.WorkerID != nil {
		if _, err := s.workers.GetByID(ctx, *patch.WorkerID); err != nil {
			return nil, notFoundOr(err, "worker %s", *patch.WorkerID)
		}
		fields["worker_id"] = *patch.WorkerID
	}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperr.Validationf("unknown status %q", *patch.Status)
		}
		if job.Status.Terminal() && *patch.Status != job.Status {
			return nil, apperr.Conflictf("job is already %s", job.Status)
		}
		fields["status"] = *patch.Status
	}

	if len(fields) == 0 {
		return nil, apperr.Validationf("empty patch")
	}

	if err := s.jobs.UpdateFields(ctx, jobID, fields); err != nil {
		return nil, apperr.Storef(err, "update job")
	}

	updated, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job %s", jobID)
	}

	// Допуск следует за расписанием: после патча пара (объект, сотрудник)
	// должна иметь грант.
	if updated.WorkerID != nil {
		if err := s.assignments.Grant(ctx, updated.SiteID, *updated.WorkerID, ""); err != nil {
			return nil, apperr.Storef(err, "grant assignment")
		}
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeJobMoved,
		JobID:     &jobID,
		WorkerID:  updated.WorkerID,
	})

	return updated, nil
}

// MoveDay переносит все смены с одной даты на другую. Перенос дня на
// сам себя — ошибка: намерение неочевидно. Возвращает число перенесённых.
func (s *ScheduleService) MoveDay(ctx context.Context, credential string, fromDate, toDate string, onlyPlanned bool) (int64, error) {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return 0, err
	}

	from, err := schedule.ParseDate(fromDate)
	if err != nil {
		return 0, apperr.Validationf("from_date: %v", err)
	}
	to, err := schedule.ParseDate(toDate)
	if err != nil {
		return 0, apperr.Validationf("to_date: %v", err)
	}
	if from.Equal(to) {
		return 0, apperr.Validationf("from_date and to_date are the same")
	}

	moved, err := s.jobs.MoveDay(ctx, datatypes.Date(from), datatypes.Date(to), onlyPlanned)
	if err != nil {
		return 0, apperr.Storef(err, "move day")
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeDayMoved,
		Details:   fmt.Sprintf("from=%s to=%s moved=%d only_planned=%t", fromDate, toDate, moved, onlyPlanned),
	})

	return moved, nil
}

// MoveWorkerDay передаёт смены сотрудника за дату другому сотруднику и
// выдаёт получателю допуски на все унаследованные объекты.
func (s *ScheduleService) MoveWorkerDay(ctx context.Context, credential string, fromWorker, toWorker uuid.UUID, date string, onlyPlanned bool) (int64, error) {
	if _, err := authAdmin(ctx, s.dir, credential); err != nil {
		return 0, err
	}

	day, err := schedule.ParseDate(date)
	if err != nil {
		return 0, apperr.Validationf("job_date: %v", err)
	}
	if fromWorker == toWorker {
		return 0, apperr.Validationf("from_worker and to_worker are the same")
	}
	if _, err := s.workers.GetByID(ctx, toWorker); err != nil {
		return 0, notFoundOr(err, "worker %s", toWorker)
	}

	jobs, err := s.jobs.ListByWorkerAndDate(ctx, fromWorker, datatypes.Date(day), onlyPlanned)
	if err != nil {
		return 0, apperr.Storef(err, "list jobs")
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(jobs))
	siteSet := map[uuid.UUID]struct{}{}
	for _, j := range jobs {
		ids = append(ids, j.ID)
		siteSet[j.SiteID] = struct{}{}
	}

	moved, err := s.jobs.ReassignWorker(ctx, ids, toWorker)
	if err != nil {
		return 0, apperr.Storef(err, "reassign jobs")
	}

	// Получатель должен быть допущен на каждый объект, где он унаследовал
	// смены, иначе он не сможет сделать clock-in.
	for siteID := range siteSet {
		if err := s.assignments.Grant(ctx, siteID, toWorker, ""); err != nil {
			return moved, apperr.Storef(err, "grant assignment for site %s", siteID)
		}
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeWorkerDayMoved,
		WorkerID:  &toWorker,
		Details:   fmt.Sprintf("from=%s date=%s moved=%d", fromWorker, date, moved),
	})

	return moved, nil
}

// Запрос расписания.
type ScheduleQuery struct {
	DateFrom string
	DateTo   string
	SiteID   *uuid.UUID
	WorkerID *uuid.UUID
	Page     int
	PageSize int
}

// Строка расписания: смена плюс окно фактической активности.
type ScheduleEntry struct {
	Job        model.Job
	SiteName   string
	WorkerName string

	// Окно для отображения: самый ранний старт и самый поздний стоп по
	// записям смены. Это не сумма минут — её считает отчёт.
	ActualStart *time.Time
	ActualStop  *time.Time
}

// GetSchedule возвращает расписание за период. Сотрудник видит только
// свои смены, администратор — любые.
func (s *ScheduleService) GetSchedule(ctx context.Context, credential string, q ScheduleQuery) (schedule.Page[ScheduleEntry], error) {
	var empty schedule.Page[ScheduleEntry]

	caller, err := authActive(ctx, s.dir, credential)
	if err != nil {
		return empty, err
	}
	if caller.Role != identity.RoleAdmin {
		q.WorkerID = &caller.UserID
	}

	from, err := schedule.ParseDate(q.DateFrom)
	if err != nil {
		return empty, apperr.Validationf("date_from: %v", err)
	}
	to, err := schedule.ParseDate(q.DateTo)
	if err != nil {
		return empty, apperr.Validationf("date_to: %v", err)
	}
	if to.Before(from) {
		from, to = to, from
	}

	jobs, err := s.jobs.ListByRange(ctx, repository.JobFilter{
		From:     datatypes.Date(from),
		To:       datatypes.Date(to),
		SiteID:   q.SiteID,
		WorkerID: q.WorkerID,
	})
	if err != nil {
		return empty, apperr.Storef(err, "list jobs")
	}

	jobIDs := make([]uuid.UUID, 0, len(jobs))
	siteIDs := map[uuid.UUID]struct{}{}
	workerIDs := map[uuid.UUID]struct{}{}
	for _, j := range jobs {
		jobIDs = append(jobIDs, j.ID)
		siteIDs[j.SiteID] = struct{}{}
		if j.WorkerID != nil {
			workerIDs[*j.WorkerID] = struct{}{}
		}
	}

	logs, err := s.logs.ListByJobs(ctx, jobIDs)
	if err != nil {
		return empty, apperr.Storef(err, "list time logs")
	}
	logsByJob := map[uuid.UUID][]model.TimeLog{}
	for _, l := range logs {
		logsByJob[l.JobID] = append(logsByJob[l.JobID], l)
	}

	siteNames, workerNames, err := s.loadNames(ctx, siteIDs, workerIDs)
	if err != nil {
		return empty, err
	}

	entries := make([]ScheduleEntry, 0, len(jobs))
	for _, j := range jobs {
		start, stop := schedule.ActivityWindow(logsByJob[j.ID])
		entry := ScheduleEntry{
			Job:         j,
			SiteName:    siteNames[j.SiteID],
			ActualStart: start,
			ActualStop:  stop,
		}
		if j.WorkerID != nil {
			entry.WorkerName = workerNames[*j.WorkerID]
		}
		entries = append(entries, entry)
	}

	return schedule.Paginate(entries, q.Page, q.PageSize), nil
}

func (s *ScheduleService) loadNames(ctx context.Context, siteIDs, workerIDs map[uuid.UUID]struct{}) (map[uuid.UUID]string, map[uuid.UUID]string, error) {
	sites, err := s.sites.ListByIDs(ctx, keys(siteIDs))
	if err != nil {
		return nil, nil, apperr.Storef(err, "list sites")
	}
	workers, err := s.workers.ListByIDs(ctx, keys(workerIDs))
	if err != nil {
		return nil, nil, apperr.Storef(err, "list workers")
	}

	siteNames := make(map[uuid.UUID]string, len(sites))
	for _, st := range sites {
		siteNames[st.ID] = st.Name
	}
	workerNames := make(map[uuid.UUID]string, len(workers))
	for _, w := range workers {
		workerNames[w.ID] = w.DisplayName
	}
	return siteNames, workerNames, nil
}

func keys(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
