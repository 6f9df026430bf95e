package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleanshift/core/internal/apperr"
	"github.com/cleanshift/core/internal/geo"
	"github.com/cleanshift/core/internal/identity"
	"github.com/cleanshift/core/internal/model"
	"github.com/cleanshift/core/internal/repository"
	"github.com/cleanshift/core/internal/schedule"
)

// Потолок погрешности GPS, метры. Это порог качества сигнала,
// а не расстояние до объекта.
const MaxAccuracyM = 80.0

// GPS-позиция вызывающего на момент отметки.
type Position struct {
	Lat       float64
	Lng       float64
	AccuracyM float64
}

// ClockService ведёт записи времени: clock-in/clock-out под геозоной
// и ручные корректировки администратора.
type ClockService struct {
	dir    identity.Directory
	jobs   repository.JobRepository
	sites  repository.SiteRepository
	logs   repository.TimeLogRepository
	events repository.EventRepository
	logger *zap.Logger
}

func NewClockService(
	dir identity.Directory,
	jobs repository.JobRepository,
	sites repository.SiteRepository,
	logs repository.TimeLogRepository,
	events repository.EventRepository,
	logger *zap.Logger,
) *ClockService {
	return &ClockService{
		dir:    dir,
		jobs:   jobs,
		sites:  sites,
		logs:   logs,
		events: events,
		logger: logger,
	}
}

// Start делает clock-in: открывает запись времени и переводит смену
// в in_progress. Требует присутствия в геозоне объекта.
func (s *ClockService) Start(ctx context.Context, credential string, jobID uuid.UUID, pos Position) (*model.TimeLog, error) {
	caller, err := authActive(ctx, s.dir, credential)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job %s", jobID)
	}
	if job.WorkerID == nil || *job.WorkerID != caller.UserID {
		return nil, apperr.Forbidden("not permitted")
	}

	switch job.Status {
	case model.JobStatusPlanned:
		// ok
	case model.JobStatusInProgress:
		// Повторный старт — конфликт: открытая запись должна быть одна.
		return nil, apperr.Conflictf("job already started")
	default:
		return nil, apperr.Conflictf("job is %s and cannot be started", job.Status)
	}

	site, err := s.sites.GetByID(ctx, job.SiteID)
	if err != nil {
		return nil, notFoundOr(err, "site %s", job.SiteID)
	}
	if err := s.checkGeofence(site, pos); err != nil {
		return nil, err
	}

	log := &model.TimeLog{
		JobID:         jobID,
		WorkerID:      caller.UserID,
		StartedAt:     time.Now().UTC(),
		StartLat:      pos.Lat,
		StartLng:      pos.Lng,
		StartAccuracy: pos.AccuracyM,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflictf("time tracking already running for this job")
		}
		return nil, apperr.Storef(err, "create time log")
	}

	ok, err := s.jobs.UpdateStatusIf(ctx, jobID,
		[]model.JobStatus{model.JobStatusPlanned}, model.JobStatusInProgress)
	if err != nil || !ok {
		// Запись времени вставлена, а статус не переключился: состояние
		// рассогласовано и требует вмешательства, молчать нельзя.
		s.logger.Error("time log recorded but status flip failed",
			zap.String("job_id", jobID.String()), zap.Error(err))
		return nil, apperr.Storef(err, "time log recorded but job status update failed")
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeJobStarted,
		JobID:     &jobID,
		WorkerID:  &caller.UserID,
		Details:   fmt.Sprintf("distance within %dm radius", site.RadiusM),
	})

	return log, nil
}

// Stop делает clock-out: закрывает открытую запись и переводит смену
// в done. Тоже только из геозоны объекта.
func (s *ClockService) Stop(ctx context.Context, credential string, jobID uuid.UUID, pos Position) (*model.TimeLog, error) {
	caller, err := authActive(ctx, s.dir, credential)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "job %s", jobID)
	}
	if job.WorkerID == nil || *job.WorkerID != caller.UserID {
		return nil, apperr.Forbidden("not permitted")
	}
	if job.Status != model.JobStatusInProgress {
		return nil, apperr.Conflictf("job is %s, nothing to stop", job.Status)
	}

	site, err := s.sites.GetByID(ctx, job.SiteID)
	if err != nil {
		return nil, notFoundOr(err, "site %s", job.SiteID)
	}
	if err := s.checkGeofence(site, pos); err != nil {
		return nil, err
	}

	open, err := s.logs.FindOpen(ctx, jobID, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validationf("no open time log, nothing to stop")
		}
		return nil, apperr.Storef(err, "find open time log")
	}

	stoppedAt := time.Now().UTC()
	if err := s.logs.Close(ctx, open.ID, stoppedAt, pos.Lat, pos.Lng, pos.AccuracyM); err != nil {
		return nil, apperr.Storef(err, "close time log")
	}

	ok, err := s.jobs.UpdateStatusIf(ctx, jobID,
		[]model.JobStatus{model.JobStatusInProgress}, model.JobStatusDone)
	if err != nil || !ok {
		s.logger.Error("time log closed but status flip failed",
			zap.String("job_id", jobID.String()), zap.Error(err))
		return nil, apperr.Storef(err, "time log closed but job status update failed")
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeJobStopped,
		JobID:     &jobID,
		WorkerID:  &caller.UserID,
		Details:   fmt.Sprintf("minutes=%d", schedule.MinutesBetween(open.StartedAt, stoppedAt)),
	})

	open.StoppedAt = &stoppedAt
	open.StopLat = &pos.Lat
	open.StopLng = &pos.Lng
	open.StopAccuracy = &pos.AccuracyM
	return open, nil
}

// CorrectActualMinutes — ручная корректировка администратора: по самой
// ранней записи смены переписывает stopped_at := started_at + duration
// ("H:MM"). Геозона не перепроверяется, статус смены не меняется.
func (s *ClockService) CorrectActualMinutes(ctx context.Context, credential string, jobID uuid.UUID, duration string) (*model.TimeLog, error) {
	caller, err := authAdmin(ctx, s.dir, credential)
	if err != nil {
		return nil, err
	}

	d, err := schedule.ParseHoursMinutes(duration)
	if err != nil {
		return nil, apperr.Validationf("duration: %v", err)
	}

	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return nil, notFoundOr(err, "job %s", jobID)
	}

	earliest, err := s.logs.EarliestByJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validationf("no time logs to correct")
		}
		return nil, apperr.Storef(err, "find earliest time log")
	}
	if earliest.StartedAt.IsZero() {
		return nil, apperr.Validationf("time log has no start timestamp")
	}

	stoppedAt := earliest.StartedAt.Add(d)
	if err := s.logs.SetStoppedAt(ctx, earliest.ID, stoppedAt); err != nil {
		return nil, apperr.Storef(err, "correct time log")
	}

	recordEvent(ctx, s.events, s.logger, &model.Event{
		EventType: model.EventTypeLogCorrected,
		JobID:     &jobID,
		WorkerID:  &caller.UserID,
		Details:   fmt.Sprintf("duration=%s", duration),
	})

	earliest.StoppedAt = &stoppedAt
	return earliest, nil
}

// checkGeofence — общий гейт для clock-in/clock-out. Дефекты конфигурации
// объекта (нет координат, нет радиуса) — это ValidationError, отличимый
// от "слишком далеко": пользователь не может исправить их перемещением.
func (s *ClockService) checkGeofence(site *model.Site, pos Position) error {
	if !site.HasCoordinates() {
		return apperr.Validationf("site %q has no coordinates", site.Name)
	}
	if site.RadiusM <= 0 {
		return apperr.Validationf("site %q has no geofence radius", site.Name)
	}

	if pos.AccuracyM > MaxAccuracyM {
		return apperr.Geofence(
			fmt.Sprintf("gps accuracy %.0fm exceeds %.0fm limit", pos.AccuracyM, MaxAccuracyM),
			0, pos.AccuracyM, site.RadiusM,
		)
	}

	dist := geo.DistanceMeters(pos.Lat, pos.Lng, *site.Lat, *site.Lng)
	if dist > float64(site.RadiusM) {
		return apperr.Geofence(
			fmt.Sprintf("too far from site: %.0fm > %dm", dist, site.RadiusM),
			dist, pos.AccuracyM, site.RadiusM,
		)
	}
	return nil
}
