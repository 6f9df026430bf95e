package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cleanshift/core/internal/model"
)

// Фильтр выборки смен за период.
type JobFilter struct {
	From datatypes.Date
	To   datatypes.Date
	// Опциональные фильтры по объекту/сотруднику.
	SiteID   *uuid.UUID
	WorkerID *uuid.UUID
}

type JobRepository interface {
	// Создать смену.
	Create(ctx context.Context, job *model.Job) error
	// Найти смену по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Job, error)
	// Точечное обновление полей смены.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// Атомарный захват свободной смены: worker_id выставляется только если
	// он ещё NULL. Возвращает false, если строка уже занята.
	ClaimWorker(ctx context.Context, jobID, workerID uuid.UUID) (bool, error)
	// Условный перевод статуса: выполняется только из перечисленных статусов.
	// Возвращает false, если текущий статус уже другой.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from []model.JobStatus, to model.JobStatus) (bool, error)
	// Смены за период с опциональными фильтрами, по дате и времени начала.
	ListByRange(ctx context.Context, f JobFilter) ([]model.Job, error)
	// Смены сотрудника на дату (опционально только запланированные).
	ListByWorkerAndDate(ctx context.Context, workerID uuid.UUID, date datatypes.Date, onlyPlanned bool) ([]model.Job, error)
	// Массовый перенос дня: job_date := to для всех смен на from.
	// Возвращает число перенесённых смен.
	MoveDay(ctx context.Context, from, to datatypes.Date, onlyPlanned bool) (int64, error)
	// Массовая передача смен другому сотруднику по списку ID.
	ReassignWorker(ctx context.Context, ids []uuid.UUID, workerID uuid.UUID) (int64, error)
	// Удалить смену. Допустимость удаления проверяет сервис.
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormJobRepository struct {
	db *gorm.DB
}

func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

func (r *GormJobRepository) Create(ctx context.Context, job *model.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *GormJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var j model.Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *GormJobRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ?", id).
		Updates(fields).
		Error
}

func (r *GormJobRepository) ClaimWorker(ctx context.Context, jobID, workerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ? AND worker_id IS NULL", jobID).
		Update("worker_id", workerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormJobRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []model.JobStatus, to model.JobStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormJobRepository) ListByRange(ctx context.Context, f JobFilter) ([]model.Job, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("job_date >= ? AND job_date <= ?", f.From, f.To)

	if f.SiteID != nil {
		q = q.Where("site_id = ?", *f.SiteID)
	}
	if f.WorkerID != nil {
		q = q.Where("worker_id = ?", *f.WorkerID)
	}

	var jobs []model.Job
	if err := q.Order("job_date ASC, scheduled_time ASC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *GormJobRepository) ListByWorkerAndDate(ctx context.Context, workerID uuid.UUID, date datatypes.Date, onlyPlanned bool) ([]model.Job, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("worker_id = ? AND job_date = ?", workerID, date)
	if onlyPlanned {
		q = q.Where("status = ?", model.JobStatusPlanned)
	}

	var jobs []model.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *GormJobRepository) MoveDay(ctx context.Context, from, to datatypes.Date, onlyPlanned bool) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("job_date = ?", from)
	if onlyPlanned {
		q = q.Where("status = ?", model.JobStatusPlanned)
	}

	res := q.Update("job_date", to)
	return res.RowsAffected, res.Error
}

func (r *GormJobRepository) ReassignWorker(ctx context.Context, ids []uuid.UUID, workerID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id IN ?", ids).
		Update("worker_id", workerID)
	return res.RowsAffected, res.Error
}

func (r *GormJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Job{}, "id = ?", id).Error
}
