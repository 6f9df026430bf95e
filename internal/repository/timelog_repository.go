package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanshift/core/internal/model"
)

type TimeLogRepository interface {
	// Вставить открытую запись времени. Вторая открытая запись по той же
	// смене упирается в uniq_time_logs_open и возвращает
	// gorm.ErrDuplicatedKey — это и есть защита от двойного старта.
	Create(ctx context.Context, log *model.TimeLog) error
	// Число записей по смене (правило блокировки полей).
	CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error)
	// Открытая запись по смене и сотруднику; при нескольких — самая поздняя
	// по started_at.
	FindOpen(ctx context.Context, jobID, workerID uuid.UUID) (*model.TimeLog, error)
	// Самая ранняя запись по смене (для ручной корректировки).
	EarliestByJob(ctx context.Context, jobID uuid.UUID) (*model.TimeLog, error)
	// Закрыть запись: stopped_at и координаты стопа.
	Close(ctx context.Context, id uuid.UUID, stoppedAt time.Time, lat, lng, accuracy float64) error
	// Переписать stopped_at (ручная корректировка, без геозоны).
	SetStoppedAt(ctx context.Context, id uuid.UUID, stoppedAt time.Time) error
	// Записи, стартовавшие в интервале [from, to] (для отчётов).
	ListByStartedRange(ctx context.Context, from, to time.Time) ([]model.TimeLog, error)
	// Все записи по набору смен (для окна активности в расписании).
	ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.TimeLog, error)
}

type GormTimeLogRepository struct {
	db *gorm.DB
}

func NewGormTimeLogRepository(db *gorm.DB) *GormTimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

func (r *GormTimeLogRepository) Create(ctx context.Context, log *model.TimeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *GormTimeLogRepository) CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TimeLog{}).
		Where("job_id = ?", jobID).
		Count(&count).
		Error
	return count, err
}

func (r *GormTimeLogRepository) FindOpen(ctx context.Context, jobID, workerID uuid.UUID) (*model.TimeLog, error) {
	var l model.TimeLog
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND worker_id = ? AND stopped_at IS NULL", jobID, workerID).
		Order("started_at DESC").
		First(&l).
		Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *GormTimeLogRepository) EarliestByJob(ctx context.Context, jobID uuid.UUID) (*model.TimeLog, error) {
	var l model.TimeLog
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("started_at ASC").
		First(&l).
		Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *GormTimeLogRepository) Close(ctx context.Context, id uuid.UUID, stoppedAt time.Time, lat, lng, accuracy float64) error {
	return r.db.WithContext(ctx).
		Model(&model.TimeLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stopped_at":    stoppedAt,
			"stop_lat":      lat,
			"stop_lng":      lng,
			"stop_accuracy": accuracy,
		}).
		Error
}

func (r *GormTimeLogRepository) SetStoppedAt(ctx context.Context, id uuid.UUID, stoppedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.TimeLog{}).
		Where("id = ?", id).
		Update("stopped_at", stoppedAt).
		Error
}

func (r *GormTimeLogRepository) ListByStartedRange(ctx context.Context, from, to time.Time) ([]model.TimeLog, error) {
	var logs []model.TimeLog
	err := r.db.WithContext(ctx).
		Where("started_at >= ? AND started_at <= ?", from, to).
		Order("started_at ASC").
		Find(&logs).
		Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *GormTimeLogRepository) ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.TimeLog, error) {
	if len(jobIDs) == 0 {
		return []model.TimeLog{}, nil
	}
	var logs []model.TimeLog
	err := r.db.WithContext(ctx).
		Where("job_id IN ?", jobIDs).
		Order("started_at ASC").
		Find(&logs).
		Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
