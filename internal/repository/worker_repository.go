package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanshift/core/internal/model"
)

type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Worker, error)
}

type GormWorkerRepository struct {
	db *gorm.DB
}

func NewGormWorkerRepository(db *gorm.DB) *GormWorkerRepository {
	return &GormWorkerRepository{db: db}
}

func (r *GormWorkerRepository) Create(ctx context.Context, worker *model.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}

func (r *GormWorkerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var w model.Worker
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormWorkerRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Worker, error) {
	if len(ids) == 0 {
		return []model.Worker{}, nil
	}
	var workers []model.Worker
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}
