package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleanshift/core/internal/model"
)

type AssignmentRepository interface {
	// Выдать допуск (site_id, worker_id). Идемпотентно: повторная и
	// конкурентная выдача сходятся в одну строку без ошибки.
	Grant(ctx context.Context, siteID, workerID uuid.UUID, note string) error
	// Есть ли у сотрудника допуск на объект.
	Has(ctx context.Context, siteID, workerID uuid.UUID) (bool, error)
	// Отозвать допуск. Уже запланированные смены не трогает.
	Revoke(ctx context.Context, siteID, workerID uuid.UUID) error
	// Допуски сотрудника.
	ListByWorker(ctx context.Context, workerID uuid.UUID) ([]model.Assignment, error)
}

type GormAssignmentRepository struct {
	db *gorm.DB
}

func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

func (r *GormAssignmentRepository) Grant(ctx context.Context, siteID, workerID uuid.UUID, note string) error {
	a := model.Assignment{SiteID: siteID, WorkerID: workerID, Note: note}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "site_id"}, {Name: "worker_id"}},
			DoNothing: true,
		}).
		Create(&a).
		Error
}

func (r *GormAssignmentRepository) Has(ctx context.Context, siteID, workerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("site_id = ? AND worker_id = ?", siteID, workerID).
		Count(&count).
		Error
	return count > 0, err
}

func (r *GormAssignmentRepository) Revoke(ctx context.Context, siteID, workerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("site_id = ? AND worker_id = ?", siteID, workerID).
		Delete(&model.Assignment{}).
		Error
}

func (r *GormAssignmentRepository) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]model.Assignment, error) {
	var list []model.Assignment
	if err := r.db.WithContext(ctx).Where("worker_id = ?", workerID).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
