package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanshift/core/internal/model"
)

type SiteRepository interface {
	// Создать объект.
	Create(ctx context.Context, site *model.Site) error
	// Найти объект по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Site, error)
	// Объекты по набору ID (для отчётов и расписания).
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Site, error)
	// Перевести объект в архив (мягкое удаление).
	Archive(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Реализация на GORM.
type GormSiteRepository struct {
	db *gorm.DB
}

func NewGormSiteRepository(db *gorm.DB) *GormSiteRepository {
	return &GormSiteRepository{db: db}
}

func (r *GormSiteRepository) Create(ctx context.Context, site *model.Site) error {
	return r.db.WithContext(ctx).Create(site).Error
}

func (r *GormSiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	var s model.Site
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSiteRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Site, error) {
	if len(ids) == 0 {
		return []model.Site{}, nil
	}
	var sites []model.Site
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

func (r *GormSiteRepository) Archive(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Site{}).
		Where("id = ?", id).
		Update("archived_at", at).
		Error
}
