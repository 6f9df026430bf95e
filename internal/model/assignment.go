package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignments — допуски "сотрудник может работать на объекте".
// Пара (site_id, worker_id) уникальна; повторная выдача допуска — no-op.
type Assignment struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	SiteID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_assignments_pair;index"`
	WorkerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_assignments_pair;index"`

	Note string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`

	// Навигационные поля (опционально, для Preload).
	Site   *Site   `gorm:"foreignKey:SiteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Worker *Worker `gorm:"foreignKey:WorkerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
