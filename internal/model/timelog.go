package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// time_logs — записи учёта времени (clock-in/clock-out).
// У одной смены может накопиться несколько записей (перезапуски после
// исправлений), но открытая запись (stopped_at IS NULL) — максимум одна:
// это закреплено частичным уникальным индексом uniq_time_logs_open.
type TimeLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	JobID    uuid.UUID `gorm:"type:uuid;not null;index"`
	WorkerID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartedAt     time.Time `gorm:"type:timestamp with time zone;not null;index"`
	StartLat      float64   `gorm:"not null"`
	StartLng      float64   `gorm:"not null"`
	StartAccuracy float64   `gorm:"not null"`

	StoppedAt    *time.Time `gorm:"type:timestamp with time zone"`
	StopLat      *float64
	StopLng      *float64
	StopAccuracy *float64

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	// Навигационные поля (опционально, для Preload).
	Job    *Job    `gorm:"foreignKey:JobID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Worker *Worker `gorm:"foreignKey:WorkerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// Open — открыта ли запись (clock-out ещё не сделан).
func (l *TimeLog) Open() bool {
	return l.StoppedAt == nil
}

func (l *TimeLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
