package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Статус смены.
type JobStatus string

const (
	JobStatusPlanned    JobStatus = "planned"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusDone       JobStatus = "done"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal — является ли статус терминальным (из него нет переходов).
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusCancelled
}

// Valid — известен ли статус.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPlanned, JobStatusInProgress, JobStatusDone, JobStatusCancelled:
		return true
	}
	return false
}

// jobs — смены (рабочие выходы на объект).
type Job struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	SiteID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Пусто до назначения: сотрудник может сам забрать свободную смену.
	WorkerID *uuid.UUID `gorm:"type:uuid;index"`

	// Календарная дата смены, без времени.
	JobDate datatypes.Date `gorm:"type:date;not null;index"`

	// Плановое время начала/окончания "HH:MM", опционально.
	ScheduledTime    *string `gorm:"type:varchar(5)"`
	ScheduledEndTime *string `gorm:"type:varchar(5)"`

	// Плановая длительность в минутах (1..1440), опционально.
	PlannedMinutes *int

	Status JobStatus `gorm:"type:varchar(32);not null;default:'planned';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	// Навигационные поля (опционально, для Preload).
	Site   *Site   `gorm:"foreignKey:SiteID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Worker *Worker `gorm:"foreignKey:WorkerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
