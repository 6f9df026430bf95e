package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeJobCreated     EventType = "job_created"
	EventTypeJobAccepted    EventType = "job_accepted"
	EventTypeJobStarted     EventType = "job_started"
	EventTypeJobStopped     EventType = "job_stopped"
	EventTypeJobCancelled   EventType = "job_cancelled"
	EventTypeJobMoved       EventType = "job_moved"
	EventTypeDayMoved       EventType = "day_moved"
	EventTypeWorkerDayMoved EventType = "worker_day_moved"
	EventTypeLogCorrected   EventType = "log_corrected"
)

// events — события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	JobID    *uuid.UUID `gorm:"type:uuid;index"`
	WorkerID *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`

	// Навигационные поля
	Job    *Job    `gorm:"foreignKey:JobID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Worker *Worker `gorm:"foreignKey:WorkerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
