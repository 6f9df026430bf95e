package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Роль сотрудника в системе.
type WorkerRole string

const (
	WorkerRoleAdmin  WorkerRole = "admin"
	WorkerRoleWorker WorkerRole = "worker"
)

// workers — профили сотрудников. Идентификацию и сессии ведёт внешний
// сервис каталога; здесь хранится профиль для расписания и отчётов.
type Worker struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Role   WorkerRole `gorm:"type:varchar(32);not null;default:'worker';index"`
	Active bool       `gorm:"not null;default:true"`

	DisplayName  string `gorm:"type:varchar(255);not null"`
	ContactPhone string `gorm:"type:varchar(32)"`
	ContactEmail string `gorm:"type:varchar(255)"`

	Note string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (w *Worker) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
