package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Радиус геозоны по умолчанию, метры.
const DefaultSiteRadiusM = 150

// sites — объекты уборки.
type Site struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name    string `gorm:"type:varchar(255);not null"`
	Address string `gorm:"type:text"`

	// Координаты объекта. Могут отсутствовать, пока адрес не геокодирован:
	// без координат смена на объекте не может быть начата.
	Lat *float64
	Lng *float64

	// Радиус геозоны в метрах.
	RadiusM int `gorm:"not null;default:150"`

	// Категория объекта (1..15), опционально.
	Category *int

	Notes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	// Мягкое удаление: архивный объект не принимает новые смены.
	ArchivedAt *time.Time `gorm:"type:timestamp with time zone"`
}

// HasCoordinates — заданы ли координаты объекта.
func (s *Site) HasCoordinates() bool {
	return s.Lat != nil && s.Lng != nil
}

// Archived — находится ли объект в архиве.
func (s *Site) Archived() bool {
	return s.ArchivedAt != nil
}

func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
