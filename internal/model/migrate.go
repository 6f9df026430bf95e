package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра смен.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Site{},
		&Worker{},
		&Assignment{},
		&Job{},
		&TimeLog{},
		&Event{},
	); err != nil {
		return err
	}

	// Частичный уникальный индекс: не более одной открытой записи времени
	// на смену. Вставка открытой записи и есть "захват" — гонка двойного
	// старта решается на уровне БД, а не проверкой перед вставкой.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_time_logs_open ` +
			`ON time_logs (job_id) WHERE stopped_at IS NULL`,
	).Error
}
