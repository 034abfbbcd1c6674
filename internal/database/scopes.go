package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/harukimoto/devkpi/internal/models"
)

// CreatedBy restricts tasks to a single creator identity.
func CreatedBy(identity string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.created_by = ?", identity)
	}
}

// CreatedBetween restricts tasks to an inclusive creation window. Either
// bound may be nil.
func CreatedBetween(from, to *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("tasks.created_at >= ?", *from)
		}
		if to != nil {
			db = db.Where("tasks.created_at <= ?", *to)
		}
		return db
	}
}

// WithStatus restricts tasks to one lifecycle status.
func WithStatus(status models.TaskStatus) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.status = ?", status)
	}
}
