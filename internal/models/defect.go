package models

import (
	"time"
)

type DefectStatus string

const (
	DefectStatusOpen     DefectStatus = "Open"
	DefectStatusResolved DefectStatus = "Resolved"
)

// Defect is a normalized defect identifier ("D<number>") observed within an
// update. The composite unique index makes re-mentioning the same ID for the
// same task an insert-or-ignore no-op rather than a duplicate row.
type Defect struct {
	ID                 uint64       `gorm:"primarykey" json:"id"`
	TaskID             uint64       `gorm:"not null;uniqueIndex:idx_defects_task_defect" json:"task_id"`
	DefectID           string       `gorm:"type:varchar(32);not null;uniqueIndex:idx_defects_task_defect" json:"defect_id"`
	Status             DefectStatus `gorm:"type:varchar(20);not null;default:'Open'" json:"status"`
	ReportedInUpdateID uint64       `json:"reported_in_update_id"`
	ResolvedAt         *time.Time   `json:"resolved_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}
