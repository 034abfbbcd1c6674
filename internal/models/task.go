package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

type Task struct {
	ID                  uint64     `gorm:"primarykey" json:"id"`
	Name                string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Status              TaskStatus `gorm:"type:varchar(20);not null;default:'In Progress'" json:"status"`
	CreatedBy           string     `gorm:"type:varchar(64);not null" json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	CompletedAt         *time.Time `json:"completed_at"`
	ReportPath          string     `gorm:"type:varchar(512)" json:"report_path"`
	AnalyticsReportPath string     `gorm:"type:varchar(512)" json:"analytics_report_path"`

	// Relations
	Updates []Update `gorm:"foreignKey:TaskID" json:"updates,omitempty"`
	Defects []Defect `gorm:"foreignKey:TaskID" json:"defects,omitempty"`
}

// CycleTimeDays returns the whole days between creation and completion.
// The second return is false while the task is still open.
func (t *Task) CycleTimeDays() (int, bool) {
	if t.CompletedAt == nil {
		return 0, false
	}
	return int(t.CompletedAt.Sub(t.CreatedAt).Hours() / 24), true
}
