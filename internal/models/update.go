package models

import (
	"time"
)

type UserRole string

const (
	UserRoleDev UserRole = "DEV"
	UserRoleQA  UserRole = "QA"
)

// Update is one authored message attached to a task. Updates are immutable
// once created and are always read back in ascending timestamp order.
type Update struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	Username  string    `gorm:"type:varchar(255);not null" json:"username"`
	Role      UserRole  `gorm:"type:varchar(10);not null;default:'DEV'" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}
