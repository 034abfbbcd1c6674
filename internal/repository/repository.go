package repository

import (
	"time"

	"github.com/harukimoto/devkpi/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// FindOrCreateByName returns the task with the given name, creating it
	// first if absent. Safe under concurrent invocation for the same name:
	// the uniqueness constraint on the name column decides the winner.
	FindOrCreateByName(name, createdBy string) (*models.Task, error)

	// FindByName finds a task by its unique name
	FindByName(name string) (*models.Task, error)

	// Update persists changes to a task
	Update(task *models.Task) error

	// CreateUpdate appends an immutable update row
	CreateUpdate(update *models.Update) error

	// CreateDefectIfAbsent inserts a defect unless the (task, defect id)
	// pair already exists. Returns true when a new row was created.
	CreateDefectIfAbsent(defect *models.Defect) (bool, error)

	// ListUpdates lists a task's updates in ascending timestamp order
	ListUpdates(taskID uint64) ([]models.Update, error)

	// ListDefects lists a task's defects
	ListDefects(taskID uint64) ([]models.Defect, error)

	// List retrieves tasks matching a filter, newest first
	List(filter TaskFilter) ([]models.Task, error)
}

// TaskFilter holds filtering options for listing tasks. Nil fields are
// unconstrained; an empty filter matches every task.
type TaskFilter struct {
	CreatedBy   *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Status      *models.TaskStatus
}
