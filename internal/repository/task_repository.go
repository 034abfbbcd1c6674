package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harukimoto/devkpi/internal/database"
	"github.com/harukimoto/devkpi/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// FindOrCreateByName returns the task with the given name, creating it if
// absent. The insert is an insert-or-ignore against the unique index on
// name, so two concurrent calls for a new name yield exactly one row; the
// loser of the race reads back the winner's row.
func (r *GormTaskRepository) FindOrCreateByName(name, createdBy string) (*models.Task, error) {
	task := models.Task{
		Name:      name,
		Status:    models.TaskStatusInProgress,
		CreatedBy: createdBy,
	}

	err := r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&task).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return r.FindByName(name)
}

// FindByName finds a task by its unique name
func (r *GormTaskRepository) FindByName(name string) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("name = ?", name).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update persists changes to a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// CreateUpdate appends an immutable update row
func (r *GormTaskRepository) CreateUpdate(update *models.Update) error {
	return r.db.Create(update).Error
}

// CreateDefectIfAbsent inserts a defect unless the (task, defect id) pair
// already exists. Duplicate suppression happens at the store boundary via
// the composite unique index, not check-then-insert.
func (r *GormTaskRepository) CreateDefectIfAbsent(defect *models.Defect) (bool, error) {
	result := r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "defect_id"}},
			DoNothing: true,
		}).
		Create(defect)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListUpdates lists a task's updates in ascending timestamp order
func (r *GormTaskRepository) ListUpdates(taskID uint64) ([]models.Update, error) {
	var updates []models.Update
	err := r.db.
		Where("task_id = ?", taskID).
		Order("timestamp ASC").
		Find(&updates).Error
	return updates, err
}

// ListDefects lists a task's defects
func (r *GormTaskRepository) ListDefects(taskID uint64) ([]models.Defect, error) {
	var defects []models.Defect
	err := r.db.Where("task_id = ?", taskID).Find(&defects).Error
	return defects, err
}

// List retrieves tasks matching a filter, newest first
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})
	if filter.CreatedBy != nil {
		query = query.Scopes(database.CreatedBy(*filter.CreatedBy))
	}
	if filter.CreatedFrom != nil || filter.CreatedTo != nil {
		query = query.Scopes(database.CreatedBetween(filter.CreatedFrom, filter.CreatedTo))
	}
	if filter.Status != nil {
		query = query.Scopes(database.WithStatus(*filter.Status))
	}

	if err := query.Order("tasks.created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}
