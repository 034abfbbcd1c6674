package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/harukimoto/devkpi/internal/chat"
	apperrors "github.com/harukimoto/devkpi/internal/errors"
	"github.com/harukimoto/devkpi/internal/models"
	"github.com/harukimoto/devkpi/internal/repository"
)

var (
	// ErrTaskNotFound covers both an unknown task name and a task row with
	// no recorded creator; completion requires a task created through
	// RecordUpdate first.
	ErrTaskNotFound = apperrors.New(apperrors.ErrCodeTaskNotFound, "task not found")

	// ErrUserNotFound means no directory entry matched a mentioned handle.
	ErrUserNotFound = apperrors.New(apperrors.ErrCodeUserNotFound, "user not found")
)

// TaskService owns the task/update/defect lifecycle. It is the sole mutator
// of task state.
type TaskService struct {
	repo       repository.TaskRepository
	chatClient chat.Client
}

// NewTaskService creates a new TaskService
func NewTaskService(repo repository.TaskRepository, chatClient chat.Client) *TaskService {
	return &TaskService{
		repo:       repo,
		chatClient: chatClient,
	}
}

// RecordUpdateInput carries one parsed build message.
type RecordUpdateInput struct {
	TaskName   string
	AuthorID   string
	AuthorName string
	Role       models.UserRole
	Content    string
	DefectIDs  []string
	Timestamp  time.Time
}

// RecordUpdate finds or creates the named task, appends an update row and
// records any defect IDs not yet known for the task. The returned slice
// holds only the newly created defect IDs; re-mentioned defects are silently
// absorbed.
func (s *TaskService) RecordUpdate(input RecordUpdateInput) (*models.Task, []string, error) {
	task, err := s.repo.FindOrCreateByName(input.TaskName, input.AuthorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find or create task: %w", err)
	}

	update := &models.Update{
		TaskID:    task.ID,
		Username:  input.AuthorName,
		Role:      input.Role,
		Content:   input.Content,
		Timestamp: input.Timestamp,
	}
	if err := s.repo.CreateUpdate(update); err != nil {
		return nil, nil, fmt.Errorf("failed to record update: %w", err)
	}

	var newDefects []string
	for _, defectID := range input.DefectIDs {
		created, err := s.repo.CreateDefectIfAbsent(&models.Defect{
			TaskID:             task.ID,
			DefectID:           defectID,
			Status:             models.DefectStatusOpen,
			ReportedInUpdateID: update.ID,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to record defect %s: %w", defectID, err)
		}
		if created {
			newDefects = append(newDefects, defectID)
		}
	}

	return task, newDefects, nil
}

// CompleteTask marks the named task as completed and returns it with its
// updates (ascending timestamp) and defects. Completing a task that was
// never created through RecordUpdate is a data-integrity violation.
func (s *TaskService) CompleteTask(taskName string) (*models.Task, []models.Update, []models.Defect, error) {
	task, err := s.repo.FindByName(taskName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrTaskNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task.CreatedBy == "" {
		return nil, nil, nil, ErrTaskNotFound
	}

	now := time.Now()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now
	if err := s.repo.Update(task); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to complete task: %w", err)
	}

	updates, err := s.repo.ListUpdates(task.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list updates: %w", err)
	}
	defects, err := s.repo.ListDefects(task.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list defects: %w", err)
	}

	return task, updates, defects, nil
}

// QueryTasksInput represents an optional-field task filter. CreatedTo is a
// calendar date, expanded to the end of that day.
type QueryTasksInput struct {
	CreatedBy   *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Status      *models.TaskStatus
}

// QueryTasks returns tasks matching the filter, newest first. An empty
// filter returns every task.
func (s *TaskService) QueryTasks(input QueryTasksInput) ([]models.Task, error) {
	filter := repository.TaskFilter{
		CreatedBy:   input.CreatedBy,
		CreatedFrom: input.CreatedFrom,
		Status:      input.Status,
	}
	if input.CreatedTo != nil {
		to := endOfDay(*input.CreatedTo)
		filter.CreatedTo = &to
	}

	tasks, err := s.repo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return tasks, nil
}

// ResolveAuthorIdentity resolves a mentioned handle or display name to a
// chat identity via the platform directory, case-insensitively.
func (s *TaskService) ResolveAuthorIdentity(ctx context.Context, handle string) (string, error) {
	users, err := s.chatClient.ListUsers(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeCollaboratorFailure, "failed to list directory entries", err)
	}

	for _, user := range users {
		if strings.EqualFold(user.Name, handle) || strings.EqualFold(user.DisplayName, handle) {
			return user.ID, nil
		}
	}

	return "", ErrUserNotFound
}

func endOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
}
