package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/shred787/mindaid/domain/task"
	"gorm.io/gorm"
)

// TaskRepository provides GORM-backed task storage.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Migrate creates or updates the tasks table.
func (r *TaskRepository) Migrate() error {
	return r.db.AutoMigrate(&domain.Task{})
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// ListFilter narrows FindAll.
type ListFilter struct {
	UserID string
	// Day restricts results to tasks scheduled within [Day, Day+24h) when non-zero.
	Day time.Time
}

// FindAll lists tasks ordered by priority (most urgent first) then scheduled start.
func (r *TaskRepository) FindAll(ctx context.Context, filter ListFilter) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).Model(&domain.Task{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if !filter.Day.IsZero() {
		query = query.Where("scheduled_start >= ? AND scheduled_start < ?", filter.Day, filter.Day.Add(24*time.Hour))
	}

	var tasks []*domain.Task
	if err := query.Order("priority DESC").Order("scheduled_start ASC").Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update writes the given columns of task, provided its completion flag is
// still expectCompleted. A completion or reopen committed after the caller
// read the task makes the update fail with ErrConcurrentUpdate instead of
// overwriting it.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task, expectCompleted bool, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND completed = ?", task.ID, expectCompleted).
		Select(columns).
		Updates(task)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	if _, err := r.FindByID(ctx, task.ID); err != nil {
		return err
	}
	return ErrConcurrentUpdate
}

// Complete commits a completion in one conditional statement: the task is
// marked completed and the evidence attached only if it is not completed yet.
// Of two concurrent calls for the same task exactly one succeeds; the other
// gets ErrAlreadyCompleted.
func (r *TaskRepository) Complete(ctx context.Context, id string, evidence *domain.Evidence, at time.Time) error {
	completedAt := at
	result := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND completed = ?", id, false).
		Select("completed", "status", "completion_evidence", "completed_at", "updated_at").
		Updates(&domain.Task{
			Completed:   true,
			Status:      domain.StatusCompleted,
			Evidence:    evidence,
			CompletedAt: &completedAt,
			UpdatedAt:   at,
		})
	if err := result.Error; err != nil {
		return fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// Nothing matched: tell a missing task apart from a completed one.
	if _, err := r.FindByID(ctx, id); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return ErrAlreadyCompleted
}

// Delete removes a task by ID.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
