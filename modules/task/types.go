package task

import (
	"context"
	"time"

	domain "github.com/shred787/mindaid/domain/task"
)

// DateLayout is the format of day filters.
const DateLayout = "2006-01-02"

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	ParentID         *string          `json:"parent_id,omitempty"`
	SourceTaskID     *string          `json:"source_task_id,omitempty"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Status           string           `json:"status"`
	Priority         int              `json:"priority"`
	Completed        bool             `json:"completed"`
	EstimatedMinutes *int             `json:"estimated_minutes,omitempty"`
	ScheduledStart   *time.Time       `json:"scheduled_start,omitempty"`
	ScheduledEnd     *time.Time       `json:"scheduled_end,omitempty"`
	Evidence         *domain.Evidence `json:"completion_evidence,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// TaskReply wraps a single task. Error holds a reply code when the call failed
// for a domain reason.
type TaskReply struct {
	Task    *TaskResponse `json:"task,omitempty"`
	Error   string        `json:"error,omitempty"`
	Message string        `json:"message,omitempty"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	UserID           string     `json:"user_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Priority         int        `json:"priority,omitempty"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	ScheduledStart   *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd     *time.Time `json:"scheduled_end,omitempty"`
	ParentID         *string    `json:"parent_id,omitempty"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// UpdateTaskRequest is a partial update; nil fields are left unchanged.
type UpdateTaskRequest struct {
	TaskID           string     `json:"task_id"`
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	Status           *string    `json:"status,omitempty"`
	Priority         *int       `json:"priority,omitempty"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	ScheduledStart   *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd     *time.Time `json:"scheduled_end,omitempty"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// ListTasksRequest is the request for listing tasks. Date is optional (YYYY-MM-DD).
type ListTasksRequest struct {
	UserID string `json:"user_id,omitempty"`
	Date   string `json:"date,omitempty"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
	Error string         `json:"error,omitempty"`
}

// CompleteTaskRequest is the request for completing a task with evidence.
type CompleteTaskRequest struct {
	TaskID   string           `json:"task_id"`
	Evidence *domain.Evidence `json:"evidence"`
}

// CompleteTaskResponse is the outcome of a completion attempt.
type CompleteTaskResponse struct {
	Outcome   Outcome        `json:"outcome,omitempty"`
	Task      *TaskResponse  `json:"task,omitempty"`
	FollowUps []TaskResponse `json:"follow_ups,omitempty"`
	Insights  []string       `json:"insights,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Guidance  string         `json:"guidance,omitempty"`
	Analysis  string         `json:"analysis,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// OverviewRequest asks for a user's daily summary. Date defaults to today (UTC).
type OverviewRequest struct {
	UserID string `json:"user_id"`
	Date   string `json:"date,omitempty"`
}

// OverviewResponse summarizes a user's day.
type OverviewResponse struct {
	Date           string `json:"date"`
	TaskCount      int    `json:"task_count"`
	UrgentCount    int    `json:"urgent_count"`
	CompletedCount int    `json:"completed_count"`
	Error          string `json:"error,omitempty"`
}

// PlanTaskRequest asks to turn a free-form message into tasks.
type PlanTaskRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// PlanTaskResponse reports what planning produced. When NeedsInfo is set no
// task was created and Questions must be answered first.
type PlanTaskResponse struct {
	IsTask    bool           `json:"is_task"`
	NeedsInfo bool           `json:"needs_info"`
	Questions []string       `json:"questions,omitempty"`
	Task      *TaskResponse  `json:"task,omitempty"`
	Subtasks  []TaskResponse `json:"subtasks,omitempty"`
	Error     string         `json:"error,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// TaskPort defines the task operations driving adapters (like the HTTP API) use.
// Domain failures come back as the package's sentinel errors.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error)
	GetTask(ctx context.Context, taskID string) (*TaskResponse, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error)
	DeleteTask(ctx context.Context, taskID string) error
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	CompleteTask(ctx context.Context, taskID string, evidence *domain.Evidence) (*CompleteTaskResponse, error)
	GetOverview(ctx context.Context, req *OverviewRequest) (*OverviewResponse, error)
	PlanTask(ctx context.Context, req *PlanTaskRequest) (*PlanTaskResponse, error)
}

// toTaskResponse converts a domain Task to a TaskResponse.
func toTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		UserID:           t.UserID,
		ParentID:         t.ParentID,
		SourceTaskID:     t.SourceTaskID,
		Title:            t.Title,
		Description:      t.Description,
		Status:           string(t.Status),
		Priority:         t.Priority,
		Completed:        t.Completed,
		EstimatedMinutes: t.EstimatedMinutes,
		ScheduledStart:   t.ScheduledStart,
		ScheduledEnd:     t.ScheduledEnd,
		Evidence:         t.Evidence,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		CompletedAt:      t.CompletedAt,
	}
}

func toTaskResponses(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}
