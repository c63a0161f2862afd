package api

import (
	"time"

	domain "github.com/shred787/mindaid/domain/task"
	"github.com/shred787/mindaid/modules/extraction"
	"github.com/shred787/mindaid/modules/notification"
	"github.com/shred787/mindaid/modules/task"
)

// CreateTaskRequest is the HTTP request for creating a task.
type CreateTaskRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	UserID           string     `json:"user_id"`
	Priority         int        `json:"priority"`
	EstimatedMinutes *int       `json:"estimated_minutes"`
	ScheduledStart   *time.Time `json:"scheduled_start"`
	ScheduledEnd     *time.Time `json:"scheduled_end"`
	ParentID         *string    `json:"parent_id"`
}

// UpdateTaskRequest is the HTTP request for a partial task update.
type UpdateTaskRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Status           *string    `json:"status"`
	Priority         *int       `json:"priority"`
	EstimatedMinutes *int       `json:"estimated_minutes"`
	ScheduledStart   *time.Time `json:"scheduled_start"`
	ScheduledEnd     *time.Time `json:"scheduled_end"`
}

// CompleteTaskRequest is the HTTP request for completing a task.
type CompleteTaskRequest struct {
	Evidence *domain.Evidence `json:"evidence"`
}

// CompletionResponse is returned when a completion is accepted.
type CompletionResponse struct {
	Outcome   string              `json:"outcome"`
	Task      *task.TaskResponse  `json:"task"`
	FollowUps []task.TaskResponse `json:"follow_ups"`
	Insights  []string            `json:"insights"`
	Analysis  string              `json:"analysis,omitempty"`
}

// RejectionResponse is returned when evidence fails validation.
type RejectionResponse struct {
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason"`
	Guidance string `json:"guidance"`
}

// ListTasksResponse is the HTTP response for listing tasks.
type ListTasksResponse struct {
	Tasks []task.TaskResponse `json:"tasks"`
	Total int                 `json:"total"`
}

// OverviewResponse is the HTTP response for the daily overview.
type OverviewResponse struct {
	Date           string `json:"date"`
	TaskCount      int    `json:"task_count"`
	UrgentCount    int    `json:"urgent_count"`
	CompletedCount int    `json:"completed_count"`
}

// PlanTaskRequest is the HTTP request for planning tasks from a message.
type PlanTaskRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// PlanTaskResponse is the HTTP response for planning.
type PlanTaskResponse struct {
	IsTask    bool                `json:"is_task"`
	NeedsInfo bool                `json:"needs_info"`
	Questions []string            `json:"questions,omitempty"`
	Task      *task.TaskResponse  `json:"task,omitempty"`
	Subtasks  []task.TaskResponse `json:"subtasks,omitempty"`
}

// BreakDownTaskRequest is the HTTP request for a task breakdown.
type BreakDownTaskRequest struct {
	TaskDescription  string `json:"task_description"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// BreakDownTaskResponse is the HTTP response for a task breakdown.
type BreakDownTaskResponse struct {
	Subtasks        []extraction.Subtask `json:"subtasks"`
	TotalMinutes    int                  `json:"total_minutes"`
	Recommendations []string             `json:"recommendations"`
	Fallback        bool                 `json:"fallback"`
}

// ExtractTaskRequest is the HTTP request for extracting a task from a message.
type ExtractTaskRequest struct {
	Message string `json:"message"`
}

// ExtractTaskResponse is the HTTP response for task extraction.
type ExtractTaskResponse struct {
	IsTask bool                     `json:"is_task"`
	Task   *extraction.TaskProposal `json:"task,omitempty"`
}

// RescheduleTask is one task in a reschedule request.
type RescheduleTask struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ScheduledStart   string `json:"scheduledStart"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// RescheduleRequest is the HTTP request for rescheduling disrupted tasks.
type RescheduleRequest struct {
	Reason        string           `json:"reason"`
	AffectedTasks []RescheduleTask `json:"affectedTasks"`
}

// RescheduleResponse is the HTTP response with the suggested new slots.
type RescheduleResponse struct {
	Suggestions []extraction.RescheduleSuggestion `json:"suggestions"`
	Message     string                            `json:"message"`
	Fallback    bool                              `json:"fallback"`
}

// ListNotificationsResponse is the HTTP response for listing notifications.
type ListNotificationsResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Total         int                         `json:"total"`
}

// SuccessResponse acknowledges a state change with no payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
