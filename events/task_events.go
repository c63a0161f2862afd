package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a new task is created, including follow-ups and subtasks.
type TaskCreatedEvent struct {
	TaskID       string    `json:"task_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	UserID       string    `json:"user_id"`
	Priority     int       `json:"priority"`
	ParentID     string    `json:"parent_id,omitempty"`
	SourceTaskID string    `json:"source_task_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskCompletedEvent is emitted once the completion and its evidence are committed.
type TaskCompletedEvent struct {
	TaskID          string    `json:"task_id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	AttachmentCount int       `json:"attachment_count"`
	CompletedAt     time.Time `json:"completed_at"`
}

// TaskCompletedV1 is the typed event definition for task completion.
// Subject: events.task.v1.task-completed
var TaskCompletedV1 = helper.EventDefinition[TaskCompletedEvent](
	"task", "TaskCompleted", "v1",
)

// EvidenceRejectedEvent is emitted when a completion attempt fails evidence validation.
type EvidenceRejectedEvent struct {
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Reason     string    `json:"reason"`
	Guidance   string    `json:"guidance"`
	RejectedAt time.Time `json:"rejected_at"`
}

// EvidenceRejectedV1 is the typed event definition for rejected evidence.
// Subject: events.task.v1.evidence-rejected
var EvidenceRejectedV1 = helper.EventDefinition[EvidenceRejectedEvent](
	"task", "EvidenceRejected", "v1",
)

// FollowUpsCreatedEvent summarizes the follow-ups spawned by a completion.
type FollowUpsCreatedEvent struct {
	SourceTaskID string    `json:"source_task_id"`
	UserID       string    `json:"user_id"`
	TaskIDs      []string  `json:"task_ids"`
	Titles       []string  `json:"titles"`
	Insights     []string  `json:"insights,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FollowUpsCreatedV1 is the typed event definition for follow-up generation.
// Subject: events.task.v1.follow-ups-created
var FollowUpsCreatedV1 = helper.EventDefinition[FollowUpsCreatedEvent](
	"task", "FollowUpsCreated", "v1",
)

// TaskDeletedEvent is emitted when a task is deleted.
type TaskDeletedEvent struct {
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)
