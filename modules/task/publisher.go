package task

import (
	"context"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	domain "github.com/shred787/mindaid/domain/task"
	"github.com/shred787/mindaid/events"
)

// eventPublisher publishes task lifecycle events on the mono event bus.
// Publishing is best-effort: failures are logged and never fail the operation.
type eventPublisher struct {
	bus    mono.EventBus
	logger types.Logger
}

var _ CompletionPublisher = (*eventPublisher)(nil)

func (p *eventPublisher) ready() bool {
	return p != nil && p.bus != nil
}

func (p *eventPublisher) TaskCreated(_ context.Context, task *domain.Task) {
	if !p.ready() {
		return
	}
	event := events.TaskCreatedEvent{
		TaskID:      task.ID,
		Title:       task.Title,
		Description: task.Description,
		UserID:      task.UserID,
		Priority:    task.Priority,
		CreatedAt:   task.CreatedAt,
	}
	if task.ParentID != nil {
		event.ParentID = *task.ParentID
	}
	if task.SourceTaskID != nil {
		event.SourceTaskID = *task.SourceTaskID
	}
	if err := events.TaskCreatedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish TaskCreated event", "task_id", task.ID, "error", err)
	}
}

func (p *eventPublisher) TaskDeleted(_ context.Context, task *domain.Task, at time.Time) {
	if !p.ready() {
		return
	}
	event := events.TaskDeletedEvent{
		TaskID:    task.ID,
		UserID:    task.UserID,
		Title:     task.Title,
		DeletedAt: at,
	}
	if err := events.TaskDeletedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish TaskDeleted event", "task_id", task.ID, "error", err)
	}
}

func (p *eventPublisher) EvidenceRejected(_ context.Context, task *domain.Task, result domain.ValidationResult) {
	if !p.ready() {
		return
	}
	event := events.EvidenceRejectedEvent{
		TaskID:     task.ID,
		UserID:     task.UserID,
		Title:      task.Title,
		Reason:     string(result.Reason),
		Guidance:   result.Guidance,
		RejectedAt: time.Now(),
	}
	if err := events.EvidenceRejectedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish EvidenceRejected event", "task_id", task.ID, "error", err)
	}
}

func (p *eventPublisher) TaskCompleted(_ context.Context, task *domain.Task) {
	if !p.ready() {
		return
	}
	event := events.TaskCompletedEvent{
		TaskID: task.ID,
		UserID: task.UserID,
		Title:  task.Title,
	}
	if task.Evidence != nil {
		event.AttachmentCount = len(task.Evidence.Attachments)
	}
	if task.CompletedAt != nil {
		event.CompletedAt = *task.CompletedAt
	}
	if err := events.TaskCompletedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish TaskCompleted event", "task_id", task.ID, "error", err)
	}
}

func (p *eventPublisher) FollowUpsCreated(_ context.Context, source *domain.Task, followUps []*domain.Task, insights []string) {
	if !p.ready() {
		return
	}
	event := events.FollowUpsCreatedEvent{
		SourceTaskID: source.ID,
		UserID:       source.UserID,
		TaskIDs:      make([]string, 0, len(followUps)),
		Titles:       make([]string, 0, len(followUps)),
		Insights:     insights,
		CreatedAt:    time.Now(),
	}
	for _, t := range followUps {
		event.TaskIDs = append(event.TaskIDs, t.ID)
		event.Titles = append(event.Titles, t.Title)
	}
	if err := events.FollowUpsCreatedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish FollowUpsCreated event", "source_task_id", source.ID, "error", err)
	}
}
