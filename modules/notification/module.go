package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"github.com/shred787/mindaid/events"
	"gorm.io/gorm"
)

// DefaultRetention is how long acknowledged notifications are kept.
const DefaultRetention = 30 * 24 * time.Hour

// Config configures the notification module.
type Config struct {
	DB *gorm.DB
	// Retention bounds how long acknowledged notifications are kept.
	Retention time.Duration
	// CheckInUserID receives the periodic check-in prompts.
	CheckInUserID   string
	CheckInInterval time.Duration
	// TickerFactory and Now are overridable for tests.
	TickerFactory TickerFactory
	Now           func() time.Time
}

// NotificationModule turns task events into user-facing notifications and
// issues periodic check-in prompts. It is a driven adapter.
type NotificationModule struct {
	cfg       Config
	repo      *Repository
	scheduler *CheckInScheduler
	logger    types.Logger
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)
var _ mono.HealthCheckableModule = (*NotificationModule)(nil)

// NewModule creates a new NotificationModule.
func NewModule(cfg Config, logger types.Logger) *NotificationModule {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	m := &NotificationModule{
		cfg:    cfg,
		repo:   NewRepository(cfg.DB),
		logger: logger,
	}
	m.scheduler = NewCheckInScheduler(cfg.CheckInInterval, cfg.TickerFactory, m.checkIn, logger)
	return m
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.EvidenceRejectedV1, m.handleEvidenceRejected, m); err != nil {
		return fmt.Errorf("failed to register EvidenceRejected consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.FollowUpsCreatedV1, m.handleFollowUpsCreated, m); err != nil {
		return fmt.Errorf("failed to register FollowUpsCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", "TaskCreated, EvidenceRejected, TaskCompleted, FollowUpsCreated, TaskDeleted")
	return nil
}

func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-notifications", json.Unmarshal, json.Marshal, m.listNotifications,
	); err != nil {
		return fmt.Errorf("failed to register list-notifications service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "acknowledge-notification", json.Unmarshal, json.Marshal, m.acknowledge,
	); err != nil {
		return fmt.Errorf("failed to register acknowledge-notification service: %w", err)
	}

	m.logger.Info("Registered services", "services", "list-notifications, acknowledge-notification")
	return nil
}

func (m *NotificationModule) handleTaskCreated(ctx context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	title := "New task"
	switch {
	case event.SourceTaskID != "":
		title = "New follow-up task"
	case event.ParentID != "":
		title = "New subtask"
	}
	return m.notify(ctx, event.UserID, TypeTaskCreated, title,
		fmt.Sprintf("'%s' was added to your list", event.Title), event.Priority, event.TaskID)
}

func (m *NotificationModule) handleEvidenceRejected(ctx context.Context, event events.EvidenceRejectedEvent, _ *mono.Msg) error {
	return m.notify(ctx, event.UserID, TypeEvidenceRejected, "Completion needs more evidence",
		fmt.Sprintf("'%s' was not marked complete. %s", event.Title, event.Guidance), 3, event.TaskID)
}

func (m *NotificationModule) handleTaskCompleted(ctx context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	msg := fmt.Sprintf("'%s' is done", event.Title)
	if event.AttachmentCount > 0 {
		msg += fmt.Sprintf(" with %d attachment(s) as proof", event.AttachmentCount)
	}
	return m.notify(ctx, event.UserID, TypeTaskCompleted, "Task completed", msg, 2, event.TaskID)
}

func (m *NotificationModule) handleFollowUpsCreated(ctx context.Context, event events.FollowUpsCreatedEvent, _ *mono.Msg) error {
	msg := "Next up: " + strings.Join(event.Titles, "; ")
	if len(event.Insights) > 0 {
		msg += ". Insights: " + strings.Join(event.Insights, "; ")
	}
	return m.notify(ctx, event.UserID, TypeFollowUpsCreated,
		fmt.Sprintf("%d follow-up task(s) created", len(event.TaskIDs)), msg, 3, event.SourceTaskID)
}

func (m *NotificationModule) handleTaskDeleted(ctx context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	return m.notify(ctx, event.UserID, TypeTaskDeleted, "Task deleted",
		fmt.Sprintf("'%s' was removed", event.Title), 1, event.TaskID)
}

// checkIn runs on every scheduler tick: it prompts the check-in user and
// drops acknowledged notifications past the retention window.
func (m *NotificationModule) checkIn(ctx context.Context, at time.Time) {
	if m.cfg.CheckInUserID != "" {
		if err := m.notify(ctx, m.cfg.CheckInUserID, TypeCheckIn, "Hourly Check-in",
			"How are you progressing with your current task?", 3, ""); err != nil {
			m.logger.Warn("Failed to record check-in", "error", err)
		}
	}

	pruned, err := m.repo.PruneAcknowledged(ctx, at.Add(-m.cfg.Retention))
	if err != nil {
		m.logger.Warn("Failed to prune notifications", "error", err)
		return
	}
	if pruned > 0 {
		m.logger.Info("Pruned acknowledged notifications", "count", pruned)
	}
}

func (m *NotificationModule) notify(ctx context.Context, userID string, typ Type, title, message string, priority int, taskID string) error {
	n := Notification{
		ID:            uuid.New().String(),
		UserID:        userID,
		Type:          typ,
		Title:         title,
		Message:       message,
		Priority:      priority,
		RelatedTaskID: taskID,
		CreatedAt:     m.cfg.Now(),
	}
	if err := m.repo.Create(ctx, &n); err != nil {
		return err
	}
	m.logger.Debug("Notification recorded", "type", string(typ), "user_id", userID, "task_id", taskID)
	return nil
}

func (m *NotificationModule) listNotifications(ctx context.Context, req ListNotificationsRequest, _ *mono.Msg) (ListNotificationsResponse, error) {
	list, err := m.repo.List(ctx, req.UserID, req.Acknowledged)
	if err != nil {
		m.logger.Error("Failed to list notifications", "user_id", req.UserID, "error", err)
		return ListNotificationsResponse{Error: codeInternal}, nil
	}
	return ListNotificationsResponse{Notifications: list, Total: len(list)}, nil
}

func (m *NotificationModule) acknowledge(ctx context.Context, req AcknowledgeRequest, _ *mono.Msg) (AcknowledgeResponse, error) {
	if err := m.repo.Acknowledge(ctx, req.NotificationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return AcknowledgeResponse{Error: codeNotFound}, nil
		}
		m.logger.Error("Failed to acknowledge notification", "id", req.NotificationID, "error", err)
		return AcknowledgeResponse{Error: codeInternal}, nil
	}
	return AcknowledgeResponse{Acknowledged: true}, nil
}

// Start migrates the notifications table and launches the check-in scheduler.
func (m *NotificationModule) Start(_ context.Context) error {
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run notification migrations: %w", err)
	}
	m.scheduler.Start()
	m.logger.Info("Module started - listening for task events")
	return nil
}

// Stop halts the check-in scheduler.
func (m *NotificationModule) Stop(ctx context.Context) error {
	if err := m.scheduler.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop check-in scheduler: %w", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

func (m *NotificationModule) Health(ctx context.Context) mono.HealthStatus {
	count, err := m.repo.Count(ctx)
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("notification store unavailable: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"notifications":     count,
			"check_in_interval": m.scheduler.interval.String(),
		},
	}
}
