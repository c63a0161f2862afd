package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	domain "github.com/shred787/mindaid/domain/task"
	"github.com/shred787/mindaid/events"
	"github.com/shred787/mindaid/modules/cache"
	"github.com/shred787/mindaid/modules/extraction"
	"github.com/shred787/mindaid/modules/user"
	"gorm.io/gorm"
)

// Config configures the task module.
type Config struct {
	DB              *gorm.DB
	Cache           cache.Store
	Policy          domain.Policy
	FollowUpTimeout time.Duration
}

// TaskModule provides task management and evidence-gated completion (core domain).
type TaskModule struct {
	cfg        Config
	repo       *TaskRepository
	store      *cachedStore
	completer  *Completer
	planner    *Planner
	userPort   user.UserPort
	extraction extraction.ExtractionPort
	publisher  *eventPublisher
	logger     types.Logger
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.DependentModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(cfg Config, logger types.Logger) *TaskModule {
	timeout, clamped := ClampFollowUpTimeout(cfg.FollowUpTimeout)
	if clamped {
		logger.Warn("Follow-up timeout exceeds the request-reply deadline, clamping",
			"requested", cfg.FollowUpTimeout.String(), "using", timeout.String())
	}
	cfg.FollowUpTimeout = timeout

	repo := NewTaskRepository(cfg.DB)
	return &TaskModule{
		cfg:       cfg,
		repo:      repo,
		store:     newCachedStore(repo, cfg.Cache, logger),
		publisher: &eventPublisher{logger: logger},
		logger:    logger,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) Dependencies() []string {
	return []string{"user", "extraction"}
}

func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "user":
		m.userPort = user.NewUserAdapter(container)
	case "extraction":
		m.extraction = extraction.NewExtractionAdapter(container)
	}
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.publisher.bus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.EvidenceRejectedV1.ToBase(),
		events.FollowUpsCreatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "complete-task", json.Unmarshal, json.Marshal, m.completeTask,
	); err != nil {
		return fmt.Errorf("failed to register complete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-overview", json.Unmarshal, json.Marshal, m.getOverview,
	); err != nil {
		return fmt.Errorf("failed to register get-overview service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "plan-task", json.Unmarshal, json.Marshal, m.planTask,
	); err != nil {
		return fmt.Errorf("failed to register plan-task service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", "create-task, get-task, update-task, delete-task, list-tasks, complete-task, get-overview, plan-task")
	return nil
}

// Start migrates the schema and builds the completion and planning workflows.
func (m *TaskModule) Start(_ context.Context) error {
	if m.userPort == nil {
		return fmt.Errorf("userPort dependency not set")
	}
	if m.extraction == nil {
		return fmt.Errorf("extraction dependency not set")
	}
	if m.publisher.bus == nil {
		m.logger.Warn("eventBus not set, events will not be published")
	}

	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run task migrations: %w", err)
	}

	m.completer = NewCompleter(m.store, CompleterConfig{
		Validator:       domain.NewValidator(m.cfg.Policy),
		Analyzer:        m.extraction,
		Publisher:       m.publisher,
		Logger:          m.logger,
		FollowUpTimeout: m.cfg.FollowUpTimeout,
	})
	m.planner = NewPlanner(m.store, m.extraction, m.logger)

	m.logger.Info("Module started",
		"min_description_length", m.cfg.Policy.MinDescriptionLength,
		"sufficient_description_length", m.cfg.Policy.SufficientDescriptionLength,
		"follow_up_timeout", m.completer.timeout.String())
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}

// Health pings the database.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	sqlDB, err := m.cfg.DB.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
		},
	}
}
