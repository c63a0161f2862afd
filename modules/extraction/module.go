package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Error codes carried in replies. Handlers never return a Go error because
// the framework sends no reply for one and the caller would wait out its deadline.
const (
	codeUnavailable = "unavailable"
	codeFailed      = "model_failed"
)

// ExtractionModule exposes language extraction as request-reply services.
type ExtractionModule struct {
	service *Service
	logger  types.Logger
}

var _ mono.Module = (*ExtractionModule)(nil)
var _ mono.ServiceProviderModule = (*ExtractionModule)(nil)
var _ mono.HealthCheckableModule = (*ExtractionModule)(nil)

// Config holds extraction module settings.
type Config struct {
	// Model answers prompts. Nil disables extraction: evidence analysis then
	// yields nothing and breakdowns and reschedules use their fallbacks.
	Model JSONModel
	// CallTimeout bounds each model call. Zero selects DefaultCallTimeout.
	CallTimeout time.Duration
}

// NewModule creates the extraction module.
func NewModule(cfg Config, logger types.Logger) *ExtractionModule {
	return &ExtractionModule{
		service: NewService(cfg.Model, cfg.CallTimeout, logger),
		logger:  logger,
	}
}

func (m *ExtractionModule) Name() string {
	return "extraction"
}

func (m *ExtractionModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "analyze-evidence", json.Unmarshal, json.Marshal, m.analyzeEvidence,
	); err != nil {
		return fmt.Errorf("failed to register analyze-evidence service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "break-down-task", json.Unmarshal, json.Marshal, m.breakDownTask,
	); err != nil {
		return fmt.Errorf("failed to register break-down-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "extract-task", json.Unmarshal, json.Marshal, m.extractTask,
	); err != nil {
		return fmt.Errorf("failed to register extract-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "reschedule", json.Unmarshal, json.Marshal, m.reschedule,
	); err != nil {
		return fmt.Errorf("failed to register reschedule service: %w", err)
	}

	m.logger.Info("Registered services", "services", "analyze-evidence, break-down-task, extract-task, reschedule")
	return nil
}

func (m *ExtractionModule) analyzeEvidence(ctx context.Context, req AnalyzeEvidenceRequest, _ *mono.Msg) (AnalyzeEvidenceResponse, error) {
	analysis, err := m.service.AnalyzeEvidence(ctx, req.EvidenceDescription, req.TaskTitle)
	if err != nil {
		m.logger.Warn("Evidence analysis failed", "task_title", req.TaskTitle, "error", err)
		return AnalyzeEvidenceResponse{Error: codeFailed, Message: err.Error()}, nil
	}
	return AnalyzeEvidenceResponse{
		FollowUps: analysis.FollowUps,
		Insights:  analysis.Insights,
	}, nil
}

func (m *ExtractionModule) breakDownTask(ctx context.Context, req BreakDownTaskRequest, _ *mono.Msg) (BreakDownTaskResponse, error) {
	return m.service.BreakDownTask(ctx, req), nil
}

func (m *ExtractionModule) extractTask(ctx context.Context, req ExtractTaskRequest, _ *mono.Msg) (ExtractTaskResponse, error) {
	resp, err := m.service.ExtractTask(ctx, req.Message)
	if errors.Is(err, ErrUnavailable) {
		return ExtractTaskResponse{Error: codeUnavailable}, nil
	}
	if err != nil {
		m.logger.Warn("Task extraction failed", "error", err)
		return ExtractTaskResponse{Error: codeFailed, Message: err.Error()}, nil
	}
	return *resp, nil
}

func (m *ExtractionModule) reschedule(ctx context.Context, req RescheduleRequest, _ *mono.Msg) (RescheduleResponse, error) {
	return m.service.Reschedule(ctx, req), nil
}

func (m *ExtractionModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"model_configured": m.service.Enabled(),
			"call_timeout":     m.service.timeout.String(),
		},
	}
}

func (m *ExtractionModule) Start(_ context.Context) error {
	if !m.service.Enabled() {
		m.logger.Warn("No language model configured: follow-up extraction disabled")
	}
	m.logger.Info("Module started")
	return nil
}

func (m *ExtractionModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}
