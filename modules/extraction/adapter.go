package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/shred787/mindaid/domain/task"
)

// extractionAdapter implements ExtractionPort over the module's request-reply services.
type extractionAdapter struct {
	container mono.ServiceContainer
}

// NewExtractionAdapter creates an adapter for extraction services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewExtractionAdapter(container mono.ServiceContainer) ExtractionPort {
	if container == nil {
		panic("extraction adapter requires non-nil ServiceContainer")
	}
	return &extractionAdapter{container: container}
}

func callService[Req, Resp any](ctx context.Context, c mono.ServiceContainer, name string, req Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(ctx, c, name, json.Marshal, json.Unmarshal, req, resp); err != nil {
		return fmt.Errorf("%s service call failed: %w", name, err)
	}
	return nil
}

// replyError turns a reply's error code back into an error.
func replyError(code, message string) error {
	switch code {
	case "":
		return nil
	case codeUnavailable:
		return ErrUnavailable
	default:
		if message == "" {
			return ErrModelFailed
		}
		return fmt.Errorf("%w: %s", ErrModelFailed, message)
	}
}

// AnalyzeEvidence calls the analyze-evidence service.
func (a *extractionAdapter) AnalyzeEvidence(ctx context.Context, evidenceDescription, taskTitle string) (*domain.EvidenceAnalysis, error) {
	req := AnalyzeEvidenceRequest{EvidenceDescription: evidenceDescription, TaskTitle: taskTitle}
	var resp AnalyzeEvidenceResponse
	if err := callService(ctx, a.container, "analyze-evidence", &req, &resp); err != nil {
		return nil, err
	}
	if err := replyError(resp.Error, resp.Message); err != nil {
		return nil, err
	}
	return &domain.EvidenceAnalysis{FollowUps: resp.FollowUps, Insights: resp.Insights}, nil
}

// BreakDownTask calls the break-down-task service.
func (a *extractionAdapter) BreakDownTask(ctx context.Context, req *BreakDownTaskRequest) (*BreakDownTaskResponse, error) {
	var resp BreakDownTaskResponse
	if err := callService(ctx, a.container, "break-down-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtractTask calls the extract-task service.
func (a *extractionAdapter) ExtractTask(ctx context.Context, message string) (*ExtractTaskResponse, error) {
	req := ExtractTaskRequest{Message: message}
	var resp ExtractTaskResponse
	if err := callService(ctx, a.container, "extract-task", &req, &resp); err != nil {
		return nil, err
	}
	if err := replyError(resp.Error, resp.Message); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reschedule calls the reschedule service.
func (a *extractionAdapter) Reschedule(ctx context.Context, req *RescheduleRequest) (*RescheduleResponse, error) {
	var resp RescheduleResponse
	if err := callService(ctx, a.container, "reschedule", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
