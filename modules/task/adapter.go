package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/shred787/mindaid/domain/task"
)

// taskAdapter implements TaskPort over the task module's request-reply services.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// callService performs one typed request-reply call against the task module.
func callService[Req, Resp any](ctx context.Context, c mono.ServiceContainer, name string, req Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		c,
		name,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", name, err)
	}
	return nil
}

// replyError restores the sentinel behind a reply code.
func replyError(code, message string) error {
	if code == "" {
		return nil
	}
	sentinel, ok := codeErrors[code]
	if !ok {
		return fmt.Errorf("task service error: %s", code)
	}
	if message != "" {
		return fmt.Errorf("%w: %s", sentinel, message)
	}
	return sentinel
}

func unwrapTask(reply TaskReply) (*TaskResponse, error) {
	if err := replyError(reply.Error, reply.Message); err != nil {
		return nil, err
	}
	if reply.Task == nil {
		return nil, errors.New("task service returned no task")
	}
	return reply.Task, nil
}

// CreateTask creates a task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	var reply TaskReply
	if err := callService(ctx, a.container, "create-task", req, &reply); err != nil {
		return nil, err
	}
	return unwrapTask(reply)
}

// GetTask retrieves a task via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, taskID string) (*TaskResponse, error) {
	var reply TaskReply
	if err := callService(ctx, a.container, "get-task", &GetTaskRequest{TaskID: taskID}, &reply); err != nil {
		return nil, err
	}
	return unwrapTask(reply)
}

// UpdateTask applies a partial update via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error) {
	var reply TaskReply
	if err := callService(ctx, a.container, "update-task", req, &reply); err != nil {
		return nil, err
	}
	return unwrapTask(reply)
}

// DeleteTask deletes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, taskID string) error {
	var resp DeleteTaskResponse
	if err := callService(ctx, a.container, "delete-task", &DeleteTaskRequest{TaskID: taskID}, &resp); err != nil {
		return err
	}
	if err := replyError(resp.Error, ""); err != nil {
		return err
	}
	if !resp.Deleted {
		return fmt.Errorf("task not deleted: %s", taskID)
	}
	return nil
}

// ListTasks lists tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := callService(ctx, a.container, "list-tasks", req, &resp); err != nil {
		return nil, err
	}
	if err := replyError(resp.Error, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompleteTask submits evidence via the complete-task service. A rejection is
// returned as a response with Outcome=rejected; not-found, already-completed
// and store failures come back as errors.
func (a *taskAdapter) CompleteTask(ctx context.Context, taskID string, evidence *domain.Evidence) (*CompleteTaskResponse, error) {
	req := CompleteTaskRequest{TaskID: taskID, Evidence: evidence}
	var resp CompleteTaskResponse
	if err := callService(ctx, a.container, "complete-task", &req, &resp); err != nil {
		return nil, err
	}
	if err := replyError(resp.Error, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOverview fetches the daily overview via the get-overview service.
func (a *taskAdapter) GetOverview(ctx context.Context, req *OverviewRequest) (*OverviewResponse, error) {
	var resp OverviewResponse
	if err := callService(ctx, a.container, "get-overview", req, &resp); err != nil {
		return nil, err
	}
	if err := replyError(resp.Error, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanTask turns a message into tasks via the plan-task service.
func (a *taskAdapter) PlanTask(ctx context.Context, req *PlanTaskRequest) (*PlanTaskResponse, error) {
	var resp PlanTaskResponse
	if err := callService(ctx, a.container, "plan-task", req, &resp); err != nil {
		return nil, err
	}
	if err := replyError(resp.Error, resp.Message); err != nil {
		return nil, err
	}
	return &resp, nil
}
