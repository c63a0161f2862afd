package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/google/uuid"
	domain "github.com/shred787/mindaid/domain/task"
)

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return TaskReply{Error: codeInvalidRequest, Message: "title is required"}, nil
	}
	if req.ScheduledStart != nil && req.ScheduledEnd != nil && req.ScheduledEnd.Before(*req.ScheduledStart) {
		return TaskReply{Error: codeInvalidRequest, Message: "scheduled_end is before scheduled_start"}, nil
	}
	if err := m.checkUser(ctx, req.UserID); err != nil {
		return replyFor(err)
	}

	priority := req.Priority
	if priority == 0 {
		priority = domain.DefaultPriority
	}
	now := time.Now()
	newTask := &domain.Task{
		ID:               uuid.New().String(),
		UserID:           req.UserID,
		ParentID:         req.ParentID,
		Title:            title,
		Description:      req.Description,
		Status:           domain.StatusPending,
		Priority:         domain.ClampPriority(priority),
		EstimatedMinutes: req.EstimatedMinutes,
		ScheduledStart:   req.ScheduledStart,
		ScheduledEnd:     req.ScheduledEnd,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := m.store.Create(ctx, newTask); err != nil {
		m.logger.Error("Failed to create task", "user_id", req.UserID, "error", err)
		return replyFor(err)
	}
	m.publisher.TaskCreated(ctx, newTask)

	resp := toTaskResponse(newTask)
	return TaskReply{Task: &resp}, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskReply, error) {
	task, err := m.store.FindByID(ctx, req.TaskID)
	if err != nil {
		return replyFor(err)
	}
	resp := toTaskResponse(task)
	return TaskReply{Task: &resp}, nil
}

// updateTask handles the update-task service request. Completion is not an
// update: status=completed is refused, and moving a completed task back to
// another status clears its evidence.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	task, err := m.store.FindByID(ctx, req.TaskID)
	if err != nil {
		return replyFor(err)
	}
	wasCompleted := task.Completed

	// Only the columns this request changes are written.
	var columns []string
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return TaskReply{Error: codeInvalidRequest, Message: "title must not be empty"}, nil
		}
		task.Title = title
		columns = append(columns, "title")
	}
	if req.Description != nil {
		task.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Priority != nil {
		task.Priority = domain.ClampPriority(*req.Priority)
		columns = append(columns, "priority")
	}
	if req.EstimatedMinutes != nil {
		if *req.EstimatedMinutes <= 0 {
			return TaskReply{Error: codeInvalidRequest, Message: "estimated_minutes must be positive"}, nil
		}
		task.EstimatedMinutes = req.EstimatedMinutes
		columns = append(columns, "estimated_minutes")
	}
	if req.ScheduledStart != nil {
		task.ScheduledStart = req.ScheduledStart
		columns = append(columns, "scheduled_start")
	}
	if req.ScheduledEnd != nil {
		task.ScheduledEnd = req.ScheduledEnd
		columns = append(columns, "scheduled_end")
	}
	if task.ScheduledStart != nil && task.ScheduledEnd != nil && task.ScheduledEnd.Before(*task.ScheduledStart) {
		return TaskReply{Error: codeInvalidRequest, Message: "scheduled_end is before scheduled_start"}, nil
	}

	if req.Status != nil {
		status := domain.TaskStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !status.IsValid() {
			return TaskReply{Error: codeInvalidRequest, Message: fmt.Sprintf("%v: %q", domain.ErrInvalidStatus, *req.Status)}, nil
		}
		if status == domain.StatusCompleted {
			if !task.Completed {
				return replyFor(ErrCompleteViaUpdate)
			}
		} else {
			if task.Completed {
				// Reopening drops the evidence in the same guarded statement.
				task.Completed = false
				task.Evidence = nil
				task.CompletedAt = nil
				columns = append(columns, "completed", "completion_evidence", "completed_at")
			}
			task.Status = status
			columns = append(columns, "status")
		}
	}

	task.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")
	if err := m.store.Update(ctx, task, wasCompleted, columns...); err != nil {
		if errorCode(err) == "" {
			m.logger.Error("Failed to update task", "task_id", req.TaskID, "error", err)
		}
		return replyFor(err)
	}

	resp := toTaskResponse(task)
	return TaskReply{Task: &resp}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	task, err := m.store.FindByID(ctx, req.TaskID)
	if err != nil {
		return DeleteTaskResponse{Error: replyCode(err)}, nil
	}

	if err := m.store.Delete(ctx, req.TaskID); err != nil {
		if errorCode(err) == "" {
			m.logger.Error("Failed to delete task", "task_id", req.TaskID, "error", err)
		}
		return DeleteTaskResponse{Error: replyCode(err)}, nil
	}
	m.publisher.TaskDeleted(ctx, task, time.Now())

	return DeleteTaskResponse{Deleted: true}, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	filter := ListFilter{UserID: req.UserID}
	if req.Date != "" {
		day, err := time.Parse(DateLayout, req.Date)
		if err != nil {
			return ListTasksResponse{Error: codeInvalidRequest}, nil
		}
		filter.Day = day
	}

	tasks, err := m.store.FindAll(ctx, filter)
	if err != nil {
		m.logger.Error("Failed to list tasks", "user_id", req.UserID, "error", err)
		return ListTasksResponse{Error: codeInternal}, nil
	}
	return ListTasksResponse{
		Tasks: toTaskResponses(tasks),
		Total: len(tasks),
	}, nil
}

// completeTask handles the complete-task service request.
func (m *TaskModule) completeTask(ctx context.Context, req CompleteTaskRequest, _ *mono.Msg) (CompleteTaskResponse, error) {
	result, err := m.completer.Complete(ctx, req.TaskID, req.Evidence)
	switch {
	case errors.Is(err, ErrTaskNotFound):
		return CompleteTaskResponse{Outcome: OutcomeNotFound, Error: codeNotFound}, nil
	case errors.Is(err, ErrAlreadyCompleted):
		return CompleteTaskResponse{Outcome: OutcomeAlreadyCompleted, Error: codeAlreadyCompleted}, nil
	case errors.Is(err, ErrCompletionFailed):
		return CompleteTaskResponse{Error: codeCompletionFailed}, nil
	case err != nil:
		m.logger.Error("Completion failed", "task_id", req.TaskID, "error", err)
		return CompleteTaskResponse{Error: codeInternal}, nil
	}

	resp := CompleteTaskResponse{Outcome: result.Outcome}
	if result.Outcome == OutcomeRejected {
		resp.Reason = string(result.Rejection.Reason)
		resp.Guidance = result.Rejection.Guidance
		return resp, nil
	}

	task := toTaskResponse(result.Task)
	resp.Task = &task
	resp.FollowUps = toTaskResponses(result.FollowUps)
	resp.Insights = result.Insights
	resp.Analysis = string(result.Analysis)
	return resp, nil
}

// getOverview handles the get-overview service request.
func (m *TaskModule) getOverview(ctx context.Context, req OverviewRequest, _ *mono.Msg) (OverviewResponse, error) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, err := time.Parse(DateLayout, req.Date)
		if err != nil {
			return OverviewResponse{Error: codeInvalidRequest}, nil
		}
		day = parsed
	}

	tasks, err := m.store.FindAll(ctx, ListFilter{UserID: req.UserID, Day: day})
	if err != nil {
		m.logger.Error("Failed to load overview", "user_id", req.UserID, "error", err)
		return OverviewResponse{Error: codeInternal}, nil
	}
	return summarize(day, tasks), nil
}

func summarize(day time.Time, tasks []*domain.Task) OverviewResponse {
	resp := OverviewResponse{Date: day.Format(DateLayout), TaskCount: len(tasks)}
	for _, t := range tasks {
		if t.Priority >= domain.UrgentPriority {
			resp.UrgentCount++
		}
		if t.Completed {
			resp.CompletedCount++
		}
	}
	return resp
}

// planTask handles the plan-task service request.
func (m *TaskModule) planTask(ctx context.Context, req PlanTaskRequest, _ *mono.Msg) (PlanTaskResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return PlanTaskResponse{Error: codeInvalidRequest, Message: "message is required"}, nil
	}
	if err := m.checkUser(ctx, req.UserID); err != nil {
		return PlanTaskResponse{Error: replyCode(err)}, nil
	}

	result, err := m.planner.Plan(ctx, req.UserID, req.Message)
	if err != nil {
		code := replyCode(err)
		if code == codeInternal {
			m.logger.Error("Planning failed", "user_id", req.UserID, "error", err)
		}
		return PlanTaskResponse{Error: code, Message: replyMessage(err, code)}, nil
	}

	resp := PlanTaskResponse{IsTask: result.IsTask}
	if len(result.Questions) > 0 {
		resp.NeedsInfo = true
		resp.Questions = result.Questions
		return resp, nil
	}
	if result.Parent != nil {
		parent := toTaskResponse(result.Parent)
		resp.Task = &parent
		m.publisher.TaskCreated(ctx, result.Parent)
	}
	for _, st := range result.Subtasks {
		m.publisher.TaskCreated(ctx, st)
	}
	resp.Subtasks = toTaskResponses(result.Subtasks)
	return resp, nil
}

func (m *TaskModule) checkUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidUser)
	}
	valid, err := m.userPort.ValidateUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to validate user: %w", err)
	}
	if !valid {
		return fmt.Errorf("%w: %s", ErrInvalidUser, userID)
	}
	return nil
}

// replyFor turns err into a TaskReply code. Errors without a sentinel are
// reported as internal_error.
func replyFor(err error) (TaskReply, error) {
	code := replyCode(err)
	return TaskReply{Error: code, Message: replyMessage(err, code)}, nil
}

// replyMessage is the detail of err beyond its sentinel text.
func replyMessage(err error, code string) string {
	msg := strings.TrimPrefix(err.Error(), codeErrors[code].Error())
	return strings.TrimPrefix(msg, ": ")
}
