package extraction

import (
	"context"
	"errors"

	domain "github.com/shred787/mindaid/domain/task"
)

var (
	// ErrUnavailable is returned when no language model is configured.
	ErrUnavailable = errors.New("language extraction unavailable")
	// ErrModelFailed is returned when the model call failed or timed out.
	ErrModelFailed = errors.New("language model request failed")
)

// AnalyzeEvidenceRequest is the request for mining follow-ups from evidence.
type AnalyzeEvidenceRequest struct {
	EvidenceDescription string `json:"evidence_description"`
	TaskTitle           string `json:"task_title"`
}

// AnalyzeEvidenceResponse carries the proposals and insights found in the evidence.
type AnalyzeEvidenceResponse struct {
	FollowUps []domain.FollowUpProposal `json:"follow_ups"`
	Insights  []string                  `json:"insights"`
	Error     string                    `json:"error,omitempty"`
	Message   string                    `json:"message,omitempty"`
}

// Subtask is one step of a broken-down task.
type Subtask struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Priority         int    `json:"priority"`
}

// BreakDownTaskRequest is the request for splitting a task into subtasks.
type BreakDownTaskRequest struct {
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
}

// BreakDownTaskResponse is the breakdown. Fallback is true when the model
// could not be used and a single catch-all subtask was returned.
type BreakDownTaskResponse struct {
	Subtasks        []Subtask `json:"subtasks"`
	TotalMinutes    int       `json:"total_minutes"`
	Recommendations []string  `json:"recommendations"`
	Fallback        bool      `json:"fallback"`
}

// MissingInfo lists what a message left out before a task can be planned.
type MissingInfo struct {
	NeedsDueDate      bool     `json:"needsDueDate"`
	NeedsRequirements bool     `json:"needsRequirements"`
	NeedsPriority     bool     `json:"needsPriority"`
	NeedsTimeline     bool     `json:"needsTimeline"`
	Questions         []string `json:"requiredQuestions"`
}

// Incomplete reports whether any required detail is missing.
func (m *MissingInfo) Incomplete() bool {
	return m != nil && (m.NeedsDueDate || m.NeedsRequirements || m.NeedsPriority || m.NeedsTimeline)
}

// TaskProposal is a task extracted from a free-form message.
type TaskProposal struct {
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Scenario         string       `json:"scenario"`
	ScheduledStart   string       `json:"scheduledStart,omitempty"`
	ScheduledEnd     string       `json:"scheduledEnd,omitempty"`
	EstimatedMinutes int          `json:"estimatedMinutes"`
	Priority         int          `json:"priority"`
	IsComplex        bool         `json:"isComplex"`
	MissingInfo      *MissingInfo `json:"missingInfo,omitempty"`
}

// ExtractTaskRequest is the request for extracting a task from a message.
type ExtractTaskRequest struct {
	Message string `json:"message"`
}

// ExtractTaskResponse holds the extracted task. IsTask is false when the
// message does not describe any work.
type ExtractTaskResponse struct {
	IsTask bool          `json:"is_task"`
	Task   *TaskProposal `json:"task,omitempty"`
	// Error carries ErrUnavailable or ErrModelFailed across the transport.
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// RescheduleTask is a task that has to move.
type RescheduleTask struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ScheduledStart   string `json:"scheduledStart,omitempty"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// RescheduleRequest asks for new slots for tasks disrupted by reason.
type RescheduleRequest struct {
	Reason        string           `json:"reason"`
	AffectedTasks []RescheduleTask `json:"affectedTasks"`
}

// RescheduleSuggestion proposes a new start for one task.
type RescheduleSuggestion struct {
	TaskID            string `json:"taskId"`
	NewScheduledStart string `json:"newScheduledStart"`
	Reason            string `json:"reason"`
}

// RescheduleResponse holds the suggestions. Fallback is true when the model
// could not be used; Suggestions is then empty.
type RescheduleResponse struct {
	Suggestions []RescheduleSuggestion `json:"suggestions"`
	Message     string                 `json:"message"`
	Fallback    bool                   `json:"fallback"`
}

// ExtractionPort defines the language extraction operations other modules use.
type ExtractionPort interface {
	AnalyzeEvidence(ctx context.Context, evidenceDescription, taskTitle string) (*domain.EvidenceAnalysis, error)
	BreakDownTask(ctx context.Context, req *BreakDownTaskRequest) (*BreakDownTaskResponse, error)
	ExtractTask(ctx context.Context, message string) (*ExtractTaskResponse, error)
	Reschedule(ctx context.Context, req *RescheduleRequest) (*RescheduleResponse, error)
}
