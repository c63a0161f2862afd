package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	domain "github.com/shred787/mindaid/domain/task"
)

const (
	scenarioSimple           = "simple"
	scenarioComplex          = "complex"
	scenarioPriorityCritical = "priority_critical"

	fallbackMinutes  = 60
	fallbackPriority = 3

	extractMaxTokens = 400

	rescheduleFallbackMessage = "I'll help you reschedule these tasks. Let's prioritize the most important ones first."
)

// DefaultCallTimeout bounds a single model call. It stays below the task
// module's follow-up timeout so a slow model still produces a reply.
const DefaultCallTimeout = 15 * time.Second

// Service implements the extraction operations on top of a JSONModel.
// A nil model means extraction is disabled.
type Service struct {
	model   JSONModel
	timeout time.Duration
	logger  types.Logger
}

// NewService creates the extraction service. A non-positive timeout
// selects DefaultCallTimeout.
func NewService(model JSONModel, timeout time.Duration, logger types.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Service{model: model, timeout: timeout, logger: logger}
}

// complete runs one model call under the service's own deadline.
func (s *Service) complete(ctx context.Context, prompt string, maxTokens int, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.model.CompleteJSON(ctx, prompt, maxTokens, out)
}

// Enabled reports whether a model is configured.
func (s *Service) Enabled() bool {
	return s.model != nil
}

// AnalyzeEvidence asks the model for follow-up actions mentioned in the evidence.
// With no model configured the analysis is empty.
func (s *Service) AnalyzeEvidence(ctx context.Context, evidenceDescription, taskTitle string) (*domain.EvidenceAnalysis, error) {
	if s.model == nil {
		return &domain.EvidenceAnalysis{}, nil
	}

	var analysis domain.EvidenceAnalysis
	if err := s.complete(ctx, analyzeEvidencePrompt(evidenceDescription, taskTitle), 0, &analysis); err != nil {
		return nil, fmt.Errorf("evidence analysis failed: %w", err)
	}
	return &analysis, nil
}

// BreakDownTask splits a task into subtasks. Any model failure yields a
// single catch-all subtask instead of an error.
func (s *Service) BreakDownTask(ctx context.Context, req BreakDownTaskRequest) BreakDownTaskResponse {
	if s.model != nil {
		var out BreakDownTaskResponse
		err := s.complete(ctx, breakDownPrompt(req), 0, &out)
		if err == nil && len(out.Subtasks) > 0 {
			if out.TotalMinutes == 0 {
				for _, st := range out.Subtasks {
					out.TotalMinutes += st.EstimatedMinutes
				}
			}
			out.Fallback = false
			return out
		}
		if err == nil {
			err = fmt.Errorf("model returned no subtasks")
		}
		s.logger.Warn("Task breakdown failed, using fallback", "error", err)
	}
	return fallbackBreakdown(req)
}

func fallbackBreakdown(req BreakDownTaskRequest) BreakDownTaskResponse {
	minutes := req.EstimatedMinutes
	if minutes <= 0 {
		minutes = fallbackMinutes
	}
	return BreakDownTaskResponse{
		Subtasks: []Subtask{{
			Title:            "Complete task",
			Description:      req.Description,
			EstimatedMinutes: minutes,
			Priority:         fallbackPriority,
		}},
		TotalMinutes:    minutes,
		Recommendations: []string{"Break this task down further when you have more details."},
		Fallback:        true,
	}
}

// rawTaskExtraction is the shape the extraction prompt asks the model for.
type rawTaskExtraction struct {
	IsTask           bool         `json:"isTask"`
	Scenario         string       `json:"scenario"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	ScheduledStart   string       `json:"scheduledStart"`
	ScheduledEnd     string       `json:"scheduledEnd"`
	EstimatedMinutes int          `json:"estimatedMinutes"`
	Priority         int          `json:"priority"`
	MissingInfo      *MissingInfo `json:"missingInfo"`
}

// ExtractTask extracts a task from a free-form message.
func (s *Service) ExtractTask(ctx context.Context, message string) (*ExtractTaskResponse, error) {
	if s.model == nil {
		return nil, ErrUnavailable
	}

	var raw rawTaskExtraction
	if err := s.complete(ctx, extractTaskPrompt(message), extractMaxTokens, &raw); err != nil {
		return nil, fmt.Errorf("task extraction failed: %w", err)
	}
	if !raw.IsTask || strings.TrimSpace(raw.Title) == "" {
		return &ExtractTaskResponse{IsTask: false}, nil
	}

	scenario := raw.Scenario
	if scenario == "" {
		scenario = scenarioSimple
	}
	return &ExtractTaskResponse{
		IsTask: true,
		Task: &TaskProposal{
			Title:            strings.TrimSpace(raw.Title),
			Description:      raw.Description,
			Scenario:         scenario,
			ScheduledStart:   raw.ScheduledStart,
			ScheduledEnd:     raw.ScheduledEnd,
			EstimatedMinutes: raw.EstimatedMinutes,
			Priority:         domain.ClampPriority(raw.Priority),
			IsComplex:        scenario == scenarioComplex || scenario == scenarioPriorityCritical,
			MissingInfo:      raw.MissingInfo,
		},
	}, nil
}

// Reschedule proposes new start times for tasks disrupted by req.Reason.
// Model failures yield an empty suggestion list and a stock message.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) RescheduleResponse {
	if s.model != nil {
		var out RescheduleResponse
		err := s.complete(ctx, reschedulePrompt(req), 0, &out)
		if err == nil {
			out.Suggestions = slices.DeleteFunc(out.Suggestions, func(sg RescheduleSuggestion) bool {
				return !slices.ContainsFunc(req.AffectedTasks, func(t RescheduleTask) bool { return t.ID == sg.TaskID })
			})
			if out.Suggestions == nil {
				out.Suggestions = []RescheduleSuggestion{}
			}
			if out.Message == "" {
				out.Message = rescheduleFallbackMessage
			}
			out.Fallback = false
			return out
		}
		s.logger.Warn("Reschedule failed, using fallback", "error", err, "tasks", len(req.AffectedTasks))
	}
	return RescheduleResponse{
		Suggestions: []RescheduleSuggestion{},
		Message:     rescheduleFallbackMessage,
		Fallback:    true,
	}
}

func analyzeEvidencePrompt(evidence, taskTitle string) string {
	return fmt.Sprintf(`Read the completion evidence for a task and find the follow-up work it implies.

Task: %s
Evidence: %s

Look for:
1. Future actions or deadlines the evidence mentions ("send the final draft tomorrow", "check in next week")
2. Dependencies still open ("waiting on the client's signature", "contract still to be sent")
3. The next logical step in the workflow
4. Any concrete dates or timeframes

Reply with a JSON object:
{
  "followUpTasks": [
    {
      "title": "short actionable title",
      "description": "what exactly has to be done",
      "scheduledStart": "RFC 3339 timestamp, next business day if no date is mentioned",
      "scheduledEnd": "RFC 3339 timestamp",
      "estimatedMinutes": 30,
      "priority": 3
    }
  ],
  "insights": ["observations about the completed work and what comes next"]
}

Priority runs from 1 to 5, 5 being the most urgent. Only list actionable follow-ups; never add generic "check status" tasks. Return an empty followUpTasks array when nothing follows.`, taskTitle, evidence)
}

func breakDownPrompt(req BreakDownTaskRequest) string {
	estimate := "not specified"
	if req.EstimatedMinutes > 0 {
		estimate = fmt.Sprintf("%d minutes", req.EstimatedMinutes)
	}
	return fmt.Sprintf(`Split this task into smaller subtasks that can each be finished in one sitting.

Task: %s
Estimated time: %s

Reply with a JSON object:
{
  "subtasks": [
    {"title": "actionable title", "description": "what to do", "estimatedMinutes": 30, "priority": 3}
  ],
  "total_minutes": 90,
  "recommendations": ["tips for getting it done efficiently"]
}

Keep subtasks between 15 and 45 minutes, list them in the order they should be done, and rate priority 1 to 5 (5 most urgent).`, req.Description, estimate)
}

func reschedulePrompt(req RescheduleRequest) string {
	tasks, err := json.MarshalIndent(req.AffectedTasks, "", "  ")
	if err != nil {
		tasks = []byte("[]")
	}
	return fmt.Sprintf(`Some of the user's tasks no longer fit their day and have to move.

Reason: %s

Tasks to move:
%s

Propose a new start for each task. Keep dependent tasks in order, leave buffer between them, avoid stacking demanding work late in the day, and spill over to tomorrow when today is full.

Reply with a JSON object:
{
  "suggestions": [
    {"taskId": "id of the task", "newScheduledStart": "RFC 3339 timestamp", "reason": "why this slot works"}
  ],
  "message": "one encouraging sentence summarising the new plan"
}`, req.Reason, tasks)
}

func extractTaskPrompt(message string) string {
	return fmt.Sprintf(`Decide whether this message describes work to be scheduled, and if so extract it.

Message: %q

Classify the scenario:
- "simple": a single action under two hours (one call, one document, one email)
- "complex": several phases or more than two hours (migrations, rollouts, launches, process changes)
- "priority_critical": urgent work with a hard deadline

Rate priority 1 to 5 (5 urgent, 1 nice to have).

Check whether the message gives a due date, concrete requirements, a priority and a timeline. For each one missing, set the matching flag and add a question the user must answer.

Reply with a JSON object:
{
  "isTask": true,
  "scenario": "simple",
  "title": "short task title",
  "description": "detailed description",
  "scheduledStart": "RFC 3339 timestamp if known or a sensible default",
  "scheduledEnd": "RFC 3339 timestamp",
  "estimatedMinutes": 60,
  "priority": 3,
  "missingInfo": {
    "needsDueDate": false,
    "needsRequirements": false,
    "needsPriority": false,
    "needsTimeline": false,
    "requiredQuestions": []
  }
}

If the message is not a task reply with {"isTask": false}.`, message)
}
