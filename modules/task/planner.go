package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	domain "github.com/shred787/mindaid/domain/task"
	"github.com/shred787/mindaid/modules/extraction"
)

// SubtaskSpacing separates the starts of consecutive subtasks of a project.
const SubtaskSpacing = 2 * time.Hour

const defaultPlanMinutes = 60

// TaskExtractor is the part of the extraction service the planner uses.
type TaskExtractor interface {
	ExtractTask(ctx context.Context, message string) (*extraction.ExtractTaskResponse, error)
	BreakDownTask(ctx context.Context, req *extraction.BreakDownTaskRequest) (*extraction.BreakDownTaskResponse, error)
}

type taskCreator interface {
	Create(ctx context.Context, task *domain.Task) error
}

// PlanResult is what Plan produced. At most one of Questions and Parent is set.
type PlanResult struct {
	IsTask    bool
	Questions []string
	Parent    *domain.Task
	Subtasks  []*domain.Task
}

// Planner turns free-form messages into scheduled tasks.
type Planner struct {
	store     taskCreator
	extractor TaskExtractor
	logger    types.Logger
	now       func() time.Time
}

// NewPlanner creates a Planner.
func NewPlanner(store taskCreator, extractor TaskExtractor, logger types.Logger) *Planner {
	return &Planner{store: store, extractor: extractor, logger: logger, now: time.Now}
}

// Plan extracts a task from message for userID. Incomplete requests return
// questions without creating anything; complex ones become a project task
// with subtasks spaced SubtaskSpacing apart.
func (p *Planner) Plan(ctx context.Context, userID, message string) (*PlanResult, error) {
	extracted, err := p.extractor.ExtractTask(ctx, message)
	if err != nil {
		if errors.Is(err, extraction.ErrUnavailable) {
			return nil, ErrPlanningUnavailable
		}
		return nil, fmt.Errorf("failed to extract task: %w", err)
	}
	if !extracted.IsTask || extracted.Task == nil {
		return &PlanResult{IsTask: false}, nil
	}

	proposal := extracted.Task
	if proposal.MissingInfo.Incomplete() {
		return &PlanResult{IsTask: true, Questions: questionsFor(proposal.MissingInfo)}, nil
	}

	now := p.now()
	start, end := proposalSchedule(proposal, now)
	minutes := proposal.EstimatedMinutes
	if minutes <= 0 {
		minutes = defaultPlanMinutes
	}

	parent := &domain.Task{
		ID:               uuid.New().String(),
		UserID:           userID,
		Title:            proposal.Title,
		Description:      proposal.Description,
		Status:           domain.StatusPending,
		Priority:         domain.ClampPriority(proposal.Priority),
		EstimatedMinutes: &minutes,
		ScheduledStart:   &start,
		ScheduledEnd:     &end,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if !proposal.IsComplex {
		if err := p.store.Create(ctx, parent); err != nil {
			return nil, err
		}
		return &PlanResult{IsTask: true, Parent: parent}, nil
	}

	breakdown, err := p.extractor.BreakDownTask(ctx, &extraction.BreakDownTaskRequest{
		Description:      proposal.Description,
		EstimatedMinutes: minutes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to break down task: %w", err)
	}

	parent.Title = proposal.Title + " (Project)"
	parent.Description = fmt.Sprintf("%s\n\nThis project has been broken down into %d subtasks.",
		proposal.Description, len(breakdown.Subtasks))
	if err := p.store.Create(ctx, parent); err != nil {
		return nil, err
	}

	result := &PlanResult{IsTask: true, Parent: parent, Subtasks: make([]*domain.Task, 0, len(breakdown.Subtasks))}
	for i, st := range breakdown.Subtasks {
		subtask := newSubtask(parent, st, i, now)
		if err := p.store.Create(ctx, subtask); err != nil {
			p.logger.Warn("Failed to create subtask", "parent_id", parent.ID, "title", st.Title, "error", err)
			continue
		}
		result.Subtasks = append(result.Subtasks, subtask)
	}
	return result, nil
}

func newSubtask(parent *domain.Task, st extraction.Subtask, index int, now time.Time) *domain.Task {
	minutes := st.EstimatedMinutes
	if minutes <= 0 {
		minutes = 30
	}
	start := parent.ScheduledStart.Add(time.Duration(index) * SubtaskSpacing)
	end := start.Add(time.Duration(minutes) * time.Minute)
	title := strings.TrimSpace(st.Title)
	if title == "" {
		title = fmt.Sprintf("Step %d", index+1)
	}
	parentID := parent.ID
	return &domain.Task{
		ID:               uuid.New().String(),
		UserID:           parent.UserID,
		ParentID:         &parentID,
		Title:            title,
		Description:      st.Description,
		Status:           domain.StatusPending,
		Priority:         domain.ClampPriority(st.Priority),
		EstimatedMinutes: &minutes,
		ScheduledStart:   &start,
		ScheduledEnd:     &end,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// proposalSchedule falls back to the next full hour when the model gave no
// usable start, and to start+estimate when it gave no usable end.
func proposalSchedule(p *extraction.TaskProposal, now time.Time) (time.Time, time.Time) {
	minutes := p.EstimatedMinutes
	if minutes <= 0 {
		minutes = defaultPlanMinutes
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(p.ScheduledStart))
	if err != nil {
		start = now.Truncate(time.Hour).Add(time.Hour)
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(p.ScheduledEnd))
	if err != nil || end.Before(start) {
		end = start.Add(time.Duration(minutes) * time.Minute)
	}
	return start, end
}

func questionsFor(m *extraction.MissingInfo) []string {
	if len(m.Questions) > 0 {
		return m.Questions
	}
	var qs []string
	if m.NeedsDueDate {
		qs = append(qs, "What is the deadline?")
	}
	if m.NeedsRequirements {
		qs = append(qs, "What exactly has to be delivered?")
	}
	if m.NeedsPriority {
		qs = append(qs, "How urgent is this, from 1 to 5?")
	}
	if m.NeedsTimeline {
		qs = append(qs, "When will you work on it, and for how long?")
	}
	return qs
}
