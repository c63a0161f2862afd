package task

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shred787/mindaid/modules/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	extract    *extraction.ExtractTaskResponse
	extractErr error
	breakdown  *extraction.BreakDownTaskResponse
	breakReqs  []*extraction.BreakDownTaskRequest
}

func (f *fakeExtractor) ExtractTask(context.Context, string) (*extraction.ExtractTaskResponse, error) {
	return f.extract, f.extractErr
}

func (f *fakeExtractor) BreakDownTask(_ context.Context, req *extraction.BreakDownTaskRequest) (*extraction.BreakDownTaskResponse, error) {
	f.breakReqs = append(f.breakReqs, req)
	return f.breakdown, nil
}

func (f *fakeExtractor) Reschedule(context.Context, *extraction.RescheduleRequest) (*extraction.RescheduleResponse, error) {
	return &extraction.RescheduleResponse{Suggestions: []extraction.RescheduleSuggestion{}, Fallback: true}, nil
}

func newTestPlanner(store taskCreator, ex TaskExtractor) *Planner {
	p := NewPlanner(store, ex, &mockLogger{})
	p.now = func() time.Time { return time.Date(2025, 3, 10, 8, 25, 0, 0, time.UTC) }
	return p
}

func TestPlanner_SimpleTask(t *testing.T) {
	store := newMemStore()
	ex := &fakeExtractor{extract: &extraction.ExtractTaskResponse{
		IsTask: true,
		Task: &extraction.TaskProposal{
			Title:            "Call the dentist",
			EstimatedMinutes: 15,
			Priority:         7,
			ScheduledStart:   "2025-03-10T14:00:00Z",
		},
	}}

	res, err := newTestPlanner(store, ex).Plan(context.Background(), "u1", "remind me to call the dentist at 2pm")
	require.NoError(t, err)
	assert.True(t, res.IsTask)
	require.NotNil(t, res.Parent)
	assert.Empty(t, res.Subtasks)
	assert.Equal(t, "Call the dentist", res.Parent.Title)
	assert.Equal(t, 5, res.Parent.Priority)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), *res.Parent.ScheduledStart)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 15, 0, 0, time.UTC), *res.Parent.ScheduledEnd)
	assert.Equal(t, 1, store.count())
	assert.Empty(t, ex.breakReqs)
}

func TestPlanner_ComplexTaskBecomesProject(t *testing.T) {
	store := newMemStore()
	ex := &fakeExtractor{
		extract: &extraction.ExtractTaskResponse{
			IsTask: true,
			Task: &extraction.TaskProposal{
				Title:            "Launch website",
				Description:      "New marketing site",
				EstimatedMinutes: 240,
				Priority:         4,
				IsComplex:        true,
			},
		},
		breakdown: &extraction.BreakDownTaskResponse{
			Subtasks: []extraction.Subtask{
				{Title: "Design mockups", EstimatedMinutes: 90, Priority: 4},
				{Title: "", EstimatedMinutes: 0, Priority: 2},
			},
		},
	}

	res, err := newTestPlanner(store, ex).Plan(context.Background(), "u1", "we need to launch the new website")
	require.NoError(t, err)
	require.NotNil(t, res.Parent)
	assert.Equal(t, "Launch website (Project)", res.Parent.Title)
	assert.True(t, strings.HasSuffix(res.Parent.Description, "broken down into 2 subtasks."))

	// No usable start: next full hour after 08:25.
	parentStart := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, parentStart, *res.Parent.ScheduledStart)

	require.Len(t, res.Subtasks, 2)
	first, second := res.Subtasks[0], res.Subtasks[1]
	assert.Equal(t, "Design mockups", first.Title)
	assert.Equal(t, parentStart, *first.ScheduledStart)
	assert.Equal(t, parentStart.Add(90*time.Minute), *first.ScheduledEnd)
	require.NotNil(t, first.ParentID)
	assert.Equal(t, res.Parent.ID, *first.ParentID)

	assert.Equal(t, "Step 2", second.Title)
	assert.Equal(t, parentStart.Add(SubtaskSpacing), *second.ScheduledStart)
	assert.Equal(t, 30, *second.EstimatedMinutes)

	require.Len(t, ex.breakReqs, 1)
	assert.Equal(t, 240, ex.breakReqs[0].EstimatedMinutes)
	assert.Equal(t, 3, store.count())
}

func TestPlanner_IncompleteAsksQuestions(t *testing.T) {
	store := newMemStore()
	ex := &fakeExtractor{extract: &extraction.ExtractTaskResponse{
		IsTask: true,
		Task: &extraction.TaskProposal{
			Title:       "Prepare report",
			MissingInfo: &extraction.MissingInfo{NeedsDueDate: true, NeedsPriority: true},
		},
	}}

	res, err := newTestPlanner(store, ex).Plan(context.Background(), "u1", "prepare the report")
	require.NoError(t, err)
	assert.True(t, res.IsTask)
	assert.Nil(t, res.Parent)
	assert.Len(t, res.Questions, 2)
	assert.Equal(t, 0, store.count())
}

func TestPlanner_NotATaskAndUnavailable(t *testing.T) {
	store := newMemStore()

	res, err := newTestPlanner(store, &fakeExtractor{extract: &extraction.ExtractTaskResponse{IsTask: false}}).
		Plan(context.Background(), "u1", "hello there")
	require.NoError(t, err)
	assert.False(t, res.IsTask)

	_, err = newTestPlanner(store, &fakeExtractor{extractErr: extraction.ErrUnavailable}).
		Plan(context.Background(), "u1", "book flights")
	assert.ErrorIs(t, err, ErrPlanningUnavailable)
	assert.Equal(t, 0, store.count())
}

func TestProposalSchedule_BadEndFallsBackToEstimate(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 25, 0, 0, time.UTC)
	start, end := proposalSchedule(&extraction.TaskProposal{
		ScheduledStart:   "2025-03-10T15:00:00Z",
		ScheduledEnd:     "2025-03-10T14:00:00Z",
		EstimatedMinutes: 45,
	}, now)
	assert.Equal(t, time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 10, 15, 45, 0, 0, time.UTC), end)
}
