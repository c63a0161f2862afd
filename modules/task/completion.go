package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	domain "github.com/shred787/mindaid/domain/task"
)

const (
	// DefaultFollowUpTimeout bounds the extraction call made after a completion.
	DefaultFollowUpTimeout = 20 * time.Second
	// MaxFollowUpTimeout keeps a completion inside the 30s request-reply
	// deadline callers of complete-task get by default.
	MaxFollowUpTimeout = 25 * time.Second
)

// ClampFollowUpTimeout returns the follow-up timeout actually used for d and
// whether d had to be lowered to MaxFollowUpTimeout.
func ClampFollowUpTimeout(d time.Duration) (time.Duration, bool) {
	switch {
	case d <= 0:
		return DefaultFollowUpTimeout, false
	case d > MaxFollowUpTimeout:
		return MaxFollowUpTimeout, true
	}
	return d, false
}

// TaskStore is the storage the Completer needs.
type TaskStore interface {
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	Complete(ctx context.Context, id string, evidence *domain.Evidence, at time.Time) error
	Create(ctx context.Context, task *domain.Task) error
}

// EvidenceAnalyzer mines follow-up proposals and insights from evidence text.
type EvidenceAnalyzer interface {
	AnalyzeEvidence(ctx context.Context, evidenceDescription, taskTitle string) (*domain.EvidenceAnalysis, error)
}

// CompletionPublisher receives completion lifecycle notifications. Implementations
// must not fail the completion; errors are theirs to log.
type CompletionPublisher interface {
	EvidenceRejected(ctx context.Context, task *domain.Task, result domain.ValidationResult)
	TaskCompleted(ctx context.Context, task *domain.Task)
	FollowUpsCreated(ctx context.Context, source *domain.Task, followUps []*domain.Task, insights []string)
}

// Outcome classifies a completion attempt.
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeRejected         Outcome = "rejected"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeAlreadyCompleted Outcome = "already_completed"
)

// CompletionResult is returned for an accepted or rejected completion.
// Not-found, already-completed and store failures are returned as errors instead.
type CompletionResult struct {
	Outcome   Outcome
	Task      *domain.Task
	FollowUps []*domain.Task
	Insights  []string
	Rejection *domain.ValidationResult
	Analysis  AnalysisStatus
}

// AnalysisStatus records how the best-effort extraction step ended.
type AnalysisStatus string

const (
	AnalysisOK        AnalysisStatus = "ok"
	AnalysisTimedOut  AnalysisStatus = "timed_out"
	AnalysisFailed    AnalysisStatus = "failed"
	AnalysisCancelled AnalysisStatus = "cancelled"
	AnalysisSkipped   AnalysisStatus = "skipped"
)

type analysisResult struct {
	status   AnalysisStatus
	analysis *domain.EvidenceAnalysis
	err      error
}

// CompleterConfig holds the Completer's collaborators. Logger is required;
// a nil Analyzer disables follow-up generation.
type CompleterConfig struct {
	Validator       *domain.Validator
	Analyzer        EvidenceAnalyzer
	Publisher       CompletionPublisher
	Logger          types.Logger
	FollowUpTimeout time.Duration
	Now             func() time.Time
}

// Completer runs the evidence-gated completion workflow.
type Completer struct {
	store     TaskStore
	validator *domain.Validator
	analyzer  EvidenceAnalyzer
	publisher CompletionPublisher
	logger    types.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewCompleter creates a Completer over store.
func NewCompleter(store TaskStore, cfg CompleterConfig) *Completer {
	if cfg.Validator == nil {
		cfg.Validator = domain.NewValidator(domain.DefaultPolicy())
	}
	cfg.FollowUpTimeout, _ = ClampFollowUpTimeout(cfg.FollowUpTimeout)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Publisher == nil {
		cfg.Publisher = nopPublisher{}
	}
	return &Completer{
		store:     store,
		validator: cfg.Validator,
		analyzer:  cfg.Analyzer,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		timeout:   cfg.FollowUpTimeout,
		now:       cfg.Now,
	}
}

// Complete validates evidence for taskID and, if accepted, commits the
// completion and spawns follow-ups from the evidence.
//
// Errors: ErrTaskNotFound, ErrAlreadyCompleted, or ErrCompletionFailed when the
// store write fails. A validation rejection is a result, not an error.
func (c *Completer) Complete(ctx context.Context, taskID string, evidence *domain.Evidence) (*CompletionResult, error) {
	task, err := c.store.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}
	if task.Completed {
		return nil, ErrAlreadyCompleted
	}

	verdict := c.validator.Validate(evidence)
	if !verdict.Accepted {
		c.logger.Info("Completion evidence rejected",
			"task_id", taskID,
			"reason", string(verdict.Reason))
		c.publisher.EvidenceRejected(ctx, task, verdict)
		return &CompletionResult{Outcome: OutcomeRejected, Task: task, Rejection: &verdict}, nil
	}

	stored := evidence.Clone()
	now := c.now()
	if err := c.store.Complete(ctx, taskID, stored, now); err != nil {
		if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrAlreadyCompleted) {
			return nil, err
		}
		c.logger.Error("Failed to commit completion", "task_id", taskID, "error", err)
		if errors.Is(err, ErrCompletionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	task.Completed = true
	task.Status = domain.StatusCompleted
	task.Evidence = stored
	task.CompletedAt = &now
	task.UpdatedAt = now

	c.logger.Info("Task completed",
		"task_id", taskID,
		"attachments", len(stored.Attachments))
	c.publisher.TaskCompleted(ctx, task)

	result := &CompletionResult{
		Outcome:   OutcomeCompleted,
		Task:      task,
		FollowUps: []*domain.Task{},
		Insights:  []string{},
	}

	analysis := c.analyze(ctx, task, stored)
	result.Analysis = analysis.status
	switch analysis.status {
	case AnalysisOK:
	case AnalysisSkipped, AnalysisCancelled:
		return result, nil
	default:
		c.logger.Warn("Follow-up extraction did not complete",
			"task_id", taskID,
			"status", string(analysis.status),
			"error", analysis.err)
		return result, nil
	}

	if analysis.analysis.Insights != nil {
		result.Insights = analysis.analysis.Insights
	}
	result.FollowUps = c.materialize(ctx, task, analysis.analysis.FollowUps)

	if len(result.FollowUps) > 0 {
		c.publisher.FollowUpsCreated(ctx, task, result.FollowUps, result.Insights)
	}
	return result, nil
}

// analyze calls the analyzer bounded by the follow-up timeout. The call runs
// in its own goroutine so an analyzer that ignores ctx cannot stall completion.
func (c *Completer) analyze(ctx context.Context, task *domain.Task, evidence *domain.Evidence) analysisResult {
	if c.analyzer == nil {
		return analysisResult{status: AnalysisSkipped}
	}
	if ctx.Err() != nil {
		return analysisResult{status: AnalysisCancelled, err: ctx.Err()}
	}

	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan analysisResult, 1)
	go func() {
		a, err := c.analyzer.AnalyzeEvidence(actx, evidence.Description, task.Title)
		switch {
		case err != nil:
			done <- analysisResult{status: AnalysisFailed, err: err}
		case a == nil:
			done <- analysisResult{status: AnalysisOK, analysis: &domain.EvidenceAnalysis{}}
		default:
			done <- analysisResult{status: AnalysisOK, analysis: a}
		}
	}()

	select {
	case r := <-done:
		if r.status == AnalysisFailed && actx.Err() != nil {
			return c.interrupted(ctx, r.err)
		}
		return r
	case <-actx.Done():
		return c.interrupted(ctx, actx.Err())
	}
}

func (c *Completer) interrupted(parent context.Context, err error) analysisResult {
	if parent.Err() != nil {
		return analysisResult{status: AnalysisCancelled, err: parent.Err()}
	}
	return analysisResult{status: AnalysisTimedOut, err: err}
}

// materialize creates a pending task per valid proposal. Invalid proposals and
// failed inserts are skipped one by one.
func (c *Completer) materialize(ctx context.Context, source *domain.Task, proposals []domain.FollowUpProposal) []*domain.Task {
	created := make([]*domain.Task, 0, len(proposals))
	for i, p := range proposals {
		if ctx.Err() != nil {
			// Caller gave up after the commit; remaining follow-ups are dropped.
			break
		}
		followUp, err := p.Materialize(source.UserID, source.ID, c.now())
		if err != nil {
			c.logger.Warn("Skipping follow-up proposal",
				"task_id", source.ID,
				"index", i,
				"title", p.Title,
				"error", err)
			continue
		}
		if err := c.store.Create(ctx, followUp); err != nil {
			c.logger.Warn("Failed to store follow-up",
				"task_id", source.ID,
				"title", followUp.Title,
				"error", err)
			continue
		}
		created = append(created, followUp)
	}
	return created
}

type nopPublisher struct{}

func (nopPublisher) EvidenceRejected(context.Context, *domain.Task, domain.ValidationResult)  {}
func (nopPublisher) TaskCompleted(context.Context, *domain.Task)                              {}
func (nopPublisher) FollowUpsCreated(context.Context, *domain.Task, []*domain.Task, []string) {}
