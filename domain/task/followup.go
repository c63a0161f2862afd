package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FollowUpProposal is a candidate task suggested by the extraction service.
// Times are kept as the raw strings the model produced until materialization.
type FollowUpProposal struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ScheduledStart   string `json:"scheduledStart,omitempty"`
	ScheduledEnd     string `json:"scheduledEnd,omitempty"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Priority         int    `json:"priority"`
}

// EvidenceAnalysis is what the extraction service returns for a piece of evidence.
type EvidenceAnalysis struct {
	FollowUps []FollowUpProposal `json:"followUpTasks"`
	Insights  []string           `json:"insights"`
}

// parseProposalTime accepts RFC 3339 and the zone-less form models often emit.
func parseProposalTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProposalMalformedTime, s)
}

// Materialize turns a proposal into a pending task owned by userID.
// It returns an error wrapping one of the ErrProposal* sentinels when the proposal must be skipped.
func (p FollowUpProposal) Materialize(userID, sourceTaskID string, now time.Time) (*Task, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrProposalTitleEmpty
	}
	if p.EstimatedMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrProposalBadDuration, p.EstimatedMinutes)
	}

	start, err := parseProposalTime(p.ScheduledStart)
	if err != nil {
		return nil, err
	}
	end, err := parseProposalTime(p.ScheduledEnd)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, ErrProposalScheduleInverted
	}

	minutes := p.EstimatedMinutes
	source := sourceTaskID
	return &Task{
		ID:               uuid.New().String(),
		UserID:           userID,
		SourceTaskID:     &source,
		Title:            title,
		Description:      strings.TrimSpace(p.Description),
		Status:           StatusPending,
		Priority:         ClampPriority(p.Priority),
		Completed:        false,
		EstimatedMinutes: &minutes,
		ScheduledStart:   start,
		ScheduledEnd:     end,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
