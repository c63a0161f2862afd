package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUpProposal_Materialize(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	p := FollowUpProposal{
		Title:            "  Send invoice to ACME  ",
		Description:      "Bill for the March retainer",
		ScheduledStart:   "2025-03-11T10:00:00Z",
		ScheduledEnd:     "2025-03-11T10:30:00Z",
		EstimatedMinutes: 30,
		Priority:         3,
	}

	got, err := p.Materialize("user-1", "task-1", now)
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	require.NotNil(t, got.SourceTaskID)
	assert.Equal(t, "task-1", *got.SourceTaskID)
	assert.Equal(t, "Send invoice to ACME", got.Title)
	assert.Equal(t, StatusPending, got.Status)
	assert.False(t, got.Completed)
	assert.Nil(t, got.Evidence)
	assert.Equal(t, 3, got.Priority)
	require.NotNil(t, got.EstimatedMinutes)
	assert.Equal(t, 30, *got.EstimatedMinutes)
	require.NotNil(t, got.ScheduledStart)
	assert.True(t, got.ScheduledStart.Equal(time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, now, got.CreatedAt)
}

func TestFollowUpProposal_MaterializeClampsPriority(t *testing.T) {
	now := time.Now()
	for _, tc := range []struct{ in, want int }{{0, 1}, {-3, 1}, {1, 1}, {5, 5}, {9, 5}} {
		p := FollowUpProposal{Title: "Call back", EstimatedMinutes: 10, Priority: tc.in}
		got, err := p.Materialize("u", "t", now)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Priority, "priority %d", tc.in)
	}
}

func TestFollowUpProposal_MaterializeUnscheduled(t *testing.T) {
	p := FollowUpProposal{Title: "Review contract", EstimatedMinutes: 45, Priority: 2}

	got, err := p.Materialize("u", "t", time.Now())
	require.NoError(t, err)
	assert.Nil(t, got.ScheduledStart)
	assert.Nil(t, got.ScheduledEnd)
}

func TestFollowUpProposal_MaterializeZoneLessTime(t *testing.T) {
	p := FollowUpProposal{Title: "Review", ScheduledStart: "2025-03-11T10:00:00", EstimatedMinutes: 15}

	got, err := p.Materialize("u", "t", time.Now())
	require.NoError(t, err)
	require.NotNil(t, got.ScheduledStart)
	assert.Equal(t, 10, got.ScheduledStart.Hour())
}

func TestFollowUpProposal_MaterializeRejects(t *testing.T) {
	tests := []struct {
		name     string
		proposal FollowUpProposal
		want     error
	}{
		{
			name:     "blank title",
			proposal: FollowUpProposal{Title: "   ", EstimatedMinutes: 10},
			want:     ErrProposalTitleEmpty,
		},
		{
			name:     "zero duration",
			proposal: FollowUpProposal{Title: "Call", EstimatedMinutes: 0},
			want:     ErrProposalBadDuration,
		},
		{
			name:     "negative duration",
			proposal: FollowUpProposal{Title: "Call", EstimatedMinutes: -5},
			want:     ErrProposalBadDuration,
		},
		{
			name: "end before start",
			proposal: FollowUpProposal{
				Title:            "Call",
				EstimatedMinutes: 10,
				ScheduledStart:   "2025-03-11T10:00:00Z",
				ScheduledEnd:     "2025-03-11T09:00:00Z",
			},
			want: ErrProposalScheduleInverted,
		},
		{
			name:     "malformed start",
			proposal: FollowUpProposal{Title: "Call", EstimatedMinutes: 10, ScheduledStart: "tomorrow morning"},
			want:     ErrProposalMalformedTime,
		},
		{
			name:     "malformed end",
			proposal: FollowUpProposal{Title: "Call", EstimatedMinutes: 10, ScheduledEnd: "2025-13-45"},
			want:     ErrProposalMalformedTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.proposal.Materialize("u", "t", time.Now())
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
		})
	}
}

func TestParseAttachmentKind(t *testing.T) {
	k, err := ParseAttachmentKind(" Screenshot ")
	require.NoError(t, err)
	assert.Equal(t, AttachmentScreenshot, k)

	_, err = ParseAttachmentKind("hologram")
	assert.ErrorIs(t, err, ErrUnknownAttachmentKind)
}

func TestEvidence_Clone(t *testing.T) {
	var nilEvidence *Evidence
	assert.Nil(t, nilEvidence.Clone())

	orig := &Evidence{Description: "x", Attachments: []Attachment{{Kind: AttachmentLink, Content: "https://a"}}}
	c := orig.Clone()
	c.Attachments[0].Content = "changed"
	assert.Equal(t, "https://a", orig.Attachments[0].Content)
}
