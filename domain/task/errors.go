package task

import "errors"

var (
	// ErrUnknownAttachmentKind is returned when an attachment kind is outside the closed set.
	ErrUnknownAttachmentKind = errors.New("unknown attachment kind")

	// ErrInvalidStatus is returned for a status string that is not a known TaskStatus.
	ErrInvalidStatus = errors.New("invalid task status")

	// Follow-up proposal rejections.
	ErrProposalTitleEmpty       = errors.New("follow-up title is empty")
	ErrProposalBadDuration      = errors.New("follow-up estimated duration must be positive")
	ErrProposalScheduleInverted = errors.New("follow-up ends before it starts")
	ErrProposalMalformedTime    = errors.New("follow-up schedule is malformed")
)
