package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Priority bounds. 5 is the most urgent.
const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 1
	UrgentPriority  = 4
)

// ClampPriority forces p into [MinPriority, MaxPriority].
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// Task is the core domain entity and the GORM model for the tasks table.
type Task struct {
	ID               string     `gorm:"primarykey;size:36" json:"id"`
	UserID           string     `gorm:"size:64;not null;index" json:"user_id"`
	ParentID         *string    `gorm:"size:36;index" json:"parent_id,omitempty"`
	SourceTaskID     *string    `gorm:"size:36" json:"source_task_id,omitempty"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"size:2000" json:"description"`
	Status           TaskStatus `gorm:"size:20;not null;default:pending" json:"status"`
	Priority         int        `gorm:"not null;default:1" json:"priority"`
	Completed        bool       `gorm:"not null;default:false" json:"completed"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	ScheduledStart   *time.Time `gorm:"index" json:"scheduled_start,omitempty"`
	ScheduledEnd     *time.Time `json:"scheduled_end,omitempty"`
	Evidence         *Evidence  `gorm:"column:completion_evidence;serializer:json" json:"completion_evidence,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// AttachmentKind tags what an evidence attachment is.
type AttachmentKind string

const (
	AttachmentScreenshot AttachmentKind = "screenshot"
	AttachmentPhoto      AttachmentKind = "photo"
	AttachmentDocument   AttachmentKind = "document"
	AttachmentEmail      AttachmentKind = "email"
	AttachmentCallLog    AttachmentKind = "call_log"
	AttachmentFile       AttachmentKind = "file"
	AttachmentLink       AttachmentKind = "link"
	AttachmentNote       AttachmentKind = "note"
)

var attachmentKinds = map[AttachmentKind]struct{}{
	AttachmentScreenshot: {},
	AttachmentPhoto:      {},
	AttachmentDocument:   {},
	AttachmentEmail:      {},
	AttachmentCallLog:    {},
	AttachmentFile:       {},
	AttachmentLink:       {},
	AttachmentNote:       {},
}

// ParseAttachmentKind converts s into an AttachmentKind. Unknown kinds are an error.
func ParseAttachmentKind(s string) (AttachmentKind, error) {
	k := AttachmentKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := attachmentKinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAttachmentKind, s)
	}
	return k, nil
}

// UnmarshalJSON rejects kinds outside the closed set.
func (k *AttachmentKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownAttachmentKind, err)
	}
	parsed, err := ParseAttachmentKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Attachment is one piece of supporting proof.
type Attachment struct {
	Kind    AttachmentKind `json:"kind"`
	Content string         `json:"content"`
	Name    string         `json:"name,omitempty"`
}

// Evidence is the proof a user submits to justify completing a task.
// It belongs to exactly one task.
type Evidence struct {
	Description string       `json:"description"`
	Attachments []Attachment `json:"attachments"`
}

// Clone returns a deep copy so a task never shares evidence with another.
func (e *Evidence) Clone() *Evidence {
	if e == nil {
		return nil
	}
	out := &Evidence{Description: e.Description}
	if len(e.Attachments) > 0 {
		out.Attachments = make([]Attachment, len(e.Attachments))
		copy(out.Attachments, e.Attachments)
	}
	return out
}
