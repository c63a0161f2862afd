package notification

import (
	"context"
	"errors"
	"time"
)

// Type tags what a notification is about.
type Type string

const (
	TypeCheckIn          Type = "check_in"
	TypeTaskCreated      Type = "task_created"
	TypeEvidenceRejected Type = "evidence_rejected"
	TypeTaskCompleted    Type = "task_completed"
	TypeFollowUpsCreated Type = "follow_ups_created"
	TypeTaskDeleted      Type = "task_deleted"
)

// Notification is a user-facing message produced from task events or the check-in scheduler.
type Notification struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"index;not null" json:"user_id"`
	Type          Type      `gorm:"size:32;not null" json:"type"`
	Title         string    `gorm:"not null" json:"title"`
	Message       string    `gorm:"not null" json:"message"`
	Priority      int       `gorm:"not null;default:1" json:"priority"`
	Acknowledged  bool      `gorm:"index;not null;default:false" json:"acknowledged"`
	RelatedTaskID string    `gorm:"size:36" json:"related_task_id,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// Reply codes carried across the request-reply transport. Handlers never
// return Go errors, since those produce no reply at all.
const (
	codeNotFound = "not_found"
	codeInternal = "internal_error"
)

// ErrUnavailable is returned when the notification store failed.
var ErrUnavailable = errors.New("notification store unavailable")

// ListNotificationsRequest lists a user's notifications. A nil Acknowledged returns all.
type ListNotificationsRequest struct {
	UserID       string `json:"user_id"`
	Acknowledged *bool  `json:"acknowledged,omitempty"`
}

// ListNotificationsResponse is the response for listing notifications.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	Error         string         `json:"error,omitempty"`
}

// AcknowledgeRequest marks one notification as acknowledged.
type AcknowledgeRequest struct {
	NotificationID string `json:"notification_id"`
}

// AcknowledgeResponse is the response for acknowledging a notification.
type AcknowledgeResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	Error        string `json:"error,omitempty"`
}

// NotificationPort defines the notification operations driving adapters use.
type NotificationPort interface {
	ListNotifications(ctx context.Context, userID string, acknowledged *bool) ([]Notification, error)
	Acknowledge(ctx context.Context, notificationID string) error
}
