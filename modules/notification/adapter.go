package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// notificationAdapter implements NotificationPort over the module's request-reply services.
type notificationAdapter struct {
	container mono.ServiceContainer
}

// NewNotificationAdapter creates an adapter for notification services.
func NewNotificationAdapter(container mono.ServiceContainer) NotificationPort {
	if container == nil {
		panic("notification adapter requires non-nil ServiceContainer")
	}
	return &notificationAdapter{container: container}
}

// ListNotifications calls the list-notifications service.
func (a *notificationAdapter) ListNotifications(ctx context.Context, userID string, acknowledged *bool) ([]Notification, error) {
	req := ListNotificationsRequest{UserID: userID, Acknowledged: acknowledged}
	var resp ListNotificationsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-notifications",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-notifications service call failed: %w", err)
	}
	if resp.Error != "" {
		return nil, ErrUnavailable
	}
	return resp.Notifications, nil
}

// Acknowledge calls the acknowledge-notification service.
func (a *notificationAdapter) Acknowledge(ctx context.Context, notificationID string) error {
	req := AcknowledgeRequest{NotificationID: notificationID}
	var resp AcknowledgeResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"acknowledge-notification",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("acknowledge-notification service call failed: %w", err)
	}
	switch resp.Error {
	case "":
	case codeNotFound:
		return ErrNotFound
	default:
		return ErrUnavailable
	}
	if !resp.Acknowledged {
		return fmt.Errorf("notification not acknowledged: %s", notificationID)
	}
	return nil
}
