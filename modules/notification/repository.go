package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when acknowledging an unknown notification.
var ErrNotFound = errors.New("notification not found")

// Repository stores notifications in the notifications table.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the notifications table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&Notification{})
}

// Create saves a new notification.
func (r *Repository) Create(ctx context.Context, n *Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns userID's notifications, most urgent first and newest first
// within a priority. acknowledged filters on the flag when non-nil.
func (r *Repository) List(ctx context.Context, userID string, acknowledged *bool) ([]Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if acknowledged != nil {
		query = query.Where("acknowledged = ?", *acknowledged)
	}

	var list []Notification
	if err := query.Order("priority DESC").Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// Acknowledge marks the notification with id as acknowledged.
func (r *Repository) Acknowledge(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&Notification{}).Where("id = ?", id).Update("acknowledged", true)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to acknowledge notification: %w", err)
	}
	if result.RowsAffected == 0 {
		// Acknowledging twice matches no changed row on some drivers; check existence.
		var count int64
		if err := r.db.WithContext(ctx).Model(&Notification{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check notification: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// PruneAcknowledged deletes acknowledged notifications created before cutoff
// and returns how many were removed.
func (r *Repository) PruneAcknowledged(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("acknowledged = ? AND created_at < ?", true, cutoff).
		Delete(&Notification{})
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	return result.RowsAffected, nil
}

// Count returns the number of stored notifications.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Notification{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
