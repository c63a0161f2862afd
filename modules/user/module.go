package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// UserModule provides user lookup services and seeds the demo user.
type UserModule struct {
	repo     *UserRepository
	demoUser User
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*UserModule)(nil)
var _ mono.ServiceProviderModule = (*UserModule)(nil)

// NewModule creates a new UserModule. demoUserID is seeded on start.
func NewModule(db *gorm.DB, demoUserID string, logger types.Logger) *UserModule {
	return &UserModule{
		repo: NewUserRepository(db),
		demoUser: User{
			ID:       demoUserID,
			Name:     "Demo User",
			Email:    "demo@example.com",
			Timezone: "UTC",
		},
		logger: logger,
	}
}

// Name returns the module name.
func (m *UserModule) Name() string {
	return "user"
}

// RegisterServices registers request-reply services in the service container.
func (m *UserModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.getUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-user", json.Unmarshal, json.Marshal, m.validateUser,
	); err != nil {
		return fmt.Errorf("failed to register validate-user service: %w", err)
	}

	m.logger.Info("Registered services", "services", "get-user, validate-user")
	return nil
}

func (m *UserModule) getUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	u, err := m.repo.FindByID(ctx, req.UserID)
	if errors.Is(err, ErrNotFound) {
		return GetUserResponse{Found: false}, nil
	}
	if err != nil {
		m.logger.Error("User lookup failed", "user_id", req.UserID, "error", err)
		return GetUserResponse{Error: codeUnavailable}, nil
	}
	return GetUserResponse{User: u, Found: true}, nil
}

func (m *UserModule) validateUser(ctx context.Context, req ValidateUserRequest, _ *mono.Msg) (ValidateUserResponse, error) {
	if req.UserID == "" {
		return ValidateUserResponse{Valid: false}, nil
	}
	exists, err := m.repo.Exists(ctx, req.UserID)
	if err != nil {
		m.logger.Error("User validation failed", "user_id", req.UserID, "error", err)
		return ValidateUserResponse{Error: codeUnavailable}, nil
	}
	return ValidateUserResponse{Valid: exists}, nil
}

// Start migrates the users table and seeds the demo user.
func (m *UserModule) Start(ctx context.Context) error {
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run user migrations: %w", err)
	}
	if m.demoUser.ID != "" {
		seed := m.demoUser
		if err := m.repo.EnsureUser(ctx, &seed); err != nil {
			return err
		}
	}
	m.logger.Info("Module started", "demo_user", m.demoUser.ID)
	return nil
}

// Stop shuts down the module.
func (m *UserModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}
