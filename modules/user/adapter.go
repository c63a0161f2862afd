package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// userAdapter is the UserPort the task module uses to check task owners.
type userAdapter struct {
	container mono.ServiceContainer
}

// NewUserAdapter wraps the user module's ServiceContainer.
func NewUserAdapter(container mono.ServiceContainer) UserPort {
	if container == nil {
		panic("user adapter requires non-nil ServiceContainer")
	}
	return &userAdapter{container: container}
}

func request[Resp, Req any](ctx context.Context, c mono.ServiceContainer, service string, req Req) (Resp, error) {
	var resp Resp
	err := helper.CallRequestReplyService(ctx, c, service, json.Marshal, json.Unmarshal, req, &resp)
	if err != nil {
		return resp, fmt.Errorf("%s: %w", service, err)
	}
	return resp, nil
}

// GetUser loads a task owner. Unknown IDs yield ErrNotFound.
func (a *userAdapter) GetUser(ctx context.Context, userID string) (*User, error) {
	resp, err := request[GetUserResponse](ctx, a.container, "get-user", &GetUserRequest{UserID: userID})
	switch {
	case err != nil:
		return nil, err
	case resp.Error != "":
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, userID)
	case !resp.Found:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	return resp.User, nil
}

// ValidateUser reports whether userID may own tasks. A store failure on the
// user side is an error, not a false.
func (a *userAdapter) ValidateUser(ctx context.Context, userID string) (bool, error) {
	resp, err := request[ValidateUserResponse](ctx, a.container, "validate-user", &ValidateUserRequest{UserID: userID})
	if err != nil {
		return false, err
	}
	if resp.Error != "" {
		return false, fmt.Errorf("%w: %s", ErrUnavailable, userID)
	}
	return resp.Valid, nil
}
