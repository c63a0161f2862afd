package task

import "errors"

var (
	// ErrTaskNotFound is returned when no task has the requested ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAlreadyCompleted is returned when completing a task that is already completed.
	ErrAlreadyCompleted = errors.New("task already completed")

	// ErrCompletionFailed wraps a store failure while committing a completion.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrInvalidUser is returned when the task owner does not exist.
	ErrInvalidUser = errors.New("invalid user")

	// ErrCompleteViaUpdate is returned when an update tries to set status=completed.
	ErrCompleteViaUpdate = errors.New("tasks can only be completed with evidence")

	// ErrInvalidRequest is returned for malformed service requests.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPlanningUnavailable is returned when planning needs a language model and none is configured.
	ErrPlanningUnavailable = errors.New("task planning unavailable")

	// ErrConcurrentUpdate is returned when a task was completed or reopened
	// between reading it and writing an update.
	ErrConcurrentUpdate = errors.New("task changed concurrently")

	// ErrInternal is returned when the task service failed for a reason the caller cannot fix.
	ErrInternal = errors.New("task service internal error")
)

// Error codes carried in service replies so callers on the other side of
// the request-reply transport can restore the sentinel.
const (
	codeNotFound          = "not_found"
	codeAlreadyCompleted  = "already_completed"
	codeCompletionFailed  = "completion_failed"
	codeInvalidUser       = "invalid_user"
	codeCompleteViaUpdate = "complete_via_update"
	codeInvalidRequest    = "invalid_request"
	codeUnavailable       = "planning_unavailable"
	codeConflict          = "conflict"
	codeInternal          = "internal_error"
)

var codeErrors = map[string]error{
	codeNotFound:          ErrTaskNotFound,
	codeAlreadyCompleted:  ErrAlreadyCompleted,
	codeCompletionFailed:  ErrCompletionFailed,
	codeInvalidUser:       ErrInvalidUser,
	codeCompleteViaUpdate: ErrCompleteViaUpdate,
	codeInvalidRequest:    ErrInvalidRequest,
	codeUnavailable:       ErrPlanningUnavailable,
	codeConflict:          ErrConcurrentUpdate,
	codeInternal:          ErrInternal,
}

// errorCode maps an error onto its reply code. Unknown errors map to "".
func errorCode(err error) string {
	for code, sentinel := range codeErrors {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}

// replyCode is errorCode with unknown errors reported as internal. Handlers
// reply with it instead of returning err, which would leave the caller
// waiting for a reply that never comes.
func replyCode(err error) string {
	if code := errorCode(err); code != "" {
		return code
	}
	return codeInternal
}
