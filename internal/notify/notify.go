// Package notify is the effect boundary between the reminder loop and the
// platform notification capability. It performs no scheduling logic.
package notify

import "context"

// Permission mirrors the platform's notification permission flag. The
// agent only ever reads it; prompting the user is out of scope.
type Permission int

const (
	PermissionUndetermined Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "undetermined"
	}
}

// Notification is one user-visible reminder.
//
// Key is the dedup key for the dose; backends pass it to the platform as
// a de-duplication tag where the platform supports one, so even a double
// request cannot show twice.
type Notification struct {
	Title string
	Body  string
	Key   string
}

type Dispatcher interface {
	// Permission reports the current platform flag. Cheap enough to call
	// every tick.
	Permission(ctx context.Context) Permission
	// Dispatch shows the notification. Errors are for the caller's log
	// only; no dispatch failure is ever escalated to the user.
	Dispatch(ctx context.Context, n Notification) error
	Close() error
}
