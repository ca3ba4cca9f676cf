package reminder

import "time"

// DefaultPollInterval is used when the configured interval is unset or
// non-positive.
const DefaultPollInterval = 10 * time.Second

// Config controls the loop. Interval changes applied via Apply() take
// effect on the next timer re-arm; an Enabled flip requires a Start/Stop
// from the caller.
type Config struct {
	Enabled      bool
	PollInterval time.Duration
}

// State is a read-only snapshot for status reporting.
type State struct {
	Running    bool
	LastTickAt time.Time
}

// Event types published on the bus.
const (
	EventFired      = "reminder.fired"
	EventFetchError = "reminder.fetch_error"
	EventBadSlot    = "reminder.bad_slot"
)

// FiredEvent is the payload of EventFired.
type FiredEvent struct {
	Key          string
	MedicationID string
	Name         string
}

// FetchErrorEvent is the payload of EventFetchError.
type FetchErrorEvent struct {
	Err string
}

// BadSlotEvent is the payload of EventBadSlot.
type BadSlotEvent struct {
	MedicationID string
	Raw          string
}
