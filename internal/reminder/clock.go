package reminder

import "time"

// Clock abstracts wall time so tick matching is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
