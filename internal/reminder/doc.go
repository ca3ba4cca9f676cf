// Package reminder runs the medication reminder loop.
//
// On a fixed period it fetches the medication list, matches each parsed
// dose slot against the current minute, and dispatches a notification for
// every due slot that has not fired yet this session. The timer is
// re-armed only after a tick settles, so ticks never overlap and the
// dedup check-then-record pattern is race-free by construction.
//
// The Service is also the lifecycle gate: ticks are skipped while no user
// session exists or notification permission is not granted, and Start()/
// Stop() are idempotent.
package reminder
