// Package dedup records which (medication, date, slot) notifications have
// already been delivered in the current session, so the reminder loop can
// guarantee at-most-once dispatch per key.
//
// Backings:
//   - memory: in-process set, cleared on restart (a fresh session starts clean)
//   - sqlite: survives an agent restart within the same login session
//
// The reminder loop is the only writer, so Seen-then-Mark is race-free by
// construction. The sqlite backing still serializes writers in case a
// future extension runs multiple loops.
package dedup
