// Package schedule parses medication dose times and decides which of them
// are due at a given moment.
//
// The backend stores dose times as a comma-delimited list of "HH:MM"
// strings (e.g. "08:00, 20:00"). A slot has no date component: it recurs
// every calendar day until the medication is edited or deleted.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-date component of a dedup key.
const DateLayout = "2006-01-02"

// Slot is a recurring daily wall-clock dose time.
type Slot struct {
	Hour   int // 0-23
	Minute int // 0-59
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// ParseSlots splits a raw times field into validated slots.
//
// Rules:
//   - split on ",", trim whitespace per piece
//   - a piece must be exactly "HH:MM" with zero-padded two-digit hour
//     (00-23) and minute (00-59)
//   - malformed pieces are returned separately so the caller can report
//     them; they never fail the whole medication
//   - duplicates collapse to one slot
//
// The returned slots are sorted ascending so evaluation order is stable.
func ParseSlots(raw string) (slots []Slot, malformed []string) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	seen := make(map[Slot]struct{}, 4)
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		s, ok := parseSlot(piece)
		if !ok {
			malformed = append(malformed, piece)
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		slots = append(slots, s)
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Hour != slots[j].Hour {
			return slots[i].Hour < slots[j].Hour
		}
		return slots[i].Minute < slots[j].Minute
	})
	return slots, malformed
}

// parseSlot accepts exactly the "HH:MM" shape. No leeway for "8:00" or
// trailing garbage: the web client's time inputs always emit zero-padded
// values, so anything else is corrupt data.
func parseSlot(s string) (Slot, bool) {
	if len(s) != 5 || s[2] != ':' {
		return Slot{}, false
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return Slot{}, false
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return Slot{}, false
	}
	return Slot{Hour: h, Minute: m}, true
}

// DueAt returns the slots whose (hour, minute) equal now's local (hour,
// minute), along with now's calendar date. Midnight rollover needs no
// special casing because the date is taken from now at evaluation time.
func DueAt(now time.Time, slots []Slot) (day string, due []Slot) {
	day = now.Format(DateLayout)
	h, m := now.Hour(), now.Minute()
	for _, s := range slots {
		if s.Hour == h && s.Minute == m {
			due = append(due, s)
		}
	}
	return day, due
}

// Key builds the deterministic dedup key for one delivered dose:
// "<medicationID>|<YYYY-MM-DD>|<HH:MM>". Two keys are equal iff all three
// components are equal.
func Key(medicationID, day string, s Slot) string {
	return medicationID + "|" + day + "|" + s.String()
}
