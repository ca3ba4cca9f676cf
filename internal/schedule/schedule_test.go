package schedule

import (
	"testing"
	"time"
)

func TestParseSlotsVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		raw       string
		slots     []Slot
		malformed []string
	}{
		{name: "single", raw: "08:00", slots: []Slot{{8, 0}}},
		{name: "two with space", raw: "08:00, 20:00", slots: []Slot{{8, 0}, {20, 0}}},
		{name: "unsorted input", raw: "20:00,08:00", slots: []Slot{{8, 0}, {20, 0}}},
		{name: "duplicates collapse", raw: "08:00,08:00,20:00", slots: []Slot{{8, 0}, {20, 0}}},
		{name: "bad slot skipped", raw: "08:00, 25:99, 20:00", slots: []Slot{{8, 0}, {20, 0}}, malformed: []string{"25:99"}},
		{name: "not zero padded", raw: "8:00", malformed: []string{"8:00"}},
		{name: "minute out of range", raw: "12:60", malformed: []string{"12:60"}},
		{name: "garbage", raw: "soon", malformed: []string{"soon"}},
		{name: "empty", raw: ""},
		{name: "only commas", raw: " , ,"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			slots, malformed := ParseSlots(tt.raw)
			if len(slots) != len(tt.slots) {
				t.Fatalf("slots = %v, want %v", slots, tt.slots)
			}
			for i := range slots {
				if slots[i] != tt.slots[i] {
					t.Fatalf("slots[%d] = %v, want %v", i, slots[i], tt.slots[i])
				}
			}
			if len(malformed) != len(tt.malformed) {
				t.Fatalf("malformed = %v, want %v", malformed, tt.malformed)
			}
			for i := range malformed {
				if malformed[i] != tt.malformed[i] {
					t.Fatalf("malformed[%d] = %q, want %q", i, malformed[i], tt.malformed[i])
				}
			}
		})
	}
}

func TestDueAtExactMinute(t *testing.T) {
	t.Parallel()
	slots, _ := ParseSlots("08:00")

	// Step minute-by-minute across the slot; only 08:00 may match.
	for _, min := range []int{58, 59, 60, 61, 62} {
		now := time.Date(2024, 1, 1, 7, 0, 30, 0, time.Local).Add(time.Duration(min) * time.Minute)
		day, due := DueAt(now, slots)
		if day != "2024-01-01" {
			t.Fatalf("day = %q, want 2024-01-01", day)
		}
		wantDue := now.Hour() == 8 && now.Minute() == 0
		if (len(due) == 1) != wantDue {
			t.Fatalf("at %s: due = %v, want match=%v", now.Format("15:04"), due, wantDue)
		}
	}
}

func TestDueAtMidnightRollover(t *testing.T) {
	t.Parallel()
	slots := []Slot{{0, 0}}
	now := time.Date(2024, 1, 2, 0, 0, 5, 0, time.Local)
	day, due := DueAt(now, slots)
	if day != "2024-01-02" {
		t.Fatalf("day = %q, want the new calendar date", day)
	}
	if len(due) != 1 {
		t.Fatalf("due = %v, want the midnight slot", due)
	}
}

func TestKeyFormat(t *testing.T) {
	t.Parallel()
	got := Key("m1", "2024-01-01", Slot{8, 0})
	if got != "m1|2024-01-01|08:00" {
		t.Fatalf("Key = %q", got)
	}
	if Key("m1", "2024-01-01", Slot{20, 0}) == got {
		t.Fatal("distinct slots must yield distinct keys")
	}
}
