package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"medagent/internal/medstore"
	"medagent/internal/notify"
	"medagent/internal/schedule"
	"medagent/pkg/logx"
)

// runTick is one evaluation pass. It gates on session and notification
// permission, fetches the medication list, and fires every due slot that
// has not been recorded yet. The fired key is recorded before dispatch,
// so a dispatch failure never causes a duplicate later.
func (s *Service) runTick(ctx context.Context) {
	now := s.d.Clock.Now()
	defer func() {
		s.mu.Lock()
		s.lastTickAt = now
		s.mu.Unlock()
	}()

	token, err := s.d.Session.Token(ctx)
	if err != nil {
		s.d.Log.Warn("session token unavailable", logx.Err(err))
		return
	}
	if token == "" {
		s.noteSkip("no active session")
		return
	}

	if perm := s.d.Dispatcher.Permission(ctx); perm != notify.PermissionGranted {
		s.noteSkip("notification permission " + perm.String())
		return
	}
	s.noteSkip("")

	meds, err := s.d.Meds.List(ctx, token)
	if err != nil {
		if errors.Is(err, medstore.ErrUnauthorized) {
			s.d.Log.Warn("session rejected by backend, will retry")
		} else {
			s.d.Log.Warn("medication fetch failed, will retry", logx.Err(err))
		}
		s.publish(EventFetchError, FetchErrorEvent{Err: err.Error()})
		return
	}

	for _, med := range meds {
		s.evaluate(ctx, med, now)
	}
}

func (s *Service) evaluate(ctx context.Context, med medstore.Medication, now time.Time) {
	slots, malformed := schedule.ParseSlots(med.TimesRaw)
	for _, bad := range malformed {
		s.d.Log.Warn("malformed dose slot skipped",
			logx.String("medication_id", string(med.ID)),
			logx.String("name", med.Name),
			logx.String("slot", bad))
		s.publish(EventBadSlot, BadSlotEvent{MedicationID: string(med.ID), Raw: bad})
	}

	day, due := schedule.DueAt(now, slots)
	for _, slot := range due {
		key := schedule.Key(string(med.ID), day, slot)

		seen, err := s.d.Dedup.Seen(ctx, key)
		if err != nil {
			s.d.Log.Error("dedup lookup failed, withholding dispatch",
				logx.String("key", key), logx.Err(err))
			continue
		}
		if seen {
			continue
		}
		if err := s.d.Dedup.Mark(ctx, key, day); err != nil {
			s.d.Log.Error("dedup record failed, withholding dispatch",
				logx.String("key", key), logx.Err(err))
			continue
		}

		n := buildNotification(med, key)
		if err := s.d.Dispatcher.Dispatch(ctx, n); err != nil {
			s.d.Log.Warn("notification dispatch failed",
				logx.String("key", key), logx.Err(err))
		}
		s.publish(EventFired, FiredEvent{
			Key:          key,
			MedicationID: string(med.ID),
			Name:         med.Name,
		})
		s.d.Log.Info("reminder fired",
			logx.String("key", key), logx.String("name", med.Name))
	}
}

func buildNotification(med medstore.Medication, key string) notify.Notification {
	var parts []string
	if med.Dosage != "" {
		parts = append(parts, med.Dosage)
	}
	if med.Quantity != "" {
		parts = append(parts, med.Quantity)
	}
	body := strings.Join(parts, " - ")
	if med.Notes != "" {
		if body != "" {
			body += "\n"
		}
		body += med.Notes
	}
	return notify.Notification{
		Title: "Time to take " + med.Name,
		Body:  body,
		Key:   key,
	}
}
