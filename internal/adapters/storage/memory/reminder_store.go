package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

func (s *Store) CreateReminder(
	_ context.Context,
	text string,
	triggerAt time.Time,
	conversationID domain.ConversationID,
) (*domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}

	rem := &domain.Reminder{
		ID:             domain.ReminderID(s.newID()),
		ConversationID: conversationID,
		Text:           text,
		TriggerAt:      triggerAt,
		CreatedAt:      s.now(),
	}
	s.reminders = append(s.reminders, rem)

	r := *rem
	return &r, nil
}

func (s *Store) ListDueReminders(_ context.Context, now time.Time) ([]*domain.Reminder, error) {
	return s.filterReminders(func(r *domain.Reminder) bool {
		return !r.Processed && !r.TriggerAt.After(now)
	}, 0), nil
}

func (s *Store) ListPendingReminders(_ context.Context, limit int) ([]*domain.Reminder, error) {
	return s.filterReminders(func(r *domain.Reminder) bool {
		return !r.Processed
	}, limit), nil
}

func (s *Store) MarkProcessed(_ context.Context, ids []domain.ReminderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[domain.ReminderID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, r := range s.reminders {
		if want[r.ID] {
			r.Processed = true
		}
	}
	return nil
}

// filterReminders returns copies ordered by TriggerAt.
func (s *Store) filterReminders(keep func(*domain.Reminder) bool, limit int) []*domain.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Reminder
	for _, r := range s.reminders {
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TriggerAt.Before(out[j].TriggerAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) GetAppState(_ context.Context) (*domain.AppState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.appState
	return &st, nil
}

func (s *Store) SetAppState(_ context.Context, state domain.AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appState = state
	return nil
}

func (s *Store) GetPersona(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persona, nil
}

func (s *Store) SetPersona(_ context.Context, persona string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persona = persona
	return nil
}
