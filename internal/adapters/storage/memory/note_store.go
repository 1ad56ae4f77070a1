package memory

import (
	"context"
	"fmt"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// SaveNote applies the whole note under one lock.
func (s *Store) SaveNote(_ context.Context, note domain.NewNote) (*domain.Memory, *domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[note.ConversationID]
	if !ok {
		return nil, nil, fmt.Errorf("conversation %s: %w", note.ConversationID, domain.ErrNotFound)
	}

	now := s.now()
	mem := &domain.Memory{
		ID:        domain.MemoryID(s.newID()),
		Summary:   note.Summary,
		Category:  domain.NormalizeCategory(note.Category),
		CreatedAt: now,
	}
	s.memories = append(s.memories, mem)
	m := *mem

	var out *domain.Reminder
	if r := note.Reminder; r != nil {
		rem := &domain.Reminder{
			ID:             domain.ReminderID(s.newID()),
			ConversationID: note.ConversationID,
			Text:           r.Text,
			TriggerAt:      r.TriggerAt,
			CreatedAt:      now,
		}
		s.reminders = append(s.reminders, rem)
		c := *rem
		out = &c
	}

	conv.Pending = domain.PendingNone
	conv.PendingStatement = ""
	return &m, out, nil
}
