// Package memories is the read side of saved notes and reminders.
package memories

import (
	"context"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// Service holds the logic of reading memories and reminders
type Service struct {
	memories  domain.MemoryStore
	reminders domain.ReminderStore
}

// NewService creates a memories service from the two stores
func NewService(memories domain.MemoryStore, reminders domain.ReminderStore) *Service {
	return &Service{
		memories:  memories,
		reminders: reminders,
	}
}

// Search returns memories matching query, newest first.
// An empty query lists the most recent ones; limit <= 0 uses the default page size.
func (s *Service) Search(ctx context.Context, query, category string, limit int) ([]*domain.Memory, error) {
	if limit <= 0 || limit > domain.DefaultSearchLimit {
		limit = domain.DefaultSearchLimit
	}
	mems, err := s.memories.SearchMemories(ctx, domain.MemoryQuery{
		Query:    query,
		Category: category,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	if mems == nil {
		mems = []*domain.Memory{}
	}
	return mems, nil
}

// UpcomingReminders returns unprocessed reminders, soonest first.
func (s *Service) UpcomingReminders(ctx context.Context, limit int) ([]*domain.Reminder, error) {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	rems, err := s.reminders.ListPendingReminders(ctx, limit)
	if err != nil {
		return nil, err
	}
	if rems == nil {
		rems = []*domain.Reminder{}
	}
	return rems, nil
}
