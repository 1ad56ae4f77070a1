package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/textfold"
)

func (s *Store) GetOrCreateConversation(_ context.Context, category string) (*domain.Conversation, error) {
	title := domain.NormalizeCategory(category)
	key := textfold.Fold(title)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byCategory[key]; ok {
		c := *s.conversations[id]
		return &c, nil
	}

	now := s.now()
	conv := &domain.Conversation{
		ID:            domain.ConversationID(s.newID()),
		Title:         title,
		LastMessage:   domain.ConversationCreatedText(title),
		LastMessageAt: now,
		Pinned:        title == domain.DefaultCategory,
		CreatedAt:     now,
	}
	s.conversations[conv.ID] = conv
	s.byCategory[key] = conv.ID

	c := *conv
	return &c, nil
}

func (s *Store) GetConversation(_ context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	c := *conv
	return &c, nil
}

func (s *Store) ListConversations(_ context.Context) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		c := *conv
		out = append(out, &c)
	}
	sortConversations(out)
	return out, nil
}

func (s *Store) SetPending(_ context.Context, id domain.ConversationID, state domain.PendingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	conv.Pending = state.Pending
	conv.PendingStatement = state.Statement
	return nil
}

// sortConversations puts pinned conversations first, then most recent activity.
func sortConversations(convs []*domain.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].Pinned != convs[j].Pinned {
			return convs[i].Pinned
		}
		return convs[i].LastMessageAt.After(convs[j].LastMessageAt)
	})
}
