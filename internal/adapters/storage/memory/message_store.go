package memory

import (
	"context"
	"fmt"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

func (s *Store) AppendMessage(
	_ context.Context,
	conversationID domain.ConversationID,
	sender domain.Sender,
	text string,
) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}

	now := s.now()
	msg := &domain.Message{
		ID:             domain.MessageID(s.newID()),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      now,
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)

	conv.LastMessage = text
	conv.LastMessageAt = now

	m := *msg
	return &m, nil
}

func (s *Store) ListMessages(_ context.Context, conversationID domain.ConversationID, limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}

	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}
