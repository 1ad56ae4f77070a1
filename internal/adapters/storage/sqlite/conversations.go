package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/textfold"
)

const conversationColumns = `id, title, last_message, last_message_at, pinned, created_at, pending, pending_statement`

func (s *Store) GetOrCreateConversation(ctx context.Context, category string) (*domain.Conversation, error) {
	title := domain.NormalizeCategory(category)
	key := textfold.Fold(title)
	now := s.now()
	pinned := 0
	if title == domain.DefaultCategory {
		pinned = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, category_key, title, last_message, last_message_at, pinned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(category_key) DO NOTHING`,
		s.newID(now), key, title, domain.ConversationCreatedText(title),
		formatTime(now), pinned, formatTime(now))
	if err != nil {
		return nil, unavailable("insert conversation", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE category_key = ?`, key)
	conv, err := scanConversation(row)
	if err != nil {
		return nil, unavailable("load conversation", err)
	}
	return conv, nil
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, string(id))
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("get conversation", err)
	}
	return conv, nil
}

func (s *Store) ListConversations(ctx context.Context) ([]*domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 ORDER BY pinned DESC, last_message_at DESC, rowid DESC`)
	if err != nil {
		return nil, unavailable("list conversations", err)
	}
	defer rows.Close()

	var out []*domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, unavailable("scan conversation", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list conversations", err)
	}
	return out, nil
}

func (s *Store) SetPending(ctx context.Context, id domain.ConversationID, state domain.PendingState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET pending = ?, pending_statement = ? WHERE id = ?`,
		string(state.Pending), state.Statement, string(id))
	if err != nil {
		return unavailable("set pending", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanConversation(sc scanner) (*domain.Conversation, error) {
	var (
		c                 domain.Conversation
		id, pending       string
		lastAt, createdAt string
	)
	if err := sc.Scan(&id, &c.Title, &c.LastMessage, &lastAt, &c.Pinned, &createdAt, &pending, &c.PendingStatement); err != nil {
		return nil, err
	}
	c.ID = domain.ConversationID(id)
	c.Pending = domain.PendingClarification(pending)

	var err error
	if c.LastMessageAt, err = parseTime(lastAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}
