package sqlite

import (
	"context"
	"fmt"
	"slices"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

func (s *Store) AppendMessage(
	ctx context.Context,
	conversationID domain.ConversationID,
	sender domain.Sender,
	text string,
) (*domain.Message, error) {
	now := s.now()
	msg := &domain.Message{
		ID:             domain.MessageID(s.newID(now)),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET last_message = ?, last_message_at = ? WHERE id = ?`,
		text, formatTime(now), string(conversationID))
	if err != nil {
		return nil, unavailable("bump conversation", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(msg.ID), string(conversationID), string(sender), text, formatTime(now))
	if err != nil {
		return nil, unavailable("insert message", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit message", err)
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID domain.ConversationID, limit int) ([]*domain.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	// newest N, flipped back to ascending below
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender, text, created_at FROM messages
		 WHERE conversation_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, string(conversationID), limit)
	if err != nil {
		return nil, unavailable("list messages", err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var id, sender, createdAt string
		m := &domain.Message{ConversationID: conversationID}
		if err := rows.Scan(&id, &sender, &m.Text, &createdAt); err != nil {
			return nil, unavailable("scan message", err)
		}
		m.ID = domain.MessageID(id)
		m.Sender = domain.Sender(sender)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, unavailable("scan message", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list messages", err)
	}

	slices.Reverse(out)
	return out, nil
}
