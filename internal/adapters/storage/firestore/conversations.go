package firestore

import (
	"context"
	"errors"
	"slices"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/ids"
)

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) GetOrCreateConversation(ctx context.Context, category string) (*domain.Conversation, error) {
	title := domain.NormalizeCategory(category)
	id := conversationID(title)
	now := s.now()

	doc := conversationDoc{
		Title:         title,
		LastMessage:   domain.ConversationCreatedText(title),
		LastMessageAt: now,
		Pinned:        title == domain.DefaultCategory,
		CreatedAt:     now,
	}
	_, err := s.conversationDoc(id).Create(ctx, doc)
	switch {
	case err == nil:
		return &domain.Conversation{
			ID:            id,
			Title:         doc.Title,
			LastMessage:   doc.LastMessage,
			LastMessageAt: doc.LastMessageAt,
			Pinned:        doc.Pinned,
			CreatedAt:     doc.CreatedAt,
		}, nil
	case status.Code(err) == codes.AlreadyExists:
		return s.GetConversation(ctx, id)
	default:
		return nil, unavailable("GetOrCreateConversation", err)
	}
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	snap, err := s.conversationDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notFound(id)
		}
		return nil, unavailable("GetConversation", err)
	}
	conv, err := decodeConversation(snap)
	if err != nil {
		return nil, unavailable("GetConversation", err)
	}
	return conv, nil
}

func (s *Store) ListConversations(ctx context.Context) ([]*domain.Conversation, error) {
	iter := s.col("conversations").OrderBy("last_message_at", firestore.Desc).Documents(ctx)
	out, err := collect(iter, decodeConversation)
	if err != nil {
		return nil, unavailable("ListConversations", err)
	}
	// stable: pinned first, recency order kept within each group
	slices.SortStableFunc(out, func(a, b *domain.Conversation) int {
		switch {
		case a.Pinned == b.Pinned:
			return 0
		case a.Pinned:
			return -1
		default:
			return 1
		}
	})
	return out, nil
}

func (s *Store) SetPending(ctx context.Context, id domain.ConversationID, state domain.PendingState) error {
	_, err := s.conversationDoc(id).Update(ctx, []firestore.Update{
		{Path: "pending", Value: string(state.Pending)},
		{Path: "pending_statement", Value: state.Statement},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return notFound(id)
		}
		return unavailable("SetPending", err)
	}
	return nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(
	ctx context.Context,
	conversationID domain.ConversationID,
	sender domain.Sender,
	text string,
) (*domain.Message, error) {
	now := s.now()
	msg := &domain.Message{
		ID:             domain.MessageID(ids.NewAt(now)),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      now,
	}

	convRef := s.conversationDoc(conversationID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(convRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return notFound(conversationID)
			}
			return err
		}
		if err := tx.Create(s.messagesCol(conversationID).Doc(string(msg.ID)), messageDoc{
			Sender:    string(sender),
			Text:      text,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.Update(convRef, []firestore.Update{
			{Path: "last_message", Value: text},
			{Path: "last_message_at", Value: now},
		})
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, unavailable("AppendMessage", err)
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID domain.ConversationID, limit int) ([]*domain.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	q := s.messagesCol(conversationID).
		OrderBy("created_at", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	out, err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) (*domain.Message, error) {
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		return &domain.Message{
			ID:             domain.MessageID(snap.Ref.ID),
			ConversationID: conversationID,
			Sender:         domain.Sender(doc.Sender),
			Text:           doc.Text,
			CreatedAt:      doc.CreatedAt,
		}, nil
	})
	if err != nil {
		return nil, unavailable("ListMessages", err)
	}
	slices.Reverse(out)
	return out, nil
}
