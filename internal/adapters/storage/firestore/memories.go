package firestore

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/ids"
	"github.com/PabloGalante/noto-agent/internal/textfold"
)

// ─────────────────────────────────────────
// MemoryStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateMemory(ctx context.Context, summary, category string) (*domain.Memory, error) {
	now := s.now()
	mem := &domain.Memory{
		ID:        domain.MemoryID(ids.NewAt(now)),
		Summary:   summary,
		Category:  domain.NormalizeCategory(category),
		CreatedAt: now,
	}

	_, err := s.col("memories").Doc(string(mem.ID)).Create(ctx, memoryDoc{
		Summary:   mem.Summary,
		Category:  mem.Category,
		CreatedAt: now,
	})
	if err != nil {
		return nil, unavailable("CreateMemory", err)
	}
	return mem, nil
}

// SearchMemories filters the category server side and matches text in
// process; Firestore has no substring queries.
func (s *Store) SearchMemories(ctx context.Context, q domain.MemoryQuery) ([]*domain.Memory, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	query := s.col("memories").Query
	if strings.TrimSpace(q.Category) != "" {
		query = query.Where("category", "==", domain.NormalizeCategory(q.Category))
	}

	all, err := collect(query.Documents(ctx), decodeMemory)
	if err != nil {
		return nil, unavailable("SearchMemories", err)
	}
	// ULID ids break ties between equal timestamps
	slices.SortFunc(all, func(a, b *domain.Memory) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(b.ID), string(a.ID))
	})

	needle := textfold.Fold(strings.TrimSpace(q.Query))
	var out []*domain.Memory
	for _, m := range all {
		if len(out) == limit {
			break
		}
		if needle != "" && !strings.Contains(textfold.Fold(m.Summary), needle) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ─────────────────────────────────────────
// NoteStore implementation
// ─────────────────────────────────────────

// SaveNote creates the memory and reminder documents and clears the
// conversation's pending state in one transaction.
func (s *Store) SaveNote(ctx context.Context, note domain.NewNote) (*domain.Memory, *domain.Reminder, error) {
	now := s.now()
	mem := &domain.Memory{
		ID:        domain.MemoryID(ids.NewAt(now)),
		Summary:   note.Summary,
		Category:  domain.NormalizeCategory(note.Category),
		CreatedAt: now,
	}
	var rem *domain.Reminder
	if r := note.Reminder; r != nil {
		rem = &domain.Reminder{
			ID:             domain.ReminderID(ids.NewAt(now)),
			ConversationID: note.ConversationID,
			Text:           r.Text,
			TriggerAt:      r.TriggerAt,
			CreatedAt:      now,
		}
	}

	convRef := s.conversationDoc(note.ConversationID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(convRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return notFound(note.ConversationID)
			}
			return err
		}
		if err := tx.Create(s.col("memories").Doc(string(mem.ID)), memoryDoc{
			Summary:   mem.Summary,
			Category:  mem.Category,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if rem != nil {
			if err := tx.Create(s.col("reminders").Doc(string(rem.ID)), reminderDoc{
				ConversationID: string(rem.ConversationID),
				Text:           rem.Text,
				TriggerAt:      rem.TriggerAt,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}
		return tx.Update(convRef, []firestore.Update{
			{Path: "pending", Value: string(domain.PendingNone)},
			{Path: "pending_statement", Value: ""},
		})
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	if err != nil {
		return nil, nil, unavailable("SaveNote", err)
	}
	return mem, rem, nil
}

// ─────────────────────────────────────────
// ReminderStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateReminder(
	ctx context.Context,
	text string,
	triggerAt time.Time,
	conversationID domain.ConversationID,
) (*domain.Reminder, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	now := s.now()
	rem := &domain.Reminder{
		ID:             domain.ReminderID(ids.NewAt(now)),
		ConversationID: conversationID,
		Text:           text,
		TriggerAt:      triggerAt,
		CreatedAt:      now,
	}
	_, err := s.col("reminders").Doc(string(rem.ID)).Create(ctx, reminderDoc{
		ConversationID: string(conversationID),
		Text:           text,
		TriggerAt:      triggerAt,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, unavailable("CreateReminder", err)
	}
	return rem, nil
}

func (s *Store) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	pending, err := s.pendingReminders(ctx)
	if err != nil {
		return nil, unavailable("ListDueReminders", err)
	}
	return slices.DeleteFunc(pending, func(r *domain.Reminder) bool {
		return r.TriggerAt.After(now)
	}), nil
}

func (s *Store) ListPendingReminders(ctx context.Context, limit int) ([]*domain.Reminder, error) {
	pending, err := s.pendingReminders(ctx)
	if err != nil {
		return nil, unavailable("ListPendingReminders", err)
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// pendingReminders avoids a composite index by sorting in process.
func (s *Store) pendingReminders(ctx context.Context) ([]*domain.Reminder, error) {
	iter := s.col("reminders").Where("processed", "==", false).Documents(ctx)
	out, err := collect(iter, decodeReminder)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b *domain.Reminder) int {
		return a.TriggerAt.Compare(b.TriggerAt)
	})
	return out, nil
}

func (s *Store) MarkProcessed(ctx context.Context, reminderIDs []domain.ReminderID) error {
	if len(reminderIDs) == 0 {
		return nil
	}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, id := range reminderIDs {
			ref := s.col("reminders").Doc(string(id))
			if err := tx.Update(ref, []firestore.Update{{Path: "processed", Value: true}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("MarkProcessed", err)
	}
	return nil
}

// ─────────────────────────────────────────
// AppStateStore implementation
// ─────────────────────────────────────────

func (s *Store) GetAppState(ctx context.Context) (*domain.AppState, error) {
	snap, err := s.appStateDoc().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return &domain.AppState{}, nil
	}
	if err != nil {
		return nil, unavailable("GetAppState", err)
	}

	var doc appStateDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, unavailable("GetAppState decode", err)
	}
	return &domain.AppState{
		LastProactiveMessageAt:     doc.LastProactiveMessageAt,
		LastProactiveIntervalHours: doc.LastProactiveIntervalHours,
	}, nil
}

func (s *Store) SetAppState(ctx context.Context, state domain.AppState) error {
	_, err := s.appStateDoc().Set(ctx, appStateDoc{
		LastProactiveMessageAt:     state.LastProactiveMessageAt,
		LastProactiveIntervalHours: state.LastProactiveIntervalHours,
	})
	if err != nil {
		return unavailable("SetAppState", err)
	}
	return nil
}

func (s *Store) GetPersona(ctx context.Context) (string, error) {
	snap, err := s.personaDoc().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", nil
	}
	if err != nil {
		return "", unavailable("GetPersona", err)
	}

	var doc personaDoc
	if err := snap.DataTo(&doc); err != nil {
		return "", unavailable("GetPersona decode", err)
	}
	return doc.Text, nil
}

func (s *Store) SetPersona(ctx context.Context, persona string) error {
	if _, err := s.personaDoc().Set(ctx, personaDoc{Text: persona}); err != nil {
		return unavailable("SetPersona", err)
	}
	return nil
}
